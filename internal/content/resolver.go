// Package content resolves multilingual scenario fields to a display
// language. Historical rows captured only English in the structured DB
// fields while the authoring templates later gained full translations, so
// resolution must surface template translations without regressing rows
// whose English content is already complete.
package content

import (
	"github.com/pathwise/progression/internal/domain"
)

// Resolver selects display text for scenario fields. It is stateless; the
// zero value is ready to use.
type Resolver struct{}

// NewResolver creates a new Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve returns the display strings for a scenario field in lang.
//
// Resolution order, first non-empty wins:
//  1. a language-keyed structured field answers for lang, else English
//  2. a plain structured field with content is used directly, unless the
//     caller asked for a non-English language and the scenario template
//     carries content tagged with that language
//  3. an empty structured field falls back to the template, selecting per
//     element (element language, then English, unresolvable elements dropped)
//  4. otherwise the result is empty, never an error
func (r *Resolver) Resolve(s *domain.Scenario, field domain.ScenarioField, lang string) []string {
	return r.resolveValue(s.Field(field), s.TemplateFallback(field), lang)
}

// ResolveText is Resolve for single-text fields; it returns the first
// resolved string or "".
func (r *Resolver) ResolveText(s *domain.Scenario, field domain.ScenarioField, lang string) string {
	vals := r.Resolve(s, field, lang)
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

func (r *Resolver) resolveValue(primary, fallback domain.LocalizedValue, lang string) []string {
	switch primary.Kind() {
	case domain.LocalizedMap:
		if vals, ok := primary.ForLang(lang); ok {
			return vals
		}
		if vals, ok := primary.ForLang(domain.DefaultLanguage); ok {
			return vals
		}
		return []string{}

	case domain.LocalizedScalar, domain.LocalizedArray:
		// The structured field itself may carry the requested language.
		if primary.HasLang(lang) {
			return selectItems(primary, lang)
		}
		// Legacy English-only row shadowing a translated template: prefer
		// the template when it actually has the caller's language.
		if lang != domain.DefaultLanguage && fallback.HasLang(lang) {
			return selectItems(fallback, lang)
		}
		return selectItems(primary, lang)

	default:
		if !fallback.IsEmpty() {
			return selectItems(fallback, lang)
		}
		return []string{}
	}
}

// selectItems flattens a value into display strings for lang. Array elements
// that resolve to neither lang nor English are dropped, not stringified.
func selectItems(v domain.LocalizedValue, lang string) []string {
	switch v.Kind() {
	case domain.LocalizedScalar:
		return []string{v.Scalar()}
	case domain.LocalizedMap:
		if vals, ok := v.ForLang(lang); ok {
			return vals
		}
		if vals, ok := v.ForLang(domain.DefaultLanguage); ok {
			return vals
		}
		return []string{}
	case domain.LocalizedArray:
		out := []string{}
		for _, el := range v.Elements() {
			if text, ok := el.In(lang); ok {
				out = append(out, text)
			}
		}
		return out
	default:
		return []string{}
	}
}
