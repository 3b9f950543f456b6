package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// DefaultLanguage is the fallback language for all multilingual content.
const DefaultLanguage = "en"

// LocalizedKind identifies which persisted shape a LocalizedValue carries.
// Content rows were written by different generations of the authoring
// pipeline, so a single field may be a flat value, a language-keyed map,
// or an array whose elements are themselves language-keyed.
type LocalizedKind int

const (
	LocalizedEmpty LocalizedKind = iota
	LocalizedScalar
	LocalizedMap
	LocalizedArray
)

// LocalizedString is a single text element that is either plain text or a
// language-keyed map. Plain text is treated as English-only content.
type LocalizedString struct {
	Text   string
	ByLang map[string]string
}

// IsZero reports whether the element carries no content at all.
func (s LocalizedString) IsZero() bool {
	return s.Text == "" && len(s.ByLang) == 0
}

// In returns the element's text for lang. Plain text matches only the
// default language; tagged elements fall through lang -> en.
func (s LocalizedString) In(lang string) (string, bool) {
	if len(s.ByLang) > 0 {
		if v, ok := s.ByLang[lang]; ok && v != "" {
			return v, true
		}
		if v, ok := s.ByLang[DefaultLanguage]; ok && v != "" {
			return v, true
		}
		return "", false
	}
	if s.Text != "" {
		return s.Text, true
	}
	return "", false
}

// HasLang reports whether the element has non-empty content tagged with lang.
func (s LocalizedString) HasLang(lang string) bool {
	v, ok := s.ByLang[lang]
	return ok && v != ""
}

// MarshalJSON re-emits the element in its original shape.
func (s LocalizedString) MarshalJSON() ([]byte, error) {
	if len(s.ByLang) > 0 {
		return json.Marshal(s.ByLang)
	}
	return json.Marshal(s.Text)
}

// UnmarshalJSON accepts either a JSON string or a language-keyed object.
func (s *LocalizedString) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*s = LocalizedString{Text: text}
		return nil
	}
	var byLang map[string]string
	if err := json.Unmarshal(data, &byLang); err == nil {
		*s = LocalizedString{ByLang: byLang}
		return nil
	}
	return fmt.Errorf("localized string: unsupported shape %s", truncateJSON(data))
}

// LocalizedValue is the tagged variant for a multilingual content field.
// It is decoded once at the store boundary so that everything above the
// repositories works over a single normalized type instead of re-discovering
// the persisted shape on every access.
type LocalizedValue struct {
	kind   LocalizedKind
	scalar string
	byLang map[string][]string
	elems  []LocalizedString
}

// Constructors used by the importer, repositories and tests.

// NewScalar builds a flat single-text value.
func NewScalar(text string) LocalizedValue {
	if text == "" {
		return LocalizedValue{}
	}
	return LocalizedValue{kind: LocalizedScalar, scalar: text}
}

// NewLocalizedMap builds a language-keyed value. Each language maps to one
// or more strings.
func NewLocalizedMap(byLang map[string][]string) LocalizedValue {
	if len(byLang) == 0 {
		return LocalizedValue{}
	}
	return LocalizedValue{kind: LocalizedMap, byLang: byLang}
}

// NewLocalizedArray builds an array value from its elements.
func NewLocalizedArray(elems []LocalizedString) LocalizedValue {
	if len(elems) == 0 {
		return LocalizedValue{}
	}
	return LocalizedValue{kind: LocalizedArray, elems: elems}
}

// NewStringArray builds a plain (untagged) array value.
func NewStringArray(items []string) LocalizedValue {
	elems := make([]LocalizedString, 0, len(items))
	for _, it := range items {
		elems = append(elems, LocalizedString{Text: it})
	}
	return NewLocalizedArray(elems)
}

// Kind returns the normalized shape tag.
func (v LocalizedValue) Kind() LocalizedKind { return v.kind }

// IsEmpty reports whether the value carries no content.
func (v LocalizedValue) IsEmpty() bool { return v.kind == LocalizedEmpty }

// Scalar returns the flat text for scalar values.
func (v LocalizedValue) Scalar() string { return v.scalar }

// Elements returns the array elements for array values.
func (v LocalizedValue) Elements() []LocalizedString { return v.elems }

// ForLang returns the map entry for lang on map values.
func (v LocalizedValue) ForLang(lang string) ([]string, bool) {
	if v.kind != LocalizedMap {
		return nil, false
	}
	vals, ok := v.byLang[lang]
	if !ok || len(vals) == 0 {
		return nil, false
	}
	return vals, true
}

// HasLang reports whether the value has non-empty content explicitly tagged
// with lang. Plain scalars and plain array elements are never considered
// tagged: they are legacy English-only rows.
func (v LocalizedValue) HasLang(lang string) bool {
	switch v.kind {
	case LocalizedMap:
		vals, ok := v.byLang[lang]
		return ok && len(vals) > 0 && vals[0] != ""
	case LocalizedArray:
		for _, el := range v.elems {
			if el.HasLang(lang) {
				return true
			}
		}
	}
	return false
}

// Languages lists the language tags present in the value, sorted.
func (v LocalizedValue) Languages() []string {
	seen := map[string]struct{}{}
	switch v.kind {
	case LocalizedMap:
		for lang := range v.byLang {
			seen[lang] = struct{}{}
		}
	case LocalizedArray:
		for _, el := range v.elems {
			for lang := range el.ByLang {
				seen[lang] = struct{}{}
			}
		}
	}
	langs := make([]string, 0, len(seen))
	for lang := range seen {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// MarshalJSON re-emits the value in its original persisted shape, so writing
// a row back never migrates its schema.
func (v LocalizedValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case LocalizedScalar:
		return json.Marshal(v.scalar)
	case LocalizedMap:
		out := make(map[string]any, len(v.byLang))
		for lang, vals := range v.byLang {
			if len(vals) == 1 {
				out[lang] = vals[0]
			} else {
				out[lang] = vals
			}
		}
		return json.Marshal(out)
	case LocalizedArray:
		return json.Marshal(v.elems)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes any of the three persisted shapes. null and empty
// containers decode to the empty value.
func (v *LocalizedValue) UnmarshalJSON(data []byte) error {
	var probe any
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	switch raw := probe.(type) {
	case nil:
		*v = LocalizedValue{}
		return nil
	case string:
		*v = NewScalar(raw)
		return nil
	case []any:
		var elems []LocalizedString
		if err := json.Unmarshal(data, &elems); err != nil {
			return err
		}
		*v = NewLocalizedArray(elems)
		return nil
	case map[string]any:
		byLang := make(map[string][]string, len(raw))
		for lang, entry := range raw {
			switch val := entry.(type) {
			case string:
				if val != "" {
					byLang[lang] = []string{val}
				}
			case []any:
				items := make([]string, 0, len(val))
				for _, it := range val {
					s, ok := it.(string)
					if !ok {
						return fmt.Errorf("localized map %q: non-string array item", lang)
					}
					items = append(items, s)
				}
				if len(items) > 0 {
					byLang[lang] = items
				}
			default:
				return fmt.Errorf("localized map %q: unsupported value type %T", lang, entry)
			}
		}
		*v = NewLocalizedMap(byLang)
		return nil
	default:
		return fmt.Errorf("localized value: unsupported shape %s", truncateJSON(data))
	}
}

func truncateJSON(data []byte) string {
	const max = 64
	if len(data) > max {
		return string(data[:max]) + "..."
	}
	return string(data)
}
