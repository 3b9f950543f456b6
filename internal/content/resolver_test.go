package content

import (
	"reflect"
	"testing"

	"github.com/pathwise/progression/internal/domain"
)

func scenarioWith(t *testing.T, objectives domain.LocalizedValue, tpl *domain.ScenarioTemplate) *domain.Scenario {
	t.Helper()
	return &domain.Scenario{
		Mode:       domain.ModeDiscovery,
		Status:     domain.ScenarioStatusActive,
		Objectives: objectives,
		Template:   tpl,
	}
}

func TestResolve_LanguageMap(t *testing.T) {
	r := NewResolver()
	s := scenarioWith(t, domain.NewLocalizedMap(map[string][]string{
		"en":   {"A", "B"},
		"zhTW": {"甲", "乙"},
	}), nil)

	if got := r.Resolve(s, domain.FieldObjectives, "zhTW"); !reflect.DeepEqual(got, []string{"甲", "乙"}) {
		t.Errorf("Resolve(zhTW) = %v", got)
	}
	if got := r.Resolve(s, domain.FieldObjectives, "ko"); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("Resolve(ko) = %v, want English fallback", got)
	}
}

func TestResolve_EmptyFieldFallsBackToTemplate(t *testing.T) {
	r := NewResolver()
	// Exact strings from an imported authoring template; they must come
	// back verbatim, no re-encoding.
	tplObjectives := []string{
		"體會晶片在生活中的無所不在與重要性",
		"以晶片的視角體驗資料處理流程",
		"理解晶片與AI運算的關係",
	}
	elems := make([]domain.LocalizedString, 0, len(tplObjectives))
	for _, o := range tplObjectives {
		elems = append(elems, domain.LocalizedString{ByLang: map[string]string{"zhTW": o}})
	}
	s := scenarioWith(t, domain.LocalizedValue{}, &domain.ScenarioTemplate{
		LearningObjectives: domain.NewLocalizedArray(elems),
	})

	got := r.Resolve(s, domain.FieldObjectives, "zhTW")
	if !reflect.DeepEqual(got, tplObjectives) {
		t.Errorf("Resolve(zhTW) = %v, want template strings verbatim", got)
	}
}

func TestResolve_PlainFieldUsedDirectlyForEnglish(t *testing.T) {
	r := NewResolver()
	s := scenarioWith(t, domain.NewStringArray([]string{"Understand chips"}), &domain.ScenarioTemplate{
		LearningObjectives: domain.NewLocalizedArray([]domain.LocalizedString{
			{ByLang: map[string]string{"en": "Template EN", "zhTW": "模板"}},
		}),
	})

	if got := r.Resolve(s, domain.FieldObjectives, "en"); !reflect.DeepEqual(got, []string{"Understand chips"}) {
		t.Errorf("Resolve(en) = %v, want the structured field", got)
	}
}

func TestResolve_TranslatedTemplateShadowsLegacyEnglishRow(t *testing.T) {
	r := NewResolver()
	s := scenarioWith(t, domain.NewStringArray([]string{"English only"}), &domain.ScenarioTemplate{
		LearningObjectives: domain.NewLocalizedArray([]domain.LocalizedString{
			{ByLang: map[string]string{"en": "English only", "zhTW": "完整翻譯"}},
		}),
	})

	if got := r.Resolve(s, domain.FieldObjectives, "zhTW"); !reflect.DeepEqual(got, []string{"完整翻譯"}) {
		t.Errorf("Resolve(zhTW) = %v, want translated template", got)
	}

	// Template without the requested language: keep the structured field.
	s.Template.LearningObjectives = domain.NewLocalizedArray([]domain.LocalizedString{
		{ByLang: map[string]string{"en": "English only"}},
	})
	if got := r.Resolve(s, domain.FieldObjectives, "zhTW"); !reflect.DeepEqual(got, []string{"English only"}) {
		t.Errorf("Resolve(zhTW) = %v, want structured field", got)
	}
}

func TestResolve_TaggedStructuredArrayWins(t *testing.T) {
	r := NewResolver()
	s := scenarioWith(t, domain.NewLocalizedArray([]domain.LocalizedString{
		{ByLang: map[string]string{"en": "DB EN", "zhTW": "資料庫"}},
	}), &domain.ScenarioTemplate{
		LearningObjectives: domain.NewLocalizedArray([]domain.LocalizedString{
			{ByLang: map[string]string{"zhTW": "模板"}},
		}),
	})

	if got := r.Resolve(s, domain.FieldObjectives, "zhTW"); !reflect.DeepEqual(got, []string{"資料庫"}) {
		t.Errorf("Resolve(zhTW) = %v, want the tagged structured field", got)
	}
}

func TestResolve_UnresolvableElementsDropped(t *testing.T) {
	r := NewResolver()
	s := scenarioWith(t, domain.LocalizedValue{}, &domain.ScenarioTemplate{
		LearningObjectives: domain.NewLocalizedArray([]domain.LocalizedString{
			{ByLang: map[string]string{"zhTW": "甲"}},
			{ByLang: map[string]string{"fr": "seulement"}}, // neither zhTW nor en
			{ByLang: map[string]string{"en": "B"}},
		}),
	})

	if got := r.Resolve(s, domain.FieldObjectives, "zhTW"); !reflect.DeepEqual(got, []string{"甲", "B"}) {
		t.Errorf("Resolve(zhTW) = %v, want unresolvable element dropped", got)
	}
}

func TestResolve_NothingResolvesToEmpty(t *testing.T) {
	r := NewResolver()
	s := scenarioWith(t, domain.LocalizedValue{}, nil)

	got := r.Resolve(s, domain.FieldObjectives, "zhTW")
	if got == nil || len(got) != 0 {
		t.Errorf("Resolve on empty scenario = %#v, want empty non-nil slice", got)
	}
	if text := r.ResolveText(s, domain.FieldTitle, "en"); text != "" {
		t.Errorf("ResolveText = %q, want empty string", text)
	}
}

func TestResolveText_ScalarField(t *testing.T) {
	r := NewResolver()
	s := &domain.Scenario{
		Title: domain.NewLocalizedMap(map[string][]string{
			"en":   {"AI in Daily Life"},
			"zhTW": {"生活中的AI"},
		}),
	}

	if got := r.ResolveText(s, domain.FieldTitle, "zhTW"); got != "生活中的AI" {
		t.Errorf("ResolveText(zhTW) = %q", got)
	}
	if got := r.ResolveText(s, domain.FieldTitle, "de"); got != "AI in Daily Life" {
		t.Errorf("ResolveText(de) = %q, want English fallback", got)
	}
}
