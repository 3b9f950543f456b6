package domain

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestLocalizedValue_UnmarshalShapes(t *testing.T) {
	tests := []struct {
		name string
		json string
		kind LocalizedKind
	}{
		{"null", `null`, LocalizedEmpty},
		{"flat string", `"Intro to Chips"`, LocalizedScalar},
		{"empty string", `""`, LocalizedEmpty},
		{"language map", `{"en":"Hello","zhTW":"你好"}`, LocalizedMap},
		{"language map of arrays", `{"en":["A","B"],"zhTW":["甲","乙"]}`, LocalizedMap},
		{"plain array", `["A","B"]`, LocalizedArray},
		{"empty array", `[]`, LocalizedEmpty},
		{"array of maps", `[{"en":"A","zhTW":"甲"},{"en":"B"}]`, LocalizedArray},
		{"mixed array", `["plain",{"en":"tagged","ko":"태그"}]`, LocalizedArray},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v LocalizedValue
			if err := json.Unmarshal([]byte(tt.json), &v); err != nil {
				t.Fatalf("Unmarshal(%s) error = %v", tt.json, err)
			}
			if v.Kind() != tt.kind {
				t.Errorf("Kind() = %v, want %v", v.Kind(), tt.kind)
			}
		})
	}
}

func TestLocalizedValue_UnmarshalRejectsBadShapes(t *testing.T) {
	tests := []string{
		`42`,
		`{"en":42}`,
		`{"en":[1,2]}`,
	}
	for _, raw := range tests {
		var v LocalizedValue
		if err := json.Unmarshal([]byte(raw), &v); err == nil {
			t.Errorf("Unmarshal(%s) expected error, got kind %v", raw, v.Kind())
		}
	}
}

func TestLocalizedValue_RoundTripPreservesShape(t *testing.T) {
	tests := []string{
		`"flat"`,
		`{"en":"Hello","zhTW":"你好"}`,
		`{"en":["A","B"]}`,
		`["A","B"]`,
		`[{"en":"A","zhTW":"甲"},"B"]`,
	}

	for _, raw := range tests {
		var v LocalizedValue
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", raw, err)
		}
		out, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("Marshal error = %v", err)
		}
		var a, b any
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			t.Fatal(err)
		}
		if err := json.Unmarshal(out, &b); err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(a, b) {
			t.Errorf("round trip of %s = %s", raw, out)
		}
	}
}

func TestLocalizedValue_ForLang(t *testing.T) {
	v := NewLocalizedMap(map[string][]string{
		"en":   {"A", "B"},
		"zhTW": {"甲", "乙"},
	})

	got, ok := v.ForLang("zhTW")
	if !ok || !reflect.DeepEqual(got, []string{"甲", "乙"}) {
		t.Errorf("ForLang(zhTW) = %v, %v", got, ok)
	}
	if _, ok := v.ForLang("ko"); ok {
		t.Error("ForLang(ko) should miss")
	}
	if _, ok := NewScalar("x").ForLang("en"); ok {
		t.Error("ForLang on scalar should miss")
	}
}

func TestLocalizedValue_HasLang(t *testing.T) {
	tests := []struct {
		name string
		v    LocalizedValue
		lang string
		want bool
	}{
		{"map hit", NewLocalizedMap(map[string][]string{"zhTW": {"甲"}}), "zhTW", true},
		{"map miss", NewLocalizedMap(map[string][]string{"en": {"A"}}), "zhTW", false},
		{"plain array never tagged", NewStringArray([]string{"A"}), "en", false},
		{"tagged array hit", NewLocalizedArray([]LocalizedString{{ByLang: map[string]string{"ko": "태그"}}}), "ko", true},
		{"scalar never tagged", NewScalar("A"), "en", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.HasLang(tt.lang); got != tt.want {
				t.Errorf("HasLang(%q) = %v, want %v", tt.lang, got, tt.want)
			}
		})
	}
}

func TestLocalizedString_In(t *testing.T) {
	tagged := LocalizedString{ByLang: map[string]string{"en": "A", "zhTW": "甲"}}

	if got, _ := tagged.In("zhTW"); got != "甲" {
		t.Errorf("In(zhTW) = %q", got)
	}
	if got, _ := tagged.In("ko"); got != "A" {
		t.Errorf("In(ko) should fall back to en, got %q", got)
	}

	plain := LocalizedString{Text: "plain"}
	if got, ok := plain.In("zhTW"); !ok || got != "plain" {
		t.Errorf("In on plain text = %q, %v", got, ok)
	}

	empty := LocalizedString{ByLang: map[string]string{"fr": "seulement"}}
	if _, ok := empty.In("zhTW"); ok {
		t.Error("element without lang or en should not resolve")
	}
}

func TestLocalizedValue_Languages(t *testing.T) {
	v := NewLocalizedArray([]LocalizedString{
		{ByLang: map[string]string{"zhTW": "甲", "en": "A"}},
		{ByLang: map[string]string{"ko": "하"}},
		{Text: "plain"},
	})
	want := []string{"en", "ko", "zhTW"}
	if got := v.Languages(); !reflect.DeepEqual(got, want) {
		t.Errorf("Languages() = %v, want %v", got, want)
	}
}
