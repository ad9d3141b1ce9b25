package recognizer

import "testing"

func TestFindModel(t *testing.T) {
	tests := []struct {
		name     string
		lang     string
		wantLang string
	}{
		{name: "exact match", lang: "fr-FR", wantLang: "fr-FR"},
		{name: "case insensitive", lang: "FR-fr", wantLang: "fr-FR"},
		{name: "empty defaults to english", lang: "", wantLang: "en-GB"},
		{name: "primary subtag match", lang: "de-AT", wantLang: "de-DE"},
		{name: "bare subtag match", lang: "ru", wantLang: "ru-RU"},
		{name: "unknown falls back to english", lang: "xx-XX", wantLang: "en-GB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := FindModel(tt.lang)
			if err != nil {
				t.Fatalf("FindModel(%q) failed: %v", tt.lang, err)
			}
			if m.Lang != tt.wantLang {
				t.Errorf("FindModel(%q) = %s, want %s", tt.lang, m.Lang, tt.wantLang)
			}
		})
	}
}

func TestCatalogEntriesComplete(t *testing.T) {
	seen := make(map[string]bool, len(Catalog))
	for _, m := range Catalog {
		if m.Lang == "" || m.Name == "" || m.Path == "" {
			t.Errorf("incomplete catalog entry: %+v", m)
		}
		if seen[m.Lang] {
			t.Errorf("duplicate catalog lang %s", m.Lang)
		}
		seen[m.Lang] = true
	}
}
