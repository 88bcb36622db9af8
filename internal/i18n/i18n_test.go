package i18n

import "testing"

func TestSupported(t *testing.T) {
	tests := []struct {
		locale string
		want   bool
	}{
		{"en", true},
		{"ru", true},
		{"de", false},
		{"", false},
		{"klingon", false},
	}
	for _, tt := range tests {
		if got := Supported(tt.locale); got != tt.want {
			t.Errorf("Supported(%q) = %v, want %v", tt.locale, got, tt.want)
		}
	}
}

func TestTranslatorFallsBackToEnglish(t *testing.T) {
	T := For("de")
	if got := T("register.enter_username"); got != catalogs["en"]["register.enter_username"] {
		t.Fatalf("unknown locale should fall back to English, got %q", got)
	}

	if got := For("ru")("no.such.key"); got != "no.such.key" {
		t.Fatalf("unknown key should echo the key, got %q", got)
	}
}

func TestTranslatorFormatsArguments(t *testing.T) {
	got := For("en")("admin.registered", "alice")
	if got != "User alice was registered." {
		t.Fatalf("unexpected rendering: %q", got)
	}
}

func TestLocalesDefaultFirst(t *testing.T) {
	locales := Locales()
	if len(locales) < 2 {
		t.Fatalf("expected at least two locales, got %v", locales)
	}
	if locales[0] != DefaultLocale {
		t.Fatalf("default locale must come first, got %v", locales)
	}
}
