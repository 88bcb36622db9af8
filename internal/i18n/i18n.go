// Package i18n provides user-facing message translation for the registration
// flows. Catalogs are compiled in; English is the fallback for any missing
// locale or key.
package i18n

import "fmt"

const DefaultLocale = "en"

// Translator renders the message for a key in a fixed locale. Arguments are
// substituted with fmt.Sprintf verbs embedded in the catalog text.
type Translator func(key string, args ...any) string

// For returns a Translator for the given locale, falling back to English for
// unknown locales and untranslated keys.
func For(locale string) Translator {
	catalog := catalogs[locale]
	return func(key string, args ...any) string {
		text, ok := catalog[key]
		if !ok {
			text, ok = catalogs[DefaultLocale][key]
			if !ok {
				return key
			}
		}
		if len(args) == 0 {
			return text
		}
		return fmt.Sprintf(text, args...)
	}
}

// Supported reports whether a locale has a usable catalog. English is always
// supported; any other locale must translate the probe key to something other
// than the key itself.
func Supported(locale string) bool {
	if locale == DefaultLocale {
		return true
	}
	return For(locale)(probeKey) != probeKey
}

// Locales lists the locales with compiled-in catalogs, default first.
func Locales() []string {
	out := []string{DefaultLocale}
	for code := range catalogs {
		if code != DefaultLocale {
			out = append(out, code)
		}
	}
	return out
}

const probeKey = "language.name"
