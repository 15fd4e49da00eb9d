// Package i18n looks up UI and error strings in the embedded translation
// table.  Supported languages are English and Lithuanian.
package i18n

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"golang.org/x/text/language"
)

//go:embed translations.json
var raw []byte

// Supported lists the languages the table carries, default first.
var Supported = []language.Tag{language.Lithuanian, language.English}

var matcher = language.NewMatcher(Supported)

// Catalog maps key -> language code -> text.
type Catalog map[string]map[string]string

var defaultCatalog = mustLoad(raw)

func mustLoad(b []byte) Catalog {
	c, err := Load(b)
	if err != nil {
		panic(fmt.Sprintf("i18n: %v", err))
	}
	return c
}

// Load parses a translation table.
func Load(b []byte) (Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return c, nil
}

// T translates key into lang using the embedded table.
func T(key, lang string) string { return defaultCatalog.T(key, lang) }

// T returns the translation of key, or key itself when the key or the
// language is missing.
func (c Catalog) T(key, lang string) string {
	if byLang, ok := c[key]; ok {
		if s, ok := byLang[lang]; ok && s != "" {
			return s
		}
	}
	return key
}

// IsSupported reports whether code is one of the two-letter codes served.
func IsSupported(code string) bool { return code == "en" || code == "lt" }

// Negotiate picks a supported language from an Accept-Language header,
// returning fallback when nothing matches.
func Negotiate(acceptLanguage, fallback string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return fallback
	}
	base, _ := Supported[idx].Base()
	return base.String()
}
