package session

import "golang.org/x/text/language"

var defaultTag = language.Und

// ParseLocale resolves a collation locale name, falling back to the
// language-neutral ordering when raw is empty or unknown.
func ParseLocale(raw string) language.Tag {
	if raw == "" {
		return defaultTag
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return defaultTag
	}
	return tag
}
