// Package i18n provides locale catalogs for user-facing error messages.
package i18n

import (
	"strings"
	"text/template"

	"golang.org/x/text/language"
)

// Code mirrors the error code string from internal/errors.
// Codes are duplicated as strings to avoid an import cycle.
type Code = string

// Catalog holds translated message templates for one locale.
type Catalog struct {
	locale   string
	tag      language.Tag
	messages map[Code]string
}

// Locale returns the BCP 47 locale identifier for the catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders the message for code, interpolating metadata values.
// Unknown codes fall back to a generic message so callers always get text.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	msg, ok := c.messages[code]
	if !ok {
		return c.messages[CodeUnknown]
	}
	if len(metadata) == 0 || !strings.Contains(msg, "{{") {
		return msg
	}

	tmpl, err := template.New(code).Parse(msg)
	if err != nil {
		return msg
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, metadata); err != nil {
		return msg
	}
	return sb.String()
}

var catalogs = []*Catalog{enUSCatalog}

var matcher = language.NewMatcher(catalogTags())

func catalogTags() []language.Tag {
	tags := make([]language.Tag, 0, len(catalogs))
	for _, c := range catalogs {
		tags = append(tags, c.tag)
	}
	return tags
}

// GetCatalog returns the best catalog for the requested locale.
// It falls back to en-US when the locale is unknown or unsupported.
func GetCatalog(locale string) *Catalog {
	tag, err := language.Parse(locale)
	if err != nil {
		return enUSCatalog
	}
	_, index, _ := matcher.Match(tag)
	if index < 0 || index >= len(catalogs) {
		return enUSCatalog
	}
	return catalogs[index]
}
