// Package web holds the embedded HTML templates for the dashboard.
package web

import (
	"embed"
	"html/template"
	"unicode"
	"unicode/utf8"
)

//go:embed templates/*.html
var Templates embed.FS

// Funcs are the helpers available to every template.
var Funcs = template.FuncMap{
	"title": func(s string) string {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError {
			return s
		}
		return string(unicode.ToUpper(r)) + s[size:]
	},
}

// ParseTemplates parses all embedded templates, keyed by file name.
func ParseTemplates() (*template.Template, error) {
	return template.New("").Funcs(Funcs).ParseFS(Templates, "templates/*.html")
}
