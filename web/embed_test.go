package web

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTitle(t *testing.T) {
	title := Funcs["title"].(func(string) string)

	tests := map[string]string{
		"":          "",
		"pending":   "Pending",
		"éclair":    "Éclair",
		"ünterwegs": "Ünterwegs",
		"Open":      "Open",
		"42 litres": "42 litres",
	}
	for in, want := range tests {
		got := title(in)
		assert.Equal(t, want, got, in)
		assert.True(t, utf8.ValidString(got), in)
	}
}

func TestParseTemplates(t *testing.T) {
	tmpl, err := ParseTemplates()
	require.NoError(t, err)

	for _, name := range []string{"header", "footer", "login.html", "admin_dashboard.html", "error.html"} {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}
}
