package theme

import (
	"embed"
	"io/fs"
	"path/filepath"
	"strings"
)

// EmbeddedThemes contains all bundled theme CSS files.
//
//go:embed themes/*.css
var EmbeddedThemes embed.FS

// DefaultThemeName is the name of the built-in default theme.
const DefaultThemeName = "default"

func readEmbedded(file string) (string, bool) {
	data, err := EmbeddedThemes.ReadFile("themes/" + file)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// GetEmbeddedTheme retrieves a bundled theme by name without resolving its
// imports.
func GetEmbeddedTheme(name string) (string, bool) {
	return readEmbedded(name + ".css")
}

// GetEmbeddedPartial retrieves a bundled partial such as "_variants.css".
// The leading underscore and extension are optional.
func GetEmbeddedPartial(name string) (string, bool) {
	if !strings.HasPrefix(name, "_") {
		name = "_" + name
	}
	if !strings.HasSuffix(name, ".css") {
		name += ".css"
	}
	return readEmbedded(name)
}

// ListEmbeddedThemes returns the names of the bundled themes, excluding
// partials.
func ListEmbeddedThemes() []string {
	entries, err := fs.ReadDir(EmbeddedThemes, "themes")
	if err != nil {
		return []string{DefaultThemeName}
	}

	var themes []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "_") || filepath.Ext(name) != ".css" {
			continue
		}
		themes = append(themes, strings.TrimSuffix(name, ".css"))
	}
	return themes
}
