package theme

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// importRegex matches @import "file.css"; or @import 'file.css'; or @import url("file.css");
var importRegex = regexp.MustCompile(`@import\s+(?:url\s*\(\s*)?["']([^"']+)["']\s*\)?;?`)

// Theme is a loaded CSS theme with its imports inlined.
type Theme struct {
	Name      string
	Path      string // Empty for bundled themes
	CSS       string
	ModTime   time.Time
	IsBundled bool
}

// NewTheme loads a theme from a CSS file on disk.
func NewTheme(name, path string) (*Theme, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	css, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return &Theme{
		Name:    name,
		Path:    path,
		CSS:     ProcessImports(string(css), filepath.Dir(path), nil),
		ModTime: info.ModTime(),
	}, nil
}

// NewBundledTheme returns a bundled theme, or false if no theme has that name.
func NewBundledTheme(name string) (*Theme, bool) {
	css, ok := GetEmbeddedTheme(name)
	if !ok {
		return nil, false
	}
	return &Theme{
		Name:      name,
		CSS:       ProcessImports(css, "", nil),
		IsBundled: true,
	}, true
}

// ProcessImports inlines @import statements. Relative paths resolve against
// baseDir; files that cannot be read fall back to bundled partials and
// themes of the same name. seen guards against import cycles.
func ProcessImports(css string, baseDir string, seen map[string]bool) string {
	if seen == nil {
		seen = make(map[string]bool)
	}

	return importRegex.ReplaceAllStringFunc(css, func(match string) string {
		submatch := importRegex.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}
		importPath := submatch[1]

		fullPath := importPath
		if !filepath.IsAbs(importPath) {
			fullPath = filepath.Join(baseDir, importPath)
		}
		if seen[fullPath] {
			return "/* circular import prevented: " + importPath + " */"
		}
		seen[fullPath] = true

		data, err := os.ReadFile(fullPath)
		if err != nil {
			baseName := filepath.Base(importPath)
			if strings.HasPrefix(baseName, "_") {
				if partial, ok := GetEmbeddedPartial(baseName); ok {
					return "/* imported (embedded): " + importPath + " */\n" + partial
				}
			}
			if bundled, ok := GetEmbeddedTheme(strings.TrimSuffix(baseName, ".css")); ok {
				return "/* imported (embedded): " + importPath + " */\n" + ProcessImports(bundled, "", seen)
			}
			return "/* import failed: " + importPath + " - " + err.Error() + " */"
		}

		return "/* imported: " + importPath + " */\n" + ProcessImports(string(data), filepath.Dir(fullPath), seen)
	})
}

// Reload re-reads the theme from disk. Returns true if the CSS changed.
// Bundled themes never change.
func (t *Theme) Reload() (bool, error) {
	if t.IsBundled || t.Path == "" {
		return false, nil
	}

	info, err := os.Stat(t.Path)
	if err != nil {
		return false, err
	}
	css, err := os.ReadFile(t.Path)
	if err != nil {
		return false, err
	}

	processed := ProcessImports(string(css), filepath.Dir(t.Path), nil)
	changed := processed != t.CSS
	t.CSS = processed
	t.ModTime = info.ModTime()
	return changed, nil
}

// ThemesDir returns the path to the user's themes directory.
func ThemesDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "snackbar", "themes"), nil
}

// Resolve finds a theme by name. User themes in dir override bundled ones;
// an unknown name falls back to the bundled default.
func Resolve(dir, name string) (*Theme, error) {
	if name == "" {
		name = DefaultThemeName
	}

	if dir != "" {
		path := filepath.Join(dir, name+".css")
		if _, err := os.Stat(path); err == nil {
			return NewTheme(name, path)
		}
	}

	if t, ok := NewBundledTheme(name); ok {
		return t, nil
	}
	t, _ := NewBundledTheme(DefaultThemeName)
	return t, nil
}

// ListAvailableThemes lists bundled themes followed by user themes in dir
// that do not shadow a bundled name.
func ListAvailableThemes(dir string) ([]string, error) {
	seen := make(map[string]bool)
	var themes []string
	for _, name := range ListEmbeddedThemes() {
		seen[name] = true
		themes = append(themes, name)
	}

	if dir == "" {
		return themes, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return themes, nil
		}
		return themes, err
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".css" || strings.HasPrefix(name, "_") {
			continue
		}
		themeName := strings.TrimSuffix(name, ".css")
		if !seen[themeName] {
			seen[themeName] = true
			themes = append(themes, themeName)
		}
	}
	return themes, nil
}
