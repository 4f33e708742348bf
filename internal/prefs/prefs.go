// Package prefs persists minedeck user preferences.
// Preferences live in ~/.config/minedeck/prefs.toml, separate from the main
// config file so the app can rewrite them without touching user-edited
// settings.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds preferences the app rewrites on the player's behalf.
type Prefs struct {
	Theme string `toml:"theme"`
}

const (
	defaultPrefsPath = "~/.config/minedeck/prefs.toml"
	defaultTheme     = "Nightfox"
)

// Load reads preferences from path (empty uses the default location). A
// missing, unreadable, or malformed file yields defaults; preferences are
// never important enough to block startup.
func Load(path string) Prefs {
	out := Prefs{Theme: defaultTheme}

	resolved, err := resolvePath(path)
	if err != nil {
		return out
	}
	raw, err := os.ReadFile(resolved)
	if err != nil {
		return out
	}
	if err := toml.Unmarshal(raw, &out); err != nil {
		return Prefs{Theme: defaultTheme}
	}
	if strings.TrimSpace(out.Theme) == "" {
		out.Theme = defaultTheme
	}
	return out
}

// Save writes preferences to path (empty uses the default location),
// creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve prefs path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	raw, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	if err := os.WriteFile(resolved, raw, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		trimmed = defaultPrefsPath
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
