package workspace

import "errors"

// ErrInvalidTheme is returned for theme names other than light and dark.
var ErrInvalidTheme = errors.New("invalid theme")

// Theme is the display theme of the front-end. It has no effect on the document.
type Theme string

// Themes.
const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Preferences are per-session display settings passed explicitly to whatever renders the session.
type Preferences struct {
	Theme Theme `json:"theme"`
}
