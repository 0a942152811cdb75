// Package ui holds the terminal colour themes shared by the CLI, the usage
// text and the error handler.
package ui

import (
	"os"
	"sync"
)

// Theme is a set of ANSI escape codes, one per role.
type Theme struct {
	Name string

	Primary   string // flags, headings
	Secondary string // defaults, metadata
	Success   string
	Warning   string
	Error     string
	Digits    string // the digits of π
	Bold      string
	Reset     string
}

var (
	DarkTheme = Theme{
		Name:      "dark",
		Primary:   "\033[38;5;39m",
		Secondary: "\033[38;5;245m",
		Success:   "\033[38;5;82m",
		Warning:   "\033[38;5;220m",
		Error:     "\033[38;5;196m",
		Digits:    "\033[38;5;141m",
		Bold:      "\033[1m",
		Reset:     "\033[0m",
	}

	LightTheme = Theme{
		Name:      "light",
		Primary:   "\033[38;5;27m",
		Secondary: "\033[38;5;240m",
		Success:   "\033[38;5;28m",
		Warning:   "\033[38;5;130m",
		Error:     "\033[38;5;124m",
		Digits:    "\033[38;5;54m",
		Bold:      "\033[1m",
		Reset:     "\033[0m",
	}

	// NoColorTheme is selected by --no-color and by NO_COLOR
	// (https://no-color.org).
	NoColorTheme = Theme{Name: "none"}

	themeMu      sync.RWMutex
	currentTheme = DarkTheme
)

// Themes lists the selectable themes by name.
var Themes = map[string]Theme{
	DarkTheme.Name:    DarkTheme,
	LightTheme.Name:   LightTheme,
	NoColorTheme.Name: NoColorTheme,
}

// Current returns the active theme.
func Current() Theme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return currentTheme
}

// SetCurrent replaces the active theme and returns the previous one, so
// tests can restore it.
func SetCurrent(t Theme) Theme {
	themeMu.Lock()
	defer themeMu.Unlock()
	prev := currentTheme
	currentTheme = t
	return prev
}

// Init selects the theme at startup. Colour is off when noColor is set or
// NO_COLOR is present in the environment; otherwise name picks a theme from
// Themes, falling back to dark.
func Init(noColor bool, name string) Theme {
	t, ok := Themes[name]
	if !ok {
		t = DarkTheme
	}
	if noColor {
		t = NoColorTheme
	} else if _, set := os.LookupEnv("NO_COLOR"); set {
		t = NoColorTheme
	}
	SetCurrent(t)
	return t
}

// Paint wraps s in the code and a reset, or returns s unchanged when code is
// empty.
func (t Theme) Paint(code, s string) string {
	if code == "" {
		return s
	}
	return code + s + t.Reset
}

// Colors adapts the active theme to the ColorProvider interface of the
// error handler.
type Colors struct{}

func (Colors) Yellow() string { return Current().Warning }
func (Colors) Red() string    { return Current().Error }
func (Colors) Green() string  { return Current().Success }
func (Colors) Reset() string  { return Current().Reset }
