package output

import (
	"github.com/fatih/color"
)

// ColorScheme defines the colors used for different elements in the output
type ColorScheme struct {
	Banner    *color.Color
	Label     *color.Color
	Value     *color.Color
	URL       *color.Color
	Success   *color.Color
	Error     *color.Color
	Warning   *color.Color
	Highlight *color.Color
}

// DefaultColorScheme returns the default color scheme
func DefaultColorScheme() *ColorScheme {
	scheme := &ColorScheme{
		Banner:    color.New(color.FgCyan, color.Bold),
		Label:     color.New(color.FgWhite),
		Value:     color.New(color.FgCyan),
		URL:       color.New(color.FgBlue, color.Underline),
		Success:   color.New(color.FgGreen, color.Bold),
		Error:     color.New(color.FgRed),
		Warning:   color.New(color.FgYellow, color.Bold),
		Highlight: color.New(color.FgMagenta, color.Bold),
	}

	// The console decides whether to colour; don't defer to fatih/color's
	// own stdout detection.
	for _, c := range scheme.all() {
		c.EnableColor()
	}

	return scheme
}

// NoColorScheme returns a color scheme with all colors disabled
func NoColorScheme() *ColorScheme {
	scheme := DefaultColorScheme()

	for _, c := range scheme.all() {
		c.DisableColor()
	}

	return scheme
}

func (s *ColorScheme) all() []*color.Color {
	return []*color.Color{
		s.Banner,
		s.Label,
		s.Value,
		s.URL,
		s.Success,
		s.Error,
		s.Warning,
		s.Highlight,
	}
}
