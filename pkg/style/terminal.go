package style

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Setup disables colors when out is not a terminal or NO_COLOR is set.
func Setup(out *os.File) {
	if !IsTerminal(out) || os.Getenv("NO_COLOR") != "" {
		DisableColor()
	}
}

// DisableColor makes every style render plain text.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
