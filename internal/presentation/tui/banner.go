package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the tourguide banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"  _                                  _     _      ", "#34d399"},
		{" | |_ ___  _   _ _ __ __ _ _   _(_) __| | ___ ", "#2dd4bf"},
		{" | __/ _ \\| | | | '__/ _` | | | | |/ _` |/ _ \\", "#22d3ee"},
		{" | || (_) | |_| | | | (_| | |_| | | (_| |  __/", "#38bdf8"},
		{"  \\__\\___/ \\__,_|_|  \\__, |\\__,_|_|\\__,_|\\___|", "#60a5fa"},
		{"                     |___/                    ", "#818cf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  "+version).Faint())
	fmt.Fprintln(w)
}
