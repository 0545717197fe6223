// Package tui holds the terminal presentation of the CLI: banner, colored
// status and the markdown episode report.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/partree/pkg/domain"
	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"                 _                 ", "#34d399"},
	{"  _ __  __ _ _ _| |_ _ _ ___ ___   ", "#2dd4bf"},
	{" | '_ \\/ _` | '_|  _| '_/ -_) -_)  ", "#22d3ee"},
	{" | .__/\\__,_|_|  \\__|_| \\___\\___|  ", "#38bdf8"},
	{" |_|                               ", "#60a5fa"},
}

// PrintBanner writes the ASCII banner and version to w, colored when w supports it.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, line := range bannerLines {
		fmt.Fprintln(w, out.String(line.text).Foreground(out.Color(line.color)))
	}
	fmt.Fprintln(w, out.String("  v"+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(w)
}

// Status renders an episode status with a color matching its outcome.
func Status(w io.Writer, s domain.EpisodeStatus) string {
	out := termenv.NewOutput(w)
	color := "#9ca3af"
	switch s {
	case domain.StatusComplete:
		color = "#22c55e"
	case domain.StatusTruncated:
		color = "#f59e0b"
	case domain.StatusFailed:
		color = "#ef4444"
	}
	return out.String(string(s)).Foreground(out.Color(color)).Bold().String()
}
