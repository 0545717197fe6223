package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/aretw0/partree/internal/presentation/tui"
	"github.com/aretw0/partree/pkg/domain"
	"golang.org/x/term"
)

// isTerminal reports whether w is an interactive terminal and its width.
func isTerminal(w io.Writer) (bool, int) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return false, 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return true, 0
	}
	return true, width
}

// WriteReport renders the summaries as markdown: styled with glamour on a terminal,
// raw otherwise so that pipes and files get plain text.
func WriteReport(w io.Writer, title string, summaries []*domain.EpisodeSummary) error {
	render := tui.Plain
	if tty, width := isTerminal(w); tty {
		r, err := tui.NewRenderer(min(width, 120))
		if err != nil {
			return err
		}
		render = r
	}
	out, err := render(tui.Report(title, summaries))
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
