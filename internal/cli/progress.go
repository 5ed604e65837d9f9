package cli

import (
	"fmt"
	"io"

	"github.com/OFFIS-RIT/textgraph/internal/util"
	"github.com/OFFIS-RIT/textgraph/pkg/graph"

	"github.com/charmbracelet/lipgloss"
)

// progressPrinter writes one styled line per progress event. Without a
// color capable terminal the lines equal util.ProgressLine.
type progressPrinter struct {
	w        io.Writer
	message  lipgloss.Style
	estimate lipgloss.Style
	done     lipgloss.Style
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	r := lipgloss.NewRenderer(w)
	return &progressPrinter{
		w:        w,
		message:  r.NewStyle().Bold(true),
		estimate: r.NewStyle().Faint(true),
		done:     r.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
	}
}

func (p *progressPrinter) OnProgress(ev graph.ProgressEvent) {
	style := p.message
	if ev.Total > 0 && ev.Current == ev.Total {
		style = p.done
	}

	line := style.Render(ev.Message)
	if ev.Remaining != nil && *ev.Remaining > 0 {
		line += " " + p.estimate.Render(fmt.Sprintf("(Est. %s remaining)", util.FormatRemaining(*ev.Remaining)))
	}
	fmt.Fprintln(p.w, line)
}
