package conversation

import (
	"github.com/charmbracelet/glamour"
)

// TerminalRenderer renders transcripts with ANSI styling for a terminal.
type TerminalRenderer struct {
	View     View
	renderer *glamour.TermRenderer
}

// NewTerminalRenderer wraps glamour. style is a glamour standard style name such as
// "dark" or "light"; an empty style detects the terminal background.
func NewTerminalRenderer(view View, style string, width int) (*TerminalRenderer, error) {
	if width <= 0 {
		width = 80
	}
	styleOpt := glamour.WithAutoStyle()
	if style != "" {
		styleOpt = glamour.WithStandardStyle(style)
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return nil, err
	}
	return &TerminalRenderer{View: view, renderer: r}, nil
}

// Render styles the markdown transcript of msgs. It falls back to the plain markdown
// when glamour fails.
func (t *TerminalRenderer) Render(msgs []Message) string {
	md := t.View.Render(msgs)
	out, err := t.renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}
