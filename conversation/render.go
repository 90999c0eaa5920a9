package conversation

import (
	"fmt"
	"strings"
)

// View holds the labels used when rendering a transcript. It is passed explicitly so
// that nothing about presentation is process-wide.
type View struct {
	UserLabel      string
	ModelLabel     string
	SourcesLabel   string
	StreamingLabel string
	ImageLabel     string
}

// DefaultView is the English view.
func DefaultView() View {
	return View{
		UserLabel:      "You",
		ModelLabel:     "Parsa AI",
		SourcesLabel:   "Sources:",
		StreamingLabel: "Thinking...",
		ImageLabel:     "[image attached]",
	}
}

// Render produces a markdown transcript. It reads the messages only, so rendering the
// same finished conversation twice yields identical output.
func (v View) Render(msgs []Message) string {
	var sb strings.Builder
	for i, m := range msgs {
		if i > 0 {
			sb.WriteString("\n")
		}
		v.renderMessage(&sb, m)
	}
	return sb.String()
}

func (v View) renderMessage(sb *strings.Builder, m Message) {
	label := v.ModelLabel
	if m.Role == RoleUser {
		label = v.UserLabel
	}
	fmt.Fprintf(sb, "**%s:**", label)
	if m.Image != "" {
		sb.WriteString(" ")
		sb.WriteString(v.ImageLabel)
	}
	if m.Text != "" {
		sb.WriteString(" ")
		sb.WriteString(m.Text)
	}
	if m.Streaming {
		fmt.Fprintf(sb, " _%s_", v.StreamingLabel)
	}
	sb.WriteString("\n")

	if len(m.Sources) > 0 {
		fmt.Fprintf(sb, "\n%s\n", v.SourcesLabel)
		for _, s := range m.Sources {
			fmt.Fprintf(sb, "- [%s](%s)\n", s.Label(), s.URI)
		}
	}
}
