package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/command"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// Rendering falls back to the raw markdown if no renderer can be built.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// TreeMarkdown lists command trees as nested markdown bullets.
func TreeMarkdown(roots []command.Description) string {
	var b strings.Builder
	b.WriteString("# Commands\n\n")
	for _, d := range roots {
		writeNode(&b, d, 0)
	}
	return b.String()
}

func writeNode(b *strings.Builder, d command.Description, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	fmt.Fprintf(b, "- **%s**", d.Name)
	if len(d.Aliases) > 0 {
		fmt.Fprintf(b, " (%s)", strings.Join(d.Aliases, ", "))
	}
	if d.Permission != "" {
		fmt.Fprintf(b, " `%s`", d.Permission)
	}
	if d.Usage != "" {
		fmt.Fprintf(b, " %s", d.Usage)
	}
	if d.CancelOnDisconnect {
		b.WriteString(" _cancel on disconnect_")
	}
	b.WriteString("\n")
	for _, c := range d.Children {
		writeNode(b, c, depth+1)
	}
}
