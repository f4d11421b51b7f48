package mdrender

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

const htmlFlags = html.CommonFlags | html.SkipHTML | html.Safelink | html.NofollowLinks |
	html.NoreferrerLinks | html.NoopenerLinks | html.HrefTargetBlank

// ToHTML renders an FAQ answer. Raw HTML in the source is dropped and only
// safe link schemes survive.
func ToHTML(source string) string {
	if strings.TrimSpace(source) == "" {
		return ""
	}
	// parsers are stateful; one per document
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: htmlFlags})
	normalized := parser.NormalizeNewlines([]byte(source))
	return strings.TrimSpace(string(markdown.ToHTML(normalized, p, renderer)))
}

// ToTerminal renders markdown for a terminal of the given width without
// colour escapes.
func ToTerminal(source string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("notty"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("create terminal renderer: %w", err)
	}
	out, err := r.Render(source)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}
