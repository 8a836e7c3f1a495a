package utils

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/glamour"
)

// HighlightCode writes code to w with terminal syntax colouring. An empty
// language lets chroma guess from the content.
func HighlightCode(w io.Writer, code string, language string, theme string) error {
	if theme == "" {
		theme = "dracula"
	}
	if !strings.HasSuffix(code, "\n") {
		code += "\n"
	}
	return quick.Highlight(w, code, language, "terminal256", theme)
}

// RenderExplanation renders the model's prose as terminal markdown, falling
// back to the raw text when the renderer cannot be built.
func RenderExplanation(w io.Writer, markdown string, width int) error {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return nil
	}
	if width <= 0 {
		width = 80
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		_, err = fmt.Fprintln(w, markdown)
		return err
	}

	out, err := renderer.Render(markdown)
	if err != nil {
		_, err = fmt.Fprintln(w, markdown)
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
