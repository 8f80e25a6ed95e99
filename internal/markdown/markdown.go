// Package markdown renders markdown reports for the terminal.
package markdown

import (
	"strings"
	"sync"

	internalstrings "github.com/ImL1s/TodoListDemo-sub002/internal/strings"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
)

type renderer interface {
	Render(string) (string, error)
}

type rendererKey struct {
	width int
	color bool
}

var (
	rendererMu sync.Mutex
	renderers  = map[rendererKey]renderer{}
)

// Options configures Render.
type Options struct {
	// Width is the wrap width. Values below 1 mean 80.
	Width int

	// Color selects the dark ANSI style instead of plain ASCII.
	Color bool
}

// Render formats markdown for terminal output. Blank input renders as
// nothing.
func Render(input string, opts Options) (string, error) {
	value := internalstrings.TrimTrailingNewlines(internalstrings.NormalizeNewlines(input))
	if internalstrings.IsBlank(value) {
		return "", nil
	}
	r, err := markdownRenderer(opts)
	if err != nil {
		return "", err
	}
	rendered, err := r.Render(value)
	if err != nil {
		return "", err
	}
	return strings.Trim(internalstrings.TrimTrailingNewlines(rendered), "\n"), nil
}

// SafeRender is Render that falls back to the unformatted markdown when
// the renderer fails or panics.
func SafeRender(input string, opts Options) (output string) {
	fallback := internalstrings.TrimTrailingNewlines(internalstrings.NormalizeNewlines(input))
	defer func() {
		if recover() != nil {
			output = fallback
		}
	}()
	rendered, err := Render(input, opts)
	if err != nil {
		return fallback
	}
	return rendered
}

func markdownRenderer(opts Options) (renderer, error) {
	key := rendererKey{width: opts.Width, color: opts.Color}
	if key.width < 1 {
		key.width = 80
	}

	rendererMu.Lock()
	defer rendererMu.Unlock()
	if cached, ok := renderers[key]; ok {
		return cached, nil
	}

	style := styles.ASCIIStyleConfig
	if key.color {
		style = styles.DarkStyleConfig
	}
	style.Document.Margin = nil
	style.Item.BlockPrefix = "- "
	created, err := glamour.NewTermRenderer(
		glamour.WithStyles(style),
		glamour.WithWordWrap(key.width),
	)
	if err != nil {
		return nil, err
	}
	renderers[key] = created
	return created, nil
}
