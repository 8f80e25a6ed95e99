package ui

import (
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

// WrapText word-wraps text to width and indents every line. A width of
// zero or less only indents.
func WrapText(text string, width, spaces int) string {
	if width > spaces {
		text = wordwrap.String(text, width-spaces)
	}
	if spaces <= 0 {
		return text
	}
	return indent.String(text, uint(spaces))
}
