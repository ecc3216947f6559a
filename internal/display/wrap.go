// Package display formats catalog text for terminal output.
package display

import (
	"strings"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const DefaultWidth = 80

// Wrap word-wraps text to width, falling back to DefaultWidth when width is
// not positive.
func Wrap(text string, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	return wordwrap.String(text, width)
}

// Block wraps text to fit width after indenting every line by margin spaces.
func Block(text string, width int, margin int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	inner := width - margin
	if inner < 1 {
		inner = 1
	}
	return indent.String(wordwrap.String(text, inner), uint(margin))
}

// Label turns an identifier like "map_visual" into "Map Visual".
func Label(ident string) string {
	words := strings.ReplaceAll(ident, "_", " ")
	return cases.Title(language.English).String(words)
}
