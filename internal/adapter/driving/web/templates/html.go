// Package templates holds the page layout and HTML helpers shared by page
// components.
package templates

import (
	"io"
	"strconv"

	"github.com/a-h/templ"
)

// Writer emits HTML to an io.Writer and remembers the first write error, so
// components can write many fragments and check once.
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Raw writes trusted markup verbatim.
func (hw *Writer) Raw(parts ...string) {
	for _, p := range parts {
		if hw.err != nil {
			return
		}
		_, hw.err = io.WriteString(hw.w, p)
	}
}

// Text writes s HTML-escaped.
func (hw *Writer) Text(s string) {
	hw.Raw(templ.EscapeString(s))
}

// Int writes n in decimal.
func (hw *Writer) Int(n int) {
	hw.Raw(strconv.Itoa(n))
}

// Attr writes ` name="value"` with value escaped.
func (hw *Writer) Attr(name, value string) {
	hw.Raw(" ", name, `="`, templ.EscapeString(value), `"`)
}

// Err returns the first write error.
func (hw *Writer) Err() error {
	return hw.err
}
