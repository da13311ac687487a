package render

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// The core PDF fonts are drawn from single byte Windows-1252 strings.
// Anything outside that code page is replaced with '?'.

// encodable reports whether r can be drawn with a core font
func encodable(r rune) bool {
	_, ok := charmap.Windows1252.EncodeRune(r)
	return ok
}

// encodeText converts UTF-8 text into the byte string fpdf expects for
// core fonts
func encodeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\t' || r == '\r' || r == '\n' {
			b.WriteByte(' ')
			continue
		}
		if c, ok := charmap.Windows1252.EncodeRune(r); ok {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('?')
	}
	return b.String()
}
