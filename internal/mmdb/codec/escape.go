package codec

import (
	"html"
	"strings"
)

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;")
)

// EscapeText escapes '&', '<' and '>'.
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}

// EscapeAttr escapes '&', '<', '>', '"' and '\''.
func EscapeAttr(s string) string {
	return attrEscaper.Replace(s)
}

// Unescape reverses EscapeText and EscapeAttr.
func Unescape(s string) string {
	if strings.IndexByte(s, '&') < 0 {
		return s
	}
	return html.UnescapeString(s)
}

// PlainText strips nested markup from a stored field value and unescapes
// the remaining text, e.g. "a <i>b</i> &amp; c" becomes "a b & c".
func PlainText(s string) string {
	if strings.IndexByte(s, '<') < 0 {
		return Unescape(s)
	}
	var sb strings.Builder
	sb.Grow(len(s))
	inTag := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '<':
			inTag = true
		case c == '>' && inTag:
			inTag = false
		case !inTag:
			sb.WriteByte(c)
		}
	}
	return Unescape(sb.String())
}
