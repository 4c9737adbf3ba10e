package codec

import (
	"strings"
)

// Rebuild returns the full XML text of an encoded record: the key and mdate
// attributes are put back on the record element and every placeholder is
// replaced by an element carrying its resolved value, in encounter order.
// An mdate of 0 is omitted.
func Rebuild(buf []byte, key string, mdate int, res Resolver) string {
	var sb strings.Builder
	sb.Grow(len(buf) + len(key) + 64)
	if len(buf) < 2 {
		return ""
	}

	rootEnd := 1
	for rootEnd < len(buf) && !isTagEnd(buf[rootEnd]) {
		rootEnd++
	}
	sb.Write(buf[:rootEnd])
	if key != "" {
		sb.WriteString(` key="`)
		sb.WriteString(EscapeAttr(key))
		sb.WriteByte('"')
	}
	if mdate > 0 {
		sb.WriteString(` mdate="`)
		sb.WriteString(FormatMdate(mdate))
		sb.WriteByte('"')
	}

	names := 0
	pos := rootEnd
	for pos < len(buf) {
		lt := indexByteFrom(buf, '<', pos)
		if lt < 0 || lt+1 >= len(buf) {
			sb.Write(buf[pos:])
			break
		}
		c := buf[lt+1]
		if c < TagAuthor || c > TagYear || lt+2 >= len(buf) || !isTagEnd(buf[lt+2]) {
			sb.Write(buf[pos : lt+1])
			pos = lt + 1
			continue
		}
		sb.Write(buf[pos:lt])

		// <D attrs/>
		end := lt + 2
		quoted := false
		for end < len(buf) {
			if buf[end] == '"' {
				quoted = !quoted
			} else if !quoted && buf[end] == '/' {
				break
			}
			end++
		}
		attrs := buf[lt+2 : end]
		tag := placeholderNames[c-TagAuthor]

		var value string
		if res != nil {
			switch c {
			case TagAuthor, TagEditor:
				value = res.NameAt(names)
			case TagJournal:
				value = res.Journal()
			case TagBookTitle:
				value = res.BookTitle()
			case TagYear:
				value = res.Year()
			}
		}
		if c == TagAuthor || c == TagEditor {
			names++
		}

		sb.WriteByte('<')
		sb.WriteString(tag)
		sb.Write(attrs)
		sb.WriteByte('>')
		sb.WriteString(EscapeText(value))
		sb.WriteString("</")
		sb.WriteString(tag)
		sb.WriteByte('>')
		pos = end + 2 // "/>"
	}
	return sb.String()
}

func indexByteFrom(buf []byte, c byte, from int) int {
	for i := from; i < len(buf); i++ {
		if buf[i] == c {
			return i
		}
	}
	return -1
}
