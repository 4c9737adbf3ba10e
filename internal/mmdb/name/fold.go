package name

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// latin1 maps the runes U+00C0..U+00FF to ASCII.
var latin1 = [64]string{
	"A", "A", "A", "A", "A", "A", "AE", "C", "E", "E", "E", "E", "I", "I", "I", "I",
	"D", "N", "O", "O", "O", "O", "O", "", "O", "U", "U", "U", "U", "Y", "Th", "ss",
	"a", "a", "a", "a", "a", "a", "ae", "c", "e", "e", "e", "e", "i", "i", "i", "i",
	"d", "n", "o", "o", "o", "o", "o", "/", "o", "u", "u", "u", "u", "y", "th", "y",
}

// stripMarks decomposes runes outside Latin-1 and drops combining marks.
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}

func needsStrip(s string) bool {
	for _, r := range s {
		if r > 0xFF {
			return true
		}
	}
	return false
}

// Fold maps s to the ASCII alphabet used for name ordering: ASCII letters
// are kept, space and '_' become a space, "-./@" are kept, Latin-1 letters
// are transliterated and everything else is dropped.
func Fold(s string) string {
	if needsStrip(s) {
		s = stripMarks(s)
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			sb.WriteRune(r)
		case r == ' ' || r == '_':
			sb.WriteByte(' ')
		case r == '-' || r == '.' || r == '/' || r == '@':
			sb.WriteRune(r)
		case r >= 0xC0 && r <= 0xFF:
			sb.WriteString(latin1[r-0xC0])
		}
	}
	return sb.String()
}

// urlFold maps one name component to its url fragment form: spaces become
// '_', Latin-1 letters are transliterated, ASCII letters and digits are kept
// and every other rune becomes '='.
func urlFold(s string) string {
	if needsStrip(s) {
		s = stripMarks(s)
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch {
		case r == ' ':
			sb.WriteByte('_')
		case r >= 0xC0 && r <= 0xFF && r != 0xD7 && r != 0xF7:
			sb.WriteString(latin1[r-0xC0])
		case r < 0x80 && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			sb.WriteRune(r)
		default:
			sb.WriteByte('=')
		}
	}
	return sb.String()
}

// FoldText lower-cases s and transliterates accented letters to ASCII,
// keeping every other rune. Search uses it so "Gödel" matches "godel".
func FoldText(s string) string {
	if needsStrip(s) {
		s = stripMarks(s)
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r >= 0xC0 && r <= 0xFF && r != 0xD7 && r != 0xF7 {
			sb.WriteString(strings.ToLower(latin1[r-0xC0]))
			continue
		}
		sb.WriteRune(unicode.ToLower(r))
	}
	return sb.String()
}
