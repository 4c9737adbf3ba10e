// Package name parses DBLP person name strings into first name, last name,
// suffix, homonym number and url fragment. Parsing is a pure function of the
// raw string; Cache memoises it per distinct string.
package name

import (
	"strings"
)

var suffixes = map[string]struct{}{
	"Jr.": {}, "II": {}, "III": {}, "IV": {},
}

// Parsed is the decomposition of one raw name.
type Parsed struct {
	Raw       string
	First     string
	HasFirst  bool
	Last      string
	Suffix    string
	HomonymID string
	URLPart   string
}

// Normalize collapses whitespace runs to one space and trims the result.
func Normalize(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// Parse splits raw into its components. It never fails: an empty input
// yields an empty last name and the url fragment "/:".
func Parse(raw string) Parsed {
	p := Parsed{Raw: raw}
	s := Normalize(raw)
	if s == "" {
		p.URLPart = "/:"
		return p
	}

	if id, rest, ok := cutHomonymID(s); ok {
		p.HomonymID = id
		s = rest
	}

	first, last := splitLast(s)
	if _, ok := suffixes[last]; ok {
		p.Suffix = last
		first, last = splitLast(first)
	}

	mappedLast := urlFold(last)
	if mappedLast == "" {
		// only a suffix or nothing at all survived
		p.HomonymID = ""
		if p.Suffix == "" {
			p.URLPart = "/:"
			return p
		}
		mapped := urlFold(p.Suffix)
		p.Last = p.Suffix
		p.Suffix = ""
		p.URLPart = strings.ToLower(mapped[:1]) + "/" + mapped + ":"
		return p
	}

	p.Last = last
	p.First = first
	p.HasFirst = first != ""

	initial := strings.ToLower(mappedLast[:1])
	if c := initial[0]; c < 'a' || c > 'z' {
		initial = "="
	}
	var sb strings.Builder
	sb.WriteString(initial)
	sb.WriteByte('/')
	sb.WriteString(mappedLast)
	if p.Suffix != "" {
		sb.WriteByte('_')
		sb.WriteString(urlFold(p.Suffix))
	}
	if p.HomonymID != "" {
		sb.WriteByte('_')
		sb.WriteString(p.HomonymID)
	}
	sb.WriteByte(':')
	sb.WriteString(urlFold(first))
	p.URLPart = sb.String()
	return p
}

// cutHomonymID strips a trailing " NNNN".
func cutHomonymID(s string) (id, rest string, ok bool) {
	n := len(s)
	if n < 6 || s[n-5] != ' ' {
		return "", s, false
	}
	for i := n - 4; i < n; i++ {
		if s[i] < '0' || s[i] > '9' {
			return "", s, false
		}
	}
	return s[n-4:], s[:n-5], true
}

func splitLast(s string) (first, last string) {
	if i := strings.LastIndexByte(s, ' '); i >= 0 {
		return s[:i], s[i+1:]
	}
	return "", s
}

// IsHomonym reports whether the name carries a homonym number.
func (p Parsed) IsHomonym() bool {
	return p.HomonymID != ""
}

// Name reassembles the parsed components, optionally with the homonym number.
func (p Parsed) Name(withHomonymID bool) string {
	parts := make([]string, 0, 4)
	if p.HasFirst {
		parts = append(parts, p.First)
	}
	if p.Last != "" {
		parts = append(parts, p.Last)
	}
	if p.Suffix != "" {
		parts = append(parts, p.Suffix)
	}
	if withHomonymID && p.HomonymID != "" {
		parts = append(parts, p.HomonymID)
	}
	return strings.Join(parts, " ")
}

// CoreName drops initials, generational suffixes and numbers from the first
// name and appends the last name.
func (p Parsed) CoreName() string {
	if !p.HasFirst {
		return p.Last
	}
	var sb strings.Builder
	for _, part := range strings.Split(p.First, " ") {
		if len(part) < 2 || strings.HasSuffix(part, ".") || isDigits(part) {
			continue
		}
		switch part {
		case "Jr.", "Sr.", "II", "III", "IV":
			continue
		}
		sb.WriteString(part)
		sb.WriteByte(' ')
	}
	sb.WriteString(p.Last)
	return sb.String()
}

// FacetID is the name with spaces replaced by '_'.
func (p Parsed) FacetID() string {
	return strings.ReplaceAll(p.Name(true), " ", "_")
}

// StripHomonymID removes a trailing homonym number from a raw name.
func StripHomonymID(raw string) string {
	s := Normalize(raw)
	if _, rest, ok := cutHomonymID(s); ok {
		return rest
	}
	return s
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
