package ingest

import (
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/errors"
)

var (
	dtdComment = regexp.MustCompile(`(?s)<!--.*?-->`)
	entityDecl = regexp.MustCompile(`^<!ENTITY\s+(%\s+)?([A-Za-z_:][-A-Za-z0-9._:]*)\s+(?:"([^"]*)"|'([^']*)'|((?:SYSTEM|PUBLIC)\s[^>]*))\s*>`)
	charRef    = regexp.MustCompile(`&#(x[0-9A-Fa-f]+|[0-9]+);`)
)

// predefined lists the XML entities in replacement order; amp comes last so
// that "&amp;lt;" stays "&lt;".
var predefined = [...][2]string{
	{"lt", "<"},
	{"gt", ">"},
	{"quot", `"`},
	{"apos", "'"},
	{"amp", "&"},
}

// LoadEntities reads the general entity declarations of a DTD. Character
// references in entity values are resolved. Parameter entities and external
// entities are skipped. A read error or a declaration that cannot be parsed
// fails with ErrDTD.
func LoadEntities(r io.Reader) (map[string]string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading dtd: %v", apperrors.ErrDTD, err)
	}
	entities := make(map[string]string)
	if err := parseEntities(string(raw), entities); err != nil {
		return nil, err
	}
	return entities, nil
}

// DefaultEntities returns the HTML Latin-1 entity set used when no DTD is
// given.
func DefaultEntities() map[string]string {
	out := make(map[string]string, len(xml.HTMLEntity))
	for k, v := range xml.HTMLEntity {
		out[k] = v
	}
	return out
}

func parseEntities(dtd string, into map[string]string) error {
	dtd = dtdComment.ReplaceAllString(dtd, "")
	rest := dtd
	for {
		i := strings.Index(rest, "<!ENTITY")
		if i < 0 {
			return nil
		}
		rest = rest[i:]
		m := entityDecl.FindStringSubmatch(rest)
		if m == nil {
			line := 1 + strings.Count(dtd[:len(dtd)-len(rest)], "\n")
			return fmt.Errorf("%w: unparsable entity declaration at line %d", apperrors.ErrDTD, line)
		}
		rest = rest[len(m[0]):]
		if m[1] != "" || m[5] != "" {
			continue
		}
		value := m[3]
		if value == "" {
			value = m[4]
		}
		into[m[2]] = resolveReferences(value)
	}
}

// resolveReferences replaces character references and the predefined
// entities in s.
func resolveReferences(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	s = charRef.ReplaceAllStringFunc(s, func(ref string) string {
		body := ref[2 : len(ref)-1]
		base := 10
		if body[0] == 'x' {
			body, base = body[1:], 16
		}
		n, err := strconv.ParseInt(body, base, 32)
		if err != nil {
			return ref
		}
		return string(rune(n))
	})
	for _, p := range predefined {
		s = strings.ReplaceAll(s, "&"+p[0]+";", p[1])
	}
	return s
}

// internalSubset returns the text between '[' and the last ']' of a DOCTYPE
// directive, or "".
func internalSubset(directive []byte) string {
	d := string(directive)
	if !strings.HasPrefix(d, "DOCTYPE") {
		return ""
	}
	open := strings.IndexByte(d, '[')
	end := strings.LastIndexByte(d, ']')
	if open < 0 || end <= open {
		return ""
	}
	return d[open+1 : end]
}
