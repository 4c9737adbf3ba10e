package ingest

import (
	"errors"
	"io"
)

var errEntityLimit = errors.New("entity expansion limit exceeded")

// entityCounter counts references to non-predefined named entities in the
// raw byte stream and fails the read once more than limit were seen. State
// carries across Read calls so a reference split between two reads is still
// counted once.
type entityCounter struct {
	r     io.Reader
	limit int
	count int

	inRef bool
	name  []byte
}

func newEntityCounter(r io.Reader, limit int) *entityCounter {
	return &entityCounter{r: r, limit: limit, name: make([]byte, 0, 16)}
}

func (c *entityCounter) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	for _, b := range p[:n] {
		switch {
		case b == '&':
			c.inRef = true
			c.name = c.name[:0]
		case !c.inRef:
		case b == ';':
			c.inRef = false
			if c.counts(c.name) {
				c.count++
			}
		case len(c.name) < 32 && b != '<' && b != ' ':
			c.name = append(c.name, b)
		default:
			c.inRef = false
		}
	}
	if c.limit > 0 && c.count > c.limit {
		return n, errEntityLimit
	}
	return n, err
}

func (c *entityCounter) counts(name []byte) bool {
	if len(name) == 0 || name[0] == '#' {
		return false
	}
	switch string(name) {
	case "amp", "lt", "gt", "quot", "apos":
		return false
	}
	return true
}
