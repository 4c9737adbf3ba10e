package name

import "sync"

// Cache memoises Parse per raw string. Concurrent callers may parse the same
// string twice; the stored value is the same either way.
type Cache struct {
	m sync.Map
}

func (c *Cache) Parse(raw string) Parsed {
	if v, ok := c.m.Load(raw); ok {
		return v.(Parsed)
	}
	v, _ := c.m.LoadOrStore(raw, Parse(raw))
	return v.(Parsed)
}
