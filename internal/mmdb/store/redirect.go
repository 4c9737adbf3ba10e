package store

import (
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/codec"
)

// Redirect points at another person record through its crossref field.
type Redirect struct {
	record
}

func (r *Redirect) Kind() Kind { return KindRedirect }

func (r *Redirect) Reader() *codec.FieldReader    { return r.fieldReader(r) }
func (r *Redirect) Attributes() map[string]string { return r.attributes(r) }
func (r *Redirect) XML() string                   { return codec.Rebuild(r.buf, r.key, r.mdate, r) }

// Crossref returns the key the redirect points to.
func (r *Redirect) Crossref() (string, bool) {
	v, ok := r.Reader().ValueOf("crossref")
	if !ok {
		return "", false
	}
	return codec.Unescape(v), true
}
