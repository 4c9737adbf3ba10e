// Package store holds the immutable record database: publications, persons,
// redirects and the interned names, tables of contents and venue titles they
// share. A Store is produced once by a Builder and is safe for concurrent
// readers afterwards.
package store

import (
	"strings"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/codec"
)

// Kind tells the record variants apart.
type Kind int

const (
	KindPublication Kind = iota
	KindPerson
	KindRedirect
)

func (k Kind) String() string {
	switch k {
	case KindPublication:
		return "publication"
	case KindPerson:
		return "person"
	case KindRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Record is the behaviour shared by publications, persons and redirects.
type Record interface {
	Key() string
	Mdate() int
	MdateString() string
	Kind() Kind
	Tag() string
	Names() []*PersonName
	Reader() *codec.FieldReader
	Attributes() map[string]string
	XML() string
}

type record struct {
	key   string
	mdate int
	buf   []byte
	names []*PersonName

	once   sync.Once
	reader *codec.FieldReader
}

func (r *record) Key() string { return r.key }

// Mdate returns yyyymmdd, or 0 when the source had no valid mdate.
func (r *record) Mdate() int { return r.mdate }

func (r *record) MdateString() string { return codec.FormatMdate(r.mdate) }

func (r *record) Tag() string { return codec.RootTag(r.buf) }

// Names returns the author and editor names in document order.
func (r *record) Names() []*PersonName { return r.names }

// Bytes returns the compact encoding. Callers must not modify it.
func (r *record) Bytes() []byte { return r.buf }

func (r *record) NameAt(i int) string {
	if i < 0 || i >= len(r.names) {
		return ""
	}
	return r.names[i].Name()
}

func (r *record) Journal() string   { return "" }
func (r *record) BookTitle() string { return "" }
func (r *record) Year() string      { return "" }

// fieldReader returns the cached reader, building it on first use.
func (r *record) fieldReader(res codec.Resolver) *codec.FieldReader {
	r.once.Do(func() {
		r.reader = codec.NewFieldReader(r.buf, res)
	})
	return r.reader
}

// attributes returns the record element's attributes including key and
// mdate.
func (r *record) attributes(res codec.Resolver) map[string]string {
	attrs := r.fieldReader(res).RootAttributes()
	if attrs == nil {
		attrs = make(map[string]string, 2)
	}
	attrs["key"] = r.key
	if r.mdate > 0 {
		attrs["mdate"] = r.MdateString()
	}
	return attrs
}

func (r *record) publtypeContains(res codec.Resolver, word string) bool {
	attrs := r.fieldReader(res).RootAttributes()
	return strings.Contains(attrs["publtype"], word)
}

func (r *record) Reader() *codec.FieldReader    { return r.fieldReader(r) }
func (r *record) Attributes() map[string]string { return r.attributes(r) }
func (r *record) XML() string                   { return codec.Rebuild(r.buf, r.key, r.mdate, r) }
