package store

import (
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/codec"
)

// Publication is a bibliographic record. Its journal, booktitle and year
// placeholders resolve through Stream and Year.
type Publication struct {
	record
	year   int
	toc    *TableOfContents
	stream StreamTitle
}

func (p *Publication) Kind() Kind { return KindPublication }

// Year returns the publication year as a string, "" when there is none.
// It implements codec.Resolver; use YearInt for the number.
func (p *Publication) Year() string {
	if p.year == 0 {
		return ""
	}
	return strconv.Itoa(p.year)
}

func (p *Publication) YearInt() int { return p.year }

// Toc returns the table of contents the publication belongs to, or nil.
func (p *Publication) Toc() *TableOfContents { return p.toc }

// Stream returns the venue, or nil. It may be a *MultiStreamTitle.
func (p *Publication) Stream() StreamTitle { return p.stream }

// Journal returns the title of the first journal attached to the record.
func (p *Publication) Journal() string {
	if p.stream == nil {
		return ""
	}
	if j := p.stream.Journal(); j != nil {
		return j.Title()
	}
	return ""
}

// BookTitle returns the title of the first booktitle attached to the record.
func (p *Publication) BookTitle() string {
	if p.stream == nil {
		return ""
	}
	if b := p.stream.Book(); b != nil {
		return b.Title()
	}
	return ""
}

func (p *Publication) Reader() *codec.FieldReader    { return p.fieldReader(p) }
func (p *Publication) Attributes() map[string]string { return p.attributes(p) }
func (p *Publication) XML() string                   { return codec.Rebuild(p.buf, p.key, p.mdate, p) }

// Title returns the plain text of the title field.
func (p *Publication) Title() string {
	r := p.Reader()
	if i := r.IndexOf("title", 0); i >= 0 {
		return r.Text(i)
	}
	return ""
}

// Authors returns the author names in order.
func (p *Publication) Authors() []*PersonName { return p.namesOf("author") }

// Editors returns the editor names in order.
func (p *Publication) Editors() []*PersonName { return p.namesOf("editor") }

func (p *Publication) namesOf(tag string) []*PersonName {
	r := p.Reader()
	var out []*PersonName
	n := 0
	for i := 0; i < r.NumberOfFields(); i++ {
		t := r.Tag(i)
		if (t != "author" && t != "editor") || !r.IsPlaceholder(i) {
			continue
		}
		if t == tag && n < len(p.names) {
			out = append(out, p.names[n])
		}
		n++
	}
	return out
}

// Persons returns the distinct persons referenced by the name list, in
// order of first appearance. Names without a person record are skipped.
func (p *Publication) Persons() []*Person {
	out := make([]*Person, 0, len(p.names))
	for _, n := range p.names {
		pers := n.Person()
		if pers == nil || containsPerson(out, pers) {
			continue
		}
		out = append(out, pers)
	}
	return out
}

func containsPerson(list []*Person, p *Person) bool {
	for _, q := range list {
		if q == p {
			return true
		}
	}
	return false
}
