package store

import (
	"fmt"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/codec"
	apperrors "github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/errors"
)

const personKeyPrefix = "homepages/"

// DefaultPersonRecord is the encoding used for a person without any field
// content beyond its name.
var DefaultPersonRecord = []byte("<person><0/></person>")

// Person is an author profile. Publications is filled by Builder.Build and
// never changes afterwards.
type Person struct {
	record
	publications []*Publication
	aggrMdate    int
}

func (p *Person) Kind() Kind { return KindPerson }

func (p *Person) Reader() *codec.FieldReader    { return p.fieldReader(p) }
func (p *Person) Attributes() map[string]string { return p.attributes(p) }
func (p *Person) XML() string                   { return codec.Rebuild(p.buf, p.key, p.mdate, p) }

// PrimaryName returns the first name of the profile.
func (p *Person) PrimaryName() *PersonName { return p.names[0] }

// Publications returns the linked publications ordered by key.
func (p *Person) Publications() []*Publication { return p.publications }

func (p *Person) NumberOfPublications() int { return len(p.publications) }

// AggregatedMdate is the latest mdate of the profile and its publications.
func (p *Person) AggregatedMdate() int { return p.aggrMdate }

func (p *Person) AggregatedMdateString() string { return codec.FormatMdate(p.aggrMdate) }

// PID returns the key without the "homepages/" prefix.
func (p *Person) PID() (string, error) {
	pid, ok := strings.CutPrefix(p.key, personKeyPrefix)
	if !ok {
		return "", fmt.Errorf("%w: %s", apperrors.ErrNotAPersonKey, p.key)
	}
	return pid, nil
}

// HasName reports whether raw is one of the profile's names.
func (p *Person) HasName(raw string) bool {
	for _, n := range p.names {
		if n.Name() == raw {
			return true
		}
	}
	return false
}

func (p *Person) HasAliases() bool { return len(p.names) > 1 }

// Aliases returns all names but the primary one.
func (p *Person) Aliases() []*PersonName {
	if len(p.names) < 2 {
		return nil
	}
	return p.names[1:]
}

func (p *Person) IsNoShow() bool { return p.publtypeContains(p, "noshow") }

func (p *Person) IsGroup() bool { return p.publtypeContains(p, "group") }

// IsDisambiguation reports an explicit disambiguation profile. Store.IsDisambiguation
// adds the homonym heuristic.
func (p *Person) IsDisambiguation() bool { return p.publtypeContains(p, "disambiguation") }

// HasPersonInfo reports whether the profile carries url, note or cite fields.
func (p *Person) HasPersonInfo() bool {
	r := p.Reader()
	return r.Contains("url") || r.Contains("note") || r.Contains("cite")
}

// IsNotValues returns the values of note fields of type "isnot".
func (p *Person) IsNotValues() []string {
	r := p.Reader()
	var out []string
	for i := r.IndexOf("note", 0); i >= 0; i = r.IndexOf("note", i+1) {
		if r.Attributes(i)["type"] == "isnot" {
			out = append(out, r.Text(i))
		}
	}
	return out
}

func (p *Person) HasIsNot() bool { return len(p.IsNotValues()) > 0 }

// IsTrivial reports a profile that is nothing but a name: no extra
// attributes, aliases, person info or is-not notes.
func (p *Person) IsTrivial() bool {
	if len(p.Attributes()) > 2 {
		return false
	}
	return !p.HasAliases() && !p.HasPersonInfo() && !p.HasIsNot()
}

// URLs returns the values of the url fields.
func (p *Person) URLs() []string {
	urls := p.Reader().ValuesOf("url")
	for i, u := range urls {
		urls[i] = codec.Unescape(u)
	}
	return urls
}

// ComparePersons orders persons by primary name.
func ComparePersons(a, b *Person) int {
	return ComparePersonNames(a.PrimaryName(), b.PrimaryName())
}
