package export

import (
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/idindex"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/store"
)

type ExternalID struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// Author is one author slot of a publication. PersonKey is empty when the
// name has no profile.
type Author struct {
	Name      string `json:"name"`
	PersonKey string `json:"person_key,omitempty"`
}

type PublicationDoc struct {
	Key     string       `json:"key"`
	Mdate   string       `json:"mdate,omitempty"`
	Type    string       `json:"type"`
	Title   string       `json:"title"`
	Year    int          `json:"year,omitempty"`
	Venue   string       `json:"venue,omitempty"`
	Toc     string       `json:"toc,omitempty"`
	Authors []Author     `json:"authors"`
	IDs     []ExternalID `json:"ids,omitempty"`
	XML     string       `json:"xml"`
}

type PersonDoc struct {
	Key             string       `json:"key"`
	Mdate           string       `json:"mdate,omitempty"`
	AggregatedMdate string       `json:"aggregated_mdate,omitempty"`
	Name            string       `json:"name"`
	Aliases         []string     `json:"aliases,omitempty"`
	URLs            []string     `json:"urls,omitempty"`
	IDs             []ExternalID `json:"ids,omitempty"`
	Publications    int          `json:"publications"`
	Disambiguation  bool         `json:"disambiguation"`
}

// AuthorNames returns the display names in author order.
func (d PublicationDoc) AuthorNames() []string {
	out := make([]string, len(d.Authors))
	for i, a := range d.Authors {
		out[i] = a.Name
	}
	return out
}

func externalIDs(ids []idindex.ID) []ExternalID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]ExternalID, len(ids))
	for i, id := range ids {
		out[i] = ExternalID{Kind: id.Kind.Name, Value: id.Value}
	}
	return out
}

func mdateOf(r store.Record) string {
	if r.Mdate() == 0 {
		return ""
	}
	return r.MdateString()
}

// PublicationDocOf flattens pub into its exported form.
func PublicationDocOf(pub *store.Publication) PublicationDoc {
	d := PublicationDoc{
		Key:   pub.Key(),
		Mdate: mdateOf(pub),
		Type:  pub.Tag(),
		Title: pub.Title(),
		Year:  pub.YearInt(),
		IDs:   externalIDs(idindex.PublicationIDs(pub)),
		XML:   pub.XML(),
	}
	if s := pub.Stream(); s != nil {
		d.Venue = s.Title()
	}
	if t := pub.Toc(); t != nil {
		d.Toc = t.Key()
	}
	names := pub.Authors()
	d.Authors = make([]Author, len(names))
	for i, n := range names {
		d.Authors[i] = Author{Name: n.Name()}
		if p := n.Person(); p != nil {
			d.Authors[i].PersonKey = p.Key()
		}
	}
	return d
}

// PersonDocOf flattens p. st decides the disambiguation flag.
func PersonDocOf(st *store.Store, p *store.Person) PersonDoc {
	d := PersonDoc{
		Key:             p.Key(),
		Mdate:           mdateOf(p),
		AggregatedMdate: p.AggregatedMdateString(),
		Name:            p.PrimaryName().Name(),
		URLs:            p.URLs(),
		IDs:             externalIDs(idindex.PersonIDs(p)),
		Publications:    p.NumberOfPublications(),
		Disambiguation:  st.IsDisambiguation(p),
	}
	for _, a := range p.Aliases() {
		d.Aliases = append(d.Aliases, a.Name())
	}
	return d
}
