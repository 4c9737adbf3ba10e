package handler

import (
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/codec"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/idindex"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/name"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/store"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/search"
)

type idView struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
	URL   string `json:"url"`
}

type publicationRef struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Year  int    `json:"year,omitempty"`
}

type personRef struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

type publicationView struct {
	Key        string            `json:"key"`
	Mdate      string            `json:"mdate"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Title      string            `json:"title"`
	Year       int               `json:"year,omitempty"`
	Venue      string            `json:"venue,omitempty"`
	Toc        string            `json:"toc,omitempty"`
	Authors    []personRef       `json:"authors"`
	Fields     []codec.Field     `json:"fields"`
	IDs        []idView          `json:"ids"`
}

type personView struct {
	Key            string           `json:"key"`
	PID            string           `json:"pid,omitempty"`
	Mdate          string           `json:"mdate"`
	AggrMdate      string           `json:"aggregated_mdate"`
	Name           string           `json:"name"`
	Aliases        []string         `json:"aliases,omitempty"`
	Disambiguation bool             `json:"disambiguation"`
	Group          bool             `json:"group"`
	NoShow         bool             `json:"noshow"`
	URLs           []string         `json:"urls,omitempty"`
	IsNot          []string         `json:"is_not,omitempty"`
	IDs            []idView         `json:"ids"`
	Publications   []publicationRef `json:"publications"`
}

type nameView struct {
	Name      string   `json:"name"`
	First     string   `json:"first,omitempty"`
	Last      string   `json:"last"`
	Suffix    string   `json:"suffix,omitempty"`
	HomonymID string   `json:"homonym_id,omitempty"`
	CoreName  string   `json:"core_name"`
	URLPart   string   `json:"url_part"`
	Owner     string   `json:"owner,omitempty"`
	Primary   string   `json:"primary,omitempty"`
	Homonyms  []string `json:"homonyms"`
}

type coauthorView struct {
	personRef
	Weight int `json:"weight"`
}

type communityView struct {
	Index   int         `json:"index"`
	Size    int         `json:"size"`
	Members []personRef `json:"members"`
}

type networkView struct {
	Person      personRef       `json:"person"`
	Neighbors   int             `json:"neighbors"`
	Entropy     float64         `json:"entropy"`
	Communities []communityView `json:"communities"`
}

type pathView struct {
	From   string      `json:"from"`
	To     string      `json:"to"`
	Length int         `json:"length"`
	Found  bool        `json:"found"`
	Path   []personRef `json:"path"`
}

type hitView struct {
	publicationRef
	Score float64 `json:"score,omitempty"`
}

type searchView struct {
	Query string    `json:"query"`
	Mode  string    `json:"mode"`
	Total int       `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
	Hits  []hitView `json:"hits"`
}

type listView struct {
	Key          string           `json:"key,omitempty"`
	Title        string           `json:"title,omitempty"`
	Kind         string           `json:"kind,omitempty"`
	PageURL      string           `json:"page_url,omitempty"`
	Total        int              `json:"total"`
	Page         int              `json:"page"`
	Limit        int              `json:"limit"`
	Publications []publicationRef `json:"publications"`
}

func toIDViews(ids []idindex.ID) []idView {
	out := make([]idView, len(ids))
	for i, id := range ids {
		out[i] = idView{Kind: id.Kind.Name, Value: id.Value, URL: id.URL()}
	}
	return out
}

func refOf(pub *store.Publication) publicationRef {
	return publicationRef{Key: pub.Key(), Title: pub.Title(), Year: pub.YearInt()}
}

func refsOf(pubs []*store.Publication) []publicationRef {
	out := make([]publicationRef, len(pubs))
	for i, p := range pubs {
		out[i] = refOf(p)
	}
	return out
}

func personRefOf(p *store.Person) personRef {
	return personRef{Key: p.Key(), Name: p.PrimaryName().Name()}
}

func personRefsOf(ps []*store.Person) []personRef {
	out := make([]personRef, len(ps))
	for i, p := range ps {
		out[i] = personRefOf(p)
	}
	return out
}

func publicationViewOf(pub *store.Publication) publicationView {
	v := publicationView{
		Key:        pub.Key(),
		Mdate:      pub.MdateString(),
		Type:       pub.Tag(),
		Attributes: pub.Attributes(),
		Title:      pub.Title(),
		Year:       pub.YearInt(),
		IDs:        toIDViews(idindex.PublicationIDs(pub)),
	}
	if s := pub.Stream(); s != nil {
		v.Venue = s.Title()
	}
	if t := pub.Toc(); t != nil {
		v.Toc = t.Key()
	}
	for _, n := range pub.Authors() {
		ref := personRef{Name: n.Name()}
		if p := n.Person(); p != nil {
			ref.Key = p.Key()
		}
		v.Authors = append(v.Authors, ref)
	}
	r := pub.Reader()
	v.Fields = make([]codec.Field, r.NumberOfFields())
	for i := range v.Fields {
		v.Fields[i] = r.Field(i)
	}
	return v
}

func personViewOf(st *store.Store, p *store.Person) personView {
	v := personView{
		Key:            p.Key(),
		Mdate:          p.MdateString(),
		AggrMdate:      p.AggregatedMdateString(),
		Name:           p.PrimaryName().Name(),
		Disambiguation: st.IsDisambiguation(p),
		Group:          p.IsGroup(),
		NoShow:         p.IsNoShow(),
		URLs:           p.URLs(),
		IDs:            toIDViews(idindex.PersonIDs(p)),
		Publications:   refsOf(p.Publications()),
	}
	v.PID, _ = p.PID()
	for _, a := range p.Aliases() {
		v.Aliases = append(v.Aliases, a.Name())
	}
	for _, n := range st.IsNotNames(p) {
		v.IsNot = append(v.IsNot, n.Name())
	}
	return v
}

func nameViewOf(raw string, n *store.PersonName, others []*store.PersonName) nameView {
	parsed := name.Parse(raw)
	v := nameView{
		Name:      parsed.Name(true),
		First:     parsed.First,
		Last:      parsed.Last,
		Suffix:    parsed.Suffix,
		HomonymID: parsed.HomonymID,
		CoreName:  parsed.CoreName(),
		URLPart:   parsed.URLPart,
		Homonyms:  make([]string, len(others)),
	}
	for i, o := range others {
		v.Homonyms[i] = o.Name()
	}
	if n != nil && n.HasPerson() {
		v.Owner = n.Person().Key()
		v.Primary = n.PrimaryName().Name()
	}
	return v
}

func searchViewOf(query, mode string, res search.Result) searchView {
	v := searchView{
		Query: query,
		Mode:  mode,
		Total: res.Total,
		Page:  res.Page,
		Limit: res.Limit,
		Hits:  make([]hitView, len(res.Hits)),
	}
	for i, h := range res.Hits {
		v.Hits[i] = hitView{publicationRef: refOf(h.Publication), Score: h.Score}
	}
	return v
}
