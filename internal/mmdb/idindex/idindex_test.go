package idindex_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/idindex"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/ingest"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/errors"
)

const corpus = `<?xml version="1.0"?>
<dblp>
<article key="journals/x/A20" mdate="2020-01-01"><author>Ann</author><title>A</title><journal>X</journal><year>2020</year><ee>https://doi.org/10.1000/abc</ee><ee>https://arxiv.org/abs/2001.00001</ee><url>db/journals/x/x1.html#A20</url></article>
<book key="books/x/B20" mdate="2020-01-01"><author>Ann</author><title>B</title><year>2020</year><isbn>3-540-12345-X</isbn><ee>http://d-nb.info/gnd/118</ee><ee>http://d-nb.info/99887766x</ee></book>
<article key="journals/x/C20" mdate="2020-01-01"><author>Ben</author><title>C</title><journal>X</journal><year>2020</year><ee>http://dx.doi.org/10.1000/ABC</ee><url>db/journals/x/x1.html#C20</url></article>
<www key="homepages/a/Ann" mdate="2020-01-01"><author>Ann</author><title>Home Page</title><url>https://orcid.org/0000000218250097</url><url>https://www.wikidata.org/wiki/q42</url><url>https://scholar.google.de/citations?user=AbC-12_x&amp;hl=en</url><url>https://example.org/~ann</url></www>
<www key="homepages/b/Ben" mdate="2020-01-01"><author>Ben</author><title>Home Page</title><url>http://id.loc.gov/authorities/names/n79021164.html</url><url>https://www.imdb.com/name/nm0000001/</url></www>
</dblp>
`

func load(t *testing.T) (*store.Store, *idindex.Index) {
	t.Helper()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := ingest.Parse(context.Background(), strings.NewReader(corpus), ingest.Options{Logger: quiet})
	require.NoError(t, err)
	return st, idindex.Build(st)
}

func TestKindMatchAndURL(t *testing.T) {
	tests := []struct {
		kind *idindex.Kind
		url  string
		id   string
		ok   bool
	}{
		{idindex.PubDOI, "https://doi.org/10.1145/abc", "10.1145/ABC", true},
		{idindex.PubDOI, "https://doi.acm.org/10.1145/x", "10.1145/X", true},
		{idindex.PubDNB, "http://d-nb.info/12345678x", "12345678X", true},
		{idindex.PubDNB, "http://d-nb.info/gnd/118", "", false},
		{idindex.PersonGND, "http://d-nb.info/gnd/118-5x", "1185X", true},
		{idindex.PersonORCID, "https://orcid.org/0000-0002-1825-0097", "0000-0002-1825-0097", true},
		{idindex.PersonORCID, "https://www.orcid.org/000000021825009x", "0000-0002-1825-009X", true},
		{idindex.PersonWikidata, "https://www.wikidata.org/wiki/q42", "Q42", true},
		{idindex.PersonDBLP, "https://dblp.org/pid/12/345", "12/345", true},
		{idindex.PersonDBLP, "https://dblp.org/pid/", "", true},
		{idindex.PersonDBLP, "ftp://dblp.org/pid/1", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.kind.Name+" "+tt.url, func(t *testing.T) {
			id, ok := tt.kind.Match(tt.url)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.id, id)
		})
	}

	assert.Equal(t, "https://doi.org/10.1000/ABC", idindex.PubDOI.URL("10.1000/abc"))
	assert.Equal(t, "https://orcid.org/0000-0002-1825-0097", idindex.PersonORCID.URL("0000000218250097"))
}

func TestKindByLabel(t *testing.T) {
	k, err := idindex.KindByLabel("person", "orcid")
	require.NoError(t, err)
	assert.Same(t, idindex.PersonORCID, k)

	k, err = idindex.KindByLabel("publications", "DOI")
	require.NoError(t, err)
	assert.Same(t, idindex.PubDOI, k)

	_, err = idindex.KindByLabel("person", "DOI")
	assert.ErrorIs(t, err, apperrors.ErrUnknownIDKind)
	_, err = idindex.KindByLabel("venue", "DBLP")
	assert.ErrorIs(t, err, apperrors.ErrUnknownIDKind)
}

func TestPublicationLookup(t *testing.T) {
	_, x := load(t)

	p, ok := x.Publication(idindex.PubDOI, "10.1000/abc")
	require.True(t, ok)
	assert.Equal(t, "journals/x/C20", p.Key(), "later record wins a shared id")

	p, ok = x.Publication(idindex.PubArXiv, "2001.00001")
	require.True(t, ok)
	assert.Equal(t, "journals/x/A20", p.Key())

	p, ok = x.Publication(idindex.PubISBN, "354012345x")
	require.True(t, ok)
	assert.Equal(t, "books/x/B20", p.Key())

	p, ok = x.Publication(idindex.PubDNB, "99887766X")
	require.True(t, ok)
	assert.Equal(t, "books/x/B20", p.Key())

	p, ok = x.Publication(idindex.PubDBLP, "journals/x/A20")
	require.True(t, ok)
	assert.Equal(t, "journals/x/A20", p.Key())

	_, ok = x.Publication(idindex.PersonORCID, "0000-0002-1825-0097")
	assert.False(t, ok)
	_, ok = x.Publication(idindex.PubHandle, "1/2")
	assert.False(t, ok)

	assert.Equal(t, 1, x.NumberOfPublications(idindex.PubDOI))
	assert.Equal(t, 3, x.NumberOfPublications(idindex.PubDBLP))
}

func TestPersonLookup(t *testing.T) {
	_, x := load(t)

	p, ok := x.Person(idindex.PersonORCID, "0000-0002-1825-0097")
	require.True(t, ok)
	assert.Equal(t, "homepages/a/Ann", p.Key())

	p, ok = x.Person(idindex.PersonWikidata, "Q42")
	require.True(t, ok)
	assert.Equal(t, "homepages/a/Ann", p.Key())

	scholar, err := idindex.KindByLabel("person", "GOOGLE_SCHOLAR")
	require.NoError(t, err)
	p, ok = x.Person(scholar, "AbC-12_x&hl=en")
	require.True(t, ok, "lookup normalises like indexing")
	assert.Equal(t, "homepages/a/Ann", p.Key())

	loc, err := idindex.KindByLabel("person", "LOC")
	require.NoError(t, err)
	p, ok = x.Person(loc, "n79021164")
	require.True(t, ok)
	assert.Equal(t, "homepages/b/Ben", p.Key())

	p, ok = x.Person(idindex.PersonDBLP, "a/Ann")
	require.True(t, ok)
	assert.Equal(t, "homepages/a/Ann", p.Key())

	persons := x.Persons(idindex.PersonDBLP)
	assert.Len(t, persons, 2)
	assert.Len(t, x.Persons(idindex.PersonORCID), 1)
	assert.Empty(t, x.Persons(idindex.PersonGND))
}

func TestRecordIDs(t *testing.T) {
	st, _ := load(t)

	pub, ok := st.Publication("books/x/B20")
	require.True(t, ok)
	ids := idindex.PublicationIDs(pub)
	require.Len(t, ids, 2, "gnd links are not publication ids")
	assert.Equal(t, idindex.PubISBN, ids[0].Kind)
	assert.Equal(t, "354012345X", ids[0].Value)
	assert.Equal(t, "http://d-nb.info/99887766X", ids[1].URL())

	ann, _ := st.Person("homepages/a/Ann")
	var kinds []string
	for _, id := range idindex.PersonIDs(ann) {
		kinds = append(kinds, id.Kind.Name)
	}
	assert.Equal(t, []string{"ORCID", "WIKIDATA", "GOOGLE_SCHOLAR"}, kinds)
}

func TestStreamIDs(t *testing.T) {
	ids := idindex.StreamIDs([]string{
		"https://dblp.org/db/journals/tods",
		"https://www.worldcat.org/issn/0362-5915",
		"https://example.org",
	})
	require.Len(t, ids, 2)
	assert.Equal(t, "journals/tods", ids[0].Value)
	assert.Equal(t, "ISSN", ids[1].Kind.Name)
}
