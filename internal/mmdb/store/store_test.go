package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/codec"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/errors"
)

type recordingWarner struct {
	categories []string
}

func (w *recordingWarner) Warn(category string, _ ...any) {
	w.categories = append(w.categories, category)
}

func (w *recordingWarner) count(category string) int {
	n := 0
	for _, c := range w.categories {
		if c == category {
			n++
		}
	}
	return n
}

// encode builds a record buffer with one placeholder per name followed by
// literal fields given as tag/value pairs.
func encode(root string, attrs []codec.Attr, names int, fields ...string) []byte {
	var w codec.Writer
	w.OpenRoot(root)
	for _, a := range attrs {
		w.Attr(a.Name, a.Value)
	}
	w.EndStart()
	for i := 0; i < names; i++ {
		w.Placeholder(codec.TagAuthor, nil)
	}
	for i := 0; i+1 < len(fields); i += 2 {
		w.StartElement(fields[i], nil)
		w.Text(fields[i+1])
		w.EndElement(fields[i])
	}
	w.EndElement(root)
	return w.Bytes()
}

func names(b *store.Builder, raws ...string) []*store.PersonName {
	out := make([]*store.PersonName, len(raws))
	for i, r := range raws {
		out[i] = b.InternName(r)
	}
	return out
}

func buildFixture(t *testing.T) (*store.Store, *recordingWarner) {
	t.Helper()
	w := &recordingWarner{}
	b := store.NewBuilder(w)

	toc := b.InternToc("db/conf/x/x2020.bht")
	conf := b.InternBookTitle("X")
	for _, pub := range []struct {
		key   string
		mdate int
		names []string
	}{
		{"conf/x/AB20", 20200101, []string{"A", "B"}},
		{"conf/x/BC20", 20210505, []string{"B", "C", "B"}},
		{"conf/x/Ghost20", 20200101, []string{"Ghost"}},
	} {
		p := b.AddPublication(store.PublicationSpec{
			Key:    pub.key,
			Mdate:  pub.mdate,
			Buf:    encode("inproceedings", nil, len(pub.names), "title", "T "+pub.key),
			Names:  names(b, pub.names...),
			Year:   2020,
			Toc:    toc,
			Stream: conf,
		})
		require.NotNil(t, p)
	}
	for _, key := range []string{"A", "B", "C"} {
		_, err := b.AddPerson("homepages/"+key, 20190101, encode("person", nil, 1), names(b, key))
		require.NoError(t, err)
	}
	b.AddRedirect("homepages/r1", 0, encode("person", nil, 0, "crossref", "homepages/r2"), nil)
	b.AddRedirect("homepages/r2", 0, encode("person", nil, 0, "crossref", "homepages/B"), nil)
	b.AddRedirect("homepages/dead", 0, encode("person", nil, 0, "crossref", "homepages/nobody"), nil)
	b.AddRedirect("homepages/loop", 0, encode("person", nil, 0, "crossref", "homepages/loop"), nil)
	b.AddRedirect("homepages/bare", 0, encode("person", nil, 0), nil)
	return b.Build(), w
}

func TestBuildLinksPublications(t *testing.T) {
	s, w := buildFixture(t)

	a, ok := s.Person("homepages/A")
	require.True(t, ok)
	bp, _ := s.Person("homepages/B")
	c, _ := s.Person("homepages/C")

	assert.Equal(t, 1, a.NumberOfPublications())
	require.Equal(t, 2, bp.NumberOfPublications(), "duplicate names count once")
	assert.Equal(t, "conf/x/AB20", bp.Publications()[0].Key())
	assert.Equal(t, "conf/x/BC20", bp.Publications()[1].Key())
	assert.Equal(t, 1, c.NumberOfPublications())

	assert.Equal(t, 20210505, bp.AggregatedMdate())
	assert.Equal(t, "2020-01-01", a.AggregatedMdateString())

	assert.Equal(t, 1, w.count("no person record"))
	assert.Zero(t, w.count("missing publication(s)"))
}

func TestStoreLookupsAndOrder(t *testing.T) {
	s, _ := buildFixture(t)

	stats := s.Stats()
	assert.Equal(t, 3, stats.Publications)
	assert.Equal(t, 3, stats.Persons)
	assert.Equal(t, 5, stats.Redirects)
	assert.Equal(t, 4, stats.PersonNames)
	assert.Equal(t, 1, stats.Tocs)
	assert.Equal(t, 1, stats.BookTitles)

	keys := []string{}
	for p := range s.AllPublications() {
		keys = append(keys, p.Key())
	}
	assert.Equal(t, []string{"conf/x/AB20", "conf/x/BC20", "conf/x/Ghost20"}, keys)

	_, ok := s.Publication("nope")
	assert.False(t, ok)
	rec, ok := s.Record("homepages/r1")
	require.True(t, ok)
	assert.Equal(t, store.KindRedirect, rec.Kind())

	toc, ok := s.Toc("db/conf/x/x2020.bht")
	require.True(t, ok)
	assert.Equal(t, 3, toc.NumberOfPublications())
	assert.Equal(t, "db/conf/x/x2020", toc.PageURL())

	bt, ok := s.BookTitle("X")
	require.True(t, ok)
	assert.Len(t, bt.Publications(), 3)

	assert.Len(t, s.PublicationsWithPrefix("conf/x/B"), 1)
	assert.Empty(t, s.PublicationsWithPrefix("journals/"))
}

func TestResolvePerson(t *testing.T) {
	s, _ := buildFixture(t)

	p, err := s.ResolvePerson("homepages/r1")
	require.NoError(t, err)
	assert.Equal(t, "homepages/B", p.Key())

	p, err = s.ResolvePerson("homepages/A")
	require.NoError(t, err)
	assert.Equal(t, "homepages/A", p.Key())

	_, err = s.ResolvePerson("homepages/unknown")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = s.ResolvePerson("homepages/dead")
	assert.ErrorIs(t, err, apperrors.ErrDanglingRedirect)

	_, err = s.ResolvePerson("homepages/loop")
	assert.ErrorIs(t, err, apperrors.ErrRedirectLoop)

	_, err = s.ResolvePerson("homepages/bare")
	assert.ErrorIs(t, err, apperrors.ErrMissingCrossref)
}

func TestPersonWithoutNameFails(t *testing.T) {
	b := store.NewBuilder(nil)
	_, err := b.AddPerson("homepages/x", 0, nil, nil)
	assert.ErrorIs(t, err, apperrors.ErrPersonWithoutName)
}

func TestDuplicateKey(t *testing.T) {
	w := &recordingWarner{}
	b := store.NewBuilder(w)
	rec := store.PublicationSpec{Key: "k", Buf: encode("article", nil, 0)}
	require.NotNil(t, b.AddPublication(rec))
	assert.Nil(t, b.AddPublication(rec))
	assert.Nil(t, b.AddRedirect("k", 0, encode("www", nil, 0), nil))
	assert.Equal(t, 2, w.count("duplicate key"))
}

func TestPersonFlagsAndNames(t *testing.T) {
	b := store.NewBuilder(nil)
	buf := encode("person", []codec.Attr{{Name: "publtype", Value: "disambiguation"}}, 2,
		"url", "https://orcid.org/0000-0002-1825-0097", "note", "x")
	p, err := b.AddPerson("homepages/w/Wang", 20200101, buf, names(b, "Wei Wang", "W. Wang"))
	require.NoError(t, err)
	b.InternName("Wei Wang 0001")
	plain, err := b.AddPerson("plain", 0, nil, names(b, "Solo"))
	require.NoError(t, err)
	s := b.Build()

	pid, err := p.PID()
	require.NoError(t, err)
	assert.Equal(t, "w/Wang", pid)
	_, err = plain.PID()
	assert.ErrorIs(t, err, apperrors.ErrNotAPersonKey)

	assert.True(t, p.IsDisambiguation())
	assert.True(t, s.IsDisambiguation(p))
	assert.False(t, s.IsDisambiguation(plain))
	assert.False(t, p.IsNoShow())
	assert.True(t, p.HasPersonInfo())
	assert.False(t, p.IsTrivial())
	assert.True(t, plain.IsTrivial())
	assert.Equal(t, []string{"https://orcid.org/0000-0002-1825-0097"}, p.URLs())

	primary := p.PrimaryName()
	alias := p.Aliases()[0]
	assert.Equal(t, "Wei Wang", primary.Name())
	assert.True(t, primary.IsPrimary())
	assert.False(t, alias.IsPrimary())
	assert.Equal(t, primary, alias.PrimaryName())
	assert.True(t, alias.IsAliasOf(primary))
	assert.Equal(t, []*store.PersonName{alias}, primary.Aliases())

	homonym, ok := s.PersonName("Wei Wang 0001")
	require.True(t, ok)
	assert.True(t, homonym.IsHomonym())
	assert.Equal(t, "0001", homonym.HomonymID())
	assert.False(t, homonym.HasPerson())

	assert.Equal(t, "<person key=\"plain\"><author>Solo</author></person>", plain.XML())
}

func TestIsNotNames(t *testing.T) {
	w := &recordingWarner{}
	b := store.NewBuilder(w)
	var enc codec.Writer
	enc.OpenRoot("person")
	enc.EndStart()
	enc.Placeholder(codec.TagAuthor, nil)
	for _, v := range []string{"Other Person", "Missing Person"} {
		enc.StartElement("note", []codec.Attr{{Name: "type", Value: "isnot"}})
		enc.Text(v)
		enc.EndElement("note")
	}
	enc.EndElement("person")
	p, err := b.AddPerson("homepages/p", 0, enc.Bytes(), names(b, "Some Person"))
	require.NoError(t, err)
	b.InternName("Other Person")
	s := b.Build()

	got := s.IsNotNames(p)
	require.Len(t, got, 1)
	assert.Equal(t, "Other Person", got[0].Name())
	assert.Equal(t, 1, w.count("no such is-not target"))

	s.IsNotNames(p)
	assert.Equal(t, 1, w.count("no such is-not target"), "reported once per person")
	assert.True(t, p.HasIsNot())
}

func TestMultiStreamTitle(t *testing.T) {
	b := store.NewBuilder(nil)
	j := b.InternJournal("J")
	bt := b.InternBookTitle("B")
	j2 := b.InternJournal("J2")

	s, promoted := store.AddStream(nil, j)
	assert.False(t, promoted)
	s, promoted = store.AddStream(s, bt)
	assert.True(t, promoted)
	s, _ = store.AddStream(s, j2)

	multi, ok := s.(*store.MultiStreamTitle)
	require.True(t, ok)
	assert.Equal(t, "J", multi.Title())
	assert.Equal(t, j, multi.Journal())
	assert.Equal(t, bt, multi.Book())
	assert.Equal(t, []*store.JournalTitle{j, j2}, multi.Journals())

	same, promoted := store.AddStream(j, j)
	assert.True(t, promoted, "a repeated venue is promoted too")
	assert.Equal(t, []*store.JournalTitle{j, j}, same.(*store.MultiStreamTitle).Journals())
}
