package mmdb

import (
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/graph"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/idindex"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/store"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/search"
)

func (db *DB) Publication(key string) (*store.Publication, bool) { return db.st.Publication(key) }
func (db *DB) Person(key string) (*store.Person, bool)           { return db.st.Person(key) }
func (db *DB) Redirect(key string) (*store.Redirect, bool)       { return db.st.Redirect(key) }
func (db *DB) PersonName(raw string) (*store.PersonName, bool)   { return db.st.PersonName(raw) }
func (db *DB) Toc(key string) (*store.TableOfContents, bool)     { return db.st.Toc(key) }
func (db *DB) BookTitle(title string) (*store.BookTitle, bool)   { return db.st.BookTitle(title) }
func (db *DB) Journal(title string) (*store.JournalTitle, bool)  { return db.st.Journal(title) }
func (db *DB) Publications() []*store.Publication                { return db.st.Publications() }
func (db *DB) Persons() []*store.Person                          { return db.st.Persons() }

// ResolvePerson returns the person at key, following redirects.
func (db *DB) ResolvePerson(key string) (*store.Person, error) { return db.st.ResolvePerson(key) }

// PersonByName returns the owner of a person name.
func (db *DB) PersonByName(raw string) (*store.Person, bool) {
	n, ok := db.st.PersonName(raw)
	if !ok || !n.HasPerson() {
		return nil, false
	}
	return n.Person(), true
}

func (db *DB) IsDisambiguation(p *store.Person) bool { return db.st.IsDisambiguation(p) }

func (db *DB) PublicationByID(k *idindex.Kind, id string) (*store.Publication, bool) {
	return db.EnsureIDIndex().Publication(k, id)
}

func (db *DB) PersonByID(k *idindex.Kind, id string) (*store.Person, bool) {
	return db.EnsureIDIndex().Person(k, id)
}

func (db *DB) PublicationsByKind(k *idindex.Kind) []*store.Publication {
	return db.EnsureIDIndex().Publications(k)
}

func (db *DB) PersonsByKind(k *idindex.Kind) []*store.Person {
	return db.EnsureIDIndex().Persons(k)
}

// Homonyms returns every name sharing the base name of raw.
func (db *DB) Homonyms(raw string) []*store.PersonName {
	return db.EnsureHomonymIndex().All(raw)
}

// OtherHomonyms is Homonyms without raw itself.
func (db *DB) OtherHomonyms(raw string) []*store.PersonName {
	return db.EnsureHomonymIndex().Others(raw)
}

func (db *DB) NumberOfHomonyms(raw string) int {
	return db.EnsureHomonymIndex().Count(raw)
}

func (db *DB) Coauthors(p *store.Person) ([]*store.Person, error) {
	return db.EnsureCoauthorGraph().Coauthors(p)
}

func (db *DB) NumberOfCoauthors(p *store.Person) (int, error) {
	return db.EnsureCoauthorGraph().NumberOfCoauthors(p)
}

func (db *DB) CoauthorWeight(a, b *store.Person) (int, error) {
	return db.EnsureCoauthorGraph().Weight(a, b)
}

func (db *DB) HasCoauthors(a, b *store.Person) (bool, error) {
	return db.EnsureCoauthorGraph().HasCoauthors(a, b)
}

func (db *DB) CoauthorNetwork(p *store.Person, allowDisambiguations bool) (*graph.LocalNetwork, error) {
	return db.EnsureCoauthorGraph().Network(p, allowDisambiguations)
}

func (db *DB) CoauthorCommunity(p *store.Person, k int, allowDisambiguations bool) ([]*store.Person, error) {
	return db.EnsureCoauthorGraph().Community(p, k, allowDisambiguations)
}

func (db *DB) CoauthorCommunityIndex(p, coauthor *store.Person, allowDisambiguations bool) (int, error) {
	return db.EnsureCoauthorGraph().CommunityIndex(p, coauthor, allowDisambiguations)
}

// ShortestPath searches the coauthor graph and may touch large parts of it.
func (db *DB) ShortestPath(a, b *store.Person, allowDisambiguations bool) ([]*store.Person, error) {
	return db.EnsureCoauthorGraph().ShortestPath(a, b, allowDisambiguations)
}

// SearchTitles runs a term query against the title index.
func (db *DB) SearchTitles(query string, opts search.Options) search.Result {
	return db.EnsureSearchIndex().Search(search.ParseQuery(query), opts)
}

// SearchTitleSubstring scans all titles for text.
func (db *DB) SearchTitleSubstring(text string, opts search.Options) search.Result {
	return db.EnsureSearchIndex().Substring(text, opts)
}
