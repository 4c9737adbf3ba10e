package store

import "strings"

// TableOfContents lists the publications of one venue issue.
type TableOfContents struct {
	key          string
	publications []*Publication
}

func (t *TableOfContents) Key() string { return t.key }

// Publications returns the publications in load order.
func (t *TableOfContents) Publications() []*Publication { return t.publications }

func (t *TableOfContents) NumberOfPublications() int { return len(t.publications) }

// PageURL returns the key up to its first dot, e.g. "db/conf/kdd/kdd2020".
func (t *TableOfContents) PageURL() string {
	if i := strings.IndexByte(t.key, '.'); i >= 0 {
		return t.key[:i]
	}
	return t.key
}

// StreamTitle is the venue of a publication.
type StreamTitle interface {
	Title() string
	// Journal returns the first journal title, or nil.
	Journal() *JournalTitle
	// Book returns the first book title, or nil.
	Book() *BookTitle
}

// BookTitle is an interned proceedings title.
type BookTitle struct {
	title        string
	publications []*Publication
}

func (b *BookTitle) Title() string                { return b.title }
func (b *BookTitle) Journal() *JournalTitle       { return nil }
func (b *BookTitle) Book() *BookTitle             { return b }
func (b *BookTitle) Publications() []*Publication { return b.publications }

// JournalTitle is an interned journal title.
type JournalTitle struct {
	title        string
	publications []*Publication
}

func (j *JournalTitle) Title() string                { return j.title }
func (j *JournalTitle) Journal() *JournalTitle       { return j }
func (j *JournalTitle) Book() *BookTitle             { return nil }
func (j *JournalTitle) Publications() []*Publication { return j.publications }

// MultiStreamTitle is attached to a publication that names more than one
// venue. The first venue seen is the primary one; all are kept.
type MultiStreamTitle struct {
	primary  StreamTitle
	books    []*BookTitle
	journals []*JournalTitle
}

func (m *MultiStreamTitle) Title() string             { return m.primary.Title() }
func (m *MultiStreamTitle) Primary() StreamTitle      { return m.primary }
func (m *MultiStreamTitle) Books() []*BookTitle       { return m.books }
func (m *MultiStreamTitle) Journals() []*JournalTitle { return m.journals }

func (m *MultiStreamTitle) Journal() *JournalTitle {
	if len(m.journals) == 0 {
		return nil
	}
	return m.journals[0]
}

func (m *MultiStreamTitle) Book() *BookTitle {
	if len(m.books) == 0 {
		return nil
	}
	return m.books[0]
}

// AddStream merges next into current, promoting to a MultiStreamTitle when
// both are set. It reports whether a promotion or extension took place.
// A repeated venue is not compared against the current one; a record naming
// the same journal twice still becomes a MultiStreamTitle, as dblp's own
// loader does.
func AddStream(current, next StreamTitle) (StreamTitle, bool) {
	if current == nil {
		return next, false
	}
	multi, ok := current.(*MultiStreamTitle)
	if !ok {
		multi = &MultiStreamTitle{primary: current}
		multi.add(current)
	}
	multi.add(next)
	return multi, true
}

func (m *MultiStreamTitle) add(s StreamTitle) {
	switch v := s.(type) {
	case *BookTitle:
		m.books = append(m.books, v)
	case *JournalTitle:
		m.journals = append(m.journals, v)
	case *MultiStreamTitle:
		m.books = append(m.books, v.books...)
		m.journals = append(m.journals, v.journals...)
	}
}

// streamMembers lists the book and journal titles behind s.
func streamMembers(s StreamTitle) ([]*BookTitle, []*JournalTitle) {
	switch v := s.(type) {
	case *BookTitle:
		return []*BookTitle{v}, nil
	case *JournalTitle:
		return nil, []*JournalTitle{v}
	case *MultiStreamTitle:
		return v.books, v.journals
	}
	return nil, nil
}
