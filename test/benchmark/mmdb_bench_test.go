package benchmark

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/idindex"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/ingest"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/name"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/store"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/search"
)

func BenchmarkParse(b *testing.B) {
	for _, size := range []int{1000, 10000} {
		corpus := syntheticCorpus(size, size/4)
		b.Run(fmt.Sprintf("pubs_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(corpus)))
			for i := 0; i < b.N; i++ {
				if _, err := ingest.Parse(context.Background(), strings.NewReader(corpus), ingest.Options{Logger: quiet}); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkNameParse(b *testing.B) {
	names := []string{"Donald E. Knuth", "Wei Wang 0001", "Guido van Rossum Jr.", "Plato"}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = name.Parse(names[i%len(names)])
	}
}

func BenchmarkFieldReader(b *testing.B) {
	db := loadDB(b, 1000, 250)
	pubs := db.Publications()
	b.Run("title", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_ = pubs[i%len(pubs)].Title()
		}
	})
	b.Run("xml", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_ = pubs[i%len(pubs)].XML()
		}
	})
}

func BenchmarkIDIndexBuild(b *testing.B) {
	db := loadDB(b, 10000, 2500)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = idindex.Build(db.Store())
	}
}

func BenchmarkCoauthorNetwork(b *testing.B) {
	db := loadDB(b, 10000, 1000)
	persons := db.Persons()
	for _, allow := range []bool{true, false} {
		b.Run(fmt.Sprintf("allow_%t", allow), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := db.CoauthorNetwork(persons[i%len(persons)], allow); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkShortestPath(b *testing.B) {
	db := loadDB(b, 10000, 1000)
	persons := db.Persons()
	db.EnsureCoauthorGraph().EnsureAll()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		from := persons[i%len(persons)]
		to := persons[(i*7+13)%len(persons)]
		if _, err := db.ShortestPath(from, to, true); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSearch(b *testing.B) {
	db := loadDB(b, 10000, 2500)
	db.EnsureSearchIndex()
	cases := []struct {
		name string
		run  func() search.Result
	}{
		{"substring", func() search.Result { return db.SearchTitleSubstring("graph", search.Options{}) }},
		{"terms_and", func() search.Result { return db.SearchTitles("distributed consensus", search.Options{}) }},
		{"terms_or", func() search.Result { return db.SearchTitles("cache OR storage", search.Options{}) }},
		{"relevance", func() search.Result {
			return db.SearchTitles("secure protocol", search.Options{Order: search.OrderRelevance})
		}},
	}
	for _, c := range cases {
		b.Run(c.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = c.run()
			}
		})
	}
}

func BenchmarkTokenize(b *testing.B) {
	title := "Scalable Byzantine Consensus Protocols for Distributed Main-Memory Databases."
	b.ReportAllocs()
	b.SetBytes(int64(len(title)))
	for i := 0; i < b.N; i++ {
		_ = search.Tokenize(title)
	}
}

func BenchmarkComparePersons(b *testing.B) {
	db := loadDB(b, 1000, 1000)
	persons := db.Persons()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = store.ComparePersons(persons[i%len(persons)], persons[(i+1)%len(persons)])
	}
}
