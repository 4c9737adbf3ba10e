// Package benchmark measures the loader, the record codec and the query
// paths on a synthetic corpus.
//
// Run with:
//
//	go test -run=^$ -bench=. -benchmem ./test/benchmark/...
package benchmark

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/ingest"
)

var words = []string{
	"distributed", "consensus", "graph", "database", "memory", "query", "index",
	"learning", "network", "protocol", "storage", "stream", "byzantine", "cache",
	"parallel", "optimal", "secure", "scalable", "adaptive", "approximate",
}

// syntheticCorpus returns a dump with pubs publications written by persons
// authors, up to four per publication.
func syntheticCorpus(pubs, persons int) string {
	rng := rand.New(rand.NewPCG(1, 2))
	var sb strings.Builder
	sb.WriteString("<?xml version=\"1.0\"?>\n<dblp>\n")
	for i := range pubs {
		year := 1990 + i%35
		fmt.Fprintf(&sb, `<article key="journals/b/P%d" mdate="%d-01-01">`, i, year)
		for range 1 + rng.IntN(4) {
			fmt.Fprintf(&sb, "<author>Author %d</author>", rng.IntN(persons))
		}
		fmt.Fprintf(&sb, "<title>%s %s of %s.</title><journal>J%d</journal><year>%d</year>",
			words[rng.IntN(len(words))], words[rng.IntN(len(words))], words[rng.IntN(len(words))], i%50, year)
		fmt.Fprintf(&sb, "<ee>https://doi.org/10.1000/%d</ee><url>db/journals/b/b%d.html#P%d</url></article>\n", i, year, i)
	}
	for i := range persons {
		fmt.Fprintf(&sb, `<www key="homepages/b/%d" mdate="2020-01-01"><author>Author %d</author><title>Home Page</title></www>`+"\n", i, i)
	}
	sb.WriteString("</dblp>\n")
	return sb.String()
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func loadDB(b *testing.B, pubs, persons int) *mmdb.DB {
	b.Helper()
	st, err := ingest.Parse(context.Background(), strings.NewReader(syntheticCorpus(pubs, persons)), ingest.Options{Logger: quiet})
	if err != nil {
		b.Fatalf("parsing corpus: %v", err)
	}
	return mmdb.New(st, mmdb.WithLogger(quiet))
}
