// Command split writes the XML of every publication into one file per
// modification date, <out>/<yyyy>/data_<yyyy-mm-dd>.txt, oldest first.
// Publications without an mdate go to <out>/undated/data.txt.
//
// Usage:
//
//	go run ./cmd/split -out data/split [-xml data/dblp.xml.gz]
package main

import (
	"bufio"
	"cmp"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/store"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	xmlPath := flag.String("xml", "", "dblp XML dump, overrides mmdb.xmlPath")
	outDir := flag.String("out", "", "output directory")
	flag.Parse()

	if *outDir == "" {
		fmt.Fprintln(os.Stderr, "missing -out")
		os.Exit(2)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *xmlPath != "" {
		cfg.MMDB.XMLPath = *xmlPath
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := mmdb.Open(ctx, cfg.MMDB, metrics.New())
	if err != nil {
		slog.Error("failed to load database", "error", err)
		os.Exit(1)
	}
	files, err := split(ctx, db.Publications(), *outDir)
	if err != nil {
		slog.Error("split failed", "error", err)
		os.Exit(1)
	}
	slog.Info("split finished", "publications", db.Store().NumberOfPublications(), "files", files)
}

// split appends each publication's XML to the file of its mdate and
// returns the number of files written.
func split(ctx context.Context, pubs []*store.Publication, outDir string) (int, error) {
	sorted := slices.Clone(pubs)
	slices.SortStableFunc(sorted, func(a, b *store.Publication) int {
		return cmp.Compare(a.Mdate(), b.Mdate())
	})

	var (
		f       *os.File
		w       *bufio.Writer
		current = -1
		files   int
	)
	closeCurrent := func() error {
		if f == nil {
			return nil
		}
		err := errors.Join(w.Flush(), f.Close())
		f, w = nil, nil
		return err
	}
	for i, p := range sorted {
		if i%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return files, errors.Join(err, closeCurrent())
			}
		}
		if p.Mdate() != current {
			if err := closeCurrent(); err != nil {
				return files, err
			}
			current = p.Mdate()
			path := pathFor(outDir, p)
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return files, err
			}
			var err error
			f, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return files, err
			}
			w = bufio.NewWriterSize(f, 64<<10)
			files++
		}
		if _, err := w.WriteString(p.XML()); err != nil {
			return files, errors.Join(err, closeCurrent())
		}
		if err := w.WriteByte('\n'); err != nil {
			return files, errors.Join(err, closeCurrent())
		}
	}
	return files, closeCurrent()
}

func pathFor(outDir string, p *store.Publication) string {
	if p.Mdate() == 0 {
		return filepath.Join(outDir, "undated", "data.txt")
	}
	mdate := p.MdateString()
	return filepath.Join(outDir, mdate[:4], "data_"+mdate+".txt")
}
