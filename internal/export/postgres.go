package export

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/postgres"
)

// Schema creates the tables PostgresSink writes to.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS persons (
		key              TEXT PRIMARY KEY,
		mdate            DATE,
		aggregated_mdate DATE,
		name             TEXT NOT NULL,
		aliases          TEXT[] NOT NULL DEFAULT '{}',
		urls             TEXT[] NOT NULL DEFAULT '{}',
		publications     INTEGER NOT NULL DEFAULT 0,
		disambiguation   BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS publications (
		key     TEXT PRIMARY KEY,
		mdate   DATE,
		type    TEXT NOT NULL,
		title   TEXT NOT NULL,
		year    INTEGER,
		venue   TEXT,
		toc     TEXT,
		authors TEXT[] NOT NULL DEFAULT '{}',
		xml     TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS authorship (
		publication_key TEXT NOT NULL REFERENCES publications (key) ON DELETE CASCADE,
		position        INTEGER NOT NULL,
		name            TEXT NOT NULL,
		person_key      TEXT,
		PRIMARY KEY (publication_key, position)
	)`,
	`CREATE INDEX IF NOT EXISTS authorship_person_key_idx ON authorship (person_key)`,
	`CREATE INDEX IF NOT EXISTS publications_year_idx ON publications (year)`,
}

const (
	upsertPerson = `INSERT INTO persons (key, mdate, aggregated_mdate, name, aliases, urls, publications, disambiguation)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (key) DO UPDATE SET
			mdate = EXCLUDED.mdate,
			aggregated_mdate = EXCLUDED.aggregated_mdate,
			name = EXCLUDED.name,
			aliases = EXCLUDED.aliases,
			urls = EXCLUDED.urls,
			publications = EXCLUDED.publications,
			disambiguation = EXCLUDED.disambiguation`

	upsertPublication = `INSERT INTO publications (key, mdate, type, title, year, venue, toc, authors, xml)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (key) DO UPDATE SET
			mdate = EXCLUDED.mdate,
			type = EXCLUDED.type,
			title = EXCLUDED.title,
			year = EXCLUDED.year,
			venue = EXCLUDED.venue,
			toc = EXCLUDED.toc,
			authors = EXCLUDED.authors,
			xml = EXCLUDED.xml`

	deleteAuthorship = `DELETE FROM authorship WHERE publication_key = ANY($1)`

	insertAuthorship = `INSERT INTO authorship (publication_key, position, name, person_key)
		VALUES ($1, $2, $3, $4)`
)

// PostgresSink upserts records by key. Each batch is one transaction.
type PostgresSink struct {
	client *postgres.Client
}

func NewPostgresSink(client *postgres.Client) *PostgresSink {
	return &PostgresSink{client: client}
}

func (s *PostgresSink) Name() string { return "postgres" }

// CreateSchema creates the tables if they do not exist.
func (s *PostgresSink) CreateSchema(ctx context.Context) error {
	return s.client.Migrate(ctx, Schema...)
}

func (s *PostgresSink) Retryable(err error) bool { return postgres.IsRetryable(err) }

func (s *PostgresSink) WritePersons(ctx context.Context, docs []PersonDoc) error {
	return s.client.InTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertPerson)
		if err != nil {
			return fmt.Errorf("preparing person upsert: %w", err)
		}
		defer stmt.Close()
		for _, d := range docs {
			if _, err := stmt.ExecContext(ctx,
				d.Key, nullable(d.Mdate), nullable(d.AggregatedMdate), d.Name,
				pq.Array(nonNil(d.Aliases)), pq.Array(nonNil(d.URLs)), d.Publications, d.Disambiguation,
			); err != nil {
				return fmt.Errorf("upserting person %s: %w", d.Key, err)
			}
		}
		return nil
	})
}

// WritePublications upserts the publications and replaces their authorship
// rows.
func (s *PostgresSink) WritePublications(ctx context.Context, docs []PublicationDoc) error {
	return s.client.InTx(ctx, func(tx *sql.Tx) error {
		pubStmt, err := tx.PrepareContext(ctx, upsertPublication)
		if err != nil {
			return fmt.Errorf("preparing publication upsert: %w", err)
		}
		defer pubStmt.Close()

		keys := make([]string, len(docs))
		for i, d := range docs {
			keys[i] = d.Key
			var year any
			if d.Year > 0 {
				year = d.Year
			}
			if _, err := pubStmt.ExecContext(ctx,
				d.Key, nullable(d.Mdate), d.Type, d.Title, year, nullable(d.Venue), nullable(d.Toc),
				pq.Array(d.AuthorNames()), d.XML,
			); err != nil {
				return fmt.Errorf("upserting publication %s: %w", d.Key, err)
			}
		}

		if _, err := tx.ExecContext(ctx, deleteAuthorship, pq.Array(keys)); err != nil {
			return fmt.Errorf("clearing authorship: %w", err)
		}
		authStmt, err := tx.PrepareContext(ctx, insertAuthorship)
		if err != nil {
			return fmt.Errorf("preparing authorship insert: %w", err)
		}
		defer authStmt.Close()
		for _, d := range docs {
			for i, a := range d.Authors {
				if _, err := authStmt.ExecContext(ctx, d.Key, i, a.Name, nullable(a.PersonKey)); err != nil {
					return fmt.Errorf("inserting authorship %s#%d: %w", d.Key, i, err)
				}
			}
		}
		return nil
	})
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
