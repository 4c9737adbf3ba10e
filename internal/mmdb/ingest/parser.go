// Package ingest loads the dblp XML corpus into a store in one forward pass.
// Records are encoded with the compact codec as they stream by; integrity
// problems are reported as bounded warnings and never abort the load, while
// malformed or unreadable input does.
package ingest

import (
	"bufio"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/text/encoding/charmap"

	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/codec"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/store"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/tracing"
)

const (
	maxKeyLength         = 63
	defaultMaxWarnings   = 100
	defaultProgressEvery = 100000
	defaultEntityLimit   = 2000000
	xmlNamespace         = "http://www.w3.org/XML/1998/namespace"
)

// Options tunes a load. The zero value uses the defaults.
type Options struct {
	// Strict turns a person record without names into a fatal error.
	Strict bool
	// MaxWarnings is the number of log lines per warning category.
	MaxWarnings int
	// ProgressEvery is the record interval of progress log lines.
	ProgressEvery int
	// EntityLimit bounds the number of named entity references; negative
	// disables the check.
	EntityLimit int
	// Entities replaces the default HTML entity set, usually with the
	// result of LoadEntities.
	Entities map[string]string
	// Warnings collects the warnings; a new one is created when nil.
	Warnings *logger.Bounded
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	// Trace logs the span tree of the load phases.
	Trace bool
}

// OptionsFromConfig maps the mmdb configuration section onto Options.
func OptionsFromConfig(cfg config.MMDBConfig) Options {
	return Options{
		Strict:        cfg.Strict,
		MaxWarnings:   cfg.MaxWarnings,
		ProgressEvery: cfg.ProgressEvery,
		EntityLimit:   cfg.EntityLimit,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxWarnings <= 0 {
		o.MaxWarnings = defaultMaxWarnings
	}
	if o.ProgressEvery <= 0 {
		o.ProgressEvery = defaultProgressEvery
	}
	if o.EntityLimit == 0 {
		o.EntityLimit = defaultEntityLimit
	}
	if o.Logger == nil {
		o.Logger = logger.WithComponent("ingest")
	}
	if o.Warnings == nil {
		o.Warnings = logger.NewBounded(o.Logger, o.MaxWarnings)
	}
	return o
}

// ParseFile loads the corpus at path, decompressing it when the name ends in
// ".gz". Entities are read from dtdPath unless it is empty or opts already
// carries them.
func ParseFile(ctx context.Context, path, dtdPath string, opts Options) (*store.Store, error) {
	if dtdPath != "" && opts.Entities == nil {
		entities, err := loadEntitiesFile(dtdPath)
		if err != nil {
			return nil, err
		}
		opts.Entities = entities
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnreadableInput, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%w: opening gzip stream: %v", apperrors.ErrUnreadableInput, err)
		}
		defer gz.Close()
		r = gz
	}
	return Parse(ctx, r, opts)
}

func loadEntitiesFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrDTD, err)
	}
	defer f.Close()
	return LoadEntities(f)
}

// Parse reads a dblp XML document from r and returns the linked store.
func Parse(ctx context.Context, r io.Reader, opts Options) (*store.Store, error) {
	opts = opts.withDefaults()
	entities := opts.Entities
	if entities == nil {
		entities = DefaultEntities()
	} else {
		entities = copyEntities(entities)
	}

	ctx, span := tracing.Start(ctx, "load")
	warn := countingWarner{bounded: opts.Warnings, metrics: opts.Metrics}
	p := &parser{
		opts:    opts,
		log:     opts.Logger,
		warn:    warn,
		builder: store.NewBuilder(warn),
	}

	dec := xml.NewDecoder(newEntityCounter(bufio.NewReaderSize(r, 1<<16), opts.EntityLimit))
	dec.Strict = true
	dec.Entity = entities
	dec.CharsetReader = charsetReader

	_, parseSpan := tracing.Start(ctx, "parse")
	if err := p.run(ctx, dec); err != nil {
		return nil, err
	}
	parseSpan.SetAttr("records", p.records)
	p.observe("parse", parseSpan.End())

	_, linkSpan := tracing.Start(ctx, "link")
	st := p.builder.Build()
	p.observe("link", linkSpan.End())
	span.End()

	stats := st.Stats()
	p.log.Info("dblp XML loaded",
		"records", p.records,
		"publications", stats.Publications,
		"persons", stats.Persons,
		"redirects", stats.Redirects,
		"person_names", stats.PersonNames,
		"warnings", opts.Warnings.Total(),
		"duration_ms", span.Duration.Milliseconds(),
	)
	if opts.Trace {
		span.Log(p.log)
	}
	if m := opts.Metrics; m != nil {
		m.StoreRecords.WithLabelValues("publication").Set(float64(stats.Publications))
		m.StoreRecords.WithLabelValues("person").Set(float64(stats.Persons))
		m.StoreRecords.WithLabelValues("redirect").Set(float64(stats.Redirects))
		m.StoreRecords.WithLabelValues("person_name").Set(float64(stats.PersonNames))
	}
	return st, nil
}

func copyEntities(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "iso-8859-1", "iso8859-1", "iso_8859-1", "latin1", "latin-1", "l1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	case "us-ascii", "ascii":
		return input, nil
	}
	return nil, fmt.Errorf("unsupported charset %q", label)
}

// countingWarner forwards warnings to the bounded logger and counts them in
// the metrics.
type countingWarner struct {
	bounded *logger.Bounded
	metrics *metrics.Metrics
}

func (w countingWarner) Warn(category string, args ...any) {
	w.bounded.Warn(category, args...)
	if w.metrics != nil {
		w.metrics.LoadWarningsTotal.WithLabelValues(category).Inc()
	}
}

type parser struct {
	opts    Options
	log     *slog.Logger
	warn    store.Warner
	builder *store.Builder

	depth   int
	sawRoot bool
	records int

	w   codec.Writer
	rec recordState
}

// recordState accumulates one record between its start and end tag.
type recordState struct {
	root   string
	key    string
	hasKey bool
	mdate  int
	names  []*store.PersonName
	stream store.StreamTitle
	year   int
	tocURL string

	crossref  bool
	homePage  bool
	titleFrom int
	titleTo   int

	journals int
	books    int
	years    int
	// venue and year fields kept literally because the root is person or
	// www; they are interned once the record turns out to be a publication
	literalVenues []literalVenue
	literalYears  []string

	field      string
	fieldAttrs []codec.Attr
	fieldFrom  int
	compact    byte
	text       strings.Builder
}

type literalVenue struct {
	tag   string
	title string
}

func (p *parser) observe(phase string, d time.Duration) {
	if p.opts.Metrics != nil {
		p.opts.Metrics.LoadPhaseDuration.WithLabelValues(phase).Observe(d.Seconds())
	}
}

func (p *parser) run(ctx context.Context, dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			if !p.sawRoot {
				return fmt.Errorf("%w: no root element", apperrors.ErrMalformedXML)
			}
			return nil
		}
		if err != nil {
			return classify(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			p.depth++
			switch p.depth {
			case 1:
				p.sawRoot = true
			case 2:
				p.startRecord(t)
			case 3:
				p.startField(t)
			default:
				if p.rec.compact == 0 {
					p.w.StartElement(t.Name.Local, attrs(t.Attr))
				}
			}
		case xml.EndElement:
			switch p.depth {
			case 2:
				if err := p.endRecord(ctx); err != nil {
					return err
				}
			case 3:
				p.endField()
			default:
				if p.depth > 3 && p.rec.compact == 0 {
					p.w.EndElement(t.Name.Local)
				}
			}
			p.depth--
		case xml.CharData:
			if p.depth >= 3 {
				s := string(t)
				p.rec.text.WriteString(s)
				if p.rec.compact == 0 {
					p.w.Text(s)
				}
			}
		case xml.Directive:
			if p.depth == 0 {
				if subset := internalSubset(t); subset != "" {
					if err := parseEntities(subset, dec.Entity); err != nil {
						return err
					}
				}
			}
		}
	}
}

func classify(err error) error {
	var syn *xml.SyntaxError
	switch {
	case errors.Is(err, errEntityLimit):
		return fmt.Errorf("%w: %v", apperrors.ErrMalformedXML, err)
	case errors.As(err, &syn):
		return fmt.Errorf("%w: line %d: %s", apperrors.ErrMalformedXML, syn.Line, syn.Msg)
	default:
		return fmt.Errorf("%w: %v", apperrors.ErrUnreadableInput, err)
	}
}

func qualified(n xml.Name) string {
	switch n.Space {
	case "":
		return n.Local
	case xmlNamespace:
		return "xml:" + n.Local
	default:
		return n.Space + ":" + n.Local
	}
}

func attrs(in []xml.Attr) []codec.Attr {
	if len(in) == 0 {
		return nil
	}
	out := make([]codec.Attr, len(in))
	for i, a := range in {
		out[i] = codec.Attr{Name: qualified(a.Name), Value: a.Value}
	}
	return out
}

func (p *parser) startRecord(t xml.StartElement) {
	p.rec = recordState{root: t.Name.Local}
	r := &p.rec
	p.w.Reset()
	p.w.OpenRoot(r.root)
	for _, a := range t.Attr {
		name := qualified(a.Name)
		switch name {
		case "key":
			r.key, r.hasKey = a.Value, true
			if len(a.Value) > maxKeyLength {
				p.warn.Warn("too long key", "key", a.Value)
			}
			continue
		case "mdate":
			if md, ok := parseMdate(a.Value); ok {
				r.mdate = md
				continue
			}
			p.warn.Warn("malformed mdate", "key", r.key, "mdate", a.Value)
		}
		p.w.Attr(name, a.Value)
	}
	p.w.EndStart()
}

// parseMdate turns "yyyy-mm-dd" into yyyymmdd.
func parseMdate(s string) (int, bool) {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if i == 4 || i == 7 {
			continue
		}
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

func parseYear(s string) (int, bool) {
	if len(s) != 4 {
		return 0, false
	}
	for i := 0; i < 4; i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	y, err := strconv.Atoi(s)
	return y, err == nil
}

func (r *recordState) personRoot() bool {
	return r.root == "person" || r.root == "www"
}

func (p *parser) startField(t xml.StartElement) {
	r := &p.rec
	r.field = t.Name.Local
	r.fieldAttrs = attrs(t.Attr)
	r.fieldFrom = p.w.Mark()
	r.text.Reset()
	r.compact = 0

	switch r.field {
	case "author":
		r.compact = codec.TagAuthor
	case "editor":
		r.compact = codec.TagEditor
	case "journal":
		r.journals++
		if r.journals == 1 && !r.personRoot() {
			r.compact = codec.TagJournal
		}
	case "booktitle":
		r.books++
		if r.books == 1 && !r.personRoot() {
			r.compact = codec.TagBookTitle
		}
	case "year":
		r.years++
		if r.years == 1 && !r.personRoot() {
			r.compact = codec.TagYear
		}
	}
	if r.compact == 0 {
		p.w.StartElement(r.field, r.fieldAttrs)
	}
}

func (p *parser) endField() {
	r := &p.rec
	text := r.text.String()
	switch r.compact {
	case codec.TagAuthor, codec.TagEditor:
		if text == "" {
			p.warn.Warn("empty person name", "key", r.key, "field", r.field)
			p.writeLiteral(r.field, r.fieldAttrs, text)
			break
		}
		r.names = append(r.names, p.builder.InternName(text))
		p.w.Placeholder(r.compact, r.fieldAttrs)
	case codec.TagJournal, codec.TagBookTitle:
		p.addStream(r.field, text)
		p.w.Placeholder(r.compact, r.fieldAttrs)
	case codec.TagYear:
		if y, ok := parseYear(text); ok {
			r.year = y
			p.w.Placeholder(codec.TagYear, r.fieldAttrs)
		} else {
			p.warn.Warn("illegal year string", "key", r.key, "year", text)
			p.writeLiteral("year", r.fieldAttrs, text)
		}
	default:
		p.w.EndElement(r.field)
		switch r.field {
		case "journal", "booktitle":
			if r.personRoot() {
				r.literalVenues = append(r.literalVenues, literalVenue{tag: r.field, title: text})
			} else {
				p.addStream(r.field, text)
			}
		case "year":
			if r.personRoot() {
				r.literalYears = append(r.literalYears, text)
			}
		case "url":
			if strings.HasPrefix(text, "db/") {
				r.tocURL = text
			}
		case "crossref":
			r.crossref = true
		case "title":
			if r.root == "www" && text == "Home Page" {
				r.homePage = true
				r.titleFrom, r.titleTo = r.fieldFrom, p.w.Mark()
			}
		}
	}
	r.field = ""
	r.compact = 0
}

func (p *parser) writeLiteral(tag string, a []codec.Attr, text string) {
	p.w.StartElement(tag, a)
	p.w.Text(text)
	p.w.EndElement(tag)
}

func (p *parser) addStream(tag, title string) {
	r := &p.rec
	var t store.StreamTitle
	if tag == "journal" {
		t = p.builder.InternJournal(title)
	} else {
		t = p.builder.InternBookTitle(title)
	}
	var promoted bool
	r.stream, promoted = store.AddStream(r.stream, t)
	if promoted {
		p.warn.Warn("more than one journal/booktitle", "key", r.key)
	}
}

func (p *parser) endRecord(ctx context.Context) error {
	r := &p.rec
	personLike := r.root == "person"
	if r.root == "www" && r.homePage {
		p.w.Cut(r.titleFrom, r.titleTo)
		p.w.RenameRoot("www", "person")
		r.root = "person"
		personLike = true
	}
	p.w.EndElement(r.root)

	p.records++
	if p.records%p.opts.ProgressEvery == 0 {
		p.log.Info("parsing dblp XML", "records", p.records)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if !r.hasKey {
		p.warn.Warn("record without key", "tag", r.root)
		return nil
	}
	if r.mdate == 0 {
		p.warn.Warn("mdate missing", "key", r.key)
	}

	buf := p.w.Bytes()
	switch {
	case personLike && !r.crossref:
		return p.addPerson(buf)
	case (personLike || r.root == "www") && r.crossref:
		if p.builder.AddRedirect(r.key, r.mdate, buf, r.names) != nil {
			p.count("redirect")
		}
	default:
		p.addPublication(buf)
	}
	return nil
}

func (p *parser) addPerson(buf []byte) error {
	r := &p.rec
	if len(r.literalVenues) > 0 {
		p.warn.Warn("journal/booktitle in person record", "key", r.key)
	}
	if len(r.literalYears) > 0 {
		p.warn.Warn("year in person record", "key", r.key)
	}
	if len(r.names) == 0 {
		if p.opts.Strict {
			return fmt.Errorf("%w: %s", apperrors.ErrPersonWithoutName, r.key)
		}
		p.warn.Warn("missing name(s) in person record", "key", r.key)
		return nil
	}
	pers, err := p.builder.AddPerson(r.key, r.mdate, buf, r.names)
	if err != nil {
		return err
	}
	if pers != nil {
		p.count("person")
	}
	return nil
}

func (p *parser) addPublication(buf []byte) {
	r := &p.rec
	for _, v := range r.literalVenues {
		p.addStream(v.tag, v.title)
	}
	if r.year == 0 {
		for _, y := range r.literalYears {
			if n, ok := parseYear(y); ok {
				r.year = n
				break
			}
		}
	}

	var toc *store.TableOfContents
	if r.tocURL != "" {
		pos := strings.LastIndexByte(r.tocURL, '.')
		if pos < 0 {
			pos = strings.LastIndexByte(r.tocURL, '#')
		}
		if pos >= 0 {
			toc = p.builder.InternToc(r.tocURL[:pos] + ".bht")
		}
	}

	pub := p.builder.AddPublication(store.PublicationSpec{
		Key:    r.key,
		Mdate:  r.mdate,
		Buf:    buf,
		Names:  r.names,
		Year:   r.year,
		Toc:    toc,
		Stream: r.stream,
	})
	if pub == nil {
		return
	}
	p.count("publication")

	if toc == nil {
		switch r.root {
		case "article", "inproceedings", "incollection":
			if !strings.HasPrefix(r.key, "tr/") &&
				!strings.HasPrefix(r.key, "persons/") &&
				!strings.HasPrefix(r.key, "dblpnote/") {
				p.warn.Warn("url field missing", "key", r.key)
			}
		}
	}
}

func (p *parser) count(kind string) {
	if p.opts.Metrics != nil {
		p.opts.Metrics.RecordsLoadedTotal.WithLabelValues(kind).Inc()
	}
}
