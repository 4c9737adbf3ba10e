// Package handler serves the read API of the database as JSON.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/api/cache"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/idindex"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/store"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/search"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/metrics"
)

const (
	modeSubstring = "substring"
	modeTerms     = "terms"
)

type Handler struct {
	db           *mmdb.DB
	cache        *cache.Cache
	metrics      *metrics.Metrics
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

// New creates a handler. queryCache and m may be nil.
func New(db *mmdb.DB, queryCache *cache.Cache, m *metrics.Metrics, cfg config.SearchConfig) *Handler {
	h := &Handler{
		db:           db,
		cache:        queryCache,
		metrics:      m,
		defaultLimit: cfg.DefaultLimit,
		maxResults:   cfg.MaxResults,
		logger:       logger.WithComponent("api-handler"),
	}
	if h.defaultLimit <= 0 {
		h.defaultLimit = search.DefaultLimit
	}
	if h.maxResults <= 0 || h.maxResults > search.MaxLimit {
		h.maxResults = search.MaxLimit
	}
	return h
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/stats", h.Stats)
	mux.HandleFunc("GET /api/v1/publications/{key...}", h.Publication)
	mux.HandleFunc("GET /api/v1/persons/{key...}", h.Person)
	mux.HandleFunc("GET /api/v1/names", h.Name)
	mux.HandleFunc("GET /api/v1/ids/{side}/{kind}/{id...}", h.ByID)
	mux.HandleFunc("GET /api/v1/coauthors", h.Coauthors)
	mux.HandleFunc("GET /api/v1/communities", h.Communities)
	mux.HandleFunc("GET /api/v1/path", h.Path)
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/tocs/{key...}", h.Toc)
	mux.HandleFunc("GET /api/v1/venues", h.Venue)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

// observe records a query outcome. It returns err unchanged.
func (h *Handler) observe(query string, start time.Time, err error) error {
	if h.metrics == nil {
		return err
	}
	result := "ok"
	switch {
	case err == nil:
	case apperrors.HTTPStatusCode(err) == http.StatusNotFound:
		result = "not_found"
	default:
		result = "error"
	}
	h.metrics.QueriesTotal.WithLabelValues(query, result).Inc()
	h.metrics.QueryLatency.WithLabelValues(query).Observe(time.Since(start).Seconds())
	return err
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.db.Stats())
}

func (h *Handler) Publication(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	key := r.PathValue("key")
	pub, ok := h.db.Publication(key)
	if err := h.observe("publication", start, found(ok, "publication", key)); err != nil {
		h.writeError(w, r, err)
		return
	}
	if r.URL.Query().Get("format") == "xml" {
		w.Header().Set("Content-Type", "application/xml; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, pub.XML())
		return
	}
	h.writeJSON(w, http.StatusOK, publicationViewOf(pub))
}

func (h *Handler) Person(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p, err := h.db.ResolvePerson(r.PathValue("key"))
	if h.observe("person", start, err) != nil {
		h.writeError(w, r, err)
		return
	}
	if r.URL.Query().Get("format") == "xml" {
		w.Header().Set("Content-Type", "application/xml; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, p.XML())
		return
	}
	h.writeJSON(w, http.StatusOK, personViewOf(h.db.Store(), p))
}

func (h *Handler) Name(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	raw := strings.TrimSpace(r.URL.Query().Get("name"))
	if raw == "" {
		h.writeError(w, r, h.observe("name", start, invalid("query parameter 'name' is required")))
		return
	}
	n, _ := h.db.PersonName(raw)
	others := h.db.OtherHomonyms(raw)
	h.observe("name", start, nil)
	h.writeJSON(w, http.StatusOK, nameViewOf(raw, n, others))
}

func (h *Handler) ByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	side, id := r.PathValue("side"), r.PathValue("id")
	k, err := idindex.KindByLabel(side, r.PathValue("kind"))
	if err == nil && k.Side == idindex.SideStream {
		err = fmt.Errorf("%w: venue ids are not indexed", apperrors.ErrUnknownIDKind)
	}
	if h.observe("id", start, err) != nil {
		h.writeError(w, r, err)
		return
	}
	if k.Side == idindex.SidePublication {
		pub, ok := h.db.PublicationByID(k, id)
		if err := h.observe("id", start, found(ok, k.Name, id)); err != nil {
			h.writeError(w, r, err)
			return
		}
		h.writeJSON(w, http.StatusOK, publicationViewOf(pub))
		return
	}
	p, ok := h.db.PersonByID(k, id)
	if err := h.observe("id", start, found(ok, k.Name, id)); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, personViewOf(h.db.Store(), p))
}

func (h *Handler) Coauthors(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p, err := h.personParam(r, "person")
	if err != nil {
		h.writeError(w, r, h.observe("coauthors", start, err))
		return
	}
	coauthors, err := h.db.Coauthors(p)
	if h.observe("coauthors", start, err) != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]coauthorView, len(coauthors))
	for i, c := range coauthors {
		weight, _ := h.db.CoauthorWeight(p, c)
		out[i] = coauthorView{personRef: personRefOf(c), Weight: weight}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"person":    personRefOf(p),
		"total":     len(out),
		"coauthors": out,
	})
}

func (h *Handler) Communities(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p, err := h.personParam(r, "person")
	if err != nil {
		h.writeError(w, r, h.observe("communities", start, err))
		return
	}
	allow, err := boolParam(r, "allowDisambiguations", true)
	if err != nil {
		h.writeError(w, r, h.observe("communities", start, err))
		return
	}
	network, err := h.db.CoauthorNetwork(p, allow)
	if h.observe("communities", start, err) != nil {
		h.writeError(w, r, err)
		return
	}
	v := networkView{
		Person:      personRefOf(p),
		Neighbors:   network.NumberOfNeighbors(),
		Entropy:     network.Entropy(),
		Communities: make([]communityView, network.NumberOfCommunities()),
	}
	for k := range v.Communities {
		members, _ := network.Community(k)
		v.Communities[k] = communityView{Index: k, Size: len(members), Members: personRefsOf(members)}
	}
	h.writeJSON(w, http.StatusOK, v)
}

func (h *Handler) Path(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	from, err := h.personParam(r, "from")
	if err != nil {
		h.writeError(w, r, h.observe("path", start, err))
		return
	}
	to, err := h.personParam(r, "to")
	if err != nil {
		h.writeError(w, r, h.observe("path", start, err))
		return
	}
	allow, err := boolParam(r, "allowDisambiguations", false)
	if err != nil {
		h.writeError(w, r, h.observe("path", start, err))
		return
	}
	key := cache.Key("path", fmt.Sprintf("from=%s|to=%s|allow=%t", from.Key(), to.Key(), allow))
	v, hit, err := cache.GetOrCompute(r.Context(), h.cache, key, func() (pathView, error) {
		path, err := h.db.ShortestPath(from, to, allow)
		if err != nil {
			return pathView{}, err
		}
		return pathView{
			From:   from.Key(),
			To:     to.Key(),
			Length: max(len(path)-1, 0),
			Found:  len(path) > 0,
			Path:   personRefsOf(path),
		}, nil
	})
	if h.observe("path", start, err) != nil {
		h.writeError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Info("path computed",
		"from", from.Key(),
		"to", to.Key(),
		"length", v.Length,
		"cache_hit", hit,
	)
	h.writeJSON(w, http.StatusOK, v)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	if query == "" {
		h.writeError(w, r, h.observe("search", start, invalid("query parameter 'q' is required")))
		return
	}
	page, limit, err := h.pageParams(r)
	if err != nil {
		h.writeError(w, r, h.observe("search", start, err))
		return
	}
	mode := q.Get("mode")
	if mode == "" {
		mode = modeSubstring
	}
	if mode != modeSubstring && mode != modeTerms {
		h.writeError(w, r, h.observe("search", start, invalid("mode must be 'substring' or 'terms'")))
		return
	}
	order := search.ParseOrder(q.Get("order"))
	opts := search.Options{Page: page, Limit: limit, Order: order}

	key := cache.Key("search", fmt.Sprintf("mode=%s|order=%d|page=%d|limit=%d|q=%s", mode, order, page, limit, query))
	v, hit, err := cache.GetOrCompute(r.Context(), h.cache, key, func() (searchView, error) {
		if mode == modeTerms {
			return searchViewOf(query, mode, h.db.SearchTitles(query, opts)), nil
		}
		return searchViewOf(query, mode, h.db.SearchTitleSubstring(query, opts)), nil
	})
	if h.observe("search", start, err) != nil {
		h.writeError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Info("search completed",
		"query", query,
		"mode", mode,
		"total_hits", v.Total,
		"returned", len(v.Hits),
		"cache_hit", hit,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, v)
}

func (h *Handler) Toc(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	key := r.PathValue("key")
	toc, ok := h.db.Toc(key)
	if err := h.observe("toc", start, found(ok, "table of contents", key)); err != nil {
		h.writeError(w, r, err)
		return
	}
	page, limit, err := h.pageParams(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	v := paged(toc.Publications(), page, limit)
	v.Key = toc.Key()
	v.PageURL = toc.PageURL()
	h.writeJSON(w, http.StatusOK, v)
}

func (h *Handler) Venue(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	title := r.URL.Query().Get("title")
	if title == "" {
		h.writeError(w, r, h.observe("venue", start, invalid("query parameter 'title' is required")))
		return
	}
	page, limit, err := h.pageParams(r)
	if err != nil {
		h.writeError(w, r, h.observe("venue", start, err))
		return
	}
	var v listView
	if j, ok := h.db.Journal(title); ok {
		v = paged(j.Publications(), page, limit)
		v.Kind = "journal"
	} else if b, ok := h.db.BookTitle(title); ok {
		v = paged(b.Publications(), page, limit)
		v.Kind = "booktitle"
	} else {
		h.writeError(w, r, h.observe("venue", start, found(false, "venue", title)))
		return
	}
	h.observe("venue", start, nil)
	v.Title = title
	h.writeJSON(w, http.StatusOK, v)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	h.writeJSON(w, http.StatusOK, h.cache.Stats())
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, r, apperrors.New(apperrors.ErrUnavailable, http.StatusServiceUnavailable, "caching is disabled"))
		return
	}
	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: %w", apperrors.ErrUnavailable, err))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

// personParam resolves the person key in query parameter param, following
// redirects.
func (h *Handler) personParam(r *http.Request, param string) (*store.Person, error) {
	key := strings.TrimSpace(r.URL.Query().Get(param))
	if key == "" {
		return nil, invalid(fmt.Sprintf("query parameter '%s' is required", param))
	}
	return h.db.ResolvePerson(key)
}

func (h *Handler) pageParams(r *http.Request) (page, limit int, err error) {
	page, limit = 1, h.defaultLimit
	q := r.URL.Query()
	if s := q.Get("page"); s != "" {
		page, err = strconv.Atoi(s)
		if err != nil || page < 1 {
			return 0, 0, invalid("page must be a positive integer")
		}
	}
	if s := q.Get("limit"); s != "" {
		limit, err = strconv.Atoi(s)
		if err != nil || limit < 1 {
			return 0, 0, invalid("limit must be a positive integer")
		}
		limit = min(limit, h.maxResults)
	}
	return page, limit, nil
}

func boolParam(r *http.Request, param string, def bool) (bool, error) {
	s := r.URL.Query().Get(param)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, invalid(fmt.Sprintf("%s must be a boolean", param))
	}
	return b, nil
}

func paged(pubs []*store.Publication, page, limit int) listView {
	v := listView{Total: len(pubs), Page: page, Limit: limit}
	if page-1 > len(pubs)/limit {
		v.Publications = refsOf(nil)
		return v
	}
	lo := min((page-1)*limit, len(pubs))
	hi := min(lo+limit, len(pubs))
	v.Publications = refsOf(pubs[lo:hi])
	return v
}

func found(ok bool, what, key string) error {
	if ok {
		return nil
	}
	return fmt.Errorf("%w: %s %s", apperrors.ErrNotFound, what, key)
}

func invalid(msg string) error {
	return apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, msg)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatusCode(err)
	msg := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
	}
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	h.writeJSON(w, status, map[string]string{"error": msg})
}
