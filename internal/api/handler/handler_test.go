package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/api/cache"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/api/handler"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/metrics"
)

const corpus = `<?xml version="1.0"?>
<dblp>
<article key="journals/x/AB20" mdate="2020-01-01"><author>A</author><author>B</author><title>Graphs</title><journal>X</journal><year>2020</year><ee>https://doi.org/10.1/ab</ee><url>db/journals/x/x1.html#AB20</url></article>
<article key="journals/x/BC21" mdate="2021-01-01"><author>B</author><author>C</author><title>More Graphs</title><journal>X</journal><year>2021</year><url>db/journals/x/x1.html#BC21</url></article>
<article key="journals/x/W22" mdate="2022-01-01"><author>Wei Wang 0001</author><title>Trees</title><journal>X</journal><year>2022</year><url>db/journals/x/x2.html#W22</url></article>
<www key="homepages/a/A" mdate="2020-01-01"><author>A</author><title>Home Page</title><url>https://orcid.org/0000-0001-0000-0001</url></www>
<www key="homepages/b/B" mdate="2020-01-01"><author>B</author><title>Home Page</title></www>
<www key="homepages/c/C" mdate="2020-01-01"><author>C</author><title>Home Page</title></www>
<www key="homepages/w/W" mdate="2020-01-01"><author>Wei Wang</author><title>Home Page</title></www>
<www key="homepages/w/W1" mdate="2020-01-01"><author>Wei Wang 0001</author><title>Home Page</title></www>
<www key="homepages/old/C" mdate="2019-01-01"><author>C Old</author><title>Home Page</title><crossref>homepages/c/C</crossref></www>
</dblp>
`

type memBackend struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (b *memBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.data[key]
	return v, ok, nil
}

func (b *memBackend) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = value
	return nil
}

func (b *memBackend) Flush(context.Context) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := int64(len(b.data))
	clear(b.data)
	return n, nil
}

func setup(t *testing.T, withCache bool) (*httptest.Server, *metrics.Metrics) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dblp.xml")
	require.NoError(t, os.WriteFile(path, []byte(corpus), 0o644))

	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := mmdb.Open(context.Background(), config.MMDBConfig{XMLPath: path}, m, mmdb.WithLogger(quiet))
	require.NoError(t, err)

	var c *cache.Cache
	if withCache {
		c = cache.New(&memBackend{data: make(map[string][]byte)}, config.RedisConfig{CacheTTL: time.Minute}, m)
	}
	mux := http.NewServeMux()
	handler.New(db, c, m, config.SearchConfig{DefaultLimit: 10, MaxResults: 100}).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, m
}

func get(t *testing.T, srv *httptest.Server, path string, out any) int {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestPublication(t *testing.T) {
	srv, m := setup(t, false)

	var pub struct {
		Key     string `json:"key"`
		Type    string `json:"type"`
		Title   string `json:"title"`
		Year    int    `json:"year"`
		Venue   string `json:"venue"`
		Toc     string `json:"toc"`
		Authors []struct {
			Key  string `json:"key"`
			Name string `json:"name"`
		} `json:"authors"`
		IDs []struct {
			Kind  string `json:"kind"`
			Value string `json:"value"`
		} `json:"ids"`
	}
	require.Equal(t, http.StatusOK, get(t, srv, "/api/v1/publications/journals/x/AB20", &pub))
	assert.Equal(t, "article", pub.Type)
	assert.Equal(t, "Graphs", pub.Title)
	assert.Equal(t, 2020, pub.Year)
	assert.Equal(t, "X", pub.Venue)
	assert.Equal(t, "db/journals/x/x1.bht", pub.Toc)
	require.Len(t, pub.Authors, 2)
	assert.Equal(t, "homepages/b/B", pub.Authors[1].Key)
	require.Len(t, pub.IDs, 1)
	assert.Equal(t, "DOI", pub.IDs[0].Kind)

	resp, err := http.Get(srv.URL + "/api/v1/publications/journals/x/AB20?format=xml")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "application/xml; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(string(body), `<article key="journals/x/AB20" mdate="2020-01-01">`))
	assert.Contains(t, string(body), "<author>B</author>")

	var e map[string]string
	assert.Equal(t, http.StatusNotFound, get(t, srv, "/api/v1/publications/journals/x/none", &e))
	assert.Contains(t, e["error"], "journals/x/none")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("publication", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("publication", "not_found")))
}

func TestPersonFollowsRedirect(t *testing.T) {
	srv, _ := setup(t, false)

	var p struct {
		Key          string `json:"key"`
		PID          string `json:"pid"`
		Name         string `json:"name"`
		Publications []struct {
			Key string `json:"key"`
		} `json:"publications"`
	}
	require.Equal(t, http.StatusOK, get(t, srv, "/api/v1/persons/homepages/old/C", &p))
	assert.Equal(t, "homepages/c/C", p.Key)
	assert.Equal(t, "c/C", p.PID)
	assert.Equal(t, "C", p.Name)
	require.Len(t, p.Publications, 1)
	assert.Equal(t, "journals/x/BC21", p.Publications[0].Key)

	assert.Equal(t, http.StatusNotFound, get(t, srv, "/api/v1/persons/homepages/x/None", nil))
}

func TestName(t *testing.T) {
	srv, _ := setup(t, false)

	var n struct {
		Name     string   `json:"name"`
		Last     string   `json:"last"`
		Owner    string   `json:"owner"`
		Homonyms []string `json:"homonyms"`
	}
	require.Equal(t, http.StatusOK, get(t, srv, "/api/v1/names?name=Wei+Wang", &n))
	assert.Equal(t, "Wei Wang", n.Name)
	assert.Equal(t, "Wang", n.Last)
	assert.Equal(t, "homepages/w/W", n.Owner)
	assert.Equal(t, []string{"Wei Wang 0001"}, n.Homonyms)

	assert.Equal(t, http.StatusBadRequest, get(t, srv, "/api/v1/names", nil))
}

func TestByID(t *testing.T) {
	srv, _ := setup(t, false)

	var rec struct {
		Key string `json:"key"`
	}
	require.Equal(t, http.StatusOK, get(t, srv, "/api/v1/ids/publication/doi/10.1/ab", &rec))
	assert.Equal(t, "journals/x/AB20", rec.Key)

	require.Equal(t, http.StatusOK, get(t, srv, "/api/v1/ids/person/orcid/0000-0001-0000-0001", &rec))
	assert.Equal(t, "homepages/a/A", rec.Key)

	require.Equal(t, http.StatusOK, get(t, srv, "/api/v1/ids/person/dblp/b/B", &rec))
	assert.Equal(t, "homepages/b/B", rec.Key)

	assert.Equal(t, http.StatusBadRequest, get(t, srv, "/api/v1/ids/person/doi/10.1/ab", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, srv, "/api/v1/ids/stream/issn/1234-5678", nil))
	assert.Equal(t, http.StatusNotFound, get(t, srv, "/api/v1/ids/publication/doi/10.9/none", nil))
}

func TestCoauthorsAndCommunities(t *testing.T) {
	srv, _ := setup(t, false)

	var co struct {
		Total     int `json:"total"`
		Coauthors []struct {
			Key    string `json:"key"`
			Weight int    `json:"weight"`
		} `json:"coauthors"`
	}
	require.Equal(t, http.StatusOK, get(t, srv, "/api/v1/coauthors?person=homepages/b/B", &co))
	require.Equal(t, 2, co.Total)
	assert.Equal(t, "homepages/a/A", co.Coauthors[0].Key)
	assert.Equal(t, 1, co.Coauthors[0].Weight)

	var net struct {
		Neighbors   int `json:"neighbors"`
		Communities []struct {
			Size int `json:"size"`
		} `json:"communities"`
	}
	require.Equal(t, http.StatusOK, get(t, srv, "/api/v1/communities?person=homepages/b/B", &net))
	assert.Equal(t, 2, net.Neighbors)
	assert.Len(t, net.Communities, 2)

	assert.Equal(t, http.StatusBadRequest, get(t, srv, "/api/v1/communities?person=homepages/b/B&allowDisambiguations=maybe", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, srv, "/api/v1/coauthors", nil))
}

func TestPathIsCached(t *testing.T) {
	srv, m := setup(t, true)

	type path struct {
		Length int  `json:"length"`
		Found  bool `json:"found"`
		Path   []struct {
			Key string `json:"key"`
		} `json:"path"`
	}
	for range 2 {
		var p path
		require.Equal(t, http.StatusOK, get(t, srv, "/api/v1/path?from=homepages/a/A&to=homepages/old/C", &p))
		assert.True(t, p.Found)
		assert.Equal(t, 2, p.Length)
		require.Len(t, p.Path, 3)
		assert.Equal(t, "homepages/b/B", p.Path[1].Key)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal))

	var p path
	require.Equal(t, http.StatusOK, get(t, srv, "/api/v1/path?from=homepages/a/A&to=homepages/w/W1", &p))
	assert.False(t, p.Found)
	assert.Empty(t, p.Path)

	var stats struct {
		Hits   int64 `json:"hits"`
		Misses int64 `json:"misses"`
	}
	require.Equal(t, http.StatusOK, get(t, srv, "/api/v1/cache/stats", &stats))
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)

	resp, err := http.Post(srv.URL+"/api/v1/cache/invalidate", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSearch(t *testing.T) {
	srv, _ := setup(t, false)

	type result struct {
		Mode  string `json:"mode"`
		Total int    `json:"total"`
		Hits  []struct {
			Key string `json:"key"`
		} `json:"hits"`
	}
	var r result
	require.Equal(t, http.StatusOK, get(t, srv, "/api/v1/search?q=graph", &r))
	assert.Equal(t, "substring", r.Mode)
	require.Equal(t, 2, r.Total)
	assert.Equal(t, "journals/x/BC21", r.Hits[0].Key, "newest first")

	r = result{}
	require.Equal(t, http.StatusOK, get(t, srv, "/api/v1/search?q=graphs&mode=terms&limit=1&page=2", &r))
	assert.Equal(t, 2, r.Total)
	require.Len(t, r.Hits, 1)
	assert.Equal(t, "journals/x/AB20", r.Hits[0].Key)

	assert.Equal(t, http.StatusBadRequest, get(t, srv, "/api/v1/search", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, srv, "/api/v1/search?q=x&limit=0", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, srv, "/api/v1/search?q=x&mode=fuzzy", nil))
}

func TestTocAndVenue(t *testing.T) {
	srv, _ := setup(t, false)

	var toc struct {
		PageURL      string `json:"page_url"`
		Total        int    `json:"total"`
		Publications []struct {
			Key string `json:"key"`
		} `json:"publications"`
	}
	require.Equal(t, http.StatusOK, get(t, srv, "/api/v1/tocs/db/journals/x/x1.bht", &toc))
	assert.Equal(t, "db/journals/x/x1", toc.PageURL)
	assert.Equal(t, 2, toc.Total)

	var venue struct {
		Kind  string `json:"kind"`
		Total int    `json:"total"`
	}
	require.Equal(t, http.StatusOK, get(t, srv, "/api/v1/venues?title=X", &venue))
	assert.Equal(t, "journal", venue.Kind)
	assert.Equal(t, 3, venue.Total)

	assert.Equal(t, http.StatusNotFound, get(t, srv, "/api/v1/venues?title=Y", nil))
}

func TestHugePageIsEmpty(t *testing.T) {
	srv, _ := setup(t, false)
	const page = "4611686018427387905"

	var r struct {
		Total int               `json:"total"`
		Hits  []json.RawMessage `json:"hits"`
	}
	require.Equal(t, http.StatusOK, get(t, srv, "/api/v1/search?q=Graphs&limit=2&page="+page, &r))
	assert.Equal(t, 2, r.Total)
	assert.Empty(t, r.Hits)

	r.Hits = nil
	require.Equal(t, http.StatusOK, get(t, srv, "/api/v1/search?q=graphs&mode=terms&limit=2&page="+page, &r))
	assert.Empty(t, r.Hits)

	var toc struct {
		Total        int               `json:"total"`
		Publications []json.RawMessage `json:"publications"`
	}
	require.Equal(t, http.StatusOK, get(t, srv, "/api/v1/tocs/db/journals/x/x1.bht?limit=2&page="+page, &toc))
	assert.Equal(t, 2, toc.Total)
	assert.Empty(t, toc.Publications)

	require.Equal(t, http.StatusOK, get(t, srv, "/api/v1/venues?title=X&limit=2&page="+page, &toc))
	assert.Empty(t, toc.Publications)
}

func TestCacheDisabled(t *testing.T) {
	srv, _ := setup(t, false)

	var stats map[string]string
	require.Equal(t, http.StatusOK, get(t, srv, "/api/v1/cache/stats", &stats))
	assert.Equal(t, "disabled", stats["status"])

	resp, err := http.Post(srv.URL+"/api/v1/cache/invalidate", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var s struct {
		Publications int `json:"publications"`
	}
	require.Equal(t, http.StatusOK, get(t, srv, "/api/v1/stats", &s))
	assert.Equal(t, 3, s.Publications)
}
