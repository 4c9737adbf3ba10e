// Command loadtest drives concurrent read traffic against a running mmdbd
// and prints throughput, latency percentiles and status codes per endpoint.
//
// Usage:
//
//	go run ./cmd/loadtest -url http://localhost:8080 -concurrency 20 -duration 1m
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type target struct {
	name string
	path func(i int) string
}

type endpointStats struct {
	mu        sync.Mutex
	latencies []time.Duration
	codes     map[int]int
	failures  atomic.Int64
}

func (s *endpointStats) record(d time.Duration, code int, err error) {
	if err != nil {
		s.failures.Add(1)
		return
	}
	s.mu.Lock()
	s.latencies = append(s.latencies, d)
	s.codes[code]++
	s.mu.Unlock()
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of mmdbd")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	persons := flag.String("persons", "homepages/l/LeslieLamport,homepages/t/AndrewSTanenbaum,homepages/k/DonaldEKnuth",
		"comma-separated person keys used by graph queries")
	queries := flag.String("queries", "distributed,consensus,main memory,graph,database,byzantine",
		"comma-separated title search strings")
	flag.Parse()

	targets := buildTargets(strings.Split(*persons, ","), strings.Split(*queries, ","))

	fmt.Println("=== mmdb Load Test ===")
	fmt.Printf("Target:      %s\n", *baseURL)
	fmt.Printf("Concurrency: %d\n", *concurrency)
	fmt.Printf("Duration:    %s\n", *duration)
	fmt.Printf("Endpoints:   %d\n\n", len(targets))

	stats := run(*baseURL, targets, *concurrency, *duration)
	if !report(targets, stats, *duration) {
		fmt.Println("\nWARNING: no requests completed. Is mmdbd running?")
		os.Exit(1)
	}
}

func buildTargets(persons, queries []string) []target {
	pick := func(list []string, i int) string { return url.QueryEscape(strings.TrimSpace(list[i%len(list)])) }
	return []target{
		{"search", func(i int) string { return "/api/v1/search?limit=10&q=" + pick(queries, i) }},
		{"search-terms", func(i int) string { return "/api/v1/search?mode=terms&order=relevance&q=" + pick(queries, i) }},
		{"person", func(i int) string { return "/api/v1/persons/" + strings.TrimSpace(persons[i%len(persons)]) }},
		{"coauthors", func(i int) string { return "/api/v1/coauthors?person=" + pick(persons, i) }},
		{"communities", func(i int) string { return "/api/v1/communities?person=" + pick(persons, i) }},
		{"path", func(i int) string {
			return "/api/v1/path?from=" + pick(persons, i) + "&to=" + pick(persons, i+1)
		}},
	}
}

func run(baseURL string, targets []target, concurrency int, d time.Duration) []*endpointStats {
	stats := make([]*endpointStats, len(targets))
	for i := range stats {
		stats[i] = &endpointStats{codes: make(map[int]int)}
	}
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        concurrency * 2,
			MaxIdleConnsPerHost: concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	var wg sync.WaitGroup
	for w := range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := w; ctx.Err() == nil; i += concurrency {
				t := i % len(targets)
				req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+targets[t].path(i/len(targets)), nil)
				if err != nil {
					stats[t].record(0, 0, err)
					continue
				}
				start := time.Now()
				resp, err := client.Do(req)
				if err != nil {
					if ctx.Err() == nil {
						stats[t].record(0, 0, err)
					}
					continue
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				stats[t].record(time.Since(start), resp.StatusCode, nil)
			}
		}()
	}
	wg.Wait()
	return stats
}

// report prints the results and reports whether any request completed.
func report(targets []target, stats []*endpointStats, d time.Duration) bool {
	var total int
	fmt.Printf("%-14s %8s %8s %10s %10s %10s %10s  %s\n", "endpoint", "requests", "failed", "p50", "p95", "p99", "stddev", "codes")
	for i, s := range stats {
		s.mu.Lock()
		lat := slices.Clone(s.latencies)
		codes := s.codes
		s.mu.Unlock()
		slices.Sort(lat)
		total += len(lat)

		keys := make([]int, 0, len(codes))
		for c := range codes {
			keys = append(keys, c)
		}
		slices.Sort(keys)
		var sb strings.Builder
		for _, c := range keys {
			fmt.Fprintf(&sb, "%d:%d ", c, codes[c])
		}
		fmt.Printf("%-14s %8d %8d %10s %10s %10s %10s  %s\n",
			targets[i].name, len(lat), s.failures.Load(),
			percentile(lat, 50), percentile(lat, 95), percentile(lat, 99), stddev(lat), sb.String())
	}
	fmt.Printf("\nTotal: %d requests, %.1f req/s\n", total, float64(total)/d.Seconds())
	return total > 0
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	return sorted[min(max(idx, 0), len(sorted)-1)].Round(time.Microsecond)
}

func stddev(lat []time.Duration) time.Duration {
	if len(lat) == 0 {
		return 0
	}
	var sum float64
	for _, l := range lat {
		sum += float64(l)
	}
	mean := sum / float64(len(lat))
	var sq float64
	for _, l := range lat {
		sq += (float64(l) - mean) * (float64(l) - mean)
	}
	return time.Duration(math.Sqrt(sq / float64(len(lat)))).Round(time.Microsecond)
}
