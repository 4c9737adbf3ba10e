package logger

import (
	"context"
	"log/slog"
	"sort"
	"sync"
)

// Bounded logs at most max messages per category. The first message past the
// limit is replaced by a single notice; later ones are only counted.
type Bounded struct {
	logger *slog.Logger
	max    int

	mu     sync.Mutex
	counts map[string]int
}

func NewBounded(logger *slog.Logger, max int) *Bounded {
	if logger == nil {
		logger = slog.Default()
	}
	if max < 0 {
		max = 0
	}
	return &Bounded{
		logger: logger,
		max:    max,
		counts: make(map[string]int),
	}
}

func (b *Bounded) Warn(category string, args ...any) {
	b.log(slog.LevelWarn, category, args...)
}

func (b *Bounded) Error(category string, args ...any) {
	b.log(slog.LevelError, category, args...)
}

func (b *Bounded) Info(category string, args ...any) {
	b.log(slog.LevelInfo, category, args...)
}

func (b *Bounded) log(level slog.Level, category string, args ...any) {
	b.mu.Lock()
	count := b.counts[category]
	b.counts[category] = count + 1
	b.mu.Unlock()

	switch {
	case count < b.max:
		b.logger.Log(context.Background(), level, category, args...)
	case count == b.max:
		b.logger.Log(context.Background(), level, "message limit reached, omitting further messages",
			"category", category,
			"limit", b.max,
		)
	}
}

// Count returns how often category was reported, including suppressed ones.
func (b *Bounded) Count(category string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts[category]
}

// CategoryCount is one line of a Bounded report.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Report returns all categories sorted by name.
func (b *Bounded) Report() []CategoryCount {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]CategoryCount, 0, len(b.counts))
	for c, n := range b.counts {
		out = append(out, CategoryCount{Category: c, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Category < out[j].Category
	})
	return out
}

// Total returns the number of messages across all categories.
func (b *Bounded) Total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := 0
	for _, n := range b.counts {
		total += n
	}
	return total
}
