package logger_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/logger"
)

func TestBoundedLimitsRepetition(t *testing.T) {
	var buf bytes.Buffer
	b := logger.NewBounded(logger.New(&buf, "info", "text"), 2)

	for i := 0; i < 5; i++ {
		b.Warn("mdate missing", "key", "x")
	}
	b.Warn("url field missing")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[2], "omitting further messages")
	assert.Equal(t, 5, b.Count("mdate missing"))
	assert.Equal(t, 6, b.Total())

	report := b.Report()
	require.Len(t, report, 2)
	assert.Equal(t, "mdate missing", report[0].Category)
	assert.Equal(t, "url field missing", report[1].Category)
}

func TestBoundedZeroLimit(t *testing.T) {
	var buf bytes.Buffer
	b := logger.NewBounded(logger.New(&buf, "info", "json"), 0)
	b.Warn("too long key")
	b.Warn("too long key")

	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
	assert.Equal(t, 2, b.Count("too long key"))
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(&buf, "warn", "text")
	l.Info("hidden")
	l.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
