package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCount(t *testing.T) {
	c := NewCounter("")

	assert.Equal(t, 0, c.Count(""))

	n := c.Count("What insights do we have about onboarding drop-off?")
	assert.Greater(t, n, 0)

	// identical input, identical count
	assert.Equal(t, n, c.Count("What insights do we have about onboarding drop-off?"))
}

func TestCountBatch(t *testing.T) {
	c := NewCounter("")

	texts := []string{"retention metrics", "", "how might we reduce churn"}
	counts := c.CountBatch(texts)

	assert.Len(t, counts, 3)
	assert.Equal(t, c.Count(texts[0]), counts[0])
	assert.Equal(t, 0, counts[1])
	assert.Greater(t, counts[2], 0)
}

func TestCacheEviction(t *testing.T) {
	c := NewCounter("", WithCacheSize(2))

	c.Count("first")
	c.Count("second")
	c.Count("third")

	assert.Equal(t, 2, c.CacheLen())

	// evicted entries are recounted, not lost
	assert.Greater(t, c.Count("first"), 0)
}

func TestTruncateToLimit(t *testing.T) {
	c := NewCounter("")

	text := strings.Repeat("customer onboarding retention funnel ", 40)

	assert.Equal(t, "", c.TruncateToLimit(text, 0))
	assert.Equal(t, "short", c.TruncateToLimit("short", 100))

	truncated := c.TruncateToLimit(text, 10)
	assert.LessOrEqual(t, c.Count(truncated), 10)
	assert.True(t, strings.HasPrefix(text, truncated))
	assert.NotEmpty(t, truncated)
}
