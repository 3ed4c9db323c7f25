// Package tokenizer estimates the token cost of text. Counting goes
// through a tiktoken encoding when one can be loaded; otherwise it falls
// back to the ~4 chars/token heuristic so the service stays usable without
// network access to the BPE files. Either way the count is deterministic
// for identical input within a process.
package tokenizer

import (
	"log/slog"
	"strings"
	"sync"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/pkoukk/tiktoken-go"

	"github.com/insightpilot/insightpilot/pkg/utils"
)

const (
	DefaultEncoding  = "cl100k_base"
	DefaultCacheSize = 2048

	// charsPerToken is the conservative ratio used when no encoding is
	// available. 4 chars/token is standard for English prose and code.
	charsPerToken = 4
)

type Counter struct {
	encoder *tiktoken.Tiktoken

	cache     cmap.ConcurrentMap[string, int]
	cacheCap  int
	orderMu   sync.Mutex
	orderKeys []string
}

type Option func(*Counter)

func WithCacheSize(n int) Option {
	return func(c *Counter) {
		if n > 0 {
			c.cacheCap = n
		}
	}
}

// NewCounter builds a Counter for the given encoding name. An empty name
// selects DefaultEncoding. Encoding load failures are logged and degrade
// to the character heuristic.
func NewCounter(encoding string, opts ...Option) *Counter {
	if encoding == "" {
		encoding = DefaultEncoding
	}

	c := &Counter{
		cache:    cmap.New[int](),
		cacheCap: DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(c)
	}

	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		slog.Warn("tokenizer falling back to character heuristic",
			slog.String("encoding", encoding), slog.String("error", err.Error()))
	} else {
		c.encoder = enc
	}
	return c
}

// Count returns the estimated token cost of text. Empty input costs 0.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}

	key := utils.MD5(text)
	if n, ok := c.cache.Get(key); ok {
		return n
	}

	n := c.countUncached(text)
	c.put(key, n)
	return n
}

func (c *Counter) CountBatch(texts []string) []int {
	out := make([]int, len(texts))
	for i, t := range texts {
		out[i] = c.Count(t)
	}
	return out
}

// TruncateToLimit returns the longest whitespace-aligned prefix of text
// whose counted cost is <= limit. Binary search over word boundaries.
func (c *Counter) TruncateToLimit(text string, limit int) string {
	if limit <= 0 || text == "" {
		return ""
	}
	if c.Count(text) <= limit {
		return text
	}

	words := strings.Fields(text)
	lo, hi := 0, len(words)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		candidate := strings.Join(words[:mid], " ")
		if c.countUncached(candidate) <= limit {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return strings.Join(words[:lo], " ")
}

func (c *Counter) countUncached(text string) int {
	if c.encoder != nil {
		return len(c.encoder.Encode(text, nil, nil))
	}
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// put stores a count and evicts the oldest entries once the cache exceeds
// its ceiling. Readers are never blocked by eviction; only writers
// serialize on the insertion-order queue.
func (c *Counter) put(key string, n int) {
	if c.cache.SetIfAbsent(key, n) {
		c.orderMu.Lock()
		c.orderKeys = append(c.orderKeys, key)
		for len(c.orderKeys) > c.cacheCap {
			oldest := c.orderKeys[0]
			c.orderKeys = c.orderKeys[1:]
			c.cache.Remove(oldest)
		}
		c.orderMu.Unlock()
	}
}

// CacheLen reports the number of cached entries, for tests and metrics.
func (c *Counter) CacheLen() int {
	return c.cache.Count()
}
