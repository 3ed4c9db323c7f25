package budget

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/insightpilot/insightpilot/pkg/types"
)

// wordCounter counts one token per word, which keeps the arithmetic in the
// assertions readable.
type wordCounter struct{}

func (wordCounter) Count(text string) int {
	return len(strings.Fields(text))
}

func testPolicy() Policy {
	p := DefaultPolicy()
	p.Limit = 50
	return p
}

func TestStatusLevels(t *testing.T) {
	m := NewManager(wordCounter{}, testPolicy())

	cases := []struct {
		tokens int
		level  types.BudgetLevel
	}{
		{10, types.BUDGET_HEALTHY},
		{79, types.BUDGET_HEALTHY},
		{80, types.BUDGET_WARNING},
		{95, types.BUDGET_CRITICAL},
		{100, types.BUDGET_CRITICAL},
		{101, types.BUDGET_EXCEEDED},
	}
	for _, tc := range cases {
		status := m.StatusFor(tc.tokens, 100)
		assert.Equal(t, tc.level, status.Level, "tokens: %d", tc.tokens)
		assert.Equal(t, tc.tokens, status.Tokens)
	}

	assert.Equal(t, 0, m.StatusFor(120, 100).Remaining)
}

func TestCalculate(t *testing.T) {
	m := NewManager(wordCounter{}, testPolicy())

	messages := []types.Message{
		{ID: "m1", Content: "one two three"},     // 3 + overhead
		{ID: "m2", Tokens: 10, Content: "ignored"}, // stored count wins
	}
	items := []types.ContextItem{
		{ID: "i1", Title: "title here", Content: "four words of content"},
	}

	assert.Equal(t, (3+4)+(10+4)+6, m.Calculate(messages, items))
}

func testMessages() []types.Message {
	return []types.Message{
		{ID: "sys", Role: types.USER_ROLE_SYSTEM, Tokens: 10, SendTime: 1},
		{ID: "old", Role: types.USER_ROLE_USER, Tokens: 10, SendTime: 2},
		{ID: "mid", Role: types.USER_ROLE_USER, Tokens: 10, SendTime: 3},
		{ID: "new", Role: types.USER_ROLE_ASSISTANT, Tokens: 10, SendTime: 4},
	}
}

func testItems() []types.ContextItem {
	return []types.ContextItem{
		{ID: "insight", Type: types.CONTEXT_ITEM_INSIGHT, Title: "a b", Content: "c d", LastUsedAt: 5},
		{ID: "hmw", Type: types.CONTEXT_ITEM_HOW_MIGHT_WE, Title: "a b", Content: "c d", LastUsedAt: 10},
		{ID: "solution", Type: types.CONTEXT_ITEM_SOLUTION, Title: "a b", Content: "c d", LastUsedAt: 1},
	}
}

func TestTruncateToFit(t *testing.T) {
	m := NewManager(wordCounter{}, testPolicy())

	messages := testMessages() // 4 * 14 = 56 tokens
	items := testItems()       // 3 * 4 = 12 tokens

	res := m.TruncateToFit(messages, items, 50)

	// context goes first: whole low tier by LRU, then the high tier,
	// then the oldest unprotected message
	assert.Equal(t, 3, res.RemovedItems)
	assert.Equal(t, 1, res.RemovedMessages)
	assert.Equal(t, 12+14, res.RemovedTokens)
	assert.Contains(t, res.Log[0], "solution")
	assert.Contains(t, res.Log[1], "how_might_we")

	kept := make([]string, 0, len(res.Messages))
	for _, msg := range res.Messages {
		kept = append(kept, msg.ID)
	}
	assert.Equal(t, []string{"sys", "mid", "new"}, kept)
	assert.Empty(t, res.ContextItems)

	// inputs untouched
	assert.Len(t, messages, 4)
	assert.Len(t, items, 3)

	assert.LessOrEqual(t, m.Calculate(res.Messages, res.ContextItems), 50)
}

func TestTruncateToFitIdempotent(t *testing.T) {
	m := NewManager(wordCounter{}, testPolicy())

	first := m.TruncateToFit(testMessages(), testItems(), 50)
	second := m.TruncateToFit(first.Messages, first.ContextItems, 50)

	assert.Equal(t, 0, second.RemovedItems)
	assert.Equal(t, 0, second.RemovedMessages)
	assert.Equal(t, first.Messages, second.Messages)
}

func TestTruncateToFitNoop(t *testing.T) {
	m := NewManager(wordCounter{}, testPolicy())

	res := m.TruncateToFit(testMessages(), nil, 100)
	assert.Equal(t, 0, res.RemovedMessages)
	assert.Len(t, res.Messages, 4)
	assert.Empty(t, res.Log)
}

func TestTruncateProtectedOverflow(t *testing.T) {
	m := NewManager(wordCounter{}, testPolicy())

	// the two protected messages alone blow the limit: they survive anyway
	messages := []types.Message{
		{ID: "a", Role: types.USER_ROLE_USER, Tokens: 40, SendTime: 1},
		{ID: "b", Role: types.USER_ROLE_ASSISTANT, Tokens: 40, SendTime: 2},
	}

	res := m.TruncateToFit(messages, nil, 50)
	assert.Len(t, res.Messages, 2)
	assert.Equal(t, 0, res.RemovedMessages)
	assert.Contains(t, res.Log[len(res.Log)-1], "protected")
}

func TestOptimize(t *testing.T) {
	m := NewManager(wordCounter{}, testPolicy())

	fits := m.Optimize(testMessages(), nil, 100)
	assert.True(t, fits.CanFit)
	assert.Equal(t, 56, fits.CurrentTokens)
	assert.Empty(t, fits.RecommendedActions)

	tight := m.Optimize(testMessages(), testItems(), 50)
	assert.True(t, tight.CanFit)
	assert.Equal(t, 68, tight.CurrentTokens)
	assert.Equal(t, 26, tight.TokenSavings)
	assert.NotEmpty(t, tight.RecommendedActions)
}
