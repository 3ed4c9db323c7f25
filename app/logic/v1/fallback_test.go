package v1

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/insightpilot/insightpilot/pkg/types"
)

func TestWritePromptContextMultibyte(t *testing.T) {
	items := []types.ContextItem{
		{
			Type:    types.CONTEXT_ITEM_INSIGHT,
			Title:   "多字节内容",
			Content: strings.Repeat("试", promptContentLimit+50),
		},
	}

	var sb strings.Builder
	writePromptContext(&sb, items)
	prompt := sb.String()

	assert.True(t, utf8.ValidString(prompt))
	assert.Equal(t, promptContentLimit, strings.Count(prompt, "试"))
}

func TestParseGeneratedList(t *testing.T) {
	raw := `Here are some ideas:
1. Streamline signup - Cut the form down to two fields
2) Progressive onboarding: Introduce features over the first week
- Guided tour — Walk new users through the core flow

that was all`

	res := parseGeneratedList(raw)
	assert.True(t, res.OK)
	assert.Len(t, res.Items, 3)

	assert.Equal(t, "Streamline signup", res.Items[0].Title)
	assert.Equal(t, "Cut the form down to two fields", res.Items[0].Description)
	assert.Equal(t, "Progressive onboarding", res.Items[1].Title)
	assert.Equal(t, "Guided tour", res.Items[2].Title)
}

func TestParseGeneratedListEmpty(t *testing.T) {
	res := parseGeneratedList("no list anywhere in this text")
	assert.False(t, res.OK)
	assert.NotEmpty(t, res.Reason)
}

func TestNormalizeQuestion(t *testing.T) {
	cases := []struct {
		in     string
		expect string
	}{
		{"How might we reduce churn?", "How might we reduce churn?"},
		{"how might we reduce churn", "How might we reduce churn?"},
		{"Reduce churn.", "How might we reduce churn?"},
		{"Improve the signup flow", "How might we improve the signup flow?"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.expect, normalizeQuestion(tc.in), "input: %q", tc.in)
	}
}

func TestScoreGenerated(t *testing.T) {
	context := []types.ContextItem{
		{Type: types.CONTEXT_ITEM_INSIGHT, Title: "Onboarding drop-off", Content: "Users abandon the signup flow on step three"},
	}

	grounded := scoreGenerated(GeneratedItem{
		Title:       "Simplify the signup flow onboarding steps",
		Description: "Reduce abandon points during signup",
	}, context)
	ungrounded := scoreGenerated(GeneratedItem{
		Title:       "Completely unrelated concept here",
		Description: "Nothing shared whatsoever",
	}, context)

	assert.Greater(t, grounded, ungrounded)
	assert.LessOrEqual(t, grounded, 1.0)
	assert.GreaterOrEqual(t, ungrounded, 0.1)

	assert.Equal(t, 0.2, scoreGenerated(GeneratedItem{Title: "Anything at all really", Synthesized: true}, context))
}

func TestAttachMetric(t *testing.T) {
	context := []types.ContextItem{
		{ID: "i1", Type: types.CONTEXT_ITEM_INSIGHT, Title: "Some insight"},
		{ID: "m1", Type: types.CONTEXT_ITEM_METRIC, Title: "Signup conversion rate", Content: "signup completions over visits"},
		{ID: "m2", Type: types.CONTEXT_ITEM_METRIC, Title: "Weekly retention", Content: "returning users per week"},
	}

	item := GeneratedItem{Title: "Shorter signup form", Description: "raise signup conversion"}
	attachMetric(&item, context)
	assert.Equal(t, "m1", item.MetricID)
	assert.Equal(t, "Signup conversion rate", item.MetricTitle)

	// no metrics in context means no attachment
	bare := GeneratedItem{Title: "Shorter signup form"}
	attachMetric(&bare, context[:1])
	assert.Empty(t, bare.MetricID)
}

func TestSynthesizePlaceholders(t *testing.T) {
	context := []types.ContextItem{
		{Title: "Onboarding drop-off"},
	}

	items := synthesizePlaceholders(nil, context, 3, true)
	assert.Len(t, items, 3)
	for _, item := range items {
		assert.True(t, item.Synthesized)
		assert.Contains(t, item.Title, "How might we")
		assert.Contains(t, item.Title, "?")
	}

	// existing items are kept, only the gap is filled
	partial := synthesizePlaceholders([]GeneratedItem{{Title: "Kept"}}, nil, 2, false)
	assert.Len(t, partial, 2)
	assert.Equal(t, "Kept", partial[0].Title)
	assert.False(t, partial[0].Synthesized)
	assert.True(t, partial[1].Synthesized)
}

func TestKeywordOverlap(t *testing.T) {
	assert.Equal(t, 0.0, keywordOverlap("", "anything"))
	assert.Equal(t, 1.0, keywordOverlap("signup conversion", "signup conversion funnel data"))
	assert.Equal(t, 0.0, keywordOverlap("unrelated words", "signup conversion"))

	partial := keywordOverlap("signup retention", "signup conversion")
	assert.Greater(t, partial, 0.0)
	assert.Less(t, partial, 1.0)
}

func TestTrimToCount(t *testing.T) {
	items := []GeneratedItem{{Title: "a"}, {Title: "b"}, {Title: "c"}}
	assert.Len(t, trimToCount(items, 2), 2)
	assert.Len(t, trimToCount(items, 5), 3)
}
