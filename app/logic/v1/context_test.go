package v1

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/insightpilot/insightpilot/app/core"
	"github.com/insightpilot/insightpilot/pkg/errors"
	"github.com/insightpilot/insightpilot/pkg/types"
)

func insightState() *types.SessionContext {
	return &types.SessionContext{
		SessionID: "s1",
		Items: map[types.ContextItemType][]types.ContextItem{
			types.CONTEXT_ITEM_INSIGHT: {
				{ID: "a", Title: "Billing confusion", AddedAt: 10, Similarity: 0.2,
					Stats: &types.ItemStats{TotalUses: 5}},
				{ID: "b", Title: "Activation cliff", AddedAt: 30, Similarity: 0.9,
					Stats: &types.ItemStats{TotalUses: 1}},
				{ID: "c", Title: "Churn drivers", AddedAt: 20, Similarity: 0.5},
			},
		},
	}
}

func ids(items []types.ContextItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func TestSortContextItems(t *testing.T) {
	cases := []struct {
		sortBy types.ContextSortBy
		expect []string
	}{
		{types.CONTEXT_SORT_RECENCY, []string{"b", "c", "a"}},
		{types.CONTEXT_SORT_USAGE, []string{"a", "b", "c"}},
		{types.CONTEXT_SORT_SIMILARITY, []string{"b", "c", "a"}},
		{types.CONTEXT_SORT_TITLE, []string{"b", "a", "c"}},
		{"", []string{"b", "c", "a"}}, // recency is the default
	}

	for _, tc := range cases {
		state := insightState()
		sortContextItems(state, tc.sortBy)
		assert.Equal(t, tc.expect, ids(state.Items[types.CONTEXT_ITEM_INSIGHT]), "sort: %s", tc.sortBy)
	}
}

func TestContextAddCeilings(t *testing.T) {
	cfg := core.CoreConfig{}
	cfg.Context.MaxTotalItems = 3
	cfg.Context.MaxItemsPerType = 2

	env := newFakeEnv(cfg)
	env.sessions.sessions["s-ceil"] = types.Session{ID: "s-ceil", UserID: "u1", Status: types.SESSION_STATUS_ACTIVE}
	for _, seed := range []struct {
		itemType types.ContextItemType
		id       string
	}{
		{types.CONTEXT_ITEM_INSIGHT, "i1"},
		{types.CONTEXT_ITEM_INSIGHT, "i2"},
		{types.CONTEXT_ITEM_INSIGHT, "i3"},
		{types.CONTEXT_ITEM_METRIC, "m1"},
		{types.CONTEXT_ITEM_METRIC, "m2"},
	} {
		env.knowledge.put(types.KnowledgeItem{ID: seed.id, Type: seed.itemType, Title: seed.id})
	}

	ctx := context.WithValue(context.Background(), UserKey{}, "u1")
	logic := NewContextLogic(ctx, env.core)

	assert.NoError(t, logic.Add("s-ceil", types.CONTEXT_ITEM_INSIGHT, "i1"))
	assert.NoError(t, logic.Add("s-ceil", types.CONTEXT_ITEM_INSIGHT, "i2"))

	// per-type ceiling
	err := logic.Add("s-ceil", types.CONTEXT_ITEM_INSIGHT, "i3")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, errors.KindLimitExceeded))

	// a duplicate never slips past the ceiling check either
	err = logic.Add("s-ceil", types.CONTEXT_ITEM_INSIGHT, "i1")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, errors.KindValidation))

	// another type still has room up to the total ceiling
	assert.NoError(t, logic.Add("s-ceil", types.CONTEXT_ITEM_METRIC, "m1"))

	// total ceiling
	err = logic.Add("s-ceil", types.CONTEXT_ITEM_METRIC, "m2")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, errors.KindLimitExceeded))

	assert.Equal(t, 3, env.refs.count())
}

func TestSessionContextFlatten(t *testing.T) {
	state := insightState()
	state.Items[types.CONTEXT_ITEM_METRIC] = []types.ContextItem{{ID: "m"}}

	assert.Equal(t, 4, state.TotalCount())
	assert.Len(t, state.Flatten(), 4)
}
