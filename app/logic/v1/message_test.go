package v1

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/insightpilot/insightpilot/app/core"
	"github.com/insightpilot/insightpilot/pkg/errors"
	"github.com/insightpilot/insightpilot/pkg/types"
)

func TestValidateContent(t *testing.T) {
	assert.NoError(t, validateContent("What insights do we have?"))

	err := validateContent("   ")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, errors.KindValidation))

	err = validateContent(strings.Repeat("a", MAX_MESSAGE_LENGTH+1))
	assert.Error(t, err)
	assert.True(t, errors.Is(err, errors.KindValidation))

	// rune length, not byte length
	assert.NoError(t, validateContent(strings.Repeat("试", MAX_MESSAGE_LENGTH)))
}

func TestValidateRefs(t *testing.T) {
	assert.NoError(t, validateRefs(nil))
	assert.NoError(t, validateRefs(types.MessageContextRefs{
		{ItemType: types.CONTEXT_ITEM_INSIGHT, ItemID: "i1", Utilization: 0.8},
	}))

	assert.Error(t, validateRefs(types.MessageContextRefs{
		{ItemType: "bogus", ItemID: "i1"},
	}))
	assert.Error(t, validateRefs(types.MessageContextRefs{
		{ItemType: types.CONTEXT_ITEM_METRIC, ItemID: ""},
	}))
}

func TestPersistUserMessageRoundTrip(t *testing.T) {
	env := newFakeEnv(core.CoreConfig{})
	session := types.Session{ID: "s-rt", UserID: "u1", Status: types.SESSION_STATUS_ACTIVE}
	env.sessions.sessions[session.ID] = session

	ctx := context.WithValue(context.Background(), UserKey{}, "u1")
	logic := NewMessageLogic(ctx, env.core)

	content := "What insights do we have about onboarding drop-off?"
	refs := types.MessageContextRefs{
		{ItemType: types.CONTEXT_ITEM_INSIGHT, ItemID: "i1", Utilization: 0.8},
	}

	res, err := logic.PersistUserMessage(&session, content, refs)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), res.Sequence)
	assert.Equal(t, types.INTENT_RETRIEVE_INSIGHTS, res.Intent)
	assert.Equal(t, res.Intent, res.Classification.Intent)

	// what went in is what comes back out
	stored, err := logic.GetMessage(session.ID, res.MessageID)
	assert.NoError(t, err)
	assert.Equal(t, content, stored.Content)
	assert.Equal(t, res.Intent, stored.Intent)
	assert.Equal(t, env.core.Tokenizer().Count(content), stored.Tokens)
	assert.Equal(t, res.Tokens, stored.Tokens)
	assert.Equal(t, refs, stored.ContextRefs)
	assert.Equal(t, types.USER_ROLE_USER, stored.Role)
	assert.Equal(t, types.MESSAGE_PROGRESS_COMPLETE, stored.Complete)

	res2, err := logic.PersistUserMessage(&session, "And which metrics moved?", nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), res2.Sequence)
}

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, "Untitled session", normalizeTitle("  "))
	assert.Equal(t, "Churn research", normalizeTitle("  Churn research "))

	long := strings.Repeat("x", SESSION_TITLE_MAX_LEN+10)
	assert.Len(t, []rune(normalizeTitle(long)), SESSION_TITLE_MAX_LEN)
}
