package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/insightpilot/insightpilot/pkg/types"
)

func TestClassify(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	cases := []struct {
		utterance string
		expect    types.Intent
	}{
		{"What insights do we have about onboarding drop-off?", types.INTENT_RETRIEVE_INSIGHTS},
		{"Show me our conversion metrics", types.INTENT_RETRIEVE_METRICS},
		{"List the jobs to be done for new users", types.INTENT_RETRIEVE_JOBS},
		{"How might we reduce churn?", types.INTENT_GENERATE_QUESTIONS},
		{"Create some solution ideas for the checkout flow", types.INTENT_CREATE_SOLUTIONS},
		{"Tell me a story about dinosaurs", types.INTENT_GENERAL_EXPLORATION},
		{"", types.INTENT_GENERAL_EXPLORATION},
	}

	for _, tc := range cases {
		res := c.Classify(tc.utterance)
		assert.Equal(t, tc.expect, res.Intent, "utterance: %q", tc.utterance)
		assert.Greater(t, res.Confidence, 0.0)
		assert.LessOrEqual(t, res.Confidence, 1.0)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	first := c.Classify("show me metrics and insights about signup")
	for i := 0; i < 20; i++ {
		again := c.Classify("show me metrics and insights about signup")
		assert.Equal(t, first.Intent, again.Intent)
		assert.Equal(t, first.Confidence, again.Confidence)
	}
}

func TestClassifyAmbiguous(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	// two intents matched, runner-up must surface as an alternative with
	// lower confidence
	res := c.Classify("show me metrics and insights about signup")
	assert.NotEmpty(t, res.Alternatives)
	for _, alt := range res.Alternatives {
		assert.LessOrEqual(t, alt.Confidence, res.Confidence)
	}
}

func TestClassifyFallbackEvidence(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	res := c.Classify("blah blah nothing relevant")
	assert.Equal(t, types.INTENT_GENERAL_EXPLORATION, res.Intent)
	assert.Empty(t, res.Matches)
	assert.Equal(t, DefaultConfig().ConfidenceFloor, res.Confidence)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "drop off rates", Normalize("Drop-off rates!"))
	assert.Equal(t, "how might we", Normalize("  How   MIGHT we? "))
	assert.Equal(t, "", Normalize("???"))
}
