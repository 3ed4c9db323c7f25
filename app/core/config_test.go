package core

import (
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"

	"github.com/insightpilot/insightpilot/pkg/intent"
	"github.com/insightpilot/insightpilot/pkg/types"
)

func TestConfigIntentSection(t *testing.T) {
	raw := `
addr = ":8080"

[intent]
confidence_floor = 0.25
positional_bonus = 0.2
positional_window = 10
partial_weight = 0.6
partial_discount = 0.2
multi_keyword_boost = 1.15
ambiguity_ratio = 0.7
ambiguity_discount = 0.1
alternative_damp = 0.5

[[intent.keywords.retrieve_metrics]]
word = "nps"
weight = 1.0
`

	var cfg CoreConfig
	assert.NoError(t, toml.Unmarshal([]byte(raw), &cfg))
	assert.Equal(t, 0.25, cfg.Intent.ConfidenceFloor)
	assert.Len(t, cfg.Intent.Keywords[types.INTENT_RETRIEVE_METRICS], 1)

	// the configured table drives classification, not the built-in one
	classifier := intent.NewClassifier(cfg.Intent)
	result := classifier.Classify("what is our nps this quarter")
	assert.Equal(t, types.INTENT_RETRIEVE_METRICS, result.Intent)

	// no table for insights in this config, so an insight query falls through
	result = classifier.Classify("show me the latest insights")
	assert.Equal(t, types.INTENT_GENERAL_EXPLORATION, result.Intent)
}

func TestConfigIntentSectionEmpty(t *testing.T) {
	var cfg CoreConfig
	assert.NoError(t, toml.Unmarshal([]byte(`addr = ":8080"`), &cfg))

	// empty section means the shipped defaults
	classifier := intent.NewClassifier(cfg.Intent)
	result := classifier.Classify("What insights do we have about onboarding drop-off?")
	assert.Equal(t, types.INTENT_RETRIEVE_INSIGHTS, result.Intent)
}
