package srv

import (
	"fmt"
	"net/http"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
)

func TestSetupAIDefaults(t *testing.T) {
	s := SetupAI(AIConfig{Token: "k"})

	assert.Equal(t, openai.GPT4oMini, s.Model())
	assert.Equal(t, DEFAULT_AI_TIMEOUT_SECOND, s.cfg.TimeoutSecond)
	assert.Equal(t, DEFAULT_AI_MAX_RETRIES, s.cfg.MaxRetries)
	assert.Equal(t, float32(DEFAULT_AI_TEMPERATURE), s.cfg.Temperature)
}

func TestTemperatureOr(t *testing.T) {
	s := SetupAI(AIConfig{Token: "k", Temperature: 0.3})

	assert.Equal(t, float32(0.3), s.temperatureOr(0))
	assert.Equal(t, float32(0.9), s.temperatureOr(0.9))
}

func TestRetryableCompletionError(t *testing.T) {
	assert.True(t, retryableCompletionError(&openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}))
	assert.True(t, retryableCompletionError(&openai.APIError{HTTPStatusCode: http.StatusInternalServerError}))
	assert.True(t, retryableCompletionError(&openai.APIError{HTTPStatusCode: http.StatusBadGateway}))

	assert.False(t, retryableCompletionError(&openai.APIError{HTTPStatusCode: http.StatusBadRequest}))
	assert.False(t, retryableCompletionError(&openai.APIError{HTTPStatusCode: http.StatusUnauthorized}))

	// anything that is not an API error counts as a transport failure
	assert.True(t, retryableCompletionError(fmt.Errorf("connection reset")))
}

func TestBuildMessages(t *testing.T) {
	msgs := buildMessages("", "hello")
	assert.Len(t, msgs, 1)
	assert.Equal(t, openai.ChatMessageRoleUser, msgs[0].Role)

	msgs = buildMessages("be terse", "hello")
	assert.Len(t, msgs, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, msgs[0].Role)
	assert.Equal(t, "be terse", msgs[0].Content)
}
