package srv

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/insightpilot/insightpilot/pkg/errors"
	"github.com/insightpilot/insightpilot/pkg/i18n"
)

const (
	DEFAULT_AI_TIMEOUT_SECOND = 30
	DEFAULT_AI_MAX_RETRIES    = 2
	DEFAULT_AI_TEMPERATURE    = 0.7
)

type AIConfig struct {
	Token         string  `toml:"token"`
	Endpoint      string  `toml:"endpoint"`
	Model         string  `toml:"model"`
	Temperature   float32 `toml:"temperature"`
	TimeoutSecond int     `toml:"timeout_second"`
	MaxRetries    int     `toml:"max_retries"`
	Encoding      string  `toml:"encoding"`
}

// Request describes one structured generation call. Schema is a JSON
// schema the provider must shape its output to.
type Request struct {
	System      string
	Prompt      string
	Temperature float32
	SchemaName  string
	Schema      json.RawMessage
}

type Meta struct {
	Model      string `json:"model"`
	Method     string `json:"method"` // structured or direct
	Retries    int    `json:"retries"`
	DurationMs int64  `json:"duration_ms"`
}

type Response struct {
	Content string
	Meta    Meta
}

type AIDriver interface {
	GenerateStructured(ctx context.Context, req Request) (*Response, error)
	CompleteText(ctx context.Context, prompt string, temperature float32) (string, error)
	StreamText(ctx context.Context, prompt string, temperature float32, onDelta func(delta string) error) (*Response, error)
	Model() string
}

type AI struct {
	client *openai.Client
	cfg    AIConfig
}

func SetupAI(cfg AIConfig) *AI {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.TimeoutSecond <= 0 {
		cfg.TimeoutSecond = DEFAULT_AI_TIMEOUT_SECOND
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DEFAULT_AI_MAX_RETRIES
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DEFAULT_AI_TEMPERATURE
	}

	occ := openai.DefaultConfig(cfg.Token)
	if cfg.Endpoint != "" {
		occ.BaseURL = cfg.Endpoint
	}

	return &AI{
		client: openai.NewClientWithConfig(occ),
		cfg:    cfg,
	}
}

func (s *AI) Model() string {
	return s.cfg.Model
}

func (s *AI) timeout() time.Duration {
	return time.Duration(s.cfg.TimeoutSecond) * time.Second
}

// GenerateStructured asks the model for schema-shaped JSON output.
// Transient failures are retried with exponential backoff; once retries
// are exhausted the caller gets a provider-kind error and is expected to
// take its own fallback path.
func (s *AI) GenerateStructured(ctx context.Context, req Request) (*Response, error) {
	ccr := openai.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Temperature: s.temperatureOr(req.Temperature),
		Messages:    buildMessages(req.System, req.Prompt),
	}
	if len(req.Schema) > 0 {
		ccr.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.SchemaName,
				Schema: req.Schema,
				Strict: true,
			},
		}
	}

	start := time.Now()
	content, retries, err := s.completeWithRetry(ctx, ccr)
	if err != nil {
		return nil, errors.New("AI.GenerateStructured", i18n.ERROR_PROVIDER_UNAVAILABLE, err).
			Kind(errors.KindProvider).Code(http.StatusBadGateway)
	}

	return &Response{
		Content: content,
		Meta: Meta{
			Model:      s.cfg.Model,
			Method:     "structured",
			Retries:    retries,
			DurationMs: time.Since(start).Milliseconds(),
		},
	}, nil
}

// CompleteText is the plain direct path, no response shaping.
func (s *AI) CompleteText(ctx context.Context, prompt string, temperature float32) (string, error) {
	ccr := openai.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Temperature: s.temperatureOr(temperature),
		Messages:    buildMessages("", prompt),
	}

	content, _, err := s.completeWithRetry(ctx, ccr)
	if err != nil {
		return "", errors.New("AI.CompleteText", i18n.ERROR_PROVIDER_UNAVAILABLE, err).
			Kind(errors.KindProvider).Code(http.StatusBadGateway)
	}
	return content, nil
}

// StreamText streams completion deltas through onDelta. An onDelta error
// aborts the stream and is returned as-is so cancellation keeps its own
// error identity.
func (s *AI) StreamText(ctx context.Context, prompt string, temperature float32, onDelta func(delta string) error) (*Response, error) {
	ccr := openai.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Temperature: s.temperatureOr(temperature),
		Messages:    buildMessages("", prompt),
		Stream:      true,
	}

	start := time.Now()
	stream, err := s.client.CreateChatCompletionStream(ctx, ccr)
	if err != nil {
		return nil, errors.New("AI.StreamText", i18n.ERROR_PROVIDER_UNAVAILABLE, err).
			Kind(errors.KindProvider).Code(http.StatusBadGateway)
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		resp, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, errors.New("AI.StreamText.Recv", i18n.ERROR_PROVIDER_UNAVAILABLE, err).
				Kind(errors.KindProvider).Code(http.StatusBadGateway)
		}
		if len(resp.Choices) == 0 {
			continue
		}

		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		sb.WriteString(delta)
		if err = onDelta(delta); err != nil {
			return nil, err
		}
	}

	return &Response{
		Content: sb.String(),
		Meta: Meta{
			Model:      s.cfg.Model,
			Method:     "direct",
			DurationMs: time.Since(start).Milliseconds(),
		},
	}, nil
}

func (s *AI) temperatureOr(t float32) float32 {
	if t <= 0 {
		return s.cfg.Temperature
	}
	return t
}

func (s *AI) completeWithRetry(ctx context.Context, req openai.ChatCompletionRequest) (string, int, error) {
	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				return "", attempt, ctx.Err()
			case <-time.After(backoff):
			}
			slog.Warn("ai completion retrying",
				slog.Int("attempt", attempt),
				slog.String("model", req.Model),
				slog.Any("error", lastErr))
		}

		reqCtx, cancel := context.WithTimeout(ctx, s.timeout())
		resp, err := s.client.CreateChatCompletion(reqCtx, req)
		cancel()
		if err == nil {
			if len(resp.Choices) == 0 {
				lastErr = errors.New("AI.completeWithRetry", "empty choices in completion response", nil)
				continue
			}
			return resp.Choices[0].Message.Content, attempt, nil
		}

		lastErr = err
		if !retryableCompletionError(err) {
			break
		}
	}
	return "", s.cfg.MaxRetries, lastErr
}

func retryableCompletionError(err error) bool {
	if apiErr, ok := err.(*openai.APIError); ok {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return true
		}
		return apiErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	// transport failures and per-attempt timeouts
	return true
}

func buildMessages(system, prompt string) []openai.ChatCompletionMessage {
	var msgs []openai.ChatCompletionMessage
	if system != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	return append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})
}
