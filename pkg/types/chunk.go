package types

// Stream chunk protocol. One request produces an ordered sequence of typed
// chunks; a chunk that repeats an earlier CorrelationID replaces it on the
// consumer side (reconciliation) instead of appending.

type ChunkType string

const (
	CHUNK_METADATA ChunkType = "metadata"
	CHUNK_CONTEXT  ChunkType = "context"
	CHUNK_PICKER   ChunkType = "picker"
	CHUNK_MESSAGE  ChunkType = "message"
	CHUNK_ERROR    ChunkType = "error"
	CHUNK_DONE     ChunkType = "done"
)

type ContextChunkStage string

const (
	CONTEXT_STAGE_LOADING ContextChunkStage = "loading"
	CONTEXT_STAGE_LOADED  ContextChunkStage = "loaded"
	CONTEXT_STAGE_ERROR   ContextChunkStage = "error"
)

type Chunk struct {
	Type          ChunkType      `json:"type"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	Metadata      *MetadataChunk `json:"metadata,omitempty"`
	Context       *ContextChunk  `json:"context,omitempty"`
	Picker        *PickerChunk   `json:"picker,omitempty"`
	Message       *MessageChunk  `json:"message,omitempty"`
	Error         *ErrorChunk    `json:"error,omitempty"`
}

type MetadataChunk struct {
	SessionID  string  `json:"session_id"`
	MessageID  string  `json:"message_id"`
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

type ContextChunk struct {
	Stage ContextChunkStage `json:"stage"`
	Label string            `json:"label,omitempty"`
	Items []ContextItem     `json:"items,omitempty"`
	Error string            `json:"error,omitempty"`
}

type PickerChunk struct {
	Items         []PickerItem `json:"items"`
	Actions       []string     `json:"actions"`
	MaxSelectable int          `json:"max_selectable"`
}

type PickerItem struct {
	ID       string          `json:"id"`
	Type     ContextItemType `json:"type"`
	Title    string          `json:"title"`
	Score    float64         `json:"score,omitempty"`
	Selected bool            `json:"selected"`
}

type MessageChunk struct {
	MessageID string `json:"message_id"`
	Delta     string `json:"delta"`
	StartAt   int    `json:"start_at"`
}

type ErrorChunk struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// ChunkWriter pushes chunks to the caller as they become available.
// Implementations must preserve call order; the orchestrator guarantees a
// single emitting goroutine per request.
type ChunkWriter interface {
	WriteChunk(chunk Chunk) error
}

type ChunkWriterFunc func(chunk Chunk) error

func (f ChunkWriterFunc) WriteChunk(chunk Chunk) error {
	return f(chunk)
}
