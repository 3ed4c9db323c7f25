package types

// Context-manager event channel. Subscribers receive ContextEvents with
// isolated failure handling; see pkg/eventbus.

type EventType string

const (
	EVENT_CONTEXT_UPDATED   EventType = "context_updated"
	EVENT_CONTEXT_VALIDATED EventType = "context_validated"
	EVENT_USAGE_RECORDED    EventType = "usage_recorded"
)

type ContextEvent struct {
	Type      EventType       `json:"type"`
	SessionID string          `json:"session_id"`
	ItemType  ContextItemType `json:"item_type,omitempty"`
	ItemIDs   []string        `json:"item_ids,omitempty"`
	At        int64           `json:"at"`
	Payload   interface{}     `json:"payload,omitempty"`
}
