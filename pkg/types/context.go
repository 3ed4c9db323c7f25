package types

import (
	"encoding/json"
	"fmt"
)

// ContextItemType tags a unit of prior knowledge a session can select.
// document/insight/jtbd/metric come from the research corpus; how_might_we
// and solution are derived by the generation handlers and sit in the low
// eviction tier.
type ContextItemType string

const (
	CONTEXT_ITEM_DOCUMENT     ContextItemType = "document"
	CONTEXT_ITEM_INSIGHT      ContextItemType = "insight"
	CONTEXT_ITEM_JOB          ContextItemType = "jtbd"
	CONTEXT_ITEM_METRIC       ContextItemType = "metric"
	CONTEXT_ITEM_HOW_MIGHT_WE ContextItemType = "how_might_we"
	CONTEXT_ITEM_SOLUTION     ContextItemType = "solution"
)

func (t ContextItemType) Valid() bool {
	switch t {
	case CONTEXT_ITEM_DOCUMENT, CONTEXT_ITEM_INSIGHT, CONTEXT_ITEM_JOB,
		CONTEXT_ITEM_METRIC, CONTEXT_ITEM_HOW_MIGHT_WE, CONTEXT_ITEM_SOLUTION:
		return true
	}
	return false
}

// SelectableTypes are the typed sets a session keeps references for.
var SelectableTypes = []ContextItemType{
	CONTEXT_ITEM_DOCUMENT,
	CONTEXT_ITEM_INSIGHT,
	CONTEXT_ITEM_JOB,
	CONTEXT_ITEM_METRIC,
	CONTEXT_ITEM_HOW_MIGHT_WE,
}

// ContextRef is a persisted selected-item reference. Content is not stored
// here; it is hydrated on demand from the knowledge store.
type ContextRef struct {
	ID         int64           `json:"id" db:"id"`
	SessionID  string          `json:"session_id" db:"session_id"`
	ItemType   ContextItemType `json:"item_type" db:"item_type"`
	ItemID     string          `json:"item_id" db:"item_id"`
	AddedAt    int64           `json:"added_at" db:"added_at"`
	LastUsedAt int64           `json:"last_used_at" db:"last_used_at"`
}

// ContextItem is a hydrated context reference: the reference plus content
// loaded from the knowledge store and optional enrichment.
type ContextItem struct {
	ID         string          `json:"id"`
	Type       ContextItemType `json:"type"`
	Title      string          `json:"title"`
	Content    string          `json:"content"`
	Similarity float64         `json:"similarity,omitempty"`
	Metadata   ItemMetadata    `json:"metadata,omitempty"`
	AddedAt    int64           `json:"added_at"`
	LastUsedAt int64           `json:"last_used_at,omitempty"`
	Stats      *ItemStats      `json:"stats,omitempty"`
}

type ItemMetadata map[string]interface{}

func (m ItemMetadata) String() string {
	raw, _ := json.Marshal(m)
	return string(raw)
}

func (m *ItemMetadata) Scan(src interface{}) error {
	switch src := src.(type) {
	case []byte:
		return m.scanBytes(src)
	case string:
		return m.scanBytes([]byte(src))
	case nil:
		*m = nil
		return nil
	}
	return fmt.Errorf("pq: cannot convert %T to ItemMetadata", src)
}

func (m *ItemMetadata) scanBytes(src []byte) error {
	if len(src) == 0 {
		*m = ItemMetadata{}
		return nil
	}
	return json.Unmarshal(src, m)
}

// KnowledgeItem is the knowledge-store-side record a ContextRef points at.
// The knowledge store is the system of record for content; the core only
// references it.
type KnowledgeItem struct {
	ID        string          `json:"id" db:"id"`
	Type      ContextItemType `json:"type" db:"item_type"`
	Title     string          `json:"title" db:"title"`
	Content   string          `json:"content" db:"content"`
	Metadata  ItemMetadata    `json:"metadata" db:"metadata"`
	CreatedAt int64           `json:"created_at" db:"created_at"`
}

// ScoredItem is a search candidate with its similarity score.
type ScoredItem struct {
	KnowledgeItem
	Score float64 `json:"score"`
}

// SessionContext is the full context state of one session: every selected
// reference grouped by type, hydrated or not depending on how it was
// loaded.
type SessionContext struct {
	SessionID    string                            `json:"session_id"`
	Items        map[ContextItemType][]ContextItem `json:"items"`
	MissingItems []ContextRef                      `json:"missing_items,omitempty"`
	Version      int64                             `json:"version"`
}

func (c *SessionContext) TotalCount() int {
	total := 0
	for _, items := range c.Items {
		total += len(items)
	}
	return total
}

func (c *SessionContext) Flatten() []ContextItem {
	var out []ContextItem
	for _, t := range SelectableTypes {
		out = append(out, c.Items[t]...)
	}
	return out
}

type ContextSortBy string

const (
	CONTEXT_SORT_RECENCY    ContextSortBy = "recency"
	CONTEXT_SORT_USAGE      ContextSortBy = "usage"
	CONTEXT_SORT_SIMILARITY ContextSortBy = "similarity"
	CONTEXT_SORT_TITLE      ContextSortBy = "title"
)

type HydrateOptions struct {
	WithContent bool          `json:"with_content"`
	WithStats   bool          `json:"with_stats"`
	SortBy      ContextSortBy `json:"sort_by"`
	Query       string        `json:"query"` // optional, enables similarity enrichment
}

// UsageEvent links one message to the context items it actually drew on,
// with a per-item utilization score in [0,1]. Append-only.
type UsageEvent struct {
	ID          int64           `json:"id" db:"id"`
	SessionID   string          `json:"session_id" db:"session_id"`
	MessageID   string          `json:"message_id" db:"message_id"`
	ItemType    ContextItemType `json:"item_type" db:"item_type"`
	ItemID      string          `json:"item_id" db:"item_id"`
	Utilization float64         `json:"utilization" db:"utilization"`
	Intent      Intent          `json:"intent" db:"intent"`
	CreatedAt   int64           `json:"created_at" db:"created_at"`
}

// ItemStats are the running effectiveness metrics for one context item,
// derived from its usage events.
type ItemStats struct {
	ItemType       ContextItemType `json:"item_type" db:"item_type"`
	ItemID         string          `json:"item_id" db:"item_id"`
	TotalUses      int64           `json:"total_uses" db:"total_uses"`
	AvgUtilization float64         `json:"avg_utilization" db:"avg_utilization"`
	LastUsedAt     int64           `json:"last_used_at" db:"last_used_at"`
	Intents        StringList      `json:"intents" db:"intents"`
}

type StringList []string

func (s StringList) String() string {
	raw, _ := json.Marshal(s)
	return string(raw)
}

func (s *StringList) Scan(src interface{}) error {
	switch src := src.(type) {
	case []byte:
		return s.scanBytes(src)
	case string:
		return s.scanBytes([]byte(src))
	case nil:
		*s = nil
		return nil
	}
	return fmt.Errorf("pq: cannot convert %T to StringList", src)
}

func (s *StringList) scanBytes(src []byte) error {
	if len(src) == 0 {
		*s = StringList{}
		return nil
	}
	return json.Unmarshal(src, s)
}
