package types

import (
	"encoding/json"
	"fmt"
)

type Message struct {
	ID          string             `db:"id" json:"id"`
	SessionID   string             `db:"session_id" json:"session_id"`
	UserID      string             `db:"user_id" json:"user_id"`
	Role        MessageUserRole    `db:"role" json:"role"`
	Content     string             `db:"content" json:"content"`
	Intent      Intent             `db:"intent" json:"intent"`
	DurationMs  int64              `db:"duration_ms" json:"duration_ms"`
	Tokens      int                `db:"tokens" json:"tokens"`
	ContextRefs MessageContextRefs `db:"context_refs" json:"context_refs"`
	Model       string             `db:"model" json:"model,omitempty"`
	Temperature float64            `db:"temperature" json:"temperature,omitempty"`
	ErrCode     string             `db:"err_code" json:"err_code,omitempty"`
	ErrMsg      string             `db:"err_msg" json:"err_msg,omitempty"`
	Complete    MessageProgress    `db:"complete" json:"complete"`
	Sequence    int64              `db:"sequence" json:"sequence"`
	SendTime    int64              `db:"send_time" json:"send_time"`
}

// MessageContextRefs is the set of context items a message actually used,
// stored as a json column.
type MessageContextRefs []MessageContextRef

type MessageContextRef struct {
	ItemType    ContextItemType `json:"item_type"`
	ItemID      string          `json:"item_id"`
	Utilization float64         `json:"utilization,omitempty"`
}

func (s MessageContextRefs) String() string {
	raw, _ := json.Marshal(s)
	return string(raw)
}

func (a *MessageContextRefs) Scan(src interface{}) error {
	switch src := src.(type) {
	case []byte:
		return a.scanBytes(src)
	case string:
		return a.scanBytes([]byte(src))
	case nil:
		*a = nil
		return nil
	}

	return fmt.Errorf("pq: cannot convert %T to MessageContextRefs", src)
}

func (a *MessageContextRefs) scanBytes(src []byte) error {
	if len(src) == 0 {
		*a = MessageContextRefs{}
		return nil
	}
	return json.Unmarshal(src, a)
}

type MessageUserRole int8

const (
	USER_ROLE_UNKNOWN   MessageUserRole = 0
	USER_ROLE_USER      MessageUserRole = 1
	USER_ROLE_ASSISTANT MessageUserRole = 2
	USER_ROLE_SYSTEM    MessageUserRole = 3
)

func (s MessageUserRole) String() string {
	switch s {
	case USER_ROLE_ASSISTANT:
		return "assistant"
	case USER_ROLE_USER:
		return "user"
	case USER_ROLE_SYSTEM:
		return "system"
	default:
		return "unknown"
	}
}

func GetMessageUserRole(r string) MessageUserRole {
	switch r {
	case "assistant":
		return USER_ROLE_ASSISTANT
	case "user":
		return USER_ROLE_USER
	case "system":
		return USER_ROLE_SYSTEM
	default:
		return USER_ROLE_UNKNOWN
	}
}

type MessageProgress int8

const (
	MESSAGE_PROGRESS_UNKNOWN    MessageProgress = 0
	MESSAGE_PROGRESS_COMPLETE   MessageProgress = 1
	MESSAGE_PROGRESS_UNCOMPLETE MessageProgress = 2
	MESSAGE_PROGRESS_GENERATING MessageProgress = 3
	MESSAGE_PROGRESS_FAILED     MessageProgress = 4
	MESSAGE_PROGRESS_CANCELED   MessageProgress = 5
)

// ListMessageOptions narrows message-log queries; zero values mean no
// filter. Used for both history pagination and usage analytics windows.
type ListMessageOptions struct {
	SessionID  string
	Role       MessageUserRole
	AfterTime  int64
	BeforeTime int64
	Ascending  bool
}
