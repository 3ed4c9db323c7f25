package types

type Session struct {
	ID         string        `json:"id" db:"id"`
	UserID     string        `json:"user_id" db:"user_id"`
	Title      string        `json:"title" db:"title"`
	Status     SessionStatus `json:"status" db:"status"`
	CreatedAt  int64         `json:"created_at" db:"created_at"`
	UpdatedAt  int64         `json:"updated_at" db:"updated_at"`
	TokensUsed int64         `json:"tokens_used" db:"tokens_used"`
}

type SessionStatus int8

const (
	SESSION_STATUS_ACTIVE   SessionStatus = 1
	SESSION_STATUS_ARCHIVED SessionStatus = 2
	SESSION_STATUS_DELETED  SessionStatus = 3
)

func (s SessionStatus) String() string {
	switch s {
	case SESSION_STATUS_ACTIVE:
		return "active"
	case SESSION_STATUS_ARCHIVED:
		return "archived"
	case SESSION_STATUS_DELETED:
		return "deleted"
	default:
		return "unknown"
	}
}

// Selection ceilings. Both are enforced on every add, see the context
// manager. Values are defaults, overridable from config.
const (
	DEFAULT_MAX_CONTEXT_ITEMS_TOTAL    = 100
	DEFAULT_MAX_CONTEXT_ITEMS_PER_TYPE = 50
)
