package store

import (
	"context"
	"time"

	"github.com/insightpilot/insightpilot/pkg/sqlstore"
	"github.com/insightpilot/insightpilot/pkg/types"
)

type SessionStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.Session) error
	GetSession(ctx context.Context, sessionID string) (*types.Session, error)
	UpdateTitle(ctx context.Context, sessionID, title string) error
	UpdateStatus(ctx context.Context, sessionID string, status types.SessionStatus) error
	AddTokensUsed(ctx context.Context, sessionID string, tokens int64) error
	Touch(ctx context.Context, sessionID string) error
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context, userID string, page, pageSize uint64) ([]types.Session, error)
	Total(ctx context.Context, userID string) (int64, error)
	ListByStatusBefore(ctx context.Context, status types.SessionStatus, t time.Time, page, pageSize uint64) ([]types.Session, error)
}

type MessageStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data *types.Message) error
	GetOne(ctx context.Context, id string) (*types.Message, error)
	AppendContent(ctx context.Context, sessionID, id, delta string) error
	UpdateProgress(ctx context.Context, sessionID, id string, complete types.MessageProgress) error
	FinishMessage(ctx context.Context, sessionID, id string, tokens int, durationMs int64, complete types.MessageProgress, errCode, errMsg string) error
	Exist(ctx context.Context, sessionID, id string) (bool, error)
	GetSessionLatestMessage(ctx context.Context, sessionID string) (*types.Message, error)
	List(ctx context.Context, opts types.ListMessageOptions, page, pageSize uint64) ([]*types.Message, error)
	Total(ctx context.Context, opts types.ListMessageOptions) (int64, error)
	DeleteSessionMessages(ctx context.Context, sessionID string) error
}

type ContextRefStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.ContextRef) error
	Delete(ctx context.Context, sessionID string, itemType types.ContextItemType, itemID string) error
	DeleteByType(ctx context.Context, sessionID string, itemType types.ContextItemType) error
	DeleteAll(ctx context.Context, sessionID string) error
	Exist(ctx context.Context, sessionID string, itemType types.ContextItemType, itemID string) (bool, error)
	List(ctx context.Context, sessionID string) ([]types.ContextRef, error)
	CountBySession(ctx context.Context, sessionID string) (map[types.ContextItemType]int, error)
	TouchLastUsed(ctx context.Context, sessionID string, itemType types.ContextItemType, itemIDs []string) error
}

type UsageEventStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.UsageEvent) error
	BatchCreate(ctx context.Context, datas []types.UsageEvent) error
	ListByItem(ctx context.Context, itemType types.ContextItemType, itemID string, page, pageSize uint64) ([]types.UsageEvent, error)
	ListBySession(ctx context.Context, sessionID string, st, et time.Time) ([]types.UsageEvent, error)
}

type ItemStatsStore interface {
	sqlstore.SqlCommons
	ApplyUsage(ctx context.Context, event types.UsageEvent) error
	Get(ctx context.Context, itemType types.ContextItemType, itemID string) (*types.ItemStats, error)
	BatchGet(ctx context.Context, refs []types.ContextRef) ([]types.ItemStats, error)
}

// KnowledgeStore is the boundary to the research corpus. The core is not
// the system of record for item content; an unresolved reference is
// reported as missing, never fatal. The bundled implementation is a plain
// Postgres table with lexical search; semantic search lives outside.
type KnowledgeStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.KnowledgeItem) error
	GetItem(ctx context.Context, itemType types.ContextItemType, id string) (*types.KnowledgeItem, error)
	BatchGet(ctx context.Context, refs []types.ContextRef) ([]types.KnowledgeItem, error)
	Search(ctx context.Context, query string, itemTypes []types.ContextItemType, limit uint64) ([]types.ScoredItem, error)
	Delete(ctx context.Context, itemType types.ContextItemType, id string) error
}
