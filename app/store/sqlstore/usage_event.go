package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/insightpilot/insightpilot/pkg/register"
	"github.com/insightpilot/insightpilot/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.UsageEventStore = NewUsageEventStore(provider)
	})
}

type UsageEventStore struct {
	CommonFields
}

func NewUsageEventStore(provider SqlProviderAchieve) *UsageEventStore {
	repo := &UsageEventStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_USAGE_EVENT)
	repo.SetAllColumns("id", "session_id", "message_id", "item_type", "item_id", "utilization", "intent", "created_at")
	return repo
}

func (s *UsageEventStore) Create(ctx context.Context, data types.UsageEvent) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}

	query := sq.Insert(s.GetTable()).
		Columns("session_id", "message_id", "item_type", "item_id", "utilization", "intent", "created_at").
		Values(data.SessionID, data.MessageID, data.ItemType, data.ItemID, data.Utilization, data.Intent, data.CreatedAt)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *UsageEventStore) BatchCreate(ctx context.Context, datas []types.UsageEvent) error {
	if len(datas) == 0 {
		return nil
	}

	now := time.Now().Unix()
	query := sq.Insert(s.GetTable()).
		Columns("session_id", "message_id", "item_type", "item_id", "utilization", "intent", "created_at")

	for _, data := range datas {
		if data.CreatedAt == 0 {
			data.CreatedAt = now
		}
		query = query.Values(data.SessionID, data.MessageID, data.ItemType, data.ItemID, data.Utilization, data.Intent, data.CreatedAt)
	}

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *UsageEventStore) ListByItem(ctx context.Context, itemType types.ContextItemType, itemID string, page, pageSize uint64) ([]types.UsageEvent, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"item_type": itemType, "item_id": itemID}).
		OrderBy("created_at DESC")

	if page != types.NO_PAGINATION || pageSize != types.NO_PAGINATION {
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var list []types.UsageEvent
	if err = s.GetReplica(ctx).Select(&list, queryString, args...); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *UsageEventStore) ListBySession(ctx context.Context, sessionID string, st, et time.Time) ([]types.UsageEvent, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"session_id": sessionID}).
		OrderBy("created_at ASC")

	if !st.IsZero() {
		query = query.Where(sq.GtOrEq{"created_at": st.Unix()})
	}
	if !et.IsZero() {
		query = query.Where(sq.Lt{"created_at": et.Unix()})
	}

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var list []types.UsageEvent
	if err = s.GetReplica(ctx).Select(&list, queryString, args...); err != nil {
		return nil, err
	}
	return list, nil
}
