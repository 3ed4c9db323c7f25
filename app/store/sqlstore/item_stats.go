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
		provider.stores.ItemStatsStore = NewItemStatsStore(provider)
	})
}

type ItemStatsStore struct {
	CommonFields
}

func NewItemStatsStore(provider SqlProviderAchieve) *ItemStatsStore {
	repo := &ItemStatsStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_ITEM_STATS)
	repo.SetAllColumns("item_type", "item_id", "total_uses", "avg_utilization", "last_used_at", "intents")
	return repo
}

// ApplyUsage folds one usage event into the item's running stats in a
// single upsert, keeping avg_utilization a true running average and
// intents a distinct set.
func (s *ItemStatsStore) ApplyUsage(ctx context.Context, event types.UsageEvent) error {
	if event.CreatedAt == 0 {
		event.CreatedAt = time.Now().Unix()
	}

	table := s.GetTable()
	query := sq.Insert(table).
		Columns("item_type", "item_id", "total_uses", "avg_utilization", "last_used_at", "intents").
		Values(event.ItemType, event.ItemID, 1, event.Utilization, event.CreatedAt,
			sq.Expr("?::jsonb", types.StringList{string(event.Intent)}.String())).
		Suffix(`ON CONFLICT (item_type, item_id) DO UPDATE SET
total_uses = ` + table + `.total_uses + 1,
avg_utilization = (` + table + `.avg_utilization * ` + table + `.total_uses + EXCLUDED.avg_utilization) / (` + table + `.total_uses + 1),
last_used_at = EXCLUDED.last_used_at,
intents = CASE WHEN ` + table + `.intents @> EXCLUDED.intents THEN ` + table + `.intents ELSE ` + table + `.intents || EXCLUDED.intents END`)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *ItemStatsStore) Get(ctx context.Context, itemType types.ContextItemType, itemID string) (*types.ItemStats, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"item_type": itemType, "item_id": itemID})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.ItemStats
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *ItemStatsStore) BatchGet(ctx context.Context, refs []types.ContextRef) ([]types.ItemStats, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	cond := sq.Or{}
	for _, ref := range refs {
		cond = append(cond, sq.Eq{"item_type": ref.ItemType, "item_id": ref.ItemID})
	}

	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(cond)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var list []types.ItemStats
	if err = s.GetReplica(ctx).Select(&list, queryString, args...); err != nil {
		return nil, err
	}
	return list, nil
}
