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
		provider.stores.ContextRefStore = NewContextRefStore(provider)
	})
}

type ContextRefStore struct {
	CommonFields
}

func NewContextRefStore(provider SqlProviderAchieve) *ContextRefStore {
	repo := &ContextRefStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_CONTEXT_REF)
	repo.SetAllColumns("id", "session_id", "item_type", "item_id", "added_at", "last_used_at")
	return repo
}

func (s *ContextRefStore) Create(ctx context.Context, data types.ContextRef) error {
	if data.AddedAt == 0 {
		data.AddedAt = time.Now().Unix()
	}

	query := sq.Insert(s.GetTable()).
		Columns("session_id", "item_type", "item_id", "added_at", "last_used_at").
		Values(data.SessionID, data.ItemType, data.ItemID, data.AddedAt, data.LastUsedAt)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *ContextRefStore) Delete(ctx context.Context, sessionID string, itemType types.ContextItemType, itemID string) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"session_id": sessionID, "item_type": itemType, "item_id": itemID})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *ContextRefStore) DeleteByType(ctx context.Context, sessionID string, itemType types.ContextItemType) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"session_id": sessionID, "item_type": itemType})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *ContextRefStore) DeleteAll(ctx context.Context, sessionID string) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"session_id": sessionID})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *ContextRefStore) Exist(ctx context.Context, sessionID string, itemType types.ContextItemType, itemID string) (bool, error) {
	query := sq.Select("1").From(s.GetTable()).
		Where(sq.Eq{"session_id": sessionID, "item_type": itemType, "item_id": itemID}).Limit(1)

	queryString, args, err := query.ToSql()
	if err != nil {
		return false, ErrorSqlBuild(err)
	}

	var exist int
	if err = s.GetReplica(ctx).Get(&exist, queryString, args...); err != nil {
		return false, err
	}
	return exist == 1, nil
}

func (s *ContextRefStore) List(ctx context.Context, sessionID string) ([]types.ContextRef, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"session_id": sessionID}).
		OrderBy("added_at ASC", "id ASC")

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var list []types.ContextRef
	if err = s.GetReplica(ctx).Select(&list, queryString, args...); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *ContextRefStore) CountBySession(ctx context.Context, sessionID string) (map[types.ContextItemType]int, error) {
	query := sq.Select("item_type", "COUNT(*) AS total").From(s.GetTable()).
		Where(sq.Eq{"session_id": sessionID}).
		GroupBy("item_type")

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	rows, err := s.GetReplica(ctx).Queryx(queryString, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[types.ContextItemType]int)
	for rows.Next() {
		var (
			itemType types.ContextItemType
			total    int
		)
		if err = rows.Scan(&itemType, &total); err != nil {
			return nil, err
		}
		counts[itemType] = total
	}
	return counts, rows.Err()
}

func (s *ContextRefStore) TouchLastUsed(ctx context.Context, sessionID string, itemType types.ContextItemType, itemIDs []string) error {
	if len(itemIDs) == 0 {
		return nil
	}

	query := sq.Update(s.GetTable()).
		Where(sq.Eq{"session_id": sessionID, "item_type": itemType, "item_id": itemIDs}).
		Set("last_used_at", time.Now().Unix())

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}
