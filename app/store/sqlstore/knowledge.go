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
		provider.stores.KnowledgeStore = NewKnowledgeStore(provider)
	})
}

// KnowledgeStore is the bundled Postgres-backed knowledge boundary. Search
// is lexical; deployments with a semantic index front this with their own
// retrieval service.
type KnowledgeStore struct {
	CommonFields
}

func NewKnowledgeStore(provider SqlProviderAchieve) *KnowledgeStore {
	repo := &KnowledgeStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_KNOWLEDGE_ITEM)
	repo.SetAllColumns("id", "item_type", "title", "content", "metadata", "created_at")
	return repo
}

func (s *KnowledgeStore) Create(ctx context.Context, data types.KnowledgeItem) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}

	query := sq.Insert(s.GetTable()).
		Columns("id", "item_type", "title", "content", "metadata", "created_at").
		Values(data.ID, data.Type, data.Title, data.Content, data.Metadata.String(), data.CreatedAt)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *KnowledgeStore) GetItem(ctx context.Context, itemType types.ContextItemType, id string) (*types.KnowledgeItem, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"item_type": itemType, "id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.KnowledgeItem
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *KnowledgeStore) BatchGet(ctx context.Context, refs []types.ContextRef) ([]types.KnowledgeItem, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	cond := sq.Or{}
	for _, ref := range refs {
		cond = append(cond, sq.Eq{"item_type": ref.ItemType, "id": ref.ItemID})
	}

	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(cond)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var list []types.KnowledgeItem
	if err = s.GetReplica(ctx).Select(&list, queryString, args...); err != nil {
		return nil, err
	}
	return list, nil
}

// Search is case-insensitive substring matching. Title hits weigh more
// than content hits, and earlier title hits rank above later ones.
func (s *KnowledgeStore) Search(ctx context.Context, query string, itemTypes []types.ContextItemType, limit uint64) ([]types.ScoredItem, error) {
	pattern := "%" + query + "%"

	scoreExpr := sq.Expr(
		`(CASE WHEN title ILIKE ? THEN 0.6 + 0.2 / (POSITION(LOWER(?) IN LOWER(title)) + 1) ELSE 0 END
 + CASE WHEN content ILIKE ? THEN 0.2 ELSE 0 END) AS score`,
		pattern, query, pattern)

	builder := sq.Select(s.GetAllColumns()...).
		Column(scoreExpr).
		From(s.GetTable()).
		Where(sq.Or{sq.Expr("title ILIKE ?", pattern), sq.Expr("content ILIKE ?", pattern)}).
		OrderBy("score DESC", "created_at DESC")

	if len(itemTypes) > 0 {
		builder = builder.Where(sq.Eq{"item_type": itemTypes})
	}
	if limit > 0 {
		builder = builder.Limit(limit)
	}

	queryString, args, err := builder.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var list []types.ScoredItem
	if err = s.GetReplica(ctx).Select(&list, queryString, args...); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *KnowledgeStore) Delete(ctx context.Context, itemType types.ContextItemType, id string) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"item_type": itemType, "id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}
