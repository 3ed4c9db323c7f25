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
		provider.stores.SessionStore = NewSessionStore(provider)
	})
}

type SessionStore struct {
	CommonFields
}

func NewSessionStore(provider SqlProviderAchieve) *SessionStore {
	repo := &SessionStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_SESSION)
	repo.SetAllColumns("id", "user_id", "title", "status", "created_at", "updated_at", "tokens_used")
	return repo
}

func (s *SessionStore) Create(ctx context.Context, data types.Session) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	if data.UpdatedAt == 0 {
		data.UpdatedAt = data.CreatedAt
	}

	query := sq.Insert(s.GetTable()).
		Columns("id", "user_id", "title", "status", "created_at", "updated_at", "tokens_used").
		Values(data.ID, data.UserID, data.Title, data.Status, data.CreatedAt, data.UpdatedAt, data.TokensUsed)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *SessionStore) GetSession(ctx context.Context, sessionID string) (*types.Session, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"id": sessionID})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.Session
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *SessionStore) UpdateTitle(ctx context.Context, sessionID, title string) error {
	query := sq.Update(s.GetTable()).Where(sq.Eq{"id": sessionID}).
		Set("title", title).
		Set("updated_at", time.Now().Unix())

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *SessionStore) UpdateStatus(ctx context.Context, sessionID string, status types.SessionStatus) error {
	query := sq.Update(s.GetTable()).Where(sq.Eq{"id": sessionID}).
		Set("status", status).
		Set("updated_at", time.Now().Unix())

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *SessionStore) AddTokensUsed(ctx context.Context, sessionID string, tokens int64) error {
	query := sq.Update(s.GetTable()).Where(sq.Eq{"id": sessionID}).
		Set("tokens_used", sq.Expr("tokens_used + ?", tokens)).
		Set("updated_at", time.Now().Unix())

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *SessionStore) Touch(ctx context.Context, sessionID string) error {
	query := sq.Update(s.GetTable()).Where(sq.Eq{"id": sessionID}).Set("updated_at", time.Now().Unix())

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"id": sessionID})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *SessionStore) List(ctx context.Context, userID string, page, pageSize uint64) ([]types.Session, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"user_id": userID}).
		Where(sq.NotEq{"status": types.SESSION_STATUS_DELETED}).
		OrderBy("updated_at DESC")

	if page != types.NO_PAGINATION || pageSize != types.NO_PAGINATION {
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var list []types.Session
	if err = s.GetReplica(ctx).Select(&list, queryString, args...); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *SessionStore) Total(ctx context.Context, userID string) (int64, error) {
	query := sq.Select("COUNT(*)").From(s.GetTable()).
		Where(sq.Eq{"user_id": userID}).
		Where(sq.NotEq{"status": types.SESSION_STATUS_DELETED})

	queryString, args, err := query.ToSql()
	if err != nil {
		return 0, ErrorSqlBuild(err)
	}

	var total int64
	if err = s.GetReplica(ctx).Get(&total, queryString, args...); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *SessionStore) ListByStatusBefore(ctx context.Context, status types.SessionStatus, t time.Time, page, pageSize uint64) ([]types.Session, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"status": status}).
		Where(sq.Lt{"updated_at": t.Unix()})

	if page != types.NO_PAGINATION || pageSize != types.NO_PAGINATION {
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var list []types.Session
	if err = s.GetReplica(ctx).Select(&list, queryString, args...); err != nil {
		return nil, err
	}
	return list, nil
}
