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
		provider.stores.MessageStore = NewMessageStore(provider)
	})
}

type MessageStore struct {
	CommonFields
}

func NewMessageStore(provider SqlProviderAchieve) *MessageStore {
	repo := &MessageStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_MESSAGE)
	repo.SetAllColumns("id", "session_id", "user_id", "role", "content", "intent", "duration_ms",
		"tokens", "context_refs", "model", "temperature", "err_code", "err_msg", "complete", "sequence", "send_time")
	return repo
}

func (s *MessageStore) Create(ctx context.Context, data *types.Message) error {
	if data.SendTime == 0 {
		data.SendTime = time.Now().Unix()
	}

	query := sq.Insert(s.GetTable()).
		Columns("id", "session_id", "user_id", "role", "content", "intent", "duration_ms",
			"tokens", "context_refs", "model", "temperature", "err_code", "err_msg", "complete", "sequence", "send_time").
		Values(data.ID, data.SessionID, data.UserID, data.Role, data.Content, data.Intent, data.DurationMs,
			data.Tokens, data.ContextRefs.String(), data.Model, data.Temperature, data.ErrCode, data.ErrMsg,
			data.Complete, data.Sequence, data.SendTime)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *MessageStore) GetOne(ctx context.Context, id string) (*types.Message, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.Message
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

// AppendContent concatenates a streamed delta onto the stored content.
// Messages are immutable once complete; this only runs while the message
// is in the generating state.
func (s *MessageStore) AppendContent(ctx context.Context, sessionID, id, delta string) error {
	query := sq.Update(s.GetTable()).
		Where(sq.Eq{"session_id": sessionID, "id": id, "complete": types.MESSAGE_PROGRESS_GENERATING}).
		Set("content", sq.Expr("content || ?", delta))

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *MessageStore) UpdateProgress(ctx context.Context, sessionID, id string, complete types.MessageProgress) error {
	query := sq.Update(s.GetTable()).
		Where(sq.Eq{"session_id": sessionID, "id": id}).
		Set("complete", complete)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *MessageStore) FinishMessage(ctx context.Context, sessionID, id string, tokens int, durationMs int64, complete types.MessageProgress, errCode, errMsg string) error {
	query := sq.Update(s.GetTable()).
		Where(sq.Eq{"session_id": sessionID, "id": id}).
		Set("tokens", tokens).
		Set("duration_ms", durationMs).
		Set("complete", complete).
		Set("err_code", errCode).
		Set("err_msg", errMsg)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *MessageStore) Exist(ctx context.Context, sessionID, id string) (bool, error) {
	query := sq.Select("1").From(s.GetTable()).Where(sq.Eq{"session_id": sessionID, "id": id}).Limit(1)

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

func (s *MessageStore) GetSessionLatestMessage(ctx context.Context, sessionID string) (*types.Message, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"session_id": sessionID}).
		OrderBy("sequence DESC").Limit(1)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.Message
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

func applyMessageOptions(query sq.SelectBuilder, opts types.ListMessageOptions) sq.SelectBuilder {
	if opts.SessionID != "" {
		query = query.Where(sq.Eq{"session_id": opts.SessionID})
	}
	if opts.Role != types.USER_ROLE_UNKNOWN {
		query = query.Where(sq.Eq{"role": opts.Role})
	}
	if opts.AfterTime > 0 {
		query = query.Where(sq.GtOrEq{"send_time": opts.AfterTime})
	}
	if opts.BeforeTime > 0 {
		query = query.Where(sq.Lt{"send_time": opts.BeforeTime})
	}
	return query
}

func (s *MessageStore) List(ctx context.Context, opts types.ListMessageOptions, page, pageSize uint64) ([]*types.Message, error) {
	query := applyMessageOptions(sq.Select(s.GetAllColumns()...).From(s.GetTable()), opts)

	if opts.Ascending {
		query = query.OrderBy("sequence ASC")
	} else {
		query = query.OrderBy("sequence DESC")
	}

	if page != types.NO_PAGINATION || pageSize != types.NO_PAGINATION {
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var list []*types.Message
	if err = s.GetReplica(ctx).Select(&list, queryString, args...); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *MessageStore) Total(ctx context.Context, opts types.ListMessageOptions) (int64, error) {
	query := applyMessageOptions(sq.Select("COUNT(*)").From(s.GetTable()), opts)

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

func (s *MessageStore) DeleteSessionMessages(ctx context.Context, sessionID string) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"session_id": sessionID})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}
