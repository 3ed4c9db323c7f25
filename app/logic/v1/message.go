package v1

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/insightpilot/insightpilot/app/core"
	"github.com/insightpilot/insightpilot/pkg/errors"
	"github.com/insightpilot/insightpilot/pkg/i18n"
	"github.com/insightpilot/insightpilot/pkg/intent"
	"github.com/insightpilot/insightpilot/pkg/types"
)

const MAX_MESSAGE_LENGTH = 10000

type MessageLogic struct {
	ctx  context.Context
	core *core.Core
	UserInfo
}

func NewMessageLogic(ctx context.Context, core *core.Core) *MessageLogic {
	return &MessageLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx),
	}
}

type PersistResult struct {
	MessageID string       `json:"message_id"`
	Sequence  int64        `json:"sequence"`
	Tokens    int          `json:"tokens"`
	Intent    types.Intent `json:"intent"`

	// Classification is the full classifier output behind Intent, so the
	// orchestrator can reuse it instead of classifying a second time.
	Classification intent.Result `json:"-"`
}

// PersistUserMessage validates, classifies and appends one user turn.
// Storage failures come back as persistence-kind errors; they never
// propagate raw into the orchestrator.
func (l *MessageLogic) PersistUserMessage(session *types.Session, content string, refs types.MessageContextRefs) (*PersistResult, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}
	if err := validateRefs(refs); err != nil {
		return nil, err
	}

	result := l.core.Classifier().Classify(content)
	l.core.Metrics().IntentInc(string(result.Intent))

	tokens := l.core.Tokenizer().Count(content)

	seq, err := l.core.Srv().Seq().GetSessionSeqID(l.ctx, session.ID)
	if err != nil {
		return nil, errors.New("MessageLogic.PersistUserMessage.Seq", i18n.ERROR_PERSISTENCE, err).
			Kind(errors.KindPersistence)
	}

	msg := &types.Message{
		ID:          l.core.Srv().Seq().GenMessageID(),
		SessionID:   session.ID,
		UserID:      l.GetUserID(),
		Role:        types.USER_ROLE_USER,
		Content:     content,
		Intent:      result.Intent,
		Tokens:      tokens,
		ContextRefs: refs,
		Complete:    types.MESSAGE_PROGRESS_COMPLETE,
		Sequence:    seq,
		SendTime:    time.Now().Unix(),
	}

	if err = l.core.Store().MessageStore().Create(l.ctx, msg); err != nil {
		return nil, errors.New("MessageLogic.PersistUserMessage.MessageStore.Create", i18n.ERROR_PERSISTENCE, err).
			Kind(errors.KindPersistence)
	}

	if err = l.core.Store().SessionStore().AddTokensUsed(l.ctx, session.ID, int64(tokens)); err != nil {
		return nil, errors.New("MessageLogic.PersistUserMessage.SessionStore.AddTokensUsed", i18n.ERROR_PERSISTENCE, err).
			Kind(errors.KindPersistence)
	}

	return &PersistResult{
		MessageID:      msg.ID,
		Sequence:       msg.Sequence,
		Tokens:         tokens,
		Intent:         result.Intent,
		Classification: result,
	}, nil
}

type AssistantMessageArgs struct {
	MessageID   string
	Content     string
	Intent      types.Intent
	DurationMs  int64
	Tokens      int
	Model       string
	Temperature float64
	ContextRefs types.MessageContextRefs
	Progress    types.MessageProgress
	ErrCode     string
	ErrMsg      string
}

// PersistAssistantMessage appends a finished assistant turn. Intent is
// mandatory here: an assistant message that cannot say what it answered
// is a pipeline bug upstream.
func (l *MessageLogic) PersistAssistantMessage(session *types.Session, args AssistantMessageArgs) (*PersistResult, error) {
	if !args.Intent.Valid() {
		return nil, errors.New("MessageLogic.PersistAssistantMessage.intent", i18n.ERROR_MESSAGE_MISSING_INTENT, nil).
			Kind(errors.KindValidation).Code(http.StatusBadRequest)
	}
	if len([]rune(args.Content)) > MAX_MESSAGE_LENGTH {
		return nil, errors.New("MessageLogic.PersistAssistantMessage.length", i18n.ERROR_MESSAGE_TOO_LONG, nil).
			Kind(errors.KindValidation).Code(http.StatusBadRequest)
	}
	if err := validateRefs(args.ContextRefs); err != nil {
		return nil, err
	}

	if args.Tokens == 0 && args.Content != "" {
		args.Tokens = l.core.Tokenizer().Count(args.Content)
	}
	if args.Progress == types.MESSAGE_PROGRESS_UNKNOWN {
		args.Progress = types.MESSAGE_PROGRESS_COMPLETE
	}

	seq, err := l.core.Srv().Seq().GetSessionSeqID(l.ctx, session.ID)
	if err != nil {
		return nil, errors.New("MessageLogic.PersistAssistantMessage.Seq", i18n.ERROR_PERSISTENCE, err).
			Kind(errors.KindPersistence)
	}

	msg := &types.Message{
		ID:          args.MessageID,
		SessionID:   session.ID,
		UserID:      session.UserID,
		Role:        types.USER_ROLE_ASSISTANT,
		Content:     args.Content,
		Intent:      args.Intent,
		DurationMs:  args.DurationMs,
		Tokens:      args.Tokens,
		ContextRefs: args.ContextRefs,
		Model:       args.Model,
		Temperature: args.Temperature,
		ErrCode:     args.ErrCode,
		ErrMsg:      args.ErrMsg,
		Complete:    args.Progress,
		Sequence:    seq,
		SendTime:    time.Now().Unix(),
	}
	if msg.ID == "" {
		msg.ID = l.core.Srv().Seq().GenMessageID()
	}

	if err = l.core.Store().MessageStore().Create(l.ctx, msg); err != nil {
		return nil, errors.New("MessageLogic.PersistAssistantMessage.MessageStore.Create", i18n.ERROR_PERSISTENCE, err).
			Kind(errors.KindPersistence)
	}

	if msg.Tokens > 0 {
		if err = l.core.Store().SessionStore().AddTokensUsed(l.ctx, session.ID, int64(msg.Tokens)); err != nil {
			return nil, errors.New("MessageLogic.PersistAssistantMessage.SessionStore.AddTokensUsed", i18n.ERROR_PERSISTENCE, err).
				Kind(errors.KindPersistence)
		}
	}

	return &PersistResult{
		MessageID: msg.ID,
		Sequence:  msg.Sequence,
		Tokens:    msg.Tokens,
		Intent:    msg.Intent,
	}, nil
}

func (l *MessageLogic) GetMessage(sessionID, messageID string) (*types.Message, error) {
	msg, err := l.core.Store().MessageStore().GetOne(l.ctx, messageID)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("MessageLogic.GetMessage.MessageStore.GetOne", i18n.ERROR_INTERNAL, err)
	}
	if msg == nil || msg.SessionID != sessionID {
		return nil, errors.New("MessageLogic.GetMessage.nil", i18n.ERROR_NOT_FOUND, nil).
			Kind(errors.KindNotFound).Code(http.StatusNotFound)
	}
	return msg, nil
}

func (l *MessageLogic) ListMessages(opts types.ListMessageOptions, page, pageSize uint64) ([]*types.Message, int64, error) {
	list, err := l.core.Store().MessageStore().List(l.ctx, opts, page, pageSize)
	if err != nil {
		return nil, 0, errors.New("MessageLogic.ListMessages.MessageStore.List", i18n.ERROR_INTERNAL, err)
	}

	total, err := l.core.Store().MessageStore().Total(l.ctx, opts)
	if err != nil {
		return nil, 0, errors.New("MessageLogic.ListMessages.MessageStore.Total", i18n.ERROR_INTERNAL, err)
	}
	return list, total, nil
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.New("MessageLogic.validateContent.empty", i18n.ERROR_INVALIDARGUMENT, nil).
			Kind(errors.KindValidation).Code(http.StatusBadRequest)
	}
	if len([]rune(content)) > MAX_MESSAGE_LENGTH {
		return errors.New("MessageLogic.validateContent.length", i18n.ERROR_MESSAGE_TOO_LONG, nil).
			Kind(errors.KindValidation).Code(http.StatusBadRequest)
	}
	return nil
}

func validateRefs(refs types.MessageContextRefs) error {
	for _, ref := range refs {
		if !ref.ItemType.Valid() || ref.ItemID == "" {
			return errors.New("MessageLogic.validateRefs", i18n.ERROR_INVALIDARGUMENT, nil).
				Kind(errors.KindValidation).Code(http.StatusBadRequest)
		}
	}
	return nil
}
