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
	"github.com/insightpilot/insightpilot/pkg/types"
	"github.com/insightpilot/insightpilot/pkg/types/protocol"
	"github.com/insightpilot/insightpilot/pkg/utils"
)

const SESSION_TITLE_MAX_LEN = 60

type SessionLogic struct {
	ctx  context.Context
	core *core.Core
	UserInfo
}

func NewSessionLogic(ctx context.Context, core *core.Core) *SessionLogic {
	return &SessionLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx),
	}
}

func (l *SessionLogic) CreateSession(title string) (string, error) {
	session := types.Session{
		ID:        utils.GenUniqIDStr(),
		UserID:    l.GetUserID(),
		Title:     normalizeTitle(title),
		Status:    types.SESSION_STATUS_ACTIVE,
		CreatedAt: time.Now().Unix(),
	}

	if err := l.core.Store().SessionStore().Create(l.ctx, session); err != nil {
		return "", errors.New("SessionLogic.CreateSession.SessionStore.Create", i18n.ERROR_PERSISTENCE, err).
			Kind(errors.KindPersistence)
	}
	return session.ID, nil
}

// CheckUserSession loads the session and verifies the caller owns it.
func (l *SessionLogic) CheckUserSession(sessionID string) (*types.Session, error) {
	session, err := l.core.Store().SessionStore().GetSession(l.ctx, sessionID)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("SessionLogic.CheckUserSession.SessionStore.GetSession", i18n.ERROR_INTERNAL, err)
	}
	if session == nil || session.Status == types.SESSION_STATUS_DELETED {
		return nil, errors.New("SessionLogic.CheckUserSession.nil", i18n.ERROR_SESSION_NOT_FOUND, nil).
			Kind(errors.KindNotFound).Code(http.StatusNotFound)
	}

	if session.UserID != l.GetUserID() {
		return nil, errors.New("SessionLogic.CheckUserSession.unauth", i18n.ERROR_FORBIDDEN, nil).
			Code(http.StatusForbidden)
	}

	return session, nil
}

func (l *SessionLogic) RenameSession(sessionID, title string) error {
	if _, err := l.CheckUserSession(sessionID); err != nil {
		return err
	}

	if err := l.core.Store().SessionStore().UpdateTitle(l.ctx, sessionID, normalizeTitle(title)); err != nil {
		return errors.New("SessionLogic.RenameSession.SessionStore.UpdateTitle", i18n.ERROR_PERSISTENCE, err).
			Kind(errors.KindPersistence)
	}
	return nil
}

func (l *SessionLogic) ArchiveSession(sessionID string) error {
	if _, err := l.CheckUserSession(sessionID); err != nil {
		return err
	}

	if err := l.core.Store().SessionStore().UpdateStatus(l.ctx, sessionID, types.SESSION_STATUS_ARCHIVED); err != nil {
		return errors.New("SessionLogic.ArchiveSession.SessionStore.UpdateStatus", i18n.ERROR_PERSISTENCE, err).
			Kind(errors.KindPersistence)
	}
	return nil
}

// DeleteSession marks the session deleted and purges its rows. Cache keys
// are dropped best-effort afterwards.
func (l *SessionLogic) DeleteSession(sessionID string) error {
	if _, err := l.CheckUserSession(sessionID); err != nil {
		return err
	}

	err := l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		if err := l.core.Store().SessionStore().UpdateStatus(ctx, sessionID, types.SESSION_STATUS_DELETED); err != nil {
			return errors.New("SessionLogic.DeleteSession.SessionStore.UpdateStatus", i18n.ERROR_PERSISTENCE, err).
				Kind(errors.KindPersistence)
		}
		if err := l.core.Store().MessageStore().DeleteSessionMessages(ctx, sessionID); err != nil {
			return errors.New("SessionLogic.DeleteSession.MessageStore.DeleteSessionMessages", i18n.ERROR_PERSISTENCE, err).
				Kind(errors.KindPersistence)
		}
		if err := l.core.Store().ContextRefStore().DeleteAll(ctx, sessionID); err != nil {
			return errors.New("SessionLogic.DeleteSession.ContextRefStore.DeleteAll", i18n.ERROR_PERSISTENCE, err).
				Kind(errors.KindPersistence)
		}
		return nil
	})
	if err != nil {
		return err
	}

	l.core.Cache().Del(l.ctx, protocol.GenContextVersionKey(sessionID))
	l.core.Cache().Del(l.ctx, protocol.GenSessionSeqKey(sessionID))
	return nil
}

func (l *SessionLogic) ListSessions(page, pageSize uint64) ([]types.Session, int64, error) {
	list, err := l.core.Store().SessionStore().List(l.ctx, l.GetUserID(), page, pageSize)
	if err != nil {
		return nil, 0, errors.New("SessionLogic.ListSessions.SessionStore.List", i18n.ERROR_INTERNAL, err)
	}

	total, err := l.core.Store().SessionStore().Total(l.ctx, l.GetUserID())
	if err != nil {
		return nil, 0, errors.New("SessionLogic.ListSessions.SessionStore.Total", i18n.ERROR_INTERNAL, err)
	}
	return list, total, nil
}

func normalizeTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Untitled session"
	}
	runes := []rune(title)
	if len(runes) > SESSION_TITLE_MAX_LEN {
		return string(runes[:SESSION_TITLE_MAX_LEN])
	}
	return title
}
