package process

import (
	"context"
	"log/slog"
	"time"

	"github.com/insightpilot/insightpilot/app/core"
	"github.com/insightpilot/insightpilot/pkg/types"
)

const (
	DEFAULT_RETENTION_DAYS = 90
	cleanupBatchSize       = 200
	cleanupTimeout         = time.Minute * 10
)

// SessionCleanupTask purges archived sessions past retention, along with
// their messages and context references. Runs on the process cron.
type SessionCleanupTask struct {
	core *core.Core
}

func NewSessionCleanupTask(core *core.Core) *SessionCleanupTask {
	return &SessionCleanupTask{core: core}
}

func (t *SessionCleanupTask) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	retention := t.core.Cfg().Cleanup.RetentionDays
	if retention <= 0 {
		retention = DEFAULT_RETENTION_DAYS
	}
	cutoff := time.Now().AddDate(0, 0, -retention)

	cleaned := 0
	for {
		sessions, err := t.core.Store().SessionStore().ListByStatusBefore(ctx,
			types.SESSION_STATUS_ARCHIVED, cutoff, 1, cleanupBatchSize)
		if err != nil {
			slog.Error("session cleanup listing failed", slog.String("error", err.Error()))
			return
		}
		if len(sessions) == 0 {
			break
		}

		for _, session := range sessions {
			if err := t.purgeSession(ctx, session.ID); err != nil {
				slog.Error("session purge failed",
					slog.String("session_id", session.ID),
					slog.String("error", err.Error()))
				continue
			}
			cleaned++
		}

		if len(sessions) < cleanupBatchSize {
			break
		}
	}

	slog.Info("session cleanup finished",
		slog.Int("cleaned", cleaned),
		slog.Time("cutoff", cutoff))
}

func (t *SessionCleanupTask) purgeSession(ctx context.Context, sessionID string) error {
	return t.core.Store().Transaction(ctx, func(ctx context.Context) error {
		if err := t.core.Store().MessageStore().DeleteSessionMessages(ctx, sessionID); err != nil {
			return err
		}
		if err := t.core.Store().ContextRefStore().DeleteAll(ctx, sessionID); err != nil {
			return err
		}
		return t.core.Store().SessionStore().Delete(ctx, sessionID)
	})
}
