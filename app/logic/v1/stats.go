package v1

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/samber/lo"

	"github.com/insightpilot/insightpilot/app/core"
	"github.com/insightpilot/insightpilot/pkg/budget"
	"github.com/insightpilot/insightpilot/pkg/errors"
	"github.com/insightpilot/insightpilot/pkg/i18n"
	"github.com/insightpilot/insightpilot/pkg/types"
)

type StatsLogic struct {
	ctx  context.Context
	core *core.Core
	UserInfo
}

func NewStatsLogic(ctx context.Context, core *core.Core) *StatsLogic {
	return &StatsLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx),
	}
}

type SessionUsage struct {
	SessionID  string          `json:"session_id"`
	TokensUsed int64           `json:"tokens_used"`
	Messages   int64           `json:"messages"`
	Items      []ItemUsageRow  `json:"items"`
	Window     SessionUsageWin `json:"window"`
}

type SessionUsageWin struct {
	Start int64 `json:"start,omitempty"`
	End   int64 `json:"end,omitempty"`
}

type ItemUsageRow struct {
	ItemType       types.ContextItemType `json:"item_type"`
	ItemID         string                `json:"item_id"`
	Uses           int                   `json:"uses"`
	AvgUtilization float64               `json:"avg_utilization"`
}

// SessionUsage aggregates the usage events of one session over an
// optional time window.
func (l *StatsLogic) SessionUsage(sessionID string, start, end time.Time) (*SessionUsage, error) {
	session, err := NewSessionLogic(l.ctx, l.core).CheckUserSession(sessionID)
	if err != nil {
		return nil, err
	}

	events, err := l.core.Store().UsageEventStore().ListBySession(l.ctx, sessionID, start, end)
	if err != nil {
		return nil, errors.New("StatsLogic.SessionUsage.UsageEventStore.ListBySession", i18n.ERROR_INTERNAL, err)
	}

	messages, err := l.core.Store().MessageStore().Total(l.ctx, types.ListMessageOptions{SessionID: sessionID})
	if err != nil {
		return nil, errors.New("StatsLogic.SessionUsage.MessageStore.Total", i18n.ERROR_INTERNAL, err)
	}

	grouped := lo.GroupBy(events, func(e types.UsageEvent) string {
		return string(e.ItemType) + "/" + e.ItemID
	})

	usage := &SessionUsage{
		SessionID:  sessionID,
		TokensUsed: session.TokensUsed,
		Messages:   messages,
	}
	if !start.IsZero() {
		usage.Window.Start = start.Unix()
	}
	if !end.IsZero() {
		usage.Window.End = end.Unix()
	}

	for _, group := range grouped {
		row := ItemUsageRow{
			ItemType: group[0].ItemType,
			ItemID:   group[0].ItemID,
			Uses:     len(group),
		}
		row.AvgUtilization = lo.SumBy(group, func(e types.UsageEvent) float64 { return e.Utilization }) / float64(len(group))
		usage.Items = append(usage.Items, row)
	}
	return usage, nil
}

// ItemStats reads the running effectiveness stats of one knowledge item.
func (l *StatsLogic) ItemStats(itemType types.ContextItemType, itemID string) (*types.ItemStats, error) {
	if !itemType.Valid() || itemID == "" {
		return nil, errors.New("StatsLogic.ItemStats.args", i18n.ERROR_INVALIDARGUMENT, nil).
			Kind(errors.KindValidation).Code(http.StatusBadRequest)
	}

	stats, err := l.core.Store().ItemStatsStore().Get(l.ctx, itemType, itemID)
	if err == sql.ErrNoRows {
		return &types.ItemStats{ItemType: itemType, ItemID: itemID}, nil
	}
	if err != nil {
		return nil, errors.New("StatsLogic.ItemStats.ItemStatsStore.Get", i18n.ERROR_INTERNAL, err)
	}
	return stats, nil
}

// BudgetStatus reports utilization of the session's current history plus
// selected context against the configured ceiling.
func (l *StatsLogic) BudgetStatus(sessionID string) (*types.BudgetStatus, error) {
	messages, items, err := l.exchangePayload(sessionID)
	if err != nil {
		return nil, err
	}
	status := l.core.Budget().Status(messages, items)
	return &status, nil
}

// BudgetOptimize previews what a forced truncation would remove, without
// mutating anything.
func (l *StatsLogic) BudgetOptimize(sessionID string, targetLimit int) (*budget.OptimizeResult, error) {
	messages, items, err := l.exchangePayload(sessionID)
	if err != nil {
		return nil, err
	}
	result := l.core.Budget().Optimize(messages, items, targetLimit)
	return &result, nil
}

func (l *StatsLogic) exchangePayload(sessionID string) ([]types.Message, []types.ContextItem, error) {
	state, err := NewContextLogic(l.ctx, l.core).Hydrate(sessionID, types.HydrateOptions{WithContent: true})
	if err != nil {
		return nil, nil, err
	}

	history, _, err := NewMessageLogic(l.ctx, l.core).ListMessages(types.ListMessageOptions{
		SessionID: sessionID,
		Ascending: true,
	}, 1, HISTORY_WINDOW)
	if err != nil {
		return nil, nil, err
	}

	messages := lo.Map(history, func(m *types.Message, _ int) types.Message { return *m })
	return messages, state.Flatten(), nil
}
