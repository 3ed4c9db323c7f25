package v1

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/insightpilot/insightpilot/app/core"
	"github.com/insightpilot/insightpilot/pkg/errors"
	"github.com/insightpilot/insightpilot/pkg/i18n"
	"github.com/insightpilot/insightpilot/pkg/safe"
	"github.com/insightpilot/insightpilot/pkg/types"
	"github.com/insightpilot/insightpilot/pkg/types/protocol"
)

const (
	contextWriterLockTTL   = time.Second * 10
	contextWriterLockRetry = 20
	contextWriterLockWait  = time.Millisecond * 100
	contextVersionTTL      = time.Hour * 24
)

// contextLocks serializes in-process mutations per session. The redis
// writer lock covers other instances.
var contextLocks sync.Map

type ContextLogic struct {
	ctx  context.Context
	core *core.Core
	UserInfo
}

func NewContextLogic(ctx context.Context, core *core.Core) *ContextLogic {
	return &ContextLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx),
	}
}

func (l *ContextLogic) lockSession(sessionID string) (func(), error) {
	v, _ := contextLocks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()

	lockKey := protocol.GenContextWriterKey(sessionID)
	for i := 0; ; i++ {
		ok, err := l.core.TryLock(l.ctx, lockKey, contextWriterLockTTL)
		if err != nil {
			mu.Unlock()
			return nil, errors.New("ContextLogic.lockSession.TryLock", i18n.ERROR_INTERNAL, err)
		}
		if ok {
			break
		}
		if i >= contextWriterLockRetry {
			mu.Unlock()
			return nil, errors.New("ContextLogic.lockSession.busy", i18n.ERROR_TOO_MANY_REQUESTS, nil).
				Code(http.StatusTooManyRequests)
		}

		select {
		case <-l.ctx.Done():
			mu.Unlock()
			return nil, l.ctx.Err()
		case <-time.After(contextWriterLockWait):
		}
	}

	return func() {
		l.core.ReleaseLock(l.ctx, lockKey)
		mu.Unlock()
	}, nil
}

// Add selects one knowledge item into the session context. Duplicates,
// ceilings and unresolvable items each map to their own error kind so the
// transport layer can answer precisely.
func (l *ContextLogic) Add(sessionID string, itemType types.ContextItemType, itemID string) error {
	session, err := NewSessionLogic(l.ctx, l.core).CheckUserSession(sessionID)
	if err != nil {
		return err
	}

	if !lo.Contains(types.SelectableTypes, itemType) || itemID == "" {
		return errors.New("ContextLogic.Add.itemType", i18n.ERROR_INVALIDARGUMENT, nil).
			Kind(errors.KindValidation).Code(http.StatusBadRequest)
	}

	unlock, err := l.lockSession(sessionID)
	if err != nil {
		return err
	}
	defer unlock()

	exist, err := l.core.Store().ContextRefStore().Exist(l.ctx, sessionID, itemType, itemID)
	if err != nil {
		return errors.New("ContextLogic.Add.ContextRefStore.Exist", i18n.ERROR_INTERNAL, err)
	}
	if exist {
		return errors.New("ContextLogic.Add.exist", i18n.ERROR_CONTEXT_ALREADY_SELECTED, nil).
			Kind(errors.KindValidation).Code(http.StatusConflict)
	}

	counts, err := l.core.Store().ContextRefStore().CountBySession(l.ctx, sessionID)
	if err != nil {
		return errors.New("ContextLogic.Add.ContextRefStore.CountBySession", i18n.ERROR_INTERNAL, err)
	}
	total := lo.Sum(lo.Values(counts))
	if total >= l.core.Cfg().Context.MaxTotalItems || counts[itemType] >= l.core.Cfg().Context.MaxItemsPerType {
		return errors.New("ContextLogic.Add.limit", i18n.ERROR_CONTEXT_LIMIT_EXCEEDED, nil).
			Kind(errors.KindLimitExceeded).Code(http.StatusBadRequest).
			WithData(map[string]interface{}{
				"total":    total,
				"per_type": counts[itemType],
			})
	}

	if _, err = l.resolveItem(itemType, itemID); err != nil {
		return err
	}

	if err = l.core.Store().ContextRefStore().Create(l.ctx, types.ContextRef{
		SessionID: sessionID,
		ItemType:  itemType,
		ItemID:    itemID,
		AddedAt:   time.Now().Unix(),
	}); err != nil {
		return errors.New("ContextLogic.Add.ContextRefStore.Create", i18n.ERROR_PERSISTENCE, err).
			Kind(errors.KindPersistence)
	}

	l.bumpVersion(session.ID)
	l.publish(types.EVENT_CONTEXT_UPDATED, sessionID, itemType, []string{itemID})
	return nil
}

func (l *ContextLogic) Remove(sessionID string, itemType types.ContextItemType, itemID string) error {
	if _, err := NewSessionLogic(l.ctx, l.core).CheckUserSession(sessionID); err != nil {
		return err
	}

	unlock, err := l.lockSession(sessionID)
	if err != nil {
		return err
	}
	defer unlock()

	exist, err := l.core.Store().ContextRefStore().Exist(l.ctx, sessionID, itemType, itemID)
	if err != nil {
		return errors.New("ContextLogic.Remove.ContextRefStore.Exist", i18n.ERROR_INTERNAL, err)
	}
	if !exist {
		return errors.New("ContextLogic.Remove.notfound", i18n.ERROR_CONTEXT_ITEM_NOT_FOUND, nil).
			Kind(errors.KindNotFound).Code(http.StatusNotFound)
	}

	if err = l.core.Store().ContextRefStore().Delete(l.ctx, sessionID, itemType, itemID); err != nil {
		return errors.New("ContextLogic.Remove.ContextRefStore.Delete", i18n.ERROR_PERSISTENCE, err).
			Kind(errors.KindPersistence)
	}

	l.bumpVersion(sessionID)
	l.publish(types.EVENT_CONTEXT_UPDATED, sessionID, itemType, []string{itemID})
	return nil
}

// Clear drops the whole selection, or a single typed set when itemType is
// non-empty.
func (l *ContextLogic) Clear(sessionID string, itemType types.ContextItemType) error {
	if _, err := NewSessionLogic(l.ctx, l.core).CheckUserSession(sessionID); err != nil {
		return err
	}
	if itemType != "" && !itemType.Valid() {
		return errors.New("ContextLogic.Clear.itemType", i18n.ERROR_INVALIDARGUMENT, nil).
			Kind(errors.KindValidation).Code(http.StatusBadRequest)
	}

	unlock, err := l.lockSession(sessionID)
	if err != nil {
		return err
	}
	defer unlock()

	if itemType == "" {
		err = l.core.Store().ContextRefStore().DeleteAll(l.ctx, sessionID)
	} else {
		err = l.core.Store().ContextRefStore().DeleteByType(l.ctx, sessionID, itemType)
	}
	if err != nil {
		return errors.New("ContextLogic.Clear.ContextRefStore.Delete", i18n.ERROR_PERSISTENCE, err).
			Kind(errors.KindPersistence)
	}

	l.bumpVersion(sessionID)
	l.publish(types.EVENT_CONTEXT_UPDATED, sessionID, itemType, nil)
	return nil
}

// Hydrate loads the full session context. The content-only snapshot is
// served from the versioned cache; stats, similarity enrichment and
// ordering are applied per request on top of it.
func (l *ContextLogic) Hydrate(sessionID string, opts types.HydrateOptions) (*types.SessionContext, error) {
	if _, err := NewSessionLogic(l.ctx, l.core).CheckUserSession(sessionID); err != nil {
		return nil, err
	}

	version := l.currentVersion(sessionID)
	state, err := l.loadSnapshot(sessionID, version)
	if err != nil {
		return nil, err
	}

	if !opts.WithContent {
		for t, items := range state.Items {
			for i := range items {
				items[i].Content = ""
			}
			state.Items[t] = items
		}
	}

	if opts.WithStats {
		if err = l.attachStats(state); err != nil {
			return nil, err
		}
	}

	if opts.Query != "" {
		for t, items := range state.Items {
			for i := range items {
				items[i].Similarity = keywordOverlap(opts.Query, items[i].Title+" "+items[i].Content)
			}
			state.Items[t] = items
		}
	}

	sortContextItems(state, opts.SortBy)
	return state, nil
}

// loadSnapshot is the read-through path under the versioned cache key.
func (l *ContextLogic) loadSnapshot(sessionID string, version int64) (*types.SessionContext, error) {
	cacheKey := protocol.GenContextCacheKey(sessionID, version)
	if raw, err := l.core.Cache().Get(l.ctx, cacheKey); err == nil && raw != "" {
		var cached types.SessionContext
		if err = json.Unmarshal([]byte(raw), &cached); err == nil {
			l.core.Metrics().ContextCacheInc("hit")
			return &cached, nil
		}
	}
	l.core.Metrics().ContextCacheInc("miss")

	state, err := l.buildSnapshot(sessionID, version)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(state); err == nil {
		ttl := time.Duration(l.core.Cfg().Context.CacheTTLSecond) * time.Second
		l.core.Cache().SetEx(l.ctx, cacheKey, string(raw), ttl)
	}
	return state, nil
}

func (l *ContextLogic) buildSnapshot(sessionID string, version int64) (*types.SessionContext, error) {
	refs, err := l.core.Store().ContextRefStore().List(l.ctx, sessionID)
	if err != nil {
		return nil, errors.New("ContextLogic.buildSnapshot.ContextRefStore.List", i18n.ERROR_INTERNAL, err)
	}

	state := &types.SessionContext{
		SessionID: sessionID,
		Items:     make(map[types.ContextItemType][]types.ContextItem),
		Version:   version,
	}
	if len(refs) == 0 {
		return state, nil
	}

	items, err := l.core.Store().KnowledgeStore().BatchGet(l.ctx, refs)
	if err != nil {
		return nil, errors.New("ContextLogic.buildSnapshot.KnowledgeStore.BatchGet", i18n.ERROR_INTERNAL, err)
	}

	index := make(map[string]types.KnowledgeItem, len(items))
	for _, item := range items {
		index[string(item.Type)+"/"+item.ID] = item
	}

	// unresolved references are reported, never fatal
	for _, ref := range refs {
		item, ok := index[string(ref.ItemType)+"/"+ref.ItemID]
		if !ok {
			state.MissingItems = append(state.MissingItems, ref)
			continue
		}
		state.Items[ref.ItemType] = append(state.Items[ref.ItemType], types.ContextItem{
			ID:         item.ID,
			Type:       ref.ItemType,
			Title:      item.Title,
			Content:    item.Content,
			Metadata:   item.Metadata,
			AddedAt:    ref.AddedAt,
			LastUsedAt: ref.LastUsedAt,
		})
	}
	return state, nil
}

func (l *ContextLogic) attachStats(state *types.SessionContext) error {
	var refs []types.ContextRef
	for t, items := range state.Items {
		for _, item := range items {
			refs = append(refs, types.ContextRef{ItemType: t, ItemID: item.ID})
		}
	}
	if len(refs) == 0 {
		return nil
	}

	stats, err := l.core.Store().ItemStatsStore().BatchGet(l.ctx, refs)
	if err != nil {
		return errors.New("ContextLogic.attachStats.ItemStatsStore.BatchGet", i18n.ERROR_INTERNAL, err)
	}

	index := make(map[string]types.ItemStats, len(stats))
	for _, st := range stats {
		index[string(st.ItemType)+"/"+st.ItemID] = st
	}
	for t, items := range state.Items {
		for i := range items {
			if st, ok := index[string(t)+"/"+items[i].ID]; ok {
				stCopy := st
				items[i].Stats = &stCopy
			}
		}
		state.Items[t] = items
	}
	return nil
}

type ValidateResult struct {
	Valid     bool               `json:"valid"`
	Missing   []types.ContextRef `json:"missing,omitempty"`
	CheckedAt int64              `json:"checked_at"`
}

// Validate re-resolves every reference without mutating the selection.
// Invalid findings go out on the event channel so interested parties can
// clean up on their own schedule.
func (l *ContextLogic) Validate(sessionID string) (*ValidateResult, error) {
	if _, err := NewSessionLogic(l.ctx, l.core).CheckUserSession(sessionID); err != nil {
		return nil, err
	}

	state, err := l.buildSnapshot(sessionID, l.currentVersion(sessionID))
	if err != nil {
		return nil, err
	}

	result := &ValidateResult{
		Valid:     len(state.MissingItems) == 0,
		Missing:   state.MissingItems,
		CheckedAt: time.Now().Unix(),
	}

	if !result.Valid {
		grouped := lo.GroupBy(state.MissingItems, func(ref types.ContextRef) types.ContextItemType {
			return ref.ItemType
		})
		for itemType, refs := range grouped {
			l.publish(types.EVENT_CONTEXT_VALIDATED, sessionID, itemType, lo.Map(refs, func(r types.ContextRef, _ int) string {
				return r.ItemID
			}))
		}
	}
	return result, nil
}

// RecordUsage links a message to the items it drew on. Events are the
// durable record; per-item stat folding happens asynchronously and is
// best-effort.
func (l *ContextLogic) RecordUsage(sessionID, messageID string, refs types.MessageContextRefs, usedIntent types.Intent) error {
	if len(refs) == 0 {
		return nil
	}

	now := time.Now().Unix()
	events := lo.Map(refs, func(ref types.MessageContextRef, _ int) types.UsageEvent {
		return types.UsageEvent{
			SessionID:   sessionID,
			MessageID:   messageID,
			ItemType:    ref.ItemType,
			ItemID:      ref.ItemID,
			Utilization: ref.Utilization,
			Intent:      usedIntent,
			CreatedAt:   now,
		}
	})

	if err := l.core.Store().UsageEventStore().BatchCreate(l.ctx, events); err != nil {
		return errors.New("ContextLogic.RecordUsage.UsageEventStore.BatchCreate", i18n.ERROR_PERSISTENCE, err).
			Kind(errors.KindPersistence)
	}

	grouped := lo.GroupBy(refs, func(ref types.MessageContextRef) types.ContextItemType {
		return ref.ItemType
	})
	for itemType, group := range grouped {
		ids := lo.Map(group, func(r types.MessageContextRef, _ int) string { return r.ItemID })
		if err := l.core.Store().ContextRefStore().TouchLastUsed(l.ctx, sessionID, itemType, ids); err != nil {
			slog.Warn("failed to touch context ref last_used_at",
				slog.String("session_id", sessionID),
				slog.String("item_type", string(itemType)),
				slog.String("error", err.Error()))
		}
		l.publish(types.EVENT_USAGE_RECORDED, sessionID, itemType, ids)
	}

	core := l.core
	go safe.RunWithLog(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()
		for _, event := range events {
			if err := core.Store().ItemStatsStore().ApplyUsage(ctx, event); err != nil {
				return
			}
		}
	}, "ContextLogic.RecordUsage.ApplyUsage")

	return nil
}

func (l *ContextLogic) Subscribe(handler func(types.ContextEvent) error, eventTypes ...types.EventType) string {
	return l.core.Bus().Subscribe(handler, eventTypes...)
}

func (l *ContextLogic) Unsubscribe(id string) {
	l.core.Bus().Unsubscribe(id)
}

func (l *ContextLogic) publish(eventType types.EventType, sessionID string, itemType types.ContextItemType, itemIDs []string) {
	l.core.Bus().Publish(types.ContextEvent{
		Type:      eventType,
		SessionID: sessionID,
		ItemType:  itemType,
		ItemIDs:   itemIDs,
		At:        time.Now().Unix(),
	})
}

func (l *ContextLogic) resolveItem(itemType types.ContextItemType, itemID string) (*types.KnowledgeItem, error) {
	item, err := l.core.Store().KnowledgeStore().GetItem(l.ctx, itemType, itemID)
	if err != nil || item == nil {
		return nil, errors.New("ContextLogic.resolveItem.KnowledgeStore.GetItem", i18n.ERROR_CONTEXT_ITEM_NOT_FOUND, err).
			Kind(errors.KindNotFound).Code(http.StatusNotFound)
	}
	return item, nil
}

func (l *ContextLogic) currentVersion(sessionID string) int64 {
	raw, err := l.core.Cache().Get(l.ctx, protocol.GenContextVersionKey(sessionID))
	if err != nil || raw == "" {
		return 0
	}
	version, _ := strconv.ParseInt(raw, 10, 64)
	return version
}

// bumpVersion invalidates the snapshot by moving every reader to a new
// cache key. Called under the writer lock only.
func (l *ContextLogic) bumpVersion(sessionID string) {
	next := l.currentVersion(sessionID) + 1
	l.core.Cache().SetEx(l.ctx, protocol.GenContextVersionKey(sessionID),
		strconv.FormatInt(next, 10), contextVersionTTL)
}

func sortContextItems(state *types.SessionContext, sortBy types.ContextSortBy) {
	for t, items := range state.Items {
		switch sortBy {
		case types.CONTEXT_SORT_USAGE:
			sort.SliceStable(items, func(i, j int) bool {
				iu, ju := int64(0), int64(0)
				if items[i].Stats != nil {
					iu = items[i].Stats.TotalUses
				}
				if items[j].Stats != nil {
					ju = items[j].Stats.TotalUses
				}
				return iu > ju
			})
		case types.CONTEXT_SORT_SIMILARITY:
			sort.SliceStable(items, func(i, j int) bool {
				return items[i].Similarity > items[j].Similarity
			})
		case types.CONTEXT_SORT_TITLE:
			sort.SliceStable(items, func(i, j int) bool {
				return items[i].Title < items[j].Title
			})
		default: // recency
			sort.SliceStable(items, func(i, j int) bool {
				return items[i].AddedAt > items[j].AddedAt
			})
		}
		state.Items[t] = items
	}
}
