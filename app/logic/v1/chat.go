package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/insightpilot/insightpilot/app/core"
	"github.com/insightpilot/insightpilot/app/core/srv"
	"github.com/insightpilot/insightpilot/pkg/errors"
	"github.com/insightpilot/insightpilot/pkg/i18n"
	"github.com/insightpilot/insightpilot/pkg/intent"
	"github.com/insightpilot/insightpilot/pkg/types"
	"github.com/insightpilot/insightpilot/pkg/types/protocol"
	"github.com/insightpilot/insightpilot/pkg/utils"
)

const (
	DEFAULT_GENERATION_COUNT = 5
	MAX_GENERATION_COUNT     = 20
	RETRIEVAL_SEARCH_LIMIT   = 10
	HISTORY_WINDOW           = 50

	chatRequestLockTTL = time.Minute
	deltaFlushSize     = 200

	ERR_CODE_STREAM_CANCELED = "stream.canceled"
	ERR_CODE_PROVIDER        = "provider.unavailable"
	ERR_CODE_INTERNAL        = "internal"
)

type ChatLogic struct {
	ctx  context.Context
	core *core.Core
	UserInfo
}

func NewChatLogic(ctx context.Context, core *core.Core) *ChatLogic {
	return &ChatLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx),
	}
}

type ChatRequest struct {
	SessionID   string                   `json:"session_id"`
	Content     string                   `json:"content"`
	ContextRefs types.MessageContextRefs `json:"context_refs,omitempty"`
	Count       int                      `json:"count,omitempty"`
	Temperature float64                  `json:"temperature,omitempty"`
}

// chatState is the per-request working set. Every chunk goes out through
// emit on the request goroutine, which is what keeps the stream ordered.
type chatState struct {
	session     *types.Session
	req         ChatRequest
	writer      types.ChunkWriter
	intent      intent.Result
	assistantID string
	context     []types.ContextItem
	history     []types.Message
	startAt     time.Time
}

func (st *chatState) emit(chunk types.Chunk) error {
	return st.writer.WriteChunk(chunk)
}

type handlerResult struct {
	content string
	refs    types.MessageContextRefs
	model   string
	method  string
}

type chatHandler func(st *chatState) (*handlerResult, error)

// StreamChat runs one full exchange: persist the user turn, classify,
// load context, enforce the budget, dispatch by intent, stream, persist
// the assistant turn. Errors surface as a terminal error chunk and a
// best-effort failure message.
func (l *ChatLogic) StreamChat(req ChatRequest, w types.ChunkWriter) error {
	session, err := NewSessionLogic(l.ctx, l.core).CheckUserSession(req.SessionID)
	if err != nil {
		return err
	}

	// one in-flight exchange per session
	lockKey := protocol.GenChatRequestKey(session.ID)
	ok, err := l.core.TryLock(l.ctx, lockKey, chatRequestLockTTL)
	if err != nil {
		return errors.New("ChatLogic.StreamChat.TryLock", i18n.ERROR_INTERNAL, err)
	}
	if !ok {
		return errors.New("ChatLogic.StreamChat.busy", i18n.ERROR_TOO_MANY_REQUESTS, nil).
			Code(http.StatusTooManyRequests)
	}
	defer l.core.ReleaseLock(l.ctx, lockKey)

	if req.Count <= 0 {
		req.Count = DEFAULT_GENERATION_COUNT
	}
	if req.Count > MAX_GENERATION_COUNT {
		req.Count = MAX_GENERATION_COUNT
	}

	st := &chatState{
		session:     session,
		req:         req,
		writer:      w,
		assistantID: l.core.Srv().Seq().GenMessageID(),
		startAt:     time.Now(),
	}

	persisted, err := NewMessageLogic(l.ctx, l.core).PersistUserMessage(session, req.Content, req.ContextRefs)
	if err != nil {
		l.emitError(st, err)
		return err
	}
	// the pipeline classified the utterance once; reuse that result so the
	// stored message and the dispatched handler can never disagree
	st.intent = persisted.Classification

	timer := l.core.Metrics().StreamTimer(string(st.intent.Intent))
	defer timer.ObserveDuration()

	if err = st.emit(types.Chunk{
		Type: types.CHUNK_METADATA,
		Metadata: &types.MetadataChunk{
			SessionID:  session.ID,
			MessageID:  st.assistantID,
			Intent:     st.intent.Intent,
			Confidence: st.intent.Confidence,
		},
	}); err != nil {
		return err
	}

	l.loadExchangeContext(st)

	handler := l.dispatch(st.intent.Intent)
	result, err := handler(st)
	if err != nil {
		l.emitError(st, err)
		l.persistFailure(st, err)
		return err
	}

	if result.content != "" && st.intent.Intent != types.INTENT_GENERAL_EXPLORATION {
		if _, err = NewMessageLogic(l.ctx, l.core).PersistAssistantMessage(session, AssistantMessageArgs{
			MessageID:   st.assistantID,
			Content:     result.content,
			Intent:      st.intent.Intent,
			DurationMs:  time.Since(st.startAt).Milliseconds(),
			Model:       result.model,
			Temperature: st.req.Temperature,
			ContextRefs: result.refs,
		}); err != nil {
			l.emitError(st, err)
			return err
		}
	}

	if len(result.refs) > 0 {
		if err = NewContextLogic(l.ctx, l.core).RecordUsage(session.ID, st.assistantID, result.refs, st.intent.Intent); err != nil {
			slog.Warn("usage recording failed",
				slog.String("session_id", session.ID),
				slog.String("message_id", st.assistantID),
				slog.String("error", err.Error()))
		}
	}

	return st.emit(types.Chunk{Type: types.CHUNK_DONE})
}

// loadExchangeContext hydrates the selection and trims it plus the recent
// history to the token budget. Context load failure degrades to an empty
// selection, it does not kill the exchange.
func (l *ChatLogic) loadExchangeContext(st *chatState) {
	correlationID := utils.GenUniqIDStr()
	st.emit(types.Chunk{
		Type:          types.CHUNK_CONTEXT,
		CorrelationID: correlationID,
		Context:       &types.ContextChunk{Stage: types.CONTEXT_STAGE_LOADING, Label: "Loading research context"},
	})

	state, err := NewContextLogic(l.ctx, l.core).Hydrate(st.session.ID, types.HydrateOptions{WithContent: true})
	if err != nil {
		slog.Error("context hydration failed",
			slog.String("session_id", st.session.ID),
			slog.String("error", err.Error()))
		st.emit(types.Chunk{
			Type:          types.CHUNK_CONTEXT,
			CorrelationID: correlationID,
			Context:       &types.ContextChunk{Stage: types.CONTEXT_STAGE_ERROR, Error: "context unavailable"},
		})
		return
	}

	history, _, listErr := NewMessageLogic(l.ctx, l.core).ListMessages(types.ListMessageOptions{
		SessionID: st.session.ID,
		Ascending: true,
	}, 1, HISTORY_WINDOW)
	if listErr != nil {
		slog.Warn("history load failed", slog.String("session_id", st.session.ID), slog.String("error", listErr.Error()))
	}

	messages := lo.Map(history, func(m *types.Message, _ int) types.Message { return *m })
	truncated := l.core.Budget().TruncateToFit(messages, state.Flatten(), 0)
	for range truncated.Log {
		l.core.Metrics().BudgetEvictionInc("exchange")
	}
	if truncated.RemovedItems > 0 || truncated.RemovedMessages > 0 {
		slog.Info("budget truncation applied",
			slog.String("session_id", st.session.ID),
			slog.Int("removed_items", truncated.RemovedItems),
			slog.Int("removed_messages", truncated.RemovedMessages),
			slog.Int("removed_tokens", truncated.RemovedTokens))
	}

	st.context = truncated.ContextItems
	st.history = truncated.Messages

	st.emit(types.Chunk{
		Type:          types.CHUNK_CONTEXT,
		CorrelationID: correlationID,
		Context: &types.ContextChunk{
			Stage: types.CONTEXT_STAGE_LOADED,
			Label: fmt.Sprintf("%d context items loaded", len(st.context)),
			Items: withoutContent(st.context),
		},
	})
}

func (l *ChatLogic) dispatch(in types.Intent) chatHandler {
	switch in {
	case types.INTENT_RETRIEVE_INSIGHTS:
		return l.retrievalHandler(types.CONTEXT_ITEM_INSIGHT, "insights")
	case types.INTENT_RETRIEVE_METRICS:
		return l.retrievalHandler(types.CONTEXT_ITEM_METRIC, "metrics")
	case types.INTENT_RETRIEVE_JOBS:
		return l.retrievalHandler(types.CONTEXT_ITEM_JOB, "jobs to be done")
	case types.INTENT_GENERATE_QUESTIONS:
		return l.generationHandler(types.CONTEXT_ITEM_HOW_MIGHT_WE)
	case types.INTENT_CREATE_SOLUTIONS:
		return l.generationHandler(types.CONTEXT_ITEM_SOLUTION)
	default:
		return l.explorationHandler
	}
}

// retrievalHandler searches the knowledge store and offers the hits as a
// picker. Selection state reflects what the session already holds.
func (l *ChatLogic) retrievalHandler(itemType types.ContextItemType, label string) chatHandler {
	return func(st *chatState) (*handlerResult, error) {
		correlationID := utils.GenUniqIDStr()
		st.emit(types.Chunk{
			Type:          types.CHUNK_CONTEXT,
			CorrelationID: correlationID,
			Context:       &types.ContextChunk{Stage: types.CONTEXT_STAGE_LOADING, Label: "Searching " + label},
		})

		scored, err := l.core.Store().KnowledgeStore().Search(l.ctx, st.req.Content,
			[]types.ContextItemType{itemType}, RETRIEVAL_SEARCH_LIMIT)
		if err != nil {
			return nil, errors.New("ChatLogic.retrievalHandler.KnowledgeStore.Search", i18n.ERROR_INTERNAL, err)
		}

		selected := make(map[string]bool)
		for _, item := range st.context {
			if item.Type == itemType {
				selected[item.ID] = true
			}
		}

		items := lo.Map(scored, func(s types.ScoredItem, _ int) types.ContextItem {
			return types.ContextItem{
				ID:         s.ID,
				Type:       s.Type,
				Title:      s.Title,
				Similarity: s.Score,
			}
		})
		st.emit(types.Chunk{
			Type:          types.CHUNK_CONTEXT,
			CorrelationID: correlationID,
			Context: &types.ContextChunk{
				Stage: types.CONTEXT_STAGE_LOADED,
				Label: fmt.Sprintf("Found %d %s", len(scored), label),
				Items: items,
			},
		})

		st.emit(types.Chunk{
			Type:          types.CHUNK_PICKER,
			CorrelationID: correlationID,
			Picker: &types.PickerChunk{
				Items: lo.Map(scored, func(s types.ScoredItem, _ int) types.PickerItem {
					return types.PickerItem{
						ID:       s.ID,
						Type:     s.Type,
						Title:    s.Title,
						Score:    s.Score,
						Selected: selected[s.ID],
					}
				}),
				Actions:       []string{"add_to_context", "dismiss"},
				MaxSelectable: l.pickerCapacity(st, itemType),
			},
		})

		return &handlerResult{
			content: fmt.Sprintf("Found %d %s matching %q.", len(scored), label, st.req.Content),
			method:  "retrieval",
		}, nil
	}
}

var generationSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "items": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "title": {"type": "string"},
          "description": {"type": "string"}
        },
        "required": ["title"],
        "additionalProperties": false
      }
    }
  },
  "required": ["items"],
  "additionalProperties": false
}`)

// generationHandler runs the structured path first and the free-text
// fallback on any failure. Either way it delivers the requested count and
// persists the generated items as knowledge so they can be selected.
func (l *ChatLogic) generationHandler(itemType types.ContextItemType) chatHandler {
	isQuestion := itemType == types.CONTEXT_ITEM_HOW_MIGHT_WE

	return func(st *chatState) (*handlerResult, error) {
		correlationID := utils.GenUniqIDStr()
		label := "solutions"
		if isQuestion {
			label = "how-might-we questions"
		}
		st.emit(types.Chunk{
			Type:          types.CHUNK_CONTEXT,
			CorrelationID: correlationID,
			Context:       &types.ContextChunk{Stage: types.CONTEXT_STAGE_LOADING, Label: "Generating " + label},
		})

		items, method := l.generate(st, isQuestion)

		for i := range items {
			if isQuestion {
				items[i].Title = normalizeQuestion(items[i].Title)
			} else {
				attachMetric(&items[i], st.context)
			}
			items[i].Confidence = scoreGenerated(items[i], st.context)
		}

		saved := l.saveGenerated(st.session.ID, itemType, items)

		st.emit(types.Chunk{
			Type:          types.CHUNK_CONTEXT,
			CorrelationID: correlationID,
			Context: &types.ContextChunk{
				Stage: types.CONTEXT_STAGE_LOADED,
				Label: fmt.Sprintf("Generated %d %s", len(saved), label),
				Items: saved,
			},
		})

		maxSelectable := 0
		actions := []string{"export"}
		if lo.Contains(types.SelectableTypes, itemType) {
			maxSelectable = l.pickerCapacity(st, itemType)
			actions = []string{"add_to_context", "dismiss"}
		}
		st.emit(types.Chunk{
			Type:          types.CHUNK_PICKER,
			CorrelationID: correlationID,
			Picker: &types.PickerChunk{
				Items: lo.Map(saved, func(item types.ContextItem, _ int) types.PickerItem {
					return types.PickerItem{
						ID:    item.ID,
						Type:  item.Type,
						Title: item.Title,
						Score: item.Similarity,
					}
				}),
				Actions:       actions,
				MaxSelectable: maxSelectable,
			},
		})

		refs := lo.Map(st.context, func(item types.ContextItem, _ int) types.MessageContextRef {
			return types.MessageContextRef{ItemType: item.Type, ItemID: item.ID, Utilization: 1}
		})

		return &handlerResult{
			content: formatGenerated(saved, isQuestion),
			refs:    refs,
			model:   l.core.Srv().AI().Model(),
			method:  method,
		}, nil
	}
}

// generate tries structured output, then the direct fallback. It always
// returns exactly the requested count.
func (l *ChatLogic) generate(st *chatState, isQuestion bool) ([]GeneratedItem, string) {
	count := st.req.Count

	prompt := buildSolutionPrompt(st.context, st.req.Content, count)
	schemaName := "solution_list"
	if isQuestion {
		prompt = buildQuestionPrompt(st.context, st.req.Content, count)
		schemaName = "question_list"
	}

	timer := l.core.Metrics().ProviderRequestTimer("structured")
	resp, err := l.core.Srv().AI().GenerateStructured(l.ctx, srvRequest(prompt, schemaName, st.req.Temperature))
	timer.ObserveDuration()

	if err == nil {
		var parsed struct {
			Items []GeneratedItem `json:"items"`
		}
		if jsonErr := json.Unmarshal([]byte(resp.Content), &parsed); jsonErr == nil && len(parsed.Items) > 0 {
			return synthesizePlaceholders(trimToCount(parsed.Items, count), st.context, count, isQuestion), "structured"
		}
		err = errors.New("ChatLogic.generate.parse", "malformed structured output", nil).Kind(errors.KindProvider)
	}

	l.core.Metrics().ProviderErrorInc("structured")
	slog.Warn("structured generation failed, using direct fallback",
		slog.String("session_id", st.session.ID),
		slog.String("error", err.Error()))

	timer = l.core.Metrics().ProviderRequestTimer("direct")
	raw, err := l.core.Srv().AI().CompleteText(l.ctx, prompt, float32(st.req.Temperature))
	timer.ObserveDuration()
	if err != nil {
		l.core.Metrics().ProviderErrorInc("direct")
		// both paths down: synthesize everything
		return synthesizePlaceholders(nil, st.context, count, isQuestion), "synthesized"
	}

	result := parseGeneratedList(raw)
	if !result.OK {
		slog.Warn("fallback parse produced nothing", slog.String("reason", result.Reason))
	}
	return synthesizePlaceholders(trimToCount(result.Items, count), st.context, count, isQuestion), "direct"
}

// explorationHandler streams a free-form answer, persisting incrementally
// so cancellation keeps the partial content.
func (l *ChatLogic) explorationHandler(st *chatState) (*handlerResult, error) {
	seq, err := l.core.Srv().Seq().GetSessionSeqID(l.ctx, st.session.ID)
	if err != nil {
		return nil, errors.New("ChatLogic.explorationHandler.Seq", i18n.ERROR_PERSISTENCE, err).
			Kind(errors.KindPersistence)
	}

	placeholder := &types.Message{
		ID:        st.assistantID,
		SessionID: st.session.ID,
		UserID:    st.session.UserID,
		Role:      types.USER_ROLE_ASSISTANT,
		Intent:    st.intent.Intent,
		Model:     l.core.Srv().AI().Model(),
		Complete:  types.MESSAGE_PROGRESS_GENERATING,
		Sequence:  seq,
		SendTime:  time.Now().Unix(),
	}
	if err = l.core.Store().MessageStore().Create(l.ctx, placeholder); err != nil {
		return nil, errors.New("ChatLogic.explorationHandler.MessageStore.Create", i18n.ERROR_PERSISTENCE, err).
			Kind(errors.KindPersistence)
	}

	var (
		pending strings.Builder
		emitted int
	)
	flush := func() {
		if pending.Len() == 0 {
			return
		}
		if err := l.core.Store().MessageStore().AppendContent(l.ctx, st.session.ID, st.assistantID, pending.String()); err != nil {
			slog.Warn("delta persist failed", slog.String("message_id", st.assistantID), slog.String("error", err.Error()))
		}
		pending.Reset()
	}

	prompt := buildExplorationPrompt(st.context, st.history, st.req.Content)
	timer := l.core.Metrics().ProviderRequestTimer("direct")
	resp, err := l.core.Srv().AI().StreamText(l.ctx, prompt, float32(st.req.Temperature), func(delta string) error {
		pending.WriteString(delta)
		if pending.Len() >= deltaFlushSize {
			flush()
		}
		chunkErr := st.emit(types.Chunk{
			Type: types.CHUNK_MESSAGE,
			Message: &types.MessageChunk{
				MessageID: st.assistantID,
				Delta:     delta,
				StartAt:   emitted,
			},
		})
		emitted += len(delta)
		return chunkErr
	})
	timer.ObserveDuration()
	flush()

	if err != nil {
		progress := types.MESSAGE_PROGRESS_FAILED
		errCode := ERR_CODE_PROVIDER
		if l.ctx.Err() != nil {
			progress = types.MESSAGE_PROGRESS_CANCELED
			errCode = ERR_CODE_STREAM_CANCELED
		}
		l.core.Store().MessageStore().FinishMessage(context.WithoutCancel(l.ctx), st.session.ID, st.assistantID,
			0, time.Since(st.startAt).Milliseconds(), progress, errCode, err.Error())
		if progress == types.MESSAGE_PROGRESS_CANCELED {
			return nil, errors.New("ChatLogic.explorationHandler.canceled", i18n.ERROR_STREAM_CANCELED, err)
		}
		return nil, err
	}

	tokens := l.core.Tokenizer().Count(resp.Content)
	if err = l.core.Store().MessageStore().FinishMessage(l.ctx, st.session.ID, st.assistantID,
		tokens, time.Since(st.startAt).Milliseconds(), types.MESSAGE_PROGRESS_COMPLETE, "", ""); err != nil {
		return nil, errors.New("ChatLogic.explorationHandler.FinishMessage", i18n.ERROR_PERSISTENCE, err).
			Kind(errors.KindPersistence)
	}
	if tokens > 0 {
		l.core.Store().SessionStore().AddTokensUsed(l.ctx, st.session.ID, int64(tokens))
	}

	refs := lo.Map(st.context, func(item types.ContextItem, _ int) types.MessageContextRef {
		return types.MessageContextRef{ItemType: item.Type, ItemID: item.ID, Utilization: 1}
	})
	return &handlerResult{
		refs:   refs,
		model:  resp.Meta.Model,
		method: resp.Meta.Method,
	}, nil
}

// saveGenerated persists generated items into the knowledge store so
// pickers hand back resolvable ids.
func (l *ChatLogic) saveGenerated(sessionID string, itemType types.ContextItemType, items []GeneratedItem) []types.ContextItem {
	now := time.Now().Unix()
	out := make([]types.ContextItem, 0, len(items))
	for _, item := range items {
		knowledge := types.KnowledgeItem{
			ID:      utils.GenUniqIDStr(),
			Type:    itemType,
			Title:   item.Title,
			Content: item.Description,
			Metadata: types.ItemMetadata{
				"session_id":  sessionID,
				"confidence":  item.Confidence,
				"synthesized": item.Synthesized,
			},
			CreatedAt: now,
		}
		if item.MetricID != "" {
			knowledge.Metadata["metric_id"] = item.MetricID
			knowledge.Metadata["metric_title"] = item.MetricTitle
		}

		if err := l.core.Store().KnowledgeStore().Create(l.ctx, knowledge); err != nil {
			slog.Warn("failed to persist generated item",
				slog.String("session_id", sessionID),
				slog.String("title", item.Title),
				slog.String("error", err.Error()))
			continue
		}
		out = append(out, types.ContextItem{
			ID:         knowledge.ID,
			Type:       itemType,
			Title:      item.Title,
			Content:    item.Description,
			Similarity: item.Confidence,
			Metadata:   knowledge.Metadata,
			AddedAt:    now,
		})
	}
	return out
}

func (l *ChatLogic) pickerCapacity(st *chatState, itemType types.ContextItemType) int {
	current := 0
	for _, item := range st.context {
		if item.Type == itemType {
			current++
		}
	}
	capacity := l.core.Cfg().Context.MaxItemsPerType - current
	if capacity < 0 {
		capacity = 0
	}
	if capacity > RETRIEVAL_SEARCH_LIMIT {
		capacity = RETRIEVAL_SEARCH_LIMIT
	}
	return capacity
}

func (l *ChatLogic) emitError(st *chatState, err error) {
	chunk := types.ErrorChunk{
		Code:    ERR_CODE_INTERNAL,
		Message: err.Error(),
	}
	if ce, ok := err.(*errors.CustomizedError); ok {
		chunk.Code = string(ce.GetKind())
		chunk.Message = ce.Message()
		chunk.Retryable = ce.GetKind().Retryable()
	}
	st.emit(types.Chunk{Type: types.CHUNK_ERROR, Error: &chunk})
}

// persistFailure best-effort records the failed exchange so the message
// log explains what happened.
func (l *ChatLogic) persistFailure(st *chatState, cause error) {
	ctx := context.WithoutCancel(l.ctx)

	exist, err := l.core.Store().MessageStore().Exist(ctx, st.session.ID, st.assistantID)
	if err != nil || exist {
		return
	}

	seq, err := l.core.Srv().Seq().GetSessionSeqID(ctx, st.session.ID)
	if err != nil {
		return
	}

	errCode := ERR_CODE_INTERNAL
	if errors.Is(cause, errors.KindProvider) {
		errCode = ERR_CODE_PROVIDER
	}

	msg := &types.Message{
		ID:        st.assistantID,
		SessionID: st.session.ID,
		UserID:    st.session.UserID,
		Role:      types.USER_ROLE_ASSISTANT,
		Intent:    st.intent.Intent,
		ErrCode:   errCode,
		ErrMsg:    cause.Error(),
		Complete:  types.MESSAGE_PROGRESS_FAILED,
		Sequence:  seq,
		SendTime:  time.Now().Unix(),
	}
	if err = l.core.Store().MessageStore().Create(ctx, msg); err != nil {
		slog.Error("failed to persist failure message",
			slog.String("session_id", st.session.ID),
			slog.String("error", err.Error()))
	}
}

func srvRequest(prompt, schemaName string, temperature float64) srv.Request {
	return srv.Request{
		Prompt:      prompt,
		Temperature: float32(temperature),
		SchemaName:  schemaName,
		Schema:      generationSchema,
	}
}

func buildExplorationPrompt(items []types.ContextItem, history []types.Message, query string) string {
	var sb strings.Builder
	sb.WriteString("You are a product research assistant helping explore a research corpus.\n\n")
	writePromptContext(&sb, items)

	if len(history) > 0 {
		sb.WriteString("\nConversation so far:\n")
		for _, msg := range history {
			fmt.Fprintf(&sb, "%s: %s\n", msg.Role, msg.Content)
		}
	}

	fmt.Fprintf(&sb, "\nResearcher: %s\nAssistant:", query)
	return sb.String()
}

func formatGenerated(items []types.ContextItem, isQuestion bool) string {
	var sb strings.Builder
	if isQuestion {
		sb.WriteString("Generated questions:\n")
	} else {
		sb.WriteString("Proposed solutions:\n")
	}
	for i, item := range items {
		fmt.Fprintf(&sb, "%d. %s", i+1, item.Title)
		if item.Content != "" {
			sb.WriteString(" - " + item.Content)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func withoutContent(items []types.ContextItem) []types.ContextItem {
	return lo.Map(items, func(item types.ContextItem, _ int) types.ContextItem {
		item.Content = ""
		return item
	})
}

func trimToCount(items []GeneratedItem, count int) []GeneratedItem {
	if len(items) > count {
		return items[:count]
	}
	return items
}
