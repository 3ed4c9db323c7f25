// Package budget enforces the token ceiling on one generation call. It
// computes the combined cost of message history and selected context
// items, classifies utilization, and when the ceiling is breached evicts
// content under a fixed, configurable priority policy.
package budget

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/insightpilot/insightpilot/pkg/types"
)

// TokenCounter is the slice of pkg/tokenizer the manager needs.
type TokenCounter interface {
	Count(text string) int
}

// perMessageOverhead approximates the provider-side framing cost of each
// chat message on top of its content.
const perMessageOverhead = 4

// Policy carries every eviction and threshold constant. The tiering of
// context items came out of the product as fixed constants with no
// documented rationale, so it is deliberately configuration, not code.
type Policy struct {
	Limit           int     `toml:"limit"`
	WarningRatio    float64 `toml:"warning_ratio"`
	CriticalRatio   float64 `toml:"critical_ratio"`
	ProtectedRecent int     `toml:"protected_recent"`

	// LowPriorityTypes are evicted before everything else; remaining types
	// form the high tier. Within a tier, least-recently-used goes first.
	LowPriorityTypes []types.ContextItemType `toml:"low_priority_types"`
}

func DefaultPolicy() Policy {
	return Policy{
		Limit:            8000,
		WarningRatio:     0.8,
		CriticalRatio:    0.95,
		ProtectedRecent:  2,
		LowPriorityTypes: []types.ContextItemType{types.CONTEXT_ITEM_HOW_MIGHT_WE, types.CONTEXT_ITEM_SOLUTION},
	}
}

type Manager struct {
	counter TokenCounter
	policy  Policy
}

func NewManager(counter TokenCounter, policy Policy) *Manager {
	if policy.Limit <= 0 {
		policy = DefaultPolicy()
	}
	return &Manager{counter: counter, policy: policy}
}

func (m *Manager) Policy() Policy {
	return m.policy
}

// Calculate sums the token cost of the message history and the selected
// context items.
func (m *Manager) Calculate(messages []types.Message, items []types.ContextItem) int {
	total := 0
	for _, msg := range messages {
		total += m.messageCost(msg)
	}
	for _, item := range items {
		total += m.itemCost(item)
	}
	return total
}

// Status classifies the current utilization against the ceiling.
func (m *Manager) Status(messages []types.Message, items []types.ContextItem) types.BudgetStatus {
	tokens := m.Calculate(messages, items)
	return m.StatusFor(tokens, m.policy.Limit)
}

func (m *Manager) StatusFor(tokens, limit int) types.BudgetStatus {
	if limit <= 0 {
		limit = m.policy.Limit
	}
	utilization := float64(tokens) / float64(limit)

	level := types.BUDGET_HEALTHY
	switch {
	case utilization > 1:
		level = types.BUDGET_EXCEEDED
	case utilization >= m.policy.CriticalRatio:
		level = types.BUDGET_CRITICAL
	case utilization >= m.policy.WarningRatio:
		level = types.BUDGET_WARNING
	}

	remaining := limit - tokens
	if remaining < 0 {
		remaining = 0
	}

	return types.BudgetStatus{
		Tokens:      tokens,
		Limit:       limit,
		Remaining:   remaining,
		Utilization: utilization,
		Level:       level,
	}
}

type TruncateResult struct {
	Messages        []types.Message     `json:"messages"`
	ContextItems    []types.ContextItem `json:"context_items"`
	RemovedMessages int                 `json:"removed_messages"`
	RemovedItems    int                 `json:"removed_items"`
	RemovedTokens   int                 `json:"removed_tokens"`
	Log             []string            `json:"log"`
}

// TruncateToFit evicts context and history until the total fits under
// limit (0 means the policy limit). Inputs are not mutated. The policy:
//
//  1. the two most recent messages are never removed
//  2. system messages are never removed
//  3. context items go first, low-priority tier before high, LRU within a tier
//  4. then the oldest remaining unprotected messages
//
// The one documented exception: when the protected messages alone exceed
// the limit, they are still returned untouched and the overflow is noted
// in the log.
func (m *Manager) TruncateToFit(messages []types.Message, items []types.ContextItem, limit int) TruncateResult {
	if limit <= 0 {
		limit = m.policy.Limit
	}

	res := TruncateResult{
		Messages:     append([]types.Message(nil), messages...),
		ContextItems: append([]types.ContextItem(nil), items...),
	}

	total := m.Calculate(res.Messages, res.ContextItems)
	if total <= limit {
		return res
	}

	protected := m.protectedMessageIDs(res.Messages)

	// Pass 1: context items, eviction order low tier -> high tier, LRU first.
	for _, idx := range m.evictionOrder(res.ContextItems) {
		if total <= limit {
			break
		}
		item := res.ContextItems[idx]
		cost := m.itemCost(item)
		total -= cost
		res.RemovedItems++
		res.RemovedTokens += cost
		res.Log = append(res.Log, fmt.Sprintf("removed %s %q (%d tokens, %s tier, last used %d)",
			item.Type, item.Title, cost, m.tierName(item.Type), item.LastUsedAt))
		res.ContextItems[idx].ID = "" // mark
	}
	res.ContextItems = lo.Filter(res.ContextItems, func(item types.ContextItem, _ int) bool {
		return item.ID != ""
	})

	// Pass 2: oldest unprotected, non-system messages.
	if total > limit {
		ordered := make([]int, 0, len(res.Messages))
		for i := range res.Messages {
			ordered = append(ordered, i)
		}
		sort.Slice(ordered, func(a, b int) bool {
			return res.Messages[ordered[a]].SendTime < res.Messages[ordered[b]].SendTime
		})

		removed := make(map[int]bool)
		for _, idx := range ordered {
			if total <= limit {
				break
			}
			msg := res.Messages[idx]
			if msg.Role == types.USER_ROLE_SYSTEM || protected[msg.ID] {
				continue
			}
			cost := m.messageCost(msg)
			total -= cost
			removed[idx] = true
			res.RemovedMessages++
			res.RemovedTokens += cost
			res.Log = append(res.Log, fmt.Sprintf("removed %s message %s (%d tokens, sent %d)",
				msg.Role, msg.ID, cost, msg.SendTime))
		}
		if len(removed) > 0 {
			kept := res.Messages[:0:0]
			for i, msg := range res.Messages {
				if !removed[i] {
					kept = append(kept, msg)
				}
			}
			res.Messages = kept
		}
	}

	if total > limit {
		res.Log = append(res.Log, fmt.Sprintf("still %d tokens over limit: only protected messages remain", total-limit))
	}

	return res
}

type OptimizeResult struct {
	CanFit             bool     `json:"can_fit"`
	CurrentTokens      int      `json:"current_tokens"`
	TokenSavings       int      `json:"token_savings"`
	RecommendedActions []string `json:"recommended_actions"`
}

// Optimize runs the same evaluation as TruncateToFit without touching its
// inputs and returns ranked advice, so callers can warn the user before a
// forced truncation.
func (m *Manager) Optimize(messages []types.Message, items []types.ContextItem, targetLimit int) OptimizeResult {
	if targetLimit <= 0 {
		targetLimit = m.policy.Limit
	}

	current := m.Calculate(messages, items)
	out := OptimizeResult{CurrentTokens: current}
	if current <= targetLimit {
		out.CanFit = true
		return out
	}

	simulated := m.TruncateToFit(messages, items, targetLimit)
	out.TokenSavings = simulated.RemovedTokens
	out.CanFit = current-simulated.RemovedTokens <= targetLimit
	out.RecommendedActions = simulated.Log
	return out
}

func (m *Manager) messageCost(msg types.Message) int {
	if msg.Tokens > 0 {
		return msg.Tokens + perMessageOverhead
	}
	return m.counter.Count(msg.Content) + perMessageOverhead
}

func (m *Manager) itemCost(item types.ContextItem) int {
	return m.counter.Count(item.Title) + m.counter.Count(item.Content)
}

// protectedMessageIDs marks the N most recent messages by send time.
func (m *Manager) protectedMessageIDs(messages []types.Message) map[string]bool {
	n := m.policy.ProtectedRecent
	if n <= 0 {
		n = 2
	}

	ordered := append([]types.Message(nil), messages...)
	sort.Slice(ordered, func(a, b int) bool {
		return ordered[a].SendTime > ordered[b].SendTime
	})

	protected := make(map[string]bool, n)
	for i := 0; i < len(ordered) && i < n; i++ {
		protected[ordered[i].ID] = true
	}
	return protected
}

// evictionOrder returns item indexes in removal order: low-priority tier
// first, then high, least-recently-used first within each tier.
func (m *Manager) evictionOrder(items []types.ContextItem) []int {
	low := make(map[types.ContextItemType]bool, len(m.policy.LowPriorityTypes))
	for _, t := range m.policy.LowPriorityTypes {
		low[t] = true
	}

	idx := make([]int, len(items))
	for i := range items {
		idx[i] = i
	}

	lastUsed := func(item types.ContextItem) int64 {
		if item.LastUsedAt > 0 {
			return item.LastUsedAt
		}
		return item.AddedAt
	}

	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := items[idx[a]], items[idx[b]]
		la, lb := low[ia.Type], low[ib.Type]
		if la != lb {
			return la // low tier first
		}
		return lastUsed(ia) < lastUsed(ib)
	})

	return idx
}

func (m *Manager) tierName(t types.ContextItemType) string {
	if lo.Contains(m.policy.LowPriorityTypes, t) {
		return "low"
	}
	return "high"
}
