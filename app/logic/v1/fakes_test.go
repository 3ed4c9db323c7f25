package v1

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/insightpilot/insightpilot/app/core"
	"github.com/insightpilot/insightpilot/app/store"
	"github.com/insightpilot/insightpilot/app/store/sqlstore"
	"github.com/insightpilot/insightpilot/pkg/types"
	"github.com/insightpilot/insightpilot/pkg/utils"
)

func TestMain(m *testing.M) {
	utils.SetupIDWorker(1)
	m.Run()
}

// In-memory store and cache fakes so the logic layer runs without
// postgres or redis. Only the methods the tests reach are implemented;
// anything else panics through the embedded nil interface.

type memCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string]string)}
}

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[key], nil
}

func (c *memCache) SetEx(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) SetNX(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[key]; ok {
		return false, nil
	}
	c.data[key] = value
	return true, nil
}

func (c *memCache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Expire(_ context.Context, _ string, _ time.Duration) error {
	return nil
}

type memSeq struct {
	mu   sync.Mutex
	next map[string]int64
}

func (s *memSeq) GetMessageSequence(_ context.Context, sessionID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next == nil {
		s.next = make(map[string]int64)
	}
	s.next[sessionID]++
	return s.next[sessionID], nil
}

type memSessionStore struct {
	store.SessionStore
	mu       sync.Mutex
	sessions map[string]types.Session
}

func (s *memSessionStore) GetSession(_ context.Context, sessionID string) (*types.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[sessionID]; ok {
		out := sess
		return &out, nil
	}
	return nil, sql.ErrNoRows
}

func (s *memSessionStore) AddTokensUsed(_ context.Context, sessionID string, tokens int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[sessionID]
	sess.TokensUsed += tokens
	s.sessions[sessionID] = sess
	return nil
}

type memContextRefStore struct {
	store.ContextRefStore
	mu   sync.Mutex
	refs []types.ContextRef
}

func (s *memContextRefStore) Exist(_ context.Context, sessionID string, itemType types.ContextItemType, itemID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ref := range s.refs {
		if ref.SessionID == sessionID && ref.ItemType == itemType && ref.ItemID == itemID {
			return true, nil
		}
	}
	return false, nil
}

func (s *memContextRefStore) CountBySession(_ context.Context, sessionID string) (map[types.ContextItemType]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[types.ContextItemType]int)
	for _, ref := range s.refs {
		if ref.SessionID == sessionID {
			counts[ref.ItemType]++
		}
	}
	return counts, nil
}

func (s *memContextRefStore) Create(_ context.Context, data types.ContextRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs = append(s.refs, data)
	return nil
}

func (s *memContextRefStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.refs)
}

type memKnowledgeStore struct {
	store.KnowledgeStore
	items map[string]types.KnowledgeItem
}

func knowledgeKey(itemType types.ContextItemType, id string) string {
	return string(itemType) + "/" + id
}

func (s *memKnowledgeStore) put(item types.KnowledgeItem) {
	if s.items == nil {
		s.items = make(map[string]types.KnowledgeItem)
	}
	s.items[knowledgeKey(item.Type, item.ID)] = item
}

func (s *memKnowledgeStore) GetItem(_ context.Context, itemType types.ContextItemType, id string) (*types.KnowledgeItem, error) {
	if item, ok := s.items[knowledgeKey(itemType, id)]; ok {
		out := item
		return &out, nil
	}
	return nil, nil
}

type memMessageStore struct {
	store.MessageStore
	mu   sync.Mutex
	msgs []*types.Message
}

func (s *memMessageStore) Create(_ context.Context, data *types.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *data
	s.msgs = append(s.msgs, &stored)
	return nil
}

func (s *memMessageStore) GetOne(_ context.Context, id string) (*types.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msg := range s.msgs {
		if msg.ID == id {
			out := *msg
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

// fakeEnv bundles a core wired to the fakes plus handles on each store so
// tests can seed and inspect state directly.
type fakeEnv struct {
	core      *core.Core
	sessions  *memSessionStore
	refs      *memContextRefStore
	knowledge *memKnowledgeStore
	messages  *memMessageStore
}

func newFakeEnv(cfg core.CoreConfig) *fakeEnv {
	env := &fakeEnv{
		sessions:  &memSessionStore{sessions: make(map[string]types.Session)},
		refs:      &memContextRefStore{},
		knowledge: &memKnowledgeStore{},
		messages:  &memMessageStore{},
	}

	provider := sqlstore.NewTestProvider(&sqlstore.Stores{
		SessionStore:    env.sessions,
		MessageStore:    env.messages,
		ContextRefStore: env.refs,
		KnowledgeStore:  env.knowledge,
	})
	env.core = core.NewTestCore(cfg, provider, newMemCache(), &memSeq{})
	return env
}
