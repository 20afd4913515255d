package state

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore keeps checkpoints in process. States are cloned on the way in
// and out so callers never share slices with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	threads map[string]*ConversationState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{threads: make(map[string]*ConversationState)}
}

func (s *MemoryStore) Load(ctx context.Context, threadID string) (*ConversationState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	threadID = strings.TrimSpace(threadID)
	if threadID == "" {
		return nil, ErrInvalidThread
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.threads[threadID]
	if !ok {
		return nil, ErrStateNotFound
	}
	return st.Clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, st *ConversationState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := prepareForSave(st); err != nil {
		return err
	}

	snapshot := st.Clone()
	snapshot.Tombstones = nil

	s.mu.Lock()
	s.threads[st.ThreadID] = snapshot
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, threadID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	threadID = strings.TrimSpace(threadID)
	if threadID == "" {
		return ErrInvalidThread
	}

	s.mu.Lock()
	delete(s.threads, threadID)
	s.mu.Unlock()
	return nil
}
