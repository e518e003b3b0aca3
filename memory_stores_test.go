package authtrail

import (
	"context"
	"fmt"
	"sync"
)

// In-memory stores backing the engine tests. Each one can be primed
// with failures to exercise the error paths.

type memoryAppUserStore struct {
	mu     sync.Mutex
	nextID int
	byID   map[string]AppUser
	byAuth map[string]string

	failInsert error
	failPatch  error
	failGet    error
}

func newMemoryAppUserStore() *memoryAppUserStore {
	return &memoryAppUserStore{
		byID:   make(map[string]AppUser),
		byAuth: make(map[string]string),
	}
}

func (s *memoryAppUserStore) Get(_ context.Context, id string) (*AppUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet != nil {
		return nil, s.failGet
	}
	doc, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return &doc, nil
}

func (s *memoryAppUserStore) GetByAuthUserID(_ context.Context, authUserID string) (*AppUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byAuth[authUserID]
	if !ok {
		return nil, nil
	}
	doc := s.byID[id]
	return &doc, nil
}

func (s *memoryAppUserStore) Insert(_ context.Context, doc AppUser) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInsert != nil {
		return "", s.failInsert
	}
	if _, exists := s.byAuth[doc.AuthUserID]; exists {
		return "", fmt.Errorf("duplicate auth user %q", doc.AuthUserID)
	}
	s.nextID++
	id := fmt.Sprintf("doc-%d", s.nextID)
	doc.ID = id
	s.byID[id] = doc
	s.byAuth[doc.AuthUserID] = id
	return id, nil
}

func (s *memoryAppUserStore) Patch(_ context.Context, id string, doc AppUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPatch != nil {
		return s.failPatch
	}
	if _, ok := s.byID[id]; !ok {
		return fmt.Errorf("no document %q", id)
	}
	doc.ID = id
	s.byID[id] = doc
	return nil
}

func (s *memoryAppUserStore) DeleteByAuthUserID(_ context.Context, authUserID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byAuth[authUserID]
	if !ok {
		return 0, nil
	}
	delete(s.byID, id)
	delete(s.byAuth, authUserID)
	return 1, nil
}

type memoryAuditLogStore struct {
	mu   sync.Mutex
	docs []AuditDocument

	failInsert   error
	failInsertAt int // fail the nth insert (1-based); 0 fails every insert
	inserts      int
}

func newMemoryAuditLogStore() *memoryAuditLogStore {
	return &memoryAuditLogStore{}
}

func (s *memoryAuditLogStore) Insert(_ context.Context, doc AuditDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts++
	if s.failInsert != nil && (s.failInsertAt == 0 || s.inserts == s.failInsertAt) {
		return s.failInsert
	}
	s.docs = append(s.docs, doc)
	return nil
}

func (s *memoryAuditLogStore) ListByUser(_ context.Context, userID string, limit int) ([]AuditDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []AuditDocument
	for i := len(s.docs) - 1; i >= 0; i-- {
		if s.docs[i].UserID != userID {
			continue
		}
		out = append(out, s.docs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *memoryAuditLogStore) DeleteByUser(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.docs[:0]
	deleted := 0
	for _, doc := range s.docs {
		if doc.UserID == userID {
			deleted++
			continue
		}
		kept = append(kept, doc)
	}
	s.docs = kept
	return deleted, nil
}

func (s *memoryAuditLogStore) snapshot() []AuditDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AuditDocument, len(s.docs))
	copy(out, s.docs)
	return out
}

type memoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]Counter

	failPut error
}

func newMemoryCounterStore() *memoryCounterStore {
	return &memoryCounterStore{counters: make(map[string]Counter)}
}

func (s *memoryCounterStore) Get(_ context.Context, userID string) (*Counter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counter, ok := s.counters[userID]
	if !ok {
		return nil, nil
	}
	return &counter, nil
}

func (s *memoryCounterStore) Put(_ context.Context, counter Counter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPut != nil {
		return s.failPut
	}
	s.counters[counter.UserID] = counter
	return nil
}

func (s *memoryCounterStore) DeleteByUser(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.counters[userID]; !ok {
		return 0, nil
	}
	delete(s.counters, userID)
	return 1, nil
}

type recordingRunner struct {
	mu    sync.Mutex
	calls []runnerCall
	err   error
}

type runnerCall struct {
	name string
	args any
}

func (r *recordingRunner) RunMutation(_ context.Context, name string, args any) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.calls = append(r.calls, runnerCall{name: name, args: args})
	return nil, nil
}
