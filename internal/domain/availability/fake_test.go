package availability_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ganot/overlap/internal/domain/availability"
)

// memStore keeps intervals in memory. A Tx works on a private copy that
// replaces the shared state on Commit.
type memStore struct {
	mu        sync.Mutex
	rows      map[string]availability.Interval
	failOn    string
	commits   int
	rollbacks int
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string]availability.Interval)}
}

var errInjected = errors.New("injected store failure")

func (s *memStore) Begin(context.Context) (availability.Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn == "begin" {
		return nil, errInjected
	}
	snapshot := make(map[string]availability.Interval, len(s.rows))
	for k, v := range s.rows {
		snapshot[k] = v
	}
	return &memTx{store: s, rows: snapshot, changed: make(map[string]*availability.Interval)}, nil
}

func (s *memStore) ListByMember(_ context.Context, userID, groupID string) ([]availability.Interval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterSorted(s.rows, func(iv availability.Interval) bool {
		return iv.UserID == userID && iv.GroupID == groupID
	}), nil
}

func (s *memStore) ListByGroup(_ context.Context, groupID string) ([]availability.Interval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterSorted(s.rows, func(iv availability.Interval) bool { return iv.GroupID == groupID }), nil
}

func (s *memStore) ListByGroupBetween(_ context.Context, groupID string, from, to time.Time) ([]availability.Interval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterSorted(s.rows, func(iv availability.Interval) bool {
		return iv.GroupID == groupID && !iv.StartDate.After(to) && !iv.EndDate.Before(from)
	}), nil
}

type memTx struct {
	store   *memStore
	rows    map[string]availability.Interval
	changed map[string]*availability.Interval
	done    bool
}

func (t *memTx) put(iv availability.Interval) {
	t.rows[iv.ID] = iv
	t.changed[iv.ID] = &iv
}

func (t *memTx) drop(id string) {
	delete(t.rows, id)
	t.changed[id] = nil
}

func (t *memTx) Overlapping(_ context.Context, userID, groupID string, from, to time.Time) ([]availability.Interval, error) {
	if t.store.failOn == "overlapping" {
		return nil, errInjected
	}
	return filterSorted(t.rows, func(iv availability.Interval) bool {
		return iv.UserID == userID && iv.GroupID == groupID && !iv.StartDate.After(to) && !iv.EndDate.Before(from)
	}), nil
}

func (t *memTx) Insert(_ context.Context, iv *availability.Interval) error {
	if t.store.failOn == "insert" {
		return errInjected
	}
	t.put(*iv)
	return nil
}

func (t *memTx) Update(_ context.Context, iv *availability.Interval) error {
	if t.store.failOn == "update" {
		return errInjected
	}
	t.put(*iv)
	return nil
}

func (t *memTx) Delete(_ context.Context, userID, groupID string, ids ...string) (int, error) {
	if t.store.failOn == "delete" {
		return 0, errInjected
	}
	n := 0
	for _, id := range ids {
		if iv, ok := t.rows[id]; ok && iv.UserID == userID && iv.GroupID == groupID {
			t.drop(id)
			n++
		}
	}
	return n, nil
}

func (t *memTx) DeleteAll(_ context.Context, userID, groupID string) (int, error) {
	n := 0
	for id, iv := range t.rows {
		if iv.UserID == userID && iv.GroupID == groupID {
			t.drop(id)
			n++
		}
	}
	return n, nil
}

func (t *memTx) Commit() error {
	if t.done {
		return errors.New("tx done")
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.store.failOn == "commit" {
		return errInjected
	}
	t.done = true
	for id, iv := range t.changed {
		if iv == nil {
			delete(t.store.rows, id)
			continue
		}
		t.store.rows[id] = *iv
	}
	t.store.commits++
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Lock()
	t.store.rollbacks++
	t.store.mu.Unlock()
	return nil
}

func filterSorted(rows map[string]availability.Interval, keep func(availability.Interval) bool) []availability.Interval {
	var out []availability.Interval
	for _, iv := range rows {
		if keep(iv) {
			out = append(out, iv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}
