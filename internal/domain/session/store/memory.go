package store

import (
	"context"
	"sync"
	"time"

	"quill-server-go/internal/domain/session/model"
)

type memoryStore struct {
	items    map[uint]map[string]model.RefreshCredential
	mutex    sync.RWMutex
	gcFreq   time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemory builds an in-memory credential store.
func NewMemory(cfg Config) Store {
	gc := 10 * time.Minute
	if cfg.Memory != nil && cfg.Memory.GCInterval > 0 {
		gc = cfg.Memory.GCInterval
	}
	s := &memoryStore{
		items:  make(map[uint]map[string]model.RefreshCredential),
		gcFreq: gc,
		stop:   make(chan struct{}),
	}
	go s.gcLoop()
	return s
}

func (s *memoryStore) gcLoop() {
	ticker := time.NewTicker(s.gcFreq)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_, _ = s.SweepExpired(context.Background(), time.Now())
		case <-s.stop:
			return
		}
	}
}

func (s *memoryStore) Append(_ context.Context, cred model.RefreshCredential) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	set, ok := s.items[cred.UserID]
	if !ok {
		set = make(map[string]model.RefreshCredential)
		s.items[cred.UserID] = set
	}
	set[cred.Token] = cred
	return nil
}

func (s *memoryStore) Replace(_ context.Context, userID uint, oldToken string, cred model.RefreshCredential) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	set, ok := s.items[userID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := set[oldToken]; !ok {
		return ErrNotFound
	}
	delete(set, oldToken)
	set[cred.Token] = cred
	return nil
}

func (s *memoryStore) RemoveByToken(_ context.Context, userID uint, token string) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	set, ok := s.items[userID]
	if !ok {
		return false, nil
	}
	if _, ok := set[token]; !ok {
		return false, nil
	}
	delete(set, token)
	return true, nil
}

func (s *memoryStore) ClearAll(_ context.Context, userID uint) error {
	s.mutex.Lock()
	delete(s.items, userID)
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) ExistsWithToken(ctx context.Context, userID uint, token string) (bool, error) {
	_, ok, err := s.FindLive(ctx, userID, token)
	return ok, err
}

func (s *memoryStore) FindLive(_ context.Context, userID uint, token string) (model.RefreshCredential, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	set, ok := s.items[userID]
	if !ok {
		return model.RefreshCredential{}, false, nil
	}
	cred, ok := set[token]
	if !ok || cred.Expired(time.Now()) {
		return model.RefreshCredential{}, false, nil
	}
	return cred, true, nil
}

func (s *memoryStore) SweepExpired(_ context.Context, now time.Time) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var removed int64
	for userID, set := range s.items {
		for token, cred := range set {
			if cred.Expired(now) {
				delete(set, token)
				removed++
			}
		}
		if len(set) == 0 {
			delete(s.items, userID)
		}
	}
	return removed, nil
}

func (s *memoryStore) Stats(_ context.Context) (map[string]any, error) {
	now := time.Now()
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	total, active := 0, 0
	for _, set := range s.items {
		for _, cred := range set {
			total++
			if !cred.Expired(now) {
				active++
			}
		}
	}
	return map[string]any{
		"type":   "memory",
		"total":  total,
		"active": active,
		"users":  len(s.items),
	}, nil
}

func (s *memoryStore) Close(_ context.Context) error {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	return nil
}
