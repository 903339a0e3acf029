package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// maxPreferenceHistory bounds the per-owner history length.
const maxPreferenceHistory = 50

type preferenceStorage struct {
	mu      sync.RWMutex
	history map[string][]uuid.UUID // key: ownerUserID, most recent last
}

func newPreferenceStorage() *preferenceStorage {
	return &preferenceStorage{history: make(map[string][]uuid.UUID)}
}

func (s *preferenceStorage) RecordChosen(ctx context.Context, ownerUserID string, itemIDs []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := s.history[ownerUserID]
	for _, id := range itemIDs {
		// Re-chosen ids move to the tail.
		for i, existing := range queue {
			if existing == id {
				queue = append(queue[:i], queue[i+1:]...)
				break
			}
		}
		queue = append(queue, id)
	}
	if len(queue) > maxPreferenceHistory {
		queue = queue[len(queue)-maxPreferenceHistory:]
	}
	s.history[ownerUserID] = queue
	return nil
}

func (s *preferenceStorage) ListRecent(ctx context.Context, ownerUserID string, limit int) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	queue := s.history[ownerUserID]
	if limit > 0 && len(queue) > limit {
		queue = queue[len(queue)-limit:]
	}
	result := make([]uuid.UUID, len(queue))
	copy(result, queue)
	return result, nil
}
