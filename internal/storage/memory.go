package storage

import (
	"sync"

	"github.com/t1ery/ParrainageBot/internal/user"
)

// MemoryStorage хранит состояния в памяти процесса (для тестов и отладки)
type MemoryStorage struct {
	data map[int64]user.State
	mu   sync.Mutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		data: make(map[int64]user.State),
	}
}

func (s *MemoryStorage) SaveState(state *user.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Храним копию, чтобы вызывающий код не менял состояние в обход хранилища
	s.data[state.UserID] = *state
	return nil
}

func (s *MemoryStorage) GetState(userID int64) (*user.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, found := s.data[userID]
	if !found {
		return nil, ErrNotFound
	}
	return &state, nil
}

func (s *MemoryStorage) DeleteState(userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, userID)
	return nil
}
