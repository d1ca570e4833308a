package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/t1ery/ParrainageBot/internal/user"
)

// FileStorage хранит состояния всех пользователей в одном JSON-файле
type FileStorage struct {
	mu     sync.RWMutex
	states map[string]user.State
	file   string
}

// NewFileStorage создаёт файловое хранилище и загружает существующие данные
func NewFileStorage(filePath string) (*FileStorage, error) {
	s := &FileStorage{
		states: make(map[string]user.State),
		file:   filePath,
	}

	if _, err := os.Stat(filePath); err == nil {
		if err := s.load(); err != nil {
			return nil, fmt.Errorf("failed to load storage: %w", err)
		}
	}

	return s, nil
}

func (s *FileStorage) SaveState(state *user.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[key(state.UserID)] = *state
	return s.save()
}

func (s *FileStorage) GetState(userID int64) (*user.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[key(userID)]
	if !ok {
		return nil, ErrNotFound
	}
	return &state, nil
}

func (s *FileStorage) DeleteState(userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.states[key(userID)]; !ok {
		return nil
	}
	delete(s.states, key(userID))
	return s.save()
}

// save записывает файл целиком через временный файл
func (s *FileStorage) save() error {
	data, err := json.MarshalIndent(s.states, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	dir := filepath.Dir(s.file)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp := s.file + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return os.Rename(tmp, s.file)
}

func (s *FileStorage) load() error {
	data, err := os.ReadFile(s.file)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, &s.states); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}
	return nil
}

// key - имя записи пользователя: integration-form-storage:<id>
func key(userID int64) string {
	return Name + ":" + strconv.FormatInt(userID, 10)
}
