package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/t1ery/ParrainageBot/internal/user"
)

const schema = `CREATE TABLE IF NOT EXISTS form_state (
	record_key TEXT PRIMARY KEY,
	user_id    INTEGER NOT NULL,
	data       BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// SQLiteStorage хранит состояния анкет в SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage открывает (или создаёт) базу по пути dbPath
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Один писатель: sqlite не любит параллельные записи
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) SaveState(state *user.State) error {
	data, err := state.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	_, err = s.db.Exec(`INSERT INTO form_state (record_key, user_id, data, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(record_key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key(state.UserID), state.UserID, data, state.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetState(userID int64) (*user.State, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT data FROM form_state WHERE record_key = ?`, key(userID)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}

	state, err := user.FromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return state, nil
}

func (s *SQLiteStorage) DeleteState(userID int64) error {
	if _, err := s.db.Exec(`DELETE FROM form_state WHERE record_key = ?`, key(userID)); err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}

// Close закрывает базу
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
