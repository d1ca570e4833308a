package storage

import (
	"errors"
	"fmt"

	"github.com/t1ery/ParrainageBot/internal/user"
)

// Name - имя записи состояния анкеты в долговременном хранилище
const Name = "integration-form-storage"

// ErrNotFound - состояние пользователя не найдено
var ErrNotFound = errors.New("state not found")

type Storage interface {
	SaveState(state *user.State) error          // Сохраняет состояние анкеты пользователя
	GetState(userID int64) (*user.State, error) // Получает состояние анкеты пользователя
	DeleteState(userID int64) error             // Удаляет состояние анкеты
}

// Драйверы хранилища
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// New создаёт хранилище по имени драйвера
func New(driver, path string) (Storage, error) {
	switch driver {
	case DriverMemory:
		return NewMemoryStorage(), nil
	case DriverFile:
		return NewFileStorage(path)
	case DriverSQLite, "":
		return NewSQLiteStorage(path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
