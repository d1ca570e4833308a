package wizard

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/t1ery/ParrainageBot/internal/storage"
	"github.com/t1ery/ParrainageBot/internal/user"
)

// Store - состояние мастера, которое переживает перезапуск.
// Каждое изменение сразу записывается в хранилище.
type Store struct {
	storage storage.Storage
	log     zerolog.Logger
	now     func() time.Time
}

// NewStore создаёт состояние мастера поверх хранилища
func NewStore(s storage.Storage, log zerolog.Logger) *Store {
	return &Store{
		storage: s,
		log:     log.With().Str("component", "store").Logger(),
		now:     time.Now,
	}
}

// GetState возвращает состояние пользователя. При первом обращении создаёт
// и сохраняет новое состояние. Восстановленный шаг не может быть дальше,
// чем позволяют сохранённые данные.
func (s *Store) GetState(userID int64) (*user.State, error) {
	state, err := s.storage.GetState(userID)
	if errors.Is(err, storage.ErrNotFound) {
		state = user.NewState(userID)
		if err := s.save(state); err != nil {
			return nil, err
		}
		return state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get state %d: %w", userID, err)
	}

	dirty := false
	if state.FormData.Annee == "" {
		state.FormData.Annee = user.DefaultFormData().Annee
		dirty = true
	}
	if reachable := reachableStep(state.FormData); !state.CurrentStep.Valid() || state.CurrentStep > reachable {
		s.log.Warn().
			Int64("user_id", userID).
			Int("stored_step", int(state.CurrentStep)).
			Stringer("step", reachable).
			Msg("Сохранённый шаг не подтверждён данными, шаг понижен")
		state.CurrentStep = reachable
		dirty = true
	}
	if dirty {
		if err := s.save(state); err != nil {
			return nil, err
		}
	}
	return state, nil
}

// SetStep устанавливает текущий шаг. Проверяется только диапазон 0..3.
func (s *Store) SetStep(userID int64, step user.Step) (*user.State, error) {
	if !step.Valid() {
		return nil, fmt.Errorf("%w: %d", user.ErrInvalidStep, int(step))
	}
	state, err := s.GetState(userID)
	if err != nil {
		return nil, err
	}
	state.CurrentStep = step
	if err := s.save(state); err != nil {
		return nil, err
	}
	return state, nil
}

// MergeData добавляет проверенные группы к накопленным данным.
// Группы, которых нет в patch, не трогаются.
func (s *Store) MergeData(userID int64, patch user.FormData) (*user.State, error) {
	state, err := s.GetState(userID)
	if err != nil {
		return nil, err
	}
	state.FormData = state.FormData.Merge(patch)
	if err := s.save(state); err != nil {
		return nil, err
	}
	return state, nil
}

// Reset удаляет запись пользователя и возвращает начальное состояние
func (s *Store) Reset(userID int64) (*user.State, error) {
	if err := s.storage.DeleteState(userID); err != nil {
		return nil, fmt.Errorf("reset state %d: %w", userID, err)
	}
	s.log.Debug().Int64("user_id", userID).Msg("Состояние анкеты сброшено")
	return user.NewState(userID), nil
}

func (s *Store) save(state *user.State) error {
	state.UpdatedAt = s.now()
	if err := s.storage.SaveState(state); err != nil {
		return fmt.Errorf("save state %d: %w", state.UserID, err)
	}
	return nil
}

// reachableStep - самый дальний шаг, для которого есть все предыдущие группы
func reachableStep(f user.FormData) user.Step {
	switch {
	case f.Identity == nil || f.Identity.Validate() != nil:
		return user.StepIdentity
	case f.Matching == nil || f.Matching.Validate() != nil:
		return user.StepMatching
	case f.Preferences == nil || f.Preferences.Validate() != nil:
		return user.StepPreferences
	default:
		return user.StepPhoto
	}
}
