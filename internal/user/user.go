package user

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/t1ery/ParrainageBot/internal/registration"
)

// Step - шаг заполнения анкеты
type Step int

// Step constants - шаги создания анкеты
const (
	StepIdentity    Step = iota // Личные данные
	StepMatching                // Интересы
	StepPreferences             // Пожелания
	StepPhoto                   // Фотография и отправка
)

// StepCount - количество шагов анкеты
const StepCount = 4

// ErrInvalidStep - номер шага вне диапазона 0..3
var ErrInvalidStep = errors.New("invalid step")

var stepNames = [StepCount]string{"identity", "matching", "preferences", "photo"}

// Valid сообщает, существует ли такой шаг
func (s Step) Valid() bool {
	return s >= StepIdentity && s <= StepPhoto
}

func (s Step) String() string {
	if !s.Valid() {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// ParseStep находит шаг по имени
func ParseStep(name string) (Step, error) {
	for i, n := range stepNames {
		if n == name {
			return Step(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidStep, name)
}

// FormData - накопленные (частичные) данные анкеты
type FormData struct {
	Annee       string                    `json:"annee"`
	Identity    *registration.Identity    `json:"identity,omitempty"`
	Matching    *registration.Matching    `json:"matching,omitempty"`
	Preferences *registration.Preferences `json:"preferences,omitempty"`
	Photo       *registration.Photo       `json:"photo,omitempty"`
}

// DefaultFormData возвращает данные новой анкеты
func DefaultFormData() FormData {
	return FormData{Annee: registration.CohortL1}
}

// Merge переносит заданные группы из patch. Отсутствующие в patch группы сохраняются.
func (f FormData) Merge(patch FormData) FormData {
	if patch.Annee != "" {
		f.Annee = patch.Annee
	}
	if patch.Identity != nil {
		id := *patch.Identity
		f.Identity = &id
	}
	if patch.Matching != nil {
		m := *patch.Matching
		f.Matching = &m
	}
	if patch.Preferences != nil {
		p := *patch.Preferences
		f.Preferences = &p
	}
	if patch.Photo != nil {
		ph := *patch.Photo
		f.Photo = &ph
	}
	return f
}

// State - состояние мастера анкеты пользователя
type State struct {
	UserID      int64     `json:"userId"`
	CurrentStep Step      `json:"currentStep"`
	FormData    FormData  `json:"formData"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewState создаёт состояние нового пользователя
func NewState(userID int64) *State {
	return &State{
		UserID:      userID,
		CurrentStep: StepIdentity,
		FormData:    DefaultFormData(),
	}
}

// ToJSON преобразует состояние в JSON формат
func (s *State) ToJSON() ([]byte, error) {
	return json.Marshal(s)
}

// FromJSON восстанавливает состояние из JSON
func FromJSON(data []byte) (*State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
