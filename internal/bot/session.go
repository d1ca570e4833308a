package bot

import (
	"net/url"
	"sync"

	"github.com/t1ery/ParrainageBot/internal/user"
)

// session - черновик ответов текущего шага.
// Живёт в памяти: после перезапуска шаг начинается заново, но уже
// подтверждённые шаги восстанавливаются из хранилища.
type session struct {
	step    user.Step
	values  url.Values
	pending []int // Индексы вопросов, которые ещё надо задать
}

// current возвращает текущий вопрос
func (s *session) current() (question, bool) {
	if len(s.pending) == 0 {
		return question{}, false
	}
	return stepQuestions[s.step][s.pending[0]], true
}

// advance переходит к следующему вопросу
func (s *session) advance() {
	if len(s.pending) > 0 {
		s.pending = s.pending[1:]
	}
}

// toggle включает или выключает вариант множественного выбора
func (s *session) toggle(field, value string) {
	values := s.values[field]
	for i, v := range values {
		if v == value {
			s.values[field] = append(values[:i:i], values[i+1:]...)
			return
		}
	}
	s.values[field] = append(values, value)
}

// sessions - черновики пользователей
type sessions struct {
	mu   sync.Mutex
	data map[int64]*session
}

func newSessions() *sessions {
	return &sessions{data: make(map[int64]*session)}
}

func (s *sessions) get(userID int64) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.data[userID]
	return sess, ok
}

func (s *sessions) put(userID int64, sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[userID] = sess
}

func (s *sessions) drop(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, userID)
}

// newSession начинает шаг. Ответы уже пройденного шага подставляются для редактирования.
func newSession(state *user.State) *session {
	sess := &session{step: state.CurrentStep, values: url.Values{}}
	f := state.FormData
	switch state.CurrentStep {
	case user.StepIdentity:
		if f.Identity != nil {
			sess.values = f.Identity.Values()
		}
	case user.StepMatching:
		if f.Matching != nil {
			sess.values = f.Matching.Values()
		}
	case user.StepPreferences:
		if f.Preferences != nil {
			sess.values = f.Preferences.Values()
		}
	}
	for i := range stepQuestions[state.CurrentStep] {
		sess.pending = append(sess.pending, i)
	}
	return sess
}
