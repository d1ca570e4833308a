package wizard

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/looplab/fsm"
	"github.com/rs/zerolog"

	"github.com/t1ery/ParrainageBot/internal/registration"
	"github.com/t1ery/ParrainageBot/internal/submission"
	"github.com/t1ery/ParrainageBot/internal/user"
)

// События конечного автомата мастера
const (
	EventNext   = "next"
	EventBack   = "back"
	EventSubmit = "submit"
)

// StateSubmitted - конечное состояние после успешной отправки
const StateSubmitted = "submitted"

var (
	// ErrWrongStep - действие недоступно на текущем шаге
	ErrWrongStep = errors.New("action not allowed on current step")
	// ErrSubmissionInProgress - предыдущая отправка ещё не завершилась
	ErrSubmissionInProgress = errors.New("submission already in progress")
)

// SubmitError - отправка не удалась, анкета сохранена для повтора
type SubmitError struct {
	Message string // Текст для пользователя
	Err     error
}

func (e *SubmitError) Error() string {
	return "submission failed: " + e.Err.Error()
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// Submitter отправляет полную анкету во внешний API
type Submitter interface {
	Submit(ctx context.Context, s registration.Submission) (*submission.Receipt, error)
}

// Level - тип уведомления
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

// Notice - уведомление пользователю
type Notice struct {
	Level Level
	Text  string
}

// Notifier показывает уведомления пользователю
type Notifier interface {
	Notify(ctx context.Context, userID int64, n Notice)
}

// PhotoUpload - файл, присланный на последнем шаге
type PhotoUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

// Result - итог успешной отправки
type Result struct {
	State   *user.State
	Route   Route
	Receipt *submission.Receipt
}

// SubmittedNotice - текст после успешной отправки
const SubmittedNotice = "Inscription soumise avec succès ! Vous recevrez bientôt des nouvelles de votre parrain."

// Controller ведёт пользователя по шагам анкеты:
// identity -> matching -> preferences -> photo -> submitted.
type Controller struct {
	store     *Store
	submitter Submitter
	notifier  Notifier
	router    *Router
	photos    registration.PhotoPolicy
	log       zerolog.Logger

	mu         sync.Mutex
	submitting map[int64]bool
}

// Option настраивает Controller
type Option func(*Controller)

// WithPhotoPolicy задаёт ограничения на фотографию
func WithPhotoPolicy(p registration.PhotoPolicy) Option {
	return func(c *Controller) { c.photos = p }
}

// WithRouter задаёт общий Router
func WithRouter(r *Router) Option {
	return func(c *Controller) { c.router = r }
}

// NewController создаёт контроллер шагов
func NewController(store *Store, submitter Submitter, notifier Notifier, log zerolog.Logger, opts ...Option) *Controller {
	c := &Controller{
		store:      store,
		submitter:  submitter,
		notifier:   notifier,
		router:     NewRouter(),
		photos:     registration.DefaultPhotoPolicy(),
		log:        log.With().Str("component", "wizard").Logger(),
		submitting: make(map[int64]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Router возвращает маршрутизатор экранов
func (c *Controller) Router() *Router {
	return c.router
}

// PhotoPolicy возвращает действующие ограничения на фотографию
func (c *Controller) PhotoPolicy() registration.PhotoPolicy {
	return c.photos
}

// State возвращает (или создаёт) состояние пользователя
func (c *Controller) State(userID int64) (*user.State, error) {
	return c.store.GetState(userID)
}

// Next проверяет ответы текущего шага (0..2), сохраняет их и переходит дальше.
// При ошибке проверки возвращает registration.FieldErrors и ничего не меняет.
func (c *Controller) Next(ctx context.Context, userID int64, values url.Values) (*user.State, error) {
	state, err := c.store.GetState(userID)
	if err != nil {
		return nil, err
	}

	m := c.machine(userID, state.CurrentStep)
	if !m.Can(EventNext) {
		return state, fmt.Errorf("%w: next on %s", ErrWrongStep, state.CurrentStep)
	}

	patch, err := decodeStep(state, values)
	if err != nil {
		c.log.Debug().Int64("user_id", userID).Stringer("step", state.CurrentStep).Err(err).Msg("Шаг не прошёл проверку")
		return state, err
	}

	if err := m.Event(ctx, EventNext); err != nil {
		return state, fmt.Errorf("transition %s: %w", state.CurrentStep, err)
	}
	next, err := user.ParseStep(m.Current())
	if err != nil {
		return state, err
	}

	saved := Info(state.CurrentStep).Saved
	if _, err := c.store.MergeData(userID, patch); err != nil {
		return nil, err
	}
	state, err = c.store.SetStep(userID, next)
	if err != nil {
		return nil, err
	}

	c.notify(ctx, userID, Notice{Level: LevelSuccess, Text: saved})
	return state, nil
}

// Back возвращает на предыдущий шаг, данные не меняются. На первом шаге ничего не делает.
func (c *Controller) Back(ctx context.Context, userID int64) (*user.State, error) {
	state, err := c.store.GetState(userID)
	if err != nil {
		return nil, err
	}
	if c.isSubmitting(userID) {
		return state, ErrSubmissionInProgress
	}

	m := c.machine(userID, state.CurrentStep)
	if !m.Can(EventBack) {
		return state, nil
	}
	if err := m.Event(ctx, EventBack); err != nil {
		return state, fmt.Errorf("transition %s: %w", state.CurrentStep, err)
	}
	prev, err := user.ParseStep(m.Current())
	if err != nil {
		return state, err
	}
	return c.store.SetStep(userID, prev)
}

// Submit проверяет фотографию и отправляет полную анкету.
// Успех: состояние сбрасывается, открывается экран подтверждения.
// Неудача: шаг остаётся последним, данные сохраняются, ошибка - *SubmitError.
func (c *Controller) Submit(ctx context.Context, userID int64, upload PhotoUpload) (*Result, error) {
	if !c.begin(userID) {
		return nil, ErrSubmissionInProgress
	}
	defer c.end(userID)

	state, err := c.store.GetState(userID)
	if err != nil {
		return nil, err
	}
	if state.CurrentStep != user.StepPhoto {
		return nil, fmt.Errorf("%w: submit on %s", ErrWrongStep, state.CurrentStep)
	}

	photo, err := c.photos.NewPhoto(upload.Name, upload.ContentType, upload.Data)
	if err != nil {
		return nil, err
	}
	state, err = c.store.MergeData(userID, user.FormData{Photo: &photo})
	if err != nil {
		return nil, err
	}
	return c.submit(ctx, state)
}

// Retry повторяет отправку с уже сохранённой фотографией
func (c *Controller) Retry(ctx context.Context, userID int64) (*Result, error) {
	if !c.begin(userID) {
		return nil, ErrSubmissionInProgress
	}
	defer c.end(userID)

	state, err := c.store.GetState(userID)
	if err != nil {
		return nil, err
	}
	if state.CurrentStep != user.StepPhoto {
		return nil, fmt.Errorf("%w: retry on %s", ErrWrongStep, state.CurrentStep)
	}
	if state.FormData.Photo == nil {
		return nil, c.photos.Validate(registration.Photo{})
	}
	return c.submit(ctx, state)
}

// Restart сбрасывает анкету по просьбе пользователя
func (c *Controller) Restart(userID int64) (*user.State, error) {
	if c.isSubmitting(userID) {
		return nil, ErrSubmissionInProgress
	}
	return c.store.Reset(userID)
}

func (c *Controller) submit(ctx context.Context, state *user.State) (*Result, error) {
	f := state.FormData
	if f.Identity == nil || f.Matching == nil || f.Preferences == nil || f.Photo == nil {
		return nil, registration.ErrIncomplete
	}
	sub, err := registration.Compose(*f.Identity, *f.Matching, *f.Preferences, *f.Photo, c.photos)
	if err != nil {
		return nil, err
	}

	receipt, err := c.submitter.Submit(ctx, sub)
	if err != nil {
		msg := submission.Message(err)
		c.log.Warn().Int64("user_id", state.UserID).Err(err).Msg("Ошибка при отправке анкеты")
		c.notify(ctx, state.UserID, Notice{Level: LevelError, Text: msg})
		return nil, &SubmitError{Message: msg, Err: err}
	}

	m := c.machine(state.UserID, user.StepPhoto)
	if err := m.Event(ctx, EventSubmit); err != nil {
		return nil, fmt.Errorf("transition %s: %w", user.StepPhoto, err)
	}

	reset, err := c.store.Reset(state.UserID)
	if err != nil {
		return nil, err
	}
	c.router.Grant(state.UserID)
	c.log.Info().Int64("user_id", state.UserID).Str("request_id", receipt.RequestID).Msg("Анкета успешно отправлена")
	c.notify(ctx, state.UserID, Notice{Level: LevelSuccess, Text: SubmittedNotice})

	return &Result{State: reset, Route: RouteSuccess, Receipt: receipt}, nil
}

// machine строит автомат, стоящий на шаге step
func (c *Controller) machine(userID int64, step user.Step) *fsm.FSM {
	identity := user.StepIdentity.String()
	matching := user.StepMatching.String()
	preferences := user.StepPreferences.String()
	photo := user.StepPhoto.String()

	return fsm.NewFSM(
		step.String(),
		fsm.Events{
			{Name: EventNext, Src: []string{identity}, Dst: matching},
			{Name: EventNext, Src: []string{matching}, Dst: preferences},
			{Name: EventNext, Src: []string{preferences}, Dst: photo},
			{Name: EventBack, Src: []string{matching}, Dst: identity},
			{Name: EventBack, Src: []string{preferences}, Dst: matching},
			{Name: EventBack, Src: []string{photo}, Dst: preferences},
			{Name: EventSubmit, Src: []string{photo}, Dst: StateSubmitted},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				c.log.Debug().Int64("user_id", userID).Str("event", e.Event).Str("from", e.Src).Str("to", e.Dst).Msg("Переход шага")
			},
		},
	)
}

func (c *Controller) notify(ctx context.Context, userID int64, n Notice) {
	if c.notifier == nil || n.Text == "" {
		return
	}
	c.notifier.Notify(ctx, userID, n)
}

func (c *Controller) begin(userID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting[userID] {
		return false
	}
	c.submitting[userID] = true
	return true
}

func (c *Controller) end(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.submitting, userID)
}

func (c *Controller) isSubmitting(userID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting[userID]
}

// decodeStep проверяет ответы шага его схемой и возвращает группу для слияния
func decodeStep(state *user.State, values url.Values) (user.FormData, error) {
	switch state.CurrentStep {
	case user.StepIdentity:
		if values.Get(registration.FieldAnnee) == "" {
			values = cloneValues(values)
			values.Set(registration.FieldAnnee, state.FormData.Annee)
		}
		id, err := registration.DecodeIdentity(values)
		if err != nil {
			return user.FormData{}, err
		}
		return user.FormData{Annee: id.Annee, Identity: &id}, nil
	case user.StepMatching:
		m, err := registration.DecodeMatching(values)
		if err != nil {
			return user.FormData{}, err
		}
		return user.FormData{Matching: &m}, nil
	case user.StepPreferences:
		p, err := registration.DecodePreferences(values)
		if err != nil {
			return user.FormData{}, err
		}
		return user.FormData{Preferences: &p}, nil
	}
	return user.FormData{}, fmt.Errorf("%w: %s", ErrWrongStep, state.CurrentStep)
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
