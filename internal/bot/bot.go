package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/rs/zerolog"

	"github.com/t1ery/ParrainageBot/internal/registration"
	"github.com/t1ery/ParrainageBot/internal/user"
	"github.com/t1ery/ParrainageBot/internal/wizard"
)

// botAPI - часть Telegram Bot API, которой пользуется бот
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	AnswerCallbackQuery(config tgbotapi.CallbackConfig) (tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Bot представляет интерфейс для взаимодействия с ботом.
type Bot interface {
	StartWizard(userID int64) error      // Начало или продолжение анкеты
	GoBack(userID int64) error           // Возврат на предыдущий шаг
	RetrySubmission(userID int64) error  // Повторная отправка анкеты
	RestartWizard(userID int64) error    // Сброс анкеты
	ShowSuccess(userID int64) error      // Экран подтверждения
	GetProjectInfo(chatID int64) error   // Предоставление информации о проекте пользователю
	HandleUpdate(update tgbotapi.Update) // Обработка одного обновления
	Run()                                // Запуск бота
}

// ParrainageBot представляет реализацию интерфейса Bot.
type ParrainageBot struct {
	api        botAPI
	raw        *tgbotapi.BotAPI
	controller *wizard.Controller
	sessions   *sessions
	http       *http.Client
	log        zerolog.Logger
}

// NewBot создает новый экземпляр бота.
func NewBot(api *tgbotapi.BotAPI, controller *wizard.Controller, log zerolog.Logger) Bot {
	b := newBot(api, controller, log)
	b.raw = api
	return b
}

func newBot(api botAPI, controller *wizard.Controller, log zerolog.Logger) *ParrainageBot {
	return &ParrainageBot{
		api:        api,
		controller: controller,
		sessions:   newSessions(),
		http:       &http.Client{Timeout: 30 * time.Second},
		log:        log.With().Str("component", "bot").Logger(),
	}
}

// Run запускает бота и начинает обработку обновлений.
func (b *ParrainageBot) Run() {
	b.log.Info().Str("bot", b.raw.Self.UserName).Msg("Бот подписан на обновления")

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates, err := b.raw.GetUpdatesChan(updateConfig)
	if err != nil {
		b.log.Panic().Err(err).Msg("Не удалось получить канал обновлений")
	}

	// Обновления обрабатываются по одному, как они пришли
	for update := range updates {
		b.HandleUpdate(update)
	}
}

// HandleUpdate обрабатывает одно обновление Telegram
func (b *ParrainageBot) HandleUpdate(update tgbotapi.Update) {
	ctx := context.Background()

	if update.Message != nil {
		if update.Message.NewChatMembers != nil {
			for _, newUser := range *update.Message.NewChatMembers {
				if err := b.welcomeNewUser(newUser, update.Message.Chat.ID); err != nil {
					b.log.Error().Err(err).Msg("Ошибка при приветствии нового участника")
				}
			}
		} else if err := b.handleMessage(ctx, update.Message); err != nil {
			b.log.Error().Err(err).Int64("chat_id", update.Message.Chat.ID).Msg("Ошибка при обработке сообщения")
		}
	}

	if update.CallbackQuery != nil {
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			b.log.Error().Err(err).Str("data", update.CallbackQuery.Data).Msg("Ошибка при обработке кнопки")
		}
	}
}

func (b *ParrainageBot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil || msg.Chat == nil {
		return nil
	}
	userID := int64(msg.From.ID)

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			return b.StartWizard(userID)
		case "info":
			return b.GetProjectInfo(msg.Chat.ID)
		case "back":
			return b.GoBack(userID)
		case "retry":
			return b.RetrySubmission(userID)
		case "restart":
			return b.RestartWizard(userID)
		case "success":
			return b.ShowSuccess(userID)
		default:
			return b.sendUnknownCommandMessage(msg.Chat.ID)
		}
	}

	// Ответы принимаем только в личных сообщениях
	if !msg.Chat.IsPrivate() {
		return nil
	}
	return b.handleAnswer(ctx, userID, msg)
}

func (b *ParrainageBot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	if cq.From == nil {
		return nil
	}
	userID := int64(cq.From.ID)

	if _, err := b.api.AnswerCallbackQuery(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.log.Warn().Err(err).Msg("Не удалось ответить на нажатие кнопки")
	}

	prefix, field, value := parseCallback(cq.Data)
	switch prefix {
	case "/info":
		chatID := userID
		if cq.Message != nil && cq.Message.Chat != nil {
			chatID = cq.Message.Chat.ID
		}
		return b.GetProjectInfo(chatID)
	case "/start":
		return b.StartWizard(userID)
	case cbNav:
		switch field {
		case navBack:
			return b.GoBack(userID)
		case navRetry:
			return b.RetrySubmission(userID)
		case navReset:
			return b.RestartWizard(userID)
		}
		return nil
	case cbAnswer, cbToggle, cbDone, cbKeep, cbSkip:
		return b.handleButton(ctx, userID, cq, prefix, field, value)
	}
	return nil
}

// StartWizard начинает анкету или продолжает её с сохранённого шага
func (b *ParrainageBot) StartWizard(userID int64) error {
	state, err := b.controller.State(userID)
	if err != nil {
		return err
	}

	if sess, ok := b.sessions.get(userID); ok && sess.step == state.CurrentStep && state.CurrentStep != user.StepPhoto {
		if err := b.sendStepHeader(userID, state.CurrentStep); err != nil {
			return err
		}
		return b.ask(userID, sess)
	}
	return b.startStep(userID, state)
}

// GoBack возвращает пользователя на предыдущий шаг, ответы сохраняются
func (b *ParrainageBot) GoBack(userID int64) error {
	state, err := b.controller.Back(context.Background(), userID)
	if errors.Is(err, wizard.ErrSubmissionInProgress) {
		return b.send(userID, "Envoi en cours, merci de patienter.")
	}
	if err != nil {
		return err
	}
	b.sessions.drop(userID)
	return b.startStep(userID, state)
}

// RetrySubmission повторяет отправку без повторного ввода данных
func (b *ParrainageBot) RetrySubmission(userID int64) error {
	ctx := context.Background()
	if err := b.send(userID, "Envoi en cours..."); err != nil {
		return err
	}
	res, err := b.controller.Retry(ctx, userID)
	if errors.Is(err, wizard.ErrWrongStep) {
		return b.StartWizard(userID)
	}
	return b.afterSubmit(userID, res, err)
}

// RestartWizard сбрасывает анкету и начинает заново
func (b *ParrainageBot) RestartWizard(userID int64) error {
	state, err := b.controller.Restart(userID)
	if errors.Is(err, wizard.ErrSubmissionInProgress) {
		return b.send(userID, "Envoi en cours, merci de patienter.")
	}
	if err != nil {
		return err
	}
	b.sessions.drop(userID)
	if err := b.send(userID, "Votre inscription a été réinitialisée."); err != nil {
		return err
	}
	return b.startStep(userID, state)
}

// ShowSuccess показывает экран подтверждения. Без только что завершённой
// отправки пользователь возвращается к анкете.
func (b *ParrainageBot) ShowSuccess(userID int64) error {
	if b.controller.Router().Resolve(userID, wizard.RouteSuccess) != wizard.RouteSuccess {
		return b.StartWizard(userID)
	}
	message := tgbotapi.NewMessage(userID, successText)
	message.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("Contacter via WhatsApp", supportWhatsAppURL()),
		),
	)
	_, err := b.api.Send(message)
	return err
}

// GetProjectInfo отправляет информацию пользователю.
func (b *ParrainageBot) GetProjectInfo(chatID int64) error {
	return b.send(chatID, projectInfo)
}

// handleAnswer принимает текстовый ответ или фотографию
func (b *ParrainageBot) handleAnswer(ctx context.Context, userID int64, msg *tgbotapi.Message) error {
	state, err := b.controller.State(userID)
	if err != nil {
		return err
	}
	if state.CurrentStep == user.StepPhoto {
		return b.handlePhoto(ctx, userID, msg)
	}

	sess := b.session(state)
	q, ok := sess.current()
	if !ok {
		return b.proceed(ctx, userID, sess)
	}

	switch q.kind {
	case kindText, kindOptional:
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			return b.send(userID, "Répondez par un message texte.")
		}
		sess.values.Set(q.field, text)
		sess.advance()
		return b.proceed(ctx, userID, sess)
	default:
		if err := b.send(userID, "Choisissez une option à l'aide des boutons."); err != nil {
			return err
		}
		return b.ask(userID, sess)
	}
}

// handleButton обрабатывает ответ кнопкой на текущий вопрос
func (b *ParrainageBot) handleButton(ctx context.Context, userID int64, cq *tgbotapi.CallbackQuery, prefix, field, value string) error {
	state, err := b.controller.State(userID)
	if err != nil {
		return err
	}
	if state.CurrentStep == user.StepPhoto {
		return nil
	}

	sess := b.session(state)
	q, ok := sess.current()
	if !ok || q.field != field {
		// Кнопка от старого вопроса
		return nil
	}

	switch prefix {
	case cbAnswer:
		sess.values.Set(field, value)
	case cbToggle:
		sess.toggle(field, value)
		if cq.Message == nil || cq.Message.Chat == nil {
			return nil
		}
		keyboard := questionKeyboard(q, sess.values, sess.step > user.StepIdentity)
		_, err := b.api.Send(tgbotapi.NewEditMessageReplyMarkup(cq.Message.Chat.ID, cq.Message.MessageID, *keyboard))
		return err
	case cbDone:
		if len(sess.values[field]) == 0 {
			if err := b.send(userID, "Sélectionnez au moins une option."); err != nil {
				return err
			}
			return b.ask(userID, sess)
		}
	case cbSkip:
		sess.values.Del(field)
	case cbKeep:
	}
	sess.advance()
	return b.proceed(ctx, userID, sess)
}

// proceed задаёт следующий вопрос или, если вопросы шага кончились, отдаёт шаг контроллеру
func (b *ParrainageBot) proceed(ctx context.Context, userID int64, sess *session) error {
	if _, ok := sess.current(); ok {
		return b.ask(userID, sess)
	}

	state, err := b.controller.Next(ctx, userID, sess.values)
	if fe, ok := registration.AsFieldErrors(err); ok {
		// Переспрашиваем только поля с ошибками
		for _, field := range fe.Fields() {
			if i, ok := findQuestion(sess.step, field); ok {
				sess.pending = append(sess.pending, i)
			}
		}
		sort.Ints(sess.pending)
		if len(sess.pending) == 0 {
			for i := range stepQuestions[sess.step] {
				sess.pending = append(sess.pending, i)
			}
		}
		if err := b.send(userID, formatFieldErrors(fe)); err != nil {
			return err
		}
		return b.ask(userID, sess)
	}
	if errors.Is(err, wizard.ErrWrongStep) {
		b.sessions.drop(userID)
		return b.StartWizard(userID)
	}
	if err != nil {
		return err
	}

	b.sessions.drop(userID)
	return b.startStep(userID, state)
}

// startStep начинает шаг с первого вопроса
func (b *ParrainageBot) startStep(userID int64, state *user.State) error {
	if err := b.sendStepHeader(userID, state.CurrentStep); err != nil {
		return err
	}
	if state.CurrentStep == user.StepPhoto {
		return b.askPhoto(userID)
	}
	sess := newSession(state)
	b.sessions.put(userID, sess)
	return b.ask(userID, sess)
}

// session возвращает черновик текущего шага, создавая его при смене шага
func (b *ParrainageBot) session(state *user.State) *session {
	if sess, ok := b.sessions.get(state.UserID); ok && sess.step == state.CurrentStep {
		return sess
	}
	sess := newSession(state)
	b.sessions.put(state.UserID, sess)
	return sess
}

// ask отправляет текущий вопрос черновика
func (b *ParrainageBot) ask(userID int64, sess *session) error {
	q, ok := sess.current()
	if !ok {
		return nil
	}
	message := tgbotapi.NewMessage(userID, questionText(q, sess.values))
	if keyboard := questionKeyboard(q, sess.values, sess.step > user.StepIdentity); keyboard != nil {
		message.ReplyMarkup = *keyboard
	}
	_, err := b.api.Send(message)
	return err
}

func (b *ParrainageBot) askPhoto(userID int64) error {
	limit := b.controller.PhotoPolicy().Limit()
	message := tgbotapi.NewMessage(userID, fmt.Sprintf(photoPrompt, limit/(1024*1024)))
	message.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅ Précédent", callbackData(cbNav, navBack, "")),
		),
	)
	_, err := b.api.Send(message)
	return err
}

func (b *ParrainageBot) sendStepHeader(userID int64, step user.Step) error {
	info := wizard.Info(step)
	return b.send(userID, fmt.Sprintf("%s\n%s - %s", wizard.Progress(step), info.Title, info.Description))
}

// handlePhoto принимает фотографию последнего шага и отправляет анкету
func (b *ParrainageBot) handlePhoto(ctx context.Context, userID int64, msg *tgbotapi.Message) error {
	upload, err := b.fetchPhoto(ctx, msg)
	if errors.Is(err, errNoPhoto) {
		return b.askPhoto(userID)
	}
	if fe, ok := registration.AsFieldErrors(err); ok {
		return b.send(userID, formatFieldErrors(fe))
	}
	if err != nil {
		b.log.Error().Err(err).Int64("user_id", userID).Msg("Ошибка при загрузке файла фотографии")
		return b.send(userID, "Impossible de récupérer votre photo. Veuillez la renvoyer.")
	}

	if err := b.send(userID, "Envoi en cours..."); err != nil {
		return err
	}
	res, err := b.controller.Submit(ctx, userID, upload)
	return b.afterSubmit(userID, res, err)
}

// afterSubmit показывает итог отправки
func (b *ParrainageBot) afterSubmit(userID int64, res *wizard.Result, err error) error {
	var submitErr *wizard.SubmitError
	switch {
	case err == nil:
		b.sessions.drop(userID)
		if res.Route == wizard.RouteSuccess {
			return b.ShowSuccess(userID)
		}
		return b.StartWizard(userID)
	case errors.As(err, &submitErr):
		// Уведомление об ошибке уже отправлено, предлагаем повтор
		message := tgbotapi.NewMessage(userID, "Vos réponses sont conservées. Vous pouvez réessayer l'envoi.")
		message.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Réessayer", callbackData(cbNav, navRetry, "")),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("⬅ Précédent", callbackData(cbNav, navBack, "")),
			),
		)
		_, err := b.api.Send(message)
		return err
	case errors.Is(err, wizard.ErrSubmissionInProgress):
		return b.send(userID, "Envoi en cours, merci de patienter.")
	}

	if fe, ok := registration.AsFieldErrors(err); ok {
		if err := b.send(userID, formatFieldErrors(fe)); err != nil {
			return err
		}
		return b.askPhoto(userID)
	}
	return err
}

// welcomeNewUser отправляет приветственное сообщение в личку пользователю и, если невозможно, то приветствует его в группе без инлайн клавиатуры.
func (b *ParrainageBot) welcomeNewUser(newUser tgbotapi.User, chatID int64) error {
	name := newUser.UserName
	if name == "" {
		name = newUser.FirstName
	}

	message := tgbotapi.NewMessage(int64(newUser.ID), fmt.Sprintf(welcomePrivate, name))
	message.ReplyMarkup = menuKeyboard()
	if _, err := b.api.Send(message); err != nil {
		// Если не удалось отправить в личку, отправляем только приветствие в группу
		if err := b.send(chatID, fmt.Sprintf(welcomeGroup, name)); err != nil {
			return err
		}
	}
	return nil
}

// sendUnknownCommandMessage отправляет сообщение о неизвестной команде и инлайн клавиатуру.
func (b *ParrainageBot) sendUnknownCommandMessage(chatID int64) error {
	message := tgbotapi.NewMessage(chatID, "Commande inconnue. Que souhaitez-vous faire ?")
	message.ReplyMarkup = menuKeyboard()
	_, err := b.api.Send(message)
	return err
}

func (b *ParrainageBot) send(chatID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func menuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Informations", "/info"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Commencer l'inscription", "/start"),
		),
	)
}

// formatFieldErrors собирает сообщения об ошибках в один текст
func formatFieldErrors(fe registration.FieldErrors) string {
	var b strings.Builder
	b.WriteString("Certaines réponses sont à corriger :")
	for _, field := range fe.Fields() {
		fmt.Fprintf(&b, "\n• %s", fe.Message(field))
	}
	return b.String()
}
