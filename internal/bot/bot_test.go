package bot

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t1ery/ParrainageBot/internal/registration"
	"github.com/t1ery/ParrainageBot/internal/storage"
	"github.com/t1ery/ParrainageBot/internal/submission"
	"github.com/t1ery/ParrainageBot/internal/user"
	"github.com/t1ery/ParrainageBot/internal/wizard"
)

const chatUser = 777

type fakeAPI struct {
	mu        sync.Mutex
	sent      []tgbotapi.Chattable
	answered  []string
	fileURL   string
	fileCalls int
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) AnswerCallbackQuery(config tgbotapi.CallbackConfig) (tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answered = append(f.answered, config.CallbackQueryID)
	return tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetFileDirectURL(fileID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fileCalls++
	return f.fileURL + "/" + fileID, nil
}

// texts возвращает тексты отправленных сообщений
func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeAPI) lastText() string {
	texts := f.texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

func (f *fakeAPI) lastMessage() tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if m, ok := f.sent[i].(tgbotapi.MessageConfig); ok {
			return m
		}
	}
	return tgbotapi.MessageConfig{}
}

type fakeSubmitter struct {
	mu    sync.Mutex
	err   error
	calls []registration.Submission
}

func (s *fakeSubmitter) Submit(_ context.Context, sub registration.Submission) (*submission.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, sub)
	if s.err != nil {
		return nil, s.err
	}
	return &submission.Receipt{ID: "1"}, nil
}

type harness struct {
	api        *fakeAPI
	bot        *ParrainageBot
	controller *wizard.Controller
	submitter  *fakeSubmitter
	photo      []byte
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	photo := make([]byte, 64*1024)
	copy(photo, []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00})
	files := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(photo)
	}))
	t.Cleanup(files.Close)

	api := &fakeAPI{fileURL: files.URL}
	sub := &fakeSubmitter{}
	store := wizard.NewStore(storage.NewMemoryStorage(), zerolog.Nop())
	controller := wizard.NewController(store, sub, newNotifier(api, zerolog.Nop()), zerolog.Nop())

	return &harness{
		api:        api,
		bot:        newBot(api, controller, zerolog.Nop()),
		controller: controller,
		submitter:  sub,
		photo:      photo,
	}
}

func (h *harness) command(cmd string) {
	entities := []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	h.bot.HandleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		From:     &tgbotapi.User{ID: chatUser},
		Chat:     &tgbotapi.Chat{ID: chatUser, Type: "private"},
		Text:     cmd,
		Entities: &entities,
	}})
}

func (h *harness) text(s string) {
	h.bot.HandleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: chatUser},
		Chat: &tgbotapi.Chat{ID: chatUser, Type: "private"},
		Text: s,
	}})
}

func (h *harness) press(data string) {
	h.bot.HandleUpdate(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb-" + data,
		From: &tgbotapi.User{ID: chatUser},
		Message: &tgbotapi.Message{
			MessageID: 10,
			Chat:      &tgbotapi.Chat{ID: chatUser, Type: "private"},
		},
		Data: data,
	}})
}

func (h *harness) sendPhoto() {
	sizes := []tgbotapi.PhotoSize{
		{FileID: "small", Width: 90, Height: 90, FileSize: 1024},
		{FileID: "large", Width: 800, Height: 800, FileSize: len(h.photo)},
	}
	h.bot.HandleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		From:  &tgbotapi.User{ID: chatUser},
		Chat:  &tgbotapi.Chat{ID: chatUser, Type: "private"},
		Photo: &sizes,
	}})
}

func (h *harness) step(t *testing.T) user.Step {
	t.Helper()
	state, err := h.controller.State(chatUser)
	require.NoError(t, err)
	return state.CurrentStep
}

func (h *harness) fillIdentity() {
	h.command("/start")
	for _, answer := range []string{"Kouassi", "Awa", "18", "awa@example.com", "0123456789"} {
		h.text(answer)
	}
}

func (h *harness) fillMatching() {
	h.press("t:hobbies:musique")
	h.press("t:hobbies:lecture")
	h.press("d:hobbies")
	h.press("a:personnalite:introverti")
	h.press("t:specialisationInteresse:ia")
	h.press("d:specialisationInteresse")
	h.press("t:objectifsEtudes:projet_perso")
	h.press("d:objectifsEtudes")
	h.press("a:styleApprentissage:individuel_autonome")
	h.press("a:niveauTechnique:debutant")
	h.press("a:participationAsso:observateur")
	h.text("Avoir des conseils pour bien démarrer.")
}

func (h *harness) fillPreferences() {
	h.press("a:genreParrain:femme")
	h.press("a:typeRelation:guide_social")
	h.press("a:frequenceContact:selon_besoins")
	h.press("a:modeCommunication:mixte")
	h.press("s:commentaires")
	h.press("a:accepteConditions:true")
}

func TestBot_FullRegistration(t *testing.T) {
	h := newHarness(t)

	h.command("/start")
	texts := h.api.texts()
	require.Len(t, texts, 2)
	assert.True(t, strings.HasPrefix(texts[0], "Étape 1 sur 4 (25%)"))
	assert.Equal(t, "Quel est votre nom de famille ?", texts[1])

	for _, answer := range []string{"Kouassi", "Awa", "18", "awa@example.com", "0123456789"} {
		h.text(answer)
	}
	assert.Equal(t, user.StepMatching, h.step(t))
	assert.Contains(t, h.api.texts(), "✅ Informations personnelles enregistrées !")

	h.fillMatching()
	assert.Equal(t, user.StepPreferences, h.step(t))

	h.fillPreferences()
	assert.Equal(t, user.StepPhoto, h.step(t))
	assert.Contains(t, h.api.lastText(), "10 Mo maximum")

	h.sendPhoto()
	require.Len(t, h.submitter.calls, 1)
	sent := h.submitter.calls[0]
	assert.Equal(t, "Kouassi", sent.Nom)
	assert.Equal(t, []string{"musique", "lecture"}, sent.Hobbies)
	assert.Empty(t, sent.Commentaires)
	assert.True(t, sent.AccepteConditions)
	assert.Equal(t, h.photo, sent.Photo.Data)
	assert.Equal(t, 1, h.api.fileCalls)

	assert.Equal(t, successText, h.api.lastText())
	assert.Equal(t, user.StepIdentity, h.step(t))
}

func TestBot_InvalidAnswerIsAskedAgain(t *testing.T) {
	h := newHarness(t)
	h.command("/start")
	for _, answer := range []string{"Kouassi", "Awa", "13", "awa@example.com", "0123456789"} {
		h.text(answer)
	}

	assert.Equal(t, user.StepIdentity, h.step(t))
	texts := h.api.texts()
	require.GreaterOrEqual(t, len(texts), 2)
	assert.Contains(t, texts[len(texts)-2], "Vous devez avoir au moins 14 ans.")
	assert.True(t, strings.HasPrefix(h.api.lastText(), "Quel est votre âge ?"))

	h.text("18")
	assert.Equal(t, user.StepMatching, h.step(t))
}

func TestBot_ChoiceNeedsButton(t *testing.T) {
	h := newHarness(t)
	h.fillIdentity()
	require.Equal(t, user.StepMatching, h.step(t))

	h.text("football")
	assert.Contains(t, h.api.texts(), "Choisissez une option à l'aide des boutons.")

	// Кнопка от чужого вопроса игнорируется
	before := len(h.api.texts())
	h.press("a:personnalite:introverti")
	assert.Len(t, h.api.texts(), before)
}

func TestBot_ToggleEditsKeyboard(t *testing.T) {
	h := newHarness(t)
	h.fillIdentity()

	h.press("t:hobbies:gaming")
	h.api.mu.Lock()
	last := h.api.sent[len(h.api.sent)-1]
	h.api.mu.Unlock()

	edit, ok := last.(tgbotapi.EditMessageReplyMarkupConfig)
	require.True(t, ok)
	require.NotNil(t, edit.ReplyMarkup)
	assert.Equal(t, "✅ Gaming", findButton(*edit.ReplyMarkup, "t:hobbies:gaming"))

	h.press("t:hobbies:gaming")
	h.press("d:hobbies")
	assert.Contains(t, h.api.texts(), "Sélectionnez au moins une option.")
	assert.True(t, strings.HasPrefix(h.api.lastText(), "Vos centres d'intérêt"))
}

func TestBot_BackKeepsAnswers(t *testing.T) {
	h := newHarness(t)
	h.fillIdentity()
	require.Equal(t, user.StepMatching, h.step(t))

	h.press("nav:back")
	assert.Equal(t, user.StepIdentity, h.step(t))
	assert.Contains(t, h.api.lastText(), "Réponse actuelle : Kouassi")

	markup, ok := h.api.lastMessage().ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, "Conserver", findButton(markup, "k:nom"))

	for i := 0; i < 5; i++ {
		h.press("k:" + stepQuestions[user.StepIdentity][i].field)
	}
	assert.Equal(t, user.StepMatching, h.step(t))
}

func TestBot_SubmitFailureOffersRetry(t *testing.T) {
	h := newHarness(t)
	h.submitter.err = &submission.APIError{StatusCode: 409, Message: "Cet email est déjà inscrit"}

	h.fillIdentity()
	h.fillMatching()
	h.fillPreferences()
	h.sendPhoto()

	assert.Contains(t, h.api.texts(), "❌ Cet email est déjà inscrit")
	markup, ok := h.api.lastMessage().ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, "Réessayer", findButton(markup, "nav:retry"))
	assert.Equal(t, user.StepPhoto, h.step(t))

	h.submitter.err = nil
	h.press("nav:retry")
	assert.Equal(t, successText, h.api.lastText())
	assert.Len(t, h.submitter.calls, 2)
	assert.Equal(t, 1, h.api.fileCalls, "retry reuses the stored photo")
}

func TestBot_OversizedDocumentRejected(t *testing.T) {
	h := newHarness(t)
	h.fillIdentity()
	h.fillMatching()
	h.fillPreferences()

	h.bot.HandleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: chatUser},
		Chat: &tgbotapi.Chat{ID: chatUser, Type: "private"},
		Document: &tgbotapi.Document{
			FileID:   "huge",
			FileName: "scan.png",
			MimeType: "image/png",
			FileSize: registration.MaxPhotoSize + 1,
		},
	}})

	assert.Contains(t, h.api.lastText(), "Le fichier ne doit pas dépasser 10 Mo.")
	assert.Zero(t, h.api.fileCalls)
	assert.Empty(t, h.submitter.calls)
}

func TestBot_SuccessGuard(t *testing.T) {
	h := newHarness(t)

	h.command("/success")
	assert.NotEqual(t, successText, h.api.lastText())
	assert.Equal(t, "Quel est votre nom de famille ?", h.api.lastText())
}

func TestBot_Restart(t *testing.T) {
	h := newHarness(t)
	h.fillIdentity()
	require.Equal(t, user.StepMatching, h.step(t))

	h.command("/restart")
	assert.Equal(t, user.StepIdentity, h.step(t))
	assert.Contains(t, h.api.texts(), "Votre inscription a été réinitialisée.")

	state, err := h.controller.State(chatUser)
	require.NoError(t, err)
	assert.Nil(t, state.FormData.Identity)
}

func TestBot_Commands(t *testing.T) {
	h := newHarness(t)

	h.command("/info")
	assert.Equal(t, projectInfo, h.api.lastText())

	h.command("/unknown")
	assert.Equal(t, "Commande inconnue. Que souhaitez-vous faire ?", h.api.lastText())

	h.press("/info")
	assert.Equal(t, projectInfo, h.api.lastText())
	assert.Len(t, h.api.answered, 1)
}

func TestBot_WelcomeNewMember(t *testing.T) {
	h := newHarness(t)
	members := []tgbotapi.User{{ID: 5, UserName: "awa"}}
	h.bot.HandleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:           &tgbotapi.Chat{ID: -100, Type: "group"},
		NewChatMembers: &members,
	}})

	msg := h.api.lastMessage()
	assert.Equal(t, int64(5), msg.ChatID)
	assert.Contains(t, msg.Text, "@awa")
}

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data                 string
		prefix, field, value string
	}{
		{"a:objectifsEtudes:bouger ailleurs", "a", "objectifsEtudes", "bouger ailleurs"},
		{"nav:back", "nav", "back", ""},
		{"/info", "/info", "", ""},
	}
	for _, tt := range tests {
		prefix, field, value := parseCallback(tt.data)
		assert.Equal(t, tt.prefix, prefix, tt.data)
		assert.Equal(t, tt.field, field, tt.data)
		assert.Equal(t, tt.value, value, tt.data)
	}

	for step, questions := range stepQuestions {
		for _, q := range questions {
			for _, o := range q.options {
				assert.LessOrEqual(t, len(callbackData(cbToggle, q.field, o.Value)), 64, "%s: %s", step, o.Value)
			}
		}
	}
}

func TestFormatFieldErrors(t *testing.T) {
	fe := registration.FieldErrors{
		{Field: "age", Rule: "gte", Message: "trop jeune"},
		{Field: "email", Rule: "email", Message: "email invalide"},
	}
	assert.Equal(t, "Certaines réponses sont à corriger :\n• trop jeune\n• email invalide", formatFieldErrors(fe))

	_, ok := registration.AsFieldErrors(errors.New("plain"))
	assert.False(t, ok)
}

func findButton(markup tgbotapi.InlineKeyboardMarkup, data string) string {
	for _, row := range markup.InlineKeyboard {
		for _, b := range row {
			if b.CallbackData != nil && *b.CallbackData == data {
				return b.Text
			}
		}
	}
	return ""
}
