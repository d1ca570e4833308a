package bot

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-telegram-bot-api/telegram-bot-api"

	"github.com/t1ery/ParrainageBot/internal/registration"
	"github.com/t1ery/ParrainageBot/internal/user"
)

// kind - вид вопроса и способ ответа на него
type kind int

const (
	kindText     kind = iota // Свободный текст
	kindChoice               // Один вариант из клавиатуры
	kindMulti                // Несколько вариантов, кнопка "Valider"
	kindConfirm              // Да/нет
	kindOptional             // Текст, который можно пропустить
)

// question - один вопрос шага анкеты
type question struct {
	field   string
	prompt  string
	kind    kind
	options []registration.Option
}

// Вопросы по шагам. Шаг с фотографией вопросов не имеет.
var stepQuestions = map[user.Step][]question{
	user.StepIdentity: {
		{field: registration.FieldNom, prompt: "Quel est votre nom de famille ?", kind: kindText},
		{field: registration.FieldPrenoms, prompt: "Quels sont vos prénoms ?", kind: kindText},
		{field: registration.FieldAge, prompt: "Quel est votre âge ?", kind: kindText},
		{field: registration.FieldEmail, prompt: "Quelle est votre adresse email ? (votre.email@exemple.com)", kind: kindText},
		{field: registration.FieldTelephone, prompt: "Quel est votre numéro de téléphone ? (10 chiffres, ex. 0123456789)", kind: kindText},
	},
	user.StepMatching: {
		{field: registration.FieldHobbies, prompt: "Vos centres d'intérêt (plusieurs choix possibles) :", kind: kindMulti, options: registration.HobbyOptions},
		{field: registration.FieldPersonnalite, prompt: "Votre personnalité :", kind: kindChoice, options: registration.PersonaliteOptions},
		{field: registration.FieldSpecialisation, prompt: "Les domaines de la MIAGE qui vous intéressent :", kind: kindMulti, options: registration.SpecialisationOptions},
		{field: registration.FieldObjectifs, prompt: "Vos objectifs d'études :", kind: kindMulti, options: registration.ObjectifOptions},
		{field: registration.FieldStyleApprentissage, prompt: "Votre style d'apprentissage :", kind: kindChoice, options: registration.StyleApprentissageOptions},
		{field: registration.FieldNiveauTechnique, prompt: "Votre niveau technique actuel :", kind: kindChoice, options: registration.NiveauTechniqueOptions},
		{field: registration.FieldParticipationAsso, prompt: "Votre participation à la vie associative :", kind: kindChoice, options: registration.ParticipationAssoOptions},
		{field: registration.FieldAttentes, prompt: "Qu'attendez-vous du parrainage ? (20 à 300 caractères)", kind: kindText},
	},
	user.StepPreferences: {
		{field: registration.FieldGenreParrain, prompt: "Préférence pour le genre de votre parrain :", kind: kindChoice, options: registration.GenreParrainOptions},
		{field: registration.FieldTypeRelation, prompt: "Type de relation souhaitée :", kind: kindChoice, options: registration.TypeRelationOptions},
		{field: registration.FieldFrequenceContact, prompt: "Fréquence de contact souhaitée :", kind: kindChoice, options: registration.FrequenceContactOptions},
		{field: registration.FieldModeCommunication, prompt: "Mode de communication préféré :", kind: kindChoice, options: registration.ModeCommunicationOptions},
		{field: registration.FieldCommentaires, prompt: "Un commentaire pour les organisateurs ? (facultatif, 200 caractères max)", kind: kindOptional},
		{field: registration.FieldAccepteConditions, prompt: "Acceptez-vous les conditions du programme de parrainage ?", kind: kindConfirm},
	},
}

// photoPrompt - приглашение последнего шага
const photoPrompt = "Envoyez une photo récente et claire de votre visage (JPG, JPEG ou PNG, %d Mo maximum). Elle sera partagée uniquement avec votre parrain."

// Данные кнопок: префикс:поле:значение
const (
	cbAnswer = "a"   // Выбор одного варианта
	cbToggle = "t"   // Переключение варианта множественного выбора
	cbDone   = "d"   // Завершение множественного выбора
	cbKeep   = "k"   // Оставить прежний ответ
	cbSkip   = "s"   // Пропустить необязательный вопрос
	cbNav    = "nav" // Навигация: back, retry, restart
	navBack  = "back"
	navRetry = "retry"
	navReset = "restart"
)

func callbackData(prefix, field, value string) string {
	if value == "" {
		return prefix + ":" + field
	}
	return prefix + ":" + field + ":" + value
}

// parseCallback разбирает данные кнопки
func parseCallback(data string) (prefix, field, value string) {
	parts := strings.SplitN(data, ":", 3)
	switch len(parts) {
	case 3:
		return parts[0], parts[1], parts[2]
	case 2:
		return parts[0], parts[1], ""
	default:
		return parts[0], "", ""
	}
}

// questionText - текст вопроса с прежним ответом, если он есть
func questionText(q question, current url.Values) string {
	var b strings.Builder
	b.WriteString(q.prompt)
	if v := current.Get(q.field); v != "" && (q.kind == kindText || q.kind == kindOptional) {
		fmt.Fprintf(&b, "\n\nRéponse actuelle : %s", v)
	}
	return b.String()
}

// questionKeyboard строит клавиатуру вопроса. Для текстовых вопросов без
// прежнего ответа клавиатуры нет.
func questionKeyboard(q question, current url.Values, canGoBack bool) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	switch q.kind {
	case kindChoice:
		selected := current.Get(q.field)
		for _, o := range q.options {
			label := o.Label
			if o.Description != "" {
				label += " - " + o.Description
			}
			if o.Value == selected {
				label = "✅ " + label
			}
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(label, callbackData(cbAnswer, q.field, o.Value)),
			))
		}
	case kindMulti:
		selected := make(map[string]bool)
		for _, v := range current[q.field] {
			selected[v] = true
		}
		var row []tgbotapi.InlineKeyboardButton
		for _, o := range q.options {
			label := o.Label
			if selected[o.Value] {
				label = "✅ " + label
			}
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, callbackData(cbToggle, q.field, o.Value)))
			if len(row) == 2 {
				rows = append(rows, tgbotapi.NewInlineKeyboardRow(row...))
				row = nil
			}
		}
		if len(row) > 0 {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(row...))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Valider", callbackData(cbDone, q.field, "")),
		))
	case kindConfirm:
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("J'accepte", callbackData(cbAnswer, q.field, "true")),
			tgbotapi.NewInlineKeyboardButtonData("Je refuse", callbackData(cbAnswer, q.field, "false")),
		))
	case kindOptional:
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Passer", callbackData(cbSkip, q.field, "")),
		))
	}

	if (q.kind == kindText || q.kind == kindOptional) && current.Get(q.field) != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Conserver", callbackData(cbKeep, q.field, "")),
		))
	}
	if canGoBack {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅ Précédent", callbackData(cbNav, navBack, "")),
		))
	}

	if len(rows) == 0 {
		return nil
	}
	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &keyboard
}

// findQuestion ищет вопрос шага по полю
func findQuestion(step user.Step, field string) (int, bool) {
	for i, q := range stepQuestions[step] {
		if q.field == field {
			return i, true
		}
	}
	return 0, false
}
