package registration

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError - нарушение одного правила одним полем
type FieldError struct {
	Field   string // Имя поля, как в API (json)
	Rule    string // Нарушенное правило: required, min, max, email, enum...
	Message string // Сообщение для пользователя
}

// FieldErrors - результат неудачной проверки группы полей
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields возвращает имена полей с ошибками без повторов, в порядке проверки
func (e FieldErrors) Fields() []string {
	seen := make(map[string]bool, len(e))
	var fields []string
	for _, fe := range e {
		if !seen[fe.Field] {
			seen[fe.Field] = true
			fields = append(fields, fe.Field)
		}
	}
	return fields
}

// Has сообщает, есть ли ошибка у поля
func (e FieldErrors) Has(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Message возвращает первое сообщение для поля
func (e FieldErrors) Message(field string) string {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

// AsFieldErrors достаёт FieldErrors из цепочки ошибок
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// Теги для закрытых перечислений
var enumTags = map[string][]Option{
	"hobby":               HobbyOptions,
	"personnalite":        PersonaliteOptions,
	"specialisation":      SpecialisationOptions,
	"objectif":            ObjectifOptions,
	"style_apprentissage": StyleApprentissageOptions,
	"niveau_technique":    NiveauTechniqueOptions,
	"participation_asso":  ParticipationAssoOptions,
	"genre_parrain":       GenreParrainOptions,
	"type_relation":       TypeRelationOptions,
	"frequence_contact":   FrequenceContactOptions,
	"mode_communication":  ModeCommunicationOptions,
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// В ошибках используем имена полей из json-тегов
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	for tag, options := range enumTags {
		allowed := valueSet(options)
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			_, ok := allowed[fl.Field().String()]
			return ok
		}); err != nil {
			panic(fmt.Sprintf("registration: register %s: %v", tag, err))
		}
	}
	return v
}

// Сообщения об ошибках: поле -> правило -> текст
var messages = map[string]map[string]string{
	FieldNom: {
		"required": "Le nom est requis.",
		"min":      "Le nom doit faire au moins 2 caractères.",
	},
	FieldPrenoms: {
		"required": "Le prénom est requis.",
		"min":      "Le prénom doit faire au moins 2 caractères.",
	},
	FieldAge: {
		"required": "L'âge est requis.",
		"type":     "L'âge doit être un nombre.",
		"gte":      fmt.Sprintf("Vous devez avoir au moins %d ans.", MinAge),
		"lte":      fmt.Sprintf("Vous ne pouvez pas avoir plus de %d ans.", MaxAge),
	},
	FieldAnnee: {
		"eq": "Seule l'année L1 est acceptée.",
	},
	FieldEmail: {
		"required": "L'email est requis.",
		"email":    "Veuillez saisir une adresse email valide.",
	},
	FieldTelephone: {
		"required": "Le numéro de téléphone est requis.",
		"len":      "Le numéro de téléphone doit contenir 10 chiffres.",
		"number":   "Le numéro de téléphone doit contenir 10 chiffres.",
	},
	FieldHobbies: {
		"required": "Sélectionnez au moins un centre d'intérêt",
		"min":      "Sélectionnez au moins un centre d'intérêt",
	},
	FieldSpecialisation: {
		"required": "Sélectionnez au moins un domaine",
		"min":      "Sélectionnez au moins un domaine",
	},
	FieldObjectifs: {
		"required": "Sélectionnez au moins un objectif",
		"min":      "Sélectionnez au moins un objectif",
	},
	FieldAttentes: {
		"required": "Décrivez vos attentes (minimum 20 caractères)",
		"min":      "Décrivez vos attentes (minimum 20 caractères)",
		"max":      "Maximum 300 caractères",
	},
	FieldCommentaires: {
		"max": "Maximum 200 caractères",
	},
	FieldAccepteConditions: {
		"type": "Vous devez accepter les conditions pour continuer",
		"eq":   "Vous devez accepter les conditions pour continuer",
	},
	FieldPhoto: {
		"required": "Veuillez sélectionner un fichier.",
		"size":     "Le fichier ne doit pas dépasser %d Mo.",
		"type":     "Le format du fichier doit être JPG, JPEG ou PNG.",
	},
}

func messageFor(field, rule string) string {
	if m, ok := messages[field][rule]; ok {
		return m
	}
	if _, ok := enumTags[rule]; ok {
		return "Valeur non autorisée."
	}
	if rule == "required" {
		return "Ce champ est requis."
	}
	return "Valeur invalide."
}

// check прогоняет структуру через валидатор и переводит ошибки в FieldErrors.
// Ошибки разбора (pre) идут первыми, поля с ошибкой разбора повторно не проверяются.
func check(s interface{}, pre FieldErrors) error {
	errs := append(FieldErrors(nil), pre...)

	err := validate.Struct(s)
	var verrs validator.ValidationErrors
	switch {
	case err == nil:
	case errors.As(err, &verrs):
		for _, ve := range verrs {
			field := ve.Field()
			// hobbies[2] -> hobbies
			if i := strings.IndexByte(field, '['); i >= 0 {
				field = field[:i]
			}
			if pre.Has(field) || errs.Has(field) {
				continue
			}
			errs = append(errs, FieldError{Field: field, Rule: ve.Tag(), Message: messageFor(field, ve.Tag())})
		}
	default:
		return fmt.Errorf("validate %T: %w", s, err)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
