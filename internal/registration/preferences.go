package registration

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	FieldGenreParrain      = "genreParrain"
	FieldTypeRelation      = "typeRelation"
	FieldFrequenceContact  = "frequenceContact"
	FieldModeCommunication = "modeCommunication"
	FieldCommentaires      = "commentaires"
	FieldAccepteConditions = "accepteConditions"
)

// MaxCommentairesLen - предел необязательного комментария, в символах
const MaxCommentairesLen = 200

// Preferences - шаг 3: пожелания к наставнику
type Preferences struct {
	GenreParrain      string `json:"genreParrain" validate:"required,genre_parrain"`
	TypeRelation      string `json:"typeRelation" validate:"required,type_relation"`
	FrequenceContact  string `json:"frequenceContact" validate:"required,frequence_contact"`
	ModeCommunication string `json:"modeCommunication" validate:"required,mode_communication"`
	Commentaires      string `json:"commentaires,omitempty" validate:"omitempty,max=200"`
	AccepteConditions bool   `json:"accepteConditions" validate:"eq=true"`
}

// DecodePreferences разбирает ответы шага и проверяет их
func DecodePreferences(values url.Values) (Preferences, error) {
	var pre FieldErrors

	p := Preferences{
		GenreParrain:      strings.TrimSpace(values.Get(FieldGenreParrain)),
		TypeRelation:      strings.TrimSpace(values.Get(FieldTypeRelation)),
		FrequenceContact:  strings.TrimSpace(values.Get(FieldFrequenceContact)),
		ModeCommunication: strings.TrimSpace(values.Get(FieldModeCommunication)),
		Commentaires:      strings.TrimSpace(values.Get(FieldCommentaires)),
	}

	// Отсутствие согласия - такая же ошибка, как отказ
	if raw := strings.TrimSpace(values.Get(FieldAccepteConditions)); raw != "" {
		accepted, err := strconv.ParseBool(raw)
		if err != nil {
			pre = append(pre, FieldError{Field: FieldAccepteConditions, Rule: "type", Message: messageFor(FieldAccepteConditions, "type")})
		}
		p.AccepteConditions = accepted
	}

	if err := check(p, pre); err != nil {
		return Preferences{}, err
	}
	return p, nil
}

// Validate проверяет уже собранную группу
func (p Preferences) Validate() error {
	return check(p, nil)
}

// Values возвращает группу в виде ответов формы
func (p Preferences) Values() url.Values {
	v := url.Values{}
	v.Set(FieldGenreParrain, p.GenreParrain)
	v.Set(FieldTypeRelation, p.TypeRelation)
	v.Set(FieldFrequenceContact, p.FrequenceContact)
	v.Set(FieldModeCommunication, p.ModeCommunication)
	if p.Commentaires != "" {
		v.Set(FieldCommentaires, p.Commentaires)
	}
	v.Set(FieldAccepteConditions, strconv.FormatBool(p.AccepteConditions))
	return v
}
