package registration

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Submission - полная анкета, которая уходит в API
type Submission struct {
	Identity
	Matching
	Preferences
	Photo Photo `json:"-"`
}

// Field - текстовое поле multipart-запроса
type Field struct {
	Name  string
	Value string
}

// Compose собирает полную анкету из четырёх групп, повторно проверяя каждую.
// Связей между группами нет, поэтому проверка - это объединение проверок групп.
func Compose(id Identity, m Matching, p Preferences, photo Photo, policy PhotoPolicy) (Submission, error) {
	var errs FieldErrors
	for _, err := range []error{id.Validate(), m.Validate(), p.Validate(), policy.Validate(photo)} {
		if err == nil {
			continue
		}
		fe, ok := AsFieldErrors(err)
		if !ok {
			return Submission{}, err
		}
		errs = append(errs, fe...)
	}
	if len(errs) > 0 {
		return Submission{}, errs
	}
	return Submission{Identity: id, Matching: m, Preferences: p, Photo: photo}, nil
}

// Fields возвращает все поля анкеты, кроме фотографии, в порядке формы.
// Массивы кодируются JSON-строкой.
func (s Submission) Fields() ([]Field, error) {
	arrays := map[string][]string{
		FieldHobbies:        s.Hobbies,
		FieldSpecialisation: s.Specialisation,
		FieldObjectifs:      s.Objectifs,
	}
	encoded := make(map[string]string, len(arrays))
	for name, values := range arrays {
		if values == nil {
			values = []string{}
		}
		data, err := json.Marshal(values)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}
		encoded[name] = string(data)
	}

	fields := []Field{
		{FieldNom, s.Nom},
		{FieldPrenoms, s.Prenoms},
		{FieldAge, strconv.Itoa(s.Age)},
		{FieldAnnee, s.Annee},
		{FieldEmail, s.Email},
		{FieldTelephone, s.Telephone},
		{FieldHobbies, encoded[FieldHobbies]},
		{FieldPersonnalite, s.Personnalite},
		{FieldSpecialisation, encoded[FieldSpecialisation]},
		{FieldObjectifs, encoded[FieldObjectifs]},
		{FieldStyleApprentissage, s.StyleApprentissage},
		{FieldNiveauTechnique, s.NiveauTechnique},
		{FieldParticipationAsso, s.ParticipationAsso},
		{FieldAttentes, s.Attentes},
		{FieldGenreParrain, s.GenreParrain},
		{FieldTypeRelation, s.TypeRelation},
		{FieldFrequenceContact, s.FrequenceContact},
		{FieldModeCommunication, s.ModeCommunication},
	}
	if s.Commentaires != "" {
		fields = append(fields, Field{FieldCommentaires, s.Commentaires})
	}
	fields = append(fields, Field{FieldAccepteConditions, strconv.FormatBool(s.AccepteConditions)})
	return fields, nil
}

// ErrIncomplete - в анкете не хватает группы
var ErrIncomplete = errors.New("registration is incomplete")
