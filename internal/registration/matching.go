package registration

import (
	"net/url"
	"strings"
)

const (
	FieldHobbies            = "hobbies"
	FieldPersonnalite       = "personnalite"
	FieldSpecialisation     = "specialisationInteresse"
	FieldObjectifs          = "objectifsEtudes"
	FieldStyleApprentissage = "styleApprentissage"
	FieldNiveauTechnique    = "niveauTechnique"
	FieldParticipationAsso  = "participationAsso"
	FieldAttentes           = "attentesParrainage"
)

// Границы текста ожиданий, в символах
const (
	MinAttentesLen = 20
	MaxAttentesLen = 300
)

// Matching - шаг 2: интересы для подбора пары
type Matching struct {
	Hobbies            []string `json:"hobbies" validate:"required,min=1,dive,hobby"`
	Personnalite       string   `json:"personnalite" validate:"required,personnalite"`
	Specialisation     []string `json:"specialisationInteresse" validate:"required,min=1,dive,specialisation"`
	Objectifs          []string `json:"objectifsEtudes" validate:"required,min=1,dive,objectif"`
	StyleApprentissage string   `json:"styleApprentissage" validate:"required,style_apprentissage"`
	NiveauTechnique    string   `json:"niveauTechnique" validate:"required,niveau_technique"`
	ParticipationAsso  string   `json:"participationAsso" validate:"required,participation_asso"`
	Attentes           string   `json:"attentesParrainage" validate:"required,min=20,max=300"`
}

// DecodeMatching разбирает ответы шага и проверяет их.
// Множественный выбор приходит повторяющимися ключами, повторы отбрасываются.
func DecodeMatching(values url.Values) (Matching, error) {
	m := Matching{
		Hobbies:            distinct(values[FieldHobbies]),
		Personnalite:       strings.TrimSpace(values.Get(FieldPersonnalite)),
		Specialisation:     distinct(values[FieldSpecialisation]),
		Objectifs:          distinct(values[FieldObjectifs]),
		StyleApprentissage: strings.TrimSpace(values.Get(FieldStyleApprentissage)),
		NiveauTechnique:    strings.TrimSpace(values.Get(FieldNiveauTechnique)),
		ParticipationAsso:  strings.TrimSpace(values.Get(FieldParticipationAsso)),
		Attentes:           strings.TrimSpace(values.Get(FieldAttentes)),
	}
	if err := check(m, nil); err != nil {
		return Matching{}, err
	}
	return m, nil
}

// Validate проверяет уже собранную группу
func (m Matching) Validate() error {
	return check(m, nil)
}

// Values возвращает группу в виде ответов формы
func (m Matching) Values() url.Values {
	v := url.Values{}
	v[FieldHobbies] = append([]string(nil), m.Hobbies...)
	v.Set(FieldPersonnalite, m.Personnalite)
	v[FieldSpecialisation] = append([]string(nil), m.Specialisation...)
	v[FieldObjectifs] = append([]string(nil), m.Objectifs...)
	v.Set(FieldStyleApprentissage, m.StyleApprentissage)
	v.Set(FieldNiveauTechnique, m.NiveauTechnique)
	v.Set(FieldParticipationAsso, m.ParticipationAsso)
	v.Set(FieldAttentes, m.Attentes)
	return v
}

func distinct(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
