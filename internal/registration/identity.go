package registration

import (
	"net/url"
	"strconv"
	"strings"
)

// Имена полей, как их ожидает API
const (
	FieldNom       = "nom"
	FieldPrenoms   = "prenoms"
	FieldAge       = "age"
	FieldAnnee     = "annee"
	FieldEmail     = "email"
	FieldTelephone = "telephone"
)

// Границы возраста (включительно)
const (
	MinAge = 14
	MaxAge = 25
)

// CohortL1 - единственная принимаемая промо
const CohortL1 = "L1"

// Identity - шаг 1: личные данные
type Identity struct {
	Nom       string `json:"nom" validate:"required,min=2"`
	Prenoms   string `json:"prenoms" validate:"required,min=2"`
	Age       int    `json:"age" validate:"required,gte=14,lte=25"`
	Annee     string `json:"annee" validate:"eq=L1"`
	Email     string `json:"email" validate:"required,email"`
	Telephone string `json:"telephone" validate:"required,len=10,number"`
}

// DecodeIdentity разбирает ответы шага и проверяет их.
// Пустая annee подставляется значением по умолчанию.
func DecodeIdentity(values url.Values) (Identity, error) {
	var pre FieldErrors

	id := Identity{
		Nom:       strings.TrimSpace(values.Get(FieldNom)),
		Prenoms:   strings.TrimSpace(values.Get(FieldPrenoms)),
		Annee:     strings.TrimSpace(values.Get(FieldAnnee)),
		Email:     strings.TrimSpace(values.Get(FieldEmail)),
		Telephone: strings.TrimSpace(values.Get(FieldTelephone)),
	}
	if id.Annee == "" {
		id.Annee = CohortL1
	}

	rawAge := strings.TrimSpace(values.Get(FieldAge))
	switch age, err := strconv.Atoi(rawAge); {
	case rawAge == "":
		pre = append(pre, FieldError{Field: FieldAge, Rule: "required", Message: messageFor(FieldAge, "required")})
	case err != nil:
		pre = append(pre, FieldError{Field: FieldAge, Rule: "type", Message: messageFor(FieldAge, "type")})
	default:
		id.Age = age
	}

	if err := check(id, pre); err != nil {
		return Identity{}, err
	}
	return id, nil
}

// Validate проверяет уже собранную группу
func (id Identity) Validate() error {
	return check(id, nil)
}

// Values возвращает группу в виде ответов формы
func (id Identity) Values() url.Values {
	v := url.Values{}
	v.Set(FieldNom, id.Nom)
	v.Set(FieldPrenoms, id.Prenoms)
	v.Set(FieldAge, strconv.Itoa(id.Age))
	v.Set(FieldAnnee, id.Annee)
	v.Set(FieldEmail, id.Email)
	v.Set(FieldTelephone, id.Telephone)
	return v
}
