package submission

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t1ery/ParrainageBot/internal/registration"
)

func testSubmission() registration.Submission {
	photo := make([]byte, 4096)
	copy(photo, "\x89PNG\r\n\x1a\n")
	return registration.Submission{
		Identity: registration.Identity{
			Nom: "Kouassi", Prenoms: "Awa", Age: 19, Annee: "L1",
			Email: "awa@example.com", Telephone: "0123456789",
		},
		Matching: registration.Matching{
			Hobbies:            []string{"cuisine", "voyage"},
			Personnalite:       "extraverti",
			Specialisation:     []string{"mobile"},
			Objectifs:          []string{"creation_startup"},
			StyleApprentissage: "groupe_collaboratif",
			NiveauTechnique:    "intermediaire",
			ParticipationAsso:  "tres_actif",
			Attentes:           "Rencontrer quelqu'un de motivé et disponible.",
		},
		Preferences: registration.Preferences{
			GenreParrain:      "homme",
			TypeRelation:      "ami_senior",
			FrequenceContact:  "quotidien",
			ModeCommunication: "appels",
			Commentaires:      "Disponible le soir",
			AccepteConditions: true,
		},
		Photo: registration.Photo{Name: `mon "portrait".png`, ContentType: "image/png", Data: photo},
	}
}

func TestClient_Submit(t *testing.T) {
	var (
		path      string
		requestID string
		accept    string
		fields    map[string][]string
		photo     []byte
		filename  string
		photoType string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		requestID = r.Header.Get("X-Request-ID")
		accept = r.Header.Get("Accept")
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		fields = r.MultipartForm.Value

		f, hdr, err := r.FormFile(registration.FieldPhoto)
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		filename = hdr.Filename
		photoType = hdr.Header.Get("Content-Type")
		photo, _ = io.ReadAll(f)

		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"42","message":"Inscription enregistrée"}`)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/api/", SubmitPath: "submissions"}, zerolog.Nop())
	s := testSubmission()

	receipt, err := c.Submit(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, "/api/submissions", path)
	assert.Equal(t, "application/json", accept)
	_, err = uuid.Parse(requestID)
	assert.NoError(t, err, "X-Request-ID is a UUID")
	assert.Equal(t, requestID, receipt.RequestID)
	assert.Equal(t, "42", receipt.ID)
	assert.Equal(t, "Inscription enregistrée", receipt.Message)

	assert.Equal(t, []string{"Kouassi"}, fields[registration.FieldNom])
	assert.Equal(t, []string{"19"}, fields[registration.FieldAge])
	assert.Equal(t, []string{`["cuisine","voyage"]`}, fields[registration.FieldHobbies])
	assert.Equal(t, []string{"Disponible le soir"}, fields[registration.FieldCommentaires])
	assert.Equal(t, []string{"true"}, fields[registration.FieldAccepteConditions])
	assert.NotContains(t, fields, registration.FieldPhoto)

	assert.Equal(t, s.Photo.Data, photo)
	assert.Equal(t, "image/png", photoType)
	assert.Equal(t, `mon "portrait".png`, filename)
}

func TestClient_SubmitErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"message field", http.StatusConflict, `{"message":"Cet email est déjà inscrit"}`, "Cet email est déjà inscrit"},
		{"error field", http.StatusBadRequest, `{"error":"Photo manquante"}`, "Photo manquante"},
		{"no body", http.StatusInternalServerError, ``, GenericErrorMessage},
		{"html body", http.StatusBadGateway, `<html>bad gateway</html>`, GenericErrorMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			c := NewClient(Config{BaseURL: srv.URL}, zerolog.Nop())
			_, err := c.Submit(context.Background(), testSubmission())

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.message, Message(err))
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(Config{BaseURL: url}, zerolog.Nop())
	_, err := c.Submit(context.Background(), testSubmission())
	require.Error(t, err)
	assert.Equal(t, GenericErrorMessage, Message(err))
}

func TestClient_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(Config{BaseURL: srv.URL}, zerolog.Nop())
	_, err := c.Submit(ctx, testSubmission())
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, GenericErrorMessage, Message(errors.New("boom")))
	assert.Equal(t, GenericErrorMessage, Message(&APIError{StatusCode: 500}))
	assert.Equal(t, "Trop tard", Message(&APIError{StatusCode: 410, Message: "Trop tard"}))
}
