package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t1ery/ParrainageBot/internal/registration"
)

func TestStep(t *testing.T) {
	assert.True(t, StepIdentity.Valid())
	assert.True(t, StepPhoto.Valid())
	assert.False(t, Step(-1).Valid())
	assert.False(t, Step(StepCount).Valid())

	for _, s := range []Step{StepIdentity, StepMatching, StepPreferences, StepPhoto} {
		parsed, err := ParseStep(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := ParseStep("submitted")
	assert.ErrorIs(t, err, ErrInvalidStep)
	assert.Equal(t, "step(7)", Step(7).String())
}

func TestFormData_Merge(t *testing.T) {
	id := &registration.Identity{Nom: "Kouassi", Annee: "L1"}
	m := &registration.Matching{Hobbies: []string{"lecture"}}

	f := DefaultFormData().Merge(FormData{Identity: id})
	assert.Equal(t, "L1", f.Annee)
	require.NotNil(t, f.Identity)
	assert.Equal(t, "Kouassi", f.Identity.Nom)

	f = f.Merge(FormData{Matching: m})
	require.NotNil(t, f.Identity, "groups missing from the patch are kept")
	require.NotNil(t, f.Matching)
	assert.Nil(t, f.Preferences)

	// Слияние копирует группу
	id.Nom = "Changed"
	assert.Equal(t, "Kouassi", f.Identity.Nom)

	f = f.Merge(FormData{Identity: &registration.Identity{Nom: "Yao"}})
	assert.Equal(t, "Yao", f.Identity.Nom)
	assert.Equal(t, []string{"lecture"}, f.Matching.Hobbies)
}

func TestState_JSON(t *testing.T) {
	s := NewState(42)
	s.CurrentStep = StepPhoto
	s.FormData.Photo = &registration.Photo{Name: "moi.png", ContentType: "image/png", Data: []byte{1, 2, 3}}

	data, err := s.ToJSON()
	require.NoError(t, err)

	restored, err := FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, int64(42), restored.UserID)
	assert.Equal(t, StepPhoto, restored.CurrentStep)
	assert.Equal(t, "L1", restored.FormData.Annee)
	require.NotNil(t, restored.FormData.Photo)
	assert.Equal(t, []byte{1, 2, 3}, restored.FormData.Photo.Data)

	_, err = FromJSON([]byte("{"))
	assert.Error(t, err)
}
