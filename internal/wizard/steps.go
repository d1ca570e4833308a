package wizard

import (
	"fmt"

	"github.com/t1ery/ParrainageBot/internal/user"
)

// StepInfo - заголовок шага для экрана
type StepInfo struct {
	Title       string
	Description string
	Saved       string // Уведомление после успешного шага
}

var steps = [user.StepCount]StepInfo{
	{Title: "Informations personnelles", Description: "Vos données de base", Saved: "Informations personnelles enregistrées !"},
	{Title: "Centres d'intérêt", Description: "Pour le matching", Saved: "Centres d'intérêt enregistrés !"},
	{Title: "Préférences", Description: "Type de parrainage", Saved: "Préférences enregistrées !"},
	{Title: "Photo de profil", Description: "Finalisation"},
}

// Info возвращает описание шага
func Info(step user.Step) StepInfo {
	if !step.Valid() {
		return StepInfo{}
	}
	return steps[step]
}

// Progress - строка прогресса: "Étape 2 sur 4 (50%)"
func Progress(step user.Step) string {
	n := int(step) + 1
	return fmt.Sprintf("Étape %d sur %d (%d%%)", n, user.StepCount, n*100/user.StepCount)
}
