package registration

// Option - допустимое значение поля с выбором и его подпись для пользователя
type Option struct {
	Value       string
	Label       string
	Description string
}

// Закрытые перечисления анкеты. Значения совпадают с тем, что ожидает API.
var (
	HobbyOptions = []Option{
		{Value: "sport", Label: "Sport général"},
		{Value: "football", Label: "Football"},
		{Value: "basketball", Label: "Basketball"},
		{Value: "tennis", Label: "Tennis"},
		{Value: "musique", Label: "Musique"},
		{Value: "lecture", Label: "Lecture"},
		{Value: "gaming", Label: "Gaming"},
		{Value: "cinema", Label: "Cinéma"},
		{Value: "technologie", Label: "Technologie"},
		{Value: "programmation", Label: "Programmation"},
		{Value: "design", Label: "Design"},
		{Value: "entrepreneuriat", Label: "Entrepreneuriat"},
		{Value: "voyage", Label: "Voyage"},
		{Value: "cuisine", Label: "Cuisine"},
	}

	PersonaliteOptions = []Option{
		{Value: "extraverti", Label: "Extraverti(e)"},
		{Value: "introverti", Label: "Introverti(e)"},
		{Value: "equilibre", Label: "Équilibré(e)"},
	}

	SpecialisationOptions = []Option{
		{Value: "developpement_web", Label: "Développement Web"},
		{Value: "mobile", Label: "Développement Mobile"},
		{Value: "data_science", Label: "Data Science"},
		{Value: "cybersecurite", Label: "Cybersécurité"},
		{Value: "ia", Label: "Intelligence Artificielle"},
		{Value: "gestion_projet", Label: "Gestion de Projet"},
		{Value: "systemes_information", Label: "Systèmes d'Information"},
		{Value: "reseaux", Label: "Réseaux"},
	}

	ObjectifOptions = []Option{
		{Value: "avoir_mention", Label: "Obtenir une mention"},
		{Value: "faire_stage_entreprise", Label: "Faire un stage en entreprise"},
		{Value: "projet_perso", Label: "Développer un projet personnel"},
		{Value: "bouger ailleurs", Label: "Partir étudier ailleurs"},
		{Value: "creation_startup", Label: "Créer une startup"},
		{Value: "certification_tech", Label: "Obtenir des certifications tech"},
		{Value: "competition_programmation", Label: "Participer à des compétitions"},
	}

	StyleApprentissageOptions = []Option{
		{Value: "pratique_hands_on", Label: "Pratique/Hands-on"},
		{Value: "theorique_conceptuel", Label: "Théorique/Conceptuel"},
		{Value: "groupe_collaboratif", Label: "En groupe/Collaboratif"},
		{Value: "individuel_autonome", Label: "Individuel/Autonome"},
	}

	NiveauTechniqueOptions = []Option{
		{Value: "debutant", Label: "Débutant"},
		{Value: "quelques_bases", Label: "Quelques bases"},
		{Value: "intermediaire", Label: "Intermédiaire"},
		{Value: "avance", Label: "Avancé"},
	}

	ParticipationAssoOptions = []Option{
		{Value: "tres_actif", Label: "Très actif"},
		{Value: "occasionnel", Label: "Occasionnel"},
		{Value: "observateur", Label: "Observateur"},
		{Value: "pas_interesse", Label: "Pas intéressé"},
	}

	GenreParrainOptions = []Option{
		{Value: "homme", Label: "Homme"},
		{Value: "femme", Label: "Femme"},
		{Value: "peu_importe", Label: "Peu importe"},
	}

	TypeRelationOptions = []Option{
		{Value: "mentor_academique", Label: "Mentor académique", Description: "Aide pour les cours et études"},
		{Value: "guide_social", Label: "Guide social", Description: "Intégration et événements"},
		{Value: "conseiller_carriere", Label: "Conseiller carrière", Description: "Orientation professionnelle"},
		{Value: "ami_senior", Label: "Ami senior", Description: "Relation décontractée"},
	}

	FrequenceContactOptions = []Option{
		{Value: "quotidien", Label: "Quotidien"},
		{Value: "plusieurs_fois_semaine", Label: "Plusieurs fois/semaine"},
		{Value: "hebdomadaire", Label: "Hebdomadaire"},
		{Value: "selon_besoins", Label: "Selon les besoins"},
	}

	ModeCommunicationOptions = []Option{
		{Value: "whatsapp", Label: "WhatsApp"},
		{Value: "rencontre_physique", Label: "Rencontres physiques"},
		{Value: "appels", Label: "Appels téléphoniques"},
		{Value: "mixte", Label: "Mixte (tous les moyens)"},
	}
)

// Label возвращает подпись значения или само значение, если оно не найдено
func Label(options []Option, value string) string {
	for _, o := range options {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}

func valueSet(options []Option) map[string]struct{} {
	set := make(map[string]struct{}, len(options))
	for _, o := range options {
		set[o.Value] = struct{}{}
	}
	return set
}
