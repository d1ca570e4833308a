package bot

import (
	"net/url"
)

// Контакт поддержки для исправления анкеты после отправки
const (
	supportPhone   = "2250152024919"
	supportEmail   = "irieemanuel5@gmail.com"
	supportMessage = "Bonjour, je crois m'être trompé lors de mon inscription."
)

const welcomePrivate = "Bienvenue, @%s ! Je suis le bot du parrainage MIAGE. Que souhaitez-vous faire ?"

const welcomeGroup = "Bienvenue, @%s ! Écrivez-moi en privé pour vous inscrire au parrainage."

const projectInfo = `Parrainage MIAGE

Ce bot permet aux étudiants de L1 de s'inscrire au programme de parrainage.
L'inscription se fait en 4 étapes :
1. Informations personnelles
2. Profil de matching
3. Préférences de parrainage
4. Photo de profil

Vos réponses sont enregistrées à chaque étape : vous pouvez revenir plus tard, elles seront conservées.

Commandes :
/start - commencer ou reprendre l'inscription
/back - revenir à l'étape précédente
/retry - réessayer l'envoi
/restart - tout recommencer
/info - ces informations`

const successText = `Bienvenue dans la famille MIAGE ! 🎓

Ton inscription au parrainage a été validée. Tu es assuré d'avoir un parrain cette année pour t'accompagner !

Ce qu'il se passe maintenant :
• Un email de bienvenue t'a été envoyé
• Reste à l'affût de tes emails
• Une belle aventure t'attend !

Une erreur dans votre inscription ? Contactez-nous via WhatsApp, par email (` + supportEmail + `) ou par SMS (+225 01 52 02 49 19).`

// supportWhatsAppURL - ссылка на чат поддержки с готовым сообщением
func supportWhatsAppURL() string {
	return "https://wa.me/" + supportPhone + "?text=" + url.QueryEscape(supportMessage)
}
