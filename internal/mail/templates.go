package mail

// Outgoing mail bodies. Kept as plain formatted strings: the fragments
// are small and fully controlled by the server, so a template engine
// would add more surface than it saves.

import (
	"fmt"
	"html"
	"time"
)

const frDateLayout = "02/01/2006 à 15h04"

func greeting(firstName string) string {
	return fmt.Sprintf("<p>Bonjour %s,</p>", html.EscapeString(firstName))
}

const signature = `<p>À bientôt,<br>L'équipe ODIA</p>`

// ResetPassword builds the password reset email carrying the one-time
// link. The link expires after ttlMin minutes.
func ResetPassword(firstName, link string, ttlMin int) (subject, body string) {
	subject = "Réinitialisation de votre mot de passe"
	body = greeting(firstName) +
		fmt.Sprintf(`<p>Vous avez demandé la réinitialisation de votre mot de passe.
Cliquez sur le lien ci-dessous pour en choisir un nouveau. Ce lien expire dans %d minutes.</p>
<p><a href="%s">Réinitialiser mon mot de passe</a></p>
<p>Si vous n'êtes pas à l'origine de cette demande, ignorez simplement ce message.</p>`, ttlMin, link) +
		signature
	return subject, body
}

// AppointmentBooked confirms a booking to the student.
func AppointmentBooked(firstName string, startAt time.Time, kind string) (subject, body string) {
	subject = "Votre rendez-vous est confirmé"
	body = greeting(firstName) +
		fmt.Sprintf(`<p>Votre rendez-vous (%s) est confirmé pour le %s.</p>`,
			html.EscapeString(kindLabel(kind)), startAt.Format(frDateLayout)) +
		signature
	return subject, body
}

// AppointmentBookedAdmin notifies the admin of a new booking.
func AppointmentBookedAdmin(firstName, lastName, email string, startAt time.Time, kind string) (subject, body string) {
	subject = "Nouveau rendez-vous réservé"
	body = fmt.Sprintf(`<p>%s %s (%s) a réservé un rendez-vous (%s) le %s.</p>`,
		html.EscapeString(firstName), html.EscapeString(lastName), html.EscapeString(email),
		html.EscapeString(kindLabel(kind)), startAt.Format(frDateLayout))
	return subject, body
}

// AppointmentCanceled informs the student their appointment is canceled.
func AppointmentCanceled(firstName string, startAt time.Time) (subject, body string) {
	subject = "Votre rendez-vous a été annulé"
	body = greeting(firstName) +
		fmt.Sprintf(`<p>Votre rendez-vous du %s a été annulé. Vous pouvez en réserver un nouveau depuis votre espace.</p>`,
			startAt.Format(frDateLayout)) +
		signature
	return subject, body
}

// AppointmentReminder nudges the student before an upcoming appointment.
func AppointmentReminder(firstName string, startAt time.Time, window string) (subject, body string) {
	subject = "Rappel : rendez-vous à venir"
	body = greeting(firstName) +
		fmt.Sprintf(`<p>Petit rappel : votre rendez-vous a lieu %s, le %s.</p>`,
			window, startAt.Format(frDateLayout)) +
		signature
	return subject, body
}

// FormSubmittedAdmin notifies the admin that a student submitted a form.
func FormSubmittedAdmin(firstName, lastName, email string) (subject, body string) {
	subject = "Nouveau formulaire soumis"
	body = fmt.Sprintf(`<p>%s %s (%s) a soumis son formulaire.</p>`,
		html.EscapeString(firstName), html.EscapeString(lastName), html.EscapeString(email))
	return subject, body
}

// UnreadMessages reminds a student of unanswered coach messages.
func UnreadMessages(firstName string, count int) (subject, body string) {
	subject = "Vous avez des messages non lus"
	body = greeting(firstName) +
		fmt.Sprintf(`<p>Votre coach vous a laissé %d message(s) toujours non lu(s). Connectez-vous à votre espace pour les consulter.</p>`, count) +
		signature
	return subject, body
}

func kindLabel(kind string) string {
	switch kind {
	case "strategy":
		return "séance stratégie"
	case "phone":
		return "appel téléphonique"
	}
	return kind
}
