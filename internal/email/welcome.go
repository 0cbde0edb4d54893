package email

import (
	"context"
	"fmt"
)

// WelcomeMailer arma y envía el correo de bienvenida.
type WelcomeMailer struct {
	sender Sender
}

func NewWelcomeMailer(sender Sender) *WelcomeMailer {
	return &WelcomeMailer{sender: sender}
}

// SendWelcome envía la bienvenida al alta de cuenta.
func (m *WelcomeMailer) SendWelcome(_ context.Context, to, displayName string) error {
	name := displayName
	if name == "" {
		name = to
	}

	subject := "Bienvenido a CrowdSpark"
	text := fmt.Sprintf(
		"Hola %s,\n\nTu cuenta ya está lista. Explorá campañas o lanzá la tuya cuando quieras.\n\nEl equipo de CrowdSpark",
		name)
	html := fmt.Sprintf(
		`<p>Hola %s,</p><p>Tu cuenta ya está lista. Explorá campañas o lanzá la tuya cuando quieras.</p><p>El equipo de CrowdSpark</p>`,
		name)

	return m.sender.Send(to, subject, html, text)
}
