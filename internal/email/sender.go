// Package email envía los correos transaccionales del servicio.
package email

// Sender envía un correo con cuerpo HTML y texto plano.
type Sender interface {
	Send(to, subject, htmlBody, textBody string) error
}
