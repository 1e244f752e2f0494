package utils

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/wneessen/go-mail"

	"electrocart_back_end/internal/models"
)

// DefaultFromEmail expéditeur utilisé quand FROM_EMAIL n'est pas défini
const DefaultFromEmail = "no-reply@electrocart.local"

// Mailer envoie un email HTML
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// NewMailer retourne un client SMTP si SMTP_HOST et SMTP_USER sont définis, sinon un stub qui logge.
func NewMailer(cfg SMTPConfig) Mailer {
	if cfg.From == "" {
		cfg.From = DefaultFromEmail
	}
	if cfg.Host == "" || cfg.Username == "" {
		log.Println("⚠️ SMTP non configuré: les emails seront seulement loggés")
		return &LogMailer{From: cfg.From}
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	log.Printf("✅ SMTP configuré (%s:%d)", cfg.Host, cfg.Port)
	return &SMTPMailer{cfg: cfg}
}

type SMTPMailer struct {
	cfg SMTPConfig
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail à", to)
	return client.DialAndSendWithContext(ctx, msg)
}

// LogMailer stub de développement: rien ne part, tout est loggé
type LogMailer struct {
	From string
}

func (m *LogMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	log.Printf("📧 [stub] de=%s à=%s sujet=%q (%d octets)", m.From, to, subject, len(htmlBody))
	return nil
}

// PasswordResetEmail construit le sujet et le corps de l'email de réinitialisation
func PasswordResetEmail(name, resetURL string) (string, string) {
	subject := "Reset your ElectroCart password"
	body := fmt.Sprintf(`
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<title>Password reset</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Reset your password</h2>
		<p>Hello <b>%s</b>,</p>
		<p>We received a request to reset your ElectroCart password.</p>
		<p style="text-align: center; margin: 30px 0;">
			<a href="%s" style="background-color: #007bff; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">Reset my password</a>
		</p>
		<p style="font-size: 14px; color: #888;">This link expires in 10 minutes. If you did not ask for it, ignore this email.</p>
	</div>
</body>
</html>`, html.EscapeString(name), html.EscapeString(resetURL))
	return subject, body
}

// OrderConfirmationEmail récapitule la commande créée
func OrderConfirmationEmail(order *models.Order) (string, string) {
	var rows strings.Builder
	for _, item := range order.Items {
		fmt.Fprintf(&rows, `
			<tr>
				<td>%s</td>
				<td>%d</td>
				<td>%.2f</td>
				<td>%.2f</td>
			</tr>`, html.EscapeString(item.Name), item.Quantity, item.Price, item.Price*float64(item.Quantity))
	}

	paid := "Payment on delivery"
	if order.IsPaid {
		paid = "Paid"
	}

	subject := fmt.Sprintf("Your ElectroCart order %s", order.ID)
	body := fmt.Sprintf(`
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<title>Order confirmation</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Thanks for your order</h2>
		<p>Order <b>%s</b> has been received and is being processed.</p>
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #f0f0f0;">
					<th style="padding: 10px; text-align: left;">Product</th>
					<th style="padding: 10px; text-align: left;">Qty</th>
					<th style="padding: 10px; text-align: left;">Unit price</th>
					<th style="padding: 10px; text-align: left;">Subtotal</th>
				</tr>
			</thead>
			<tbody>%s
			</tbody>
			<tfoot>
				<tr>
					<td colspan="3" style="padding: 10px; text-align: right; font-weight: bold;">Total:</td>
					<td style="padding: 10px; font-weight: bold;">%.2f</td>
				</tr>
			</tfoot>
		</table>
		<p>%s</p>
	</div>
</body>
</html>`, html.EscapeString(order.ID), rows.String(), order.Total, paid)
	return subject, body
}
