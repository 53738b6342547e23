// Package mail delivers one-time verification codes over SMTP.
package mail

import (
	"fmt"

	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"
)

// ErrNotConfigured indicates that the sender credentials are missing from the
// configuration.
var ErrNotConfigured = errors.New("email delivery is not configured")

// Mailer sends verification code emails.
type Mailer struct {
	dialer *gomail.Dialer
	sender string
}

// NewMailer creates a new mailer. The mailer is usable even when the credentials are
// absent; sending then fails with ErrNotConfigured.
func NewMailer(host string, port int, sender, password string) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(host, port, sender, password),
		sender: sender,
	}
}

const verificationBodyTemplate = `
<div style="font-family: Arial, sans-serif; padding: 20px; background-color: #1f2937; color: #ffffff;">
  <h2 style="color: #ff7c00;">Virtual Try-On Verification</h2>
  <p>Your verification code is:</p>
  <h1 style="color: #ff7c00; font-size: 32px; letter-spacing: 5px;">%s</h1>
  <p style="color: #9ca3af;">This code will expire in 10 minutes.</p>
</div>
`

// SendVerificationCode emails a one-time code to the given address.
func (m *Mailer) SendVerificationCode(toEmail, code string) error {
	if m.sender == "" || m.dialer.Password == "" {
		return ErrNotConfigured
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.sender)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", "Your Verification Code")
	msg.SetBody("text/plain", fmt.Sprintf("Your Verification Code is: %s", code))
	msg.AddAlternative("text/html", fmt.Sprintf(verificationBodyTemplate, code))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return errors.Wrap(err, "unable to send the verification email")
	}

	return nil
}
