package adapters

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	mail "github.com/xhit/go-simple-mail/v2"

	"github.com/opsboard/admin-portal/internal"
	"github.com/opsboard/admin-portal/internal/config"
)

// MailRepo sends emails via SMTP.
type MailRepo struct {
	cfg *config.MailConfig
}

// NewSmtpMailRepo creates a new MailRepo instance.
func NewSmtpMailRepo(cfg config.MailConfig) MailRepo {
	return MailRepo{cfg: &cfg}
}

// Send sends a plain text mail to the given recipients.
func (r MailRepo) Send(_ context.Context, subject, body string, to []string) error {
	if len(to) == 0 {
		return errors.New("missing email recipient")
	}

	email := mail.NewMSG()
	email.SetFrom(r.cfg.From).
		AddTo(internal.UniqueStringSlice(to)...).
		SetSubject(subject).
		SetBody(mail.TextPlain, body)

	srv := r.getMailServer()
	client, err := srv.Connect()
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}

	err = email.Send(client)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (r MailRepo) getMailServer() *mail.SMTPServer {
	srv := mail.NewSMTPClient()

	srv.ConnectTimeout = 30 * time.Second
	srv.Host = r.cfg.Host
	srv.Port = r.cfg.Port
	srv.Username = r.cfg.Username
	srv.Password = r.cfg.Password

	switch r.cfg.Encryption {
	case config.MailEncryptionTLS:
		srv.Encryption = mail.EncryptionSSLTLS
	case config.MailEncryptionStartTLS:
		srv.Encryption = mail.EncryptionSTARTTLS
	default:
		srv.Encryption = mail.EncryptionNone
	}

	switch r.cfg.AuthType {
	case config.MailAuthLogin:
		srv.Authentication = mail.AuthLogin
	case config.MailAuthCramMD5:
		srv.Authentication = mail.AuthCRAMMD5
	default:
		srv.Authentication = mail.AuthPlain
	}

	srv.TLSConfig = &tls.Config{
		ServerName:         r.cfg.Host,
		InsecureSkipVerify: !r.cfg.CertValidation,
	}

	return srv
}
