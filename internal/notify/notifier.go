package notify

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/BandoEasy2025/Automation-DB-updater/internal/ingest"
)

// Config controls email delivery. With Enabled false the notifier only
// logs, which is the safe default for local runs.
type Config struct {
	Enabled   bool
	APIKey    string
	FromEmail string
	ToEmail   string
}

func ConfigFromEnv() Config {
	enabled, _ := strconv.ParseBool(os.Getenv("ENABLE_EMAIL_NOTIFICATIONS"))
	return Config{
		Enabled:   enabled,
		APIKey:    os.Getenv("SENDGRID_API_KEY"),
		FromEmail: os.Getenv("FROM_EMAIL"),
		ToEmail:   os.Getenv("NOTIFICATION_EMAIL"),
	}
}

// EmailNotifier sends plain-text status alerts through SendGrid. It is told
// about every transition but only mails the ones operators act on: a grant
// announced, entering its closing window, or expiring.
type EmailNotifier struct {
	cfg  Config
	send func(email *mail.SGMailV3) error
}

func New(cfg Config) *EmailNotifier {
	n := &EmailNotifier{cfg: cfg}
	n.send = func(email *mail.SGMailV3) error {
		client := sendgrid.NewSendClient(cfg.APIKey)
		resp, err := client.Send(email)
		if err != nil {
			return err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("sendgrid returned %d: %s", resp.StatusCode, resp.Body)
		}
		return nil
	}
	return n
}

var _ ingest.Notifier = (*EmailNotifier)(nil)

func (n *EmailNotifier) NotifyStatusChange(_ context.Context, grantID uuid.UUID, grantName string, _ *string, newStatus, grantURL string) {
	var message string
	switch ingest.Status(newStatus) {
	case ingest.StatusUpcoming:
		message = fmt.Sprintf("The grant '%s' is now upcoming (In uscita).", grantName)
	case ingest.StatusClosingSoon:
		message = fmt.Sprintf("The grant '%s' is now closing soon (In scadenza).", grantName)
	case ingest.StatusExpired:
		message = fmt.Sprintf("The grant '%s' has expired (Scaduto).", grantName)
	default:
		return
	}

	if grantURL != "" {
		message += fmt.Sprintf("\n\nYou can view the grant at: %s", grantURL)
	}
	message += fmt.Sprintf("\n\nGrant ID: %s", grantID)

	subject := fmt.Sprintf("Grant Status Change: %s", grantName)

	if !n.cfg.Enabled {
		log.Printf("[notify] %s - %s", subject, message)
		return
	}
	if n.cfg.APIKey == "" || n.cfg.FromEmail == "" || n.cfg.ToEmail == "" {
		log.Printf("[notify] email enabled but not fully configured, skipping %q", subject)
		return
	}

	email := mail.NewV3MailInit(
		mail.NewEmail("BandoEasy Updater", n.cfg.FromEmail),
		subject,
		mail.NewEmail("", n.cfg.ToEmail),
		mail.NewContent("text/plain", message),
	)
	if err := n.send(email); err != nil {
		log.Printf("[notify] send failed for %q: %v", subject, err)
		return
	}
	log.Printf("[notify] email sent: %s", subject)
}
