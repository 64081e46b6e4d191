package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/Dan9191/rental-yield/internal/config"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

type sendFunc func(e *email.Email, addr string, auth smtp.Auth) error

// EmailSubscriber mails proposal events to the review inbox
type EmailSubscriber struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   sendFunc
}

// NewEmailSubscriber creates a new email subscriber
func NewEmailSubscriber(cfg *config.Config, logger *logrus.Logger) *EmailSubscriber {
	return &EmailSubscriber{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// Handle sends an email for proposal events and ignores the rest
func (s *EmailSubscriber) Handle(ctx context.Context, ev Event) error {
	if ev.Kind != KindProposalSent && ev.Kind != KindProposalFailed {
		return nil
	}

	e := s.buildEmail(ev)
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := s.send(e, addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %v: %v", e.To, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %v: %s", e.To, e.Subject)
	return nil
}

func (s *EmailSubscriber) buildEmail(ev Event) *email.Email {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{s.cfg.ReviewEmail}
	if ev.Kind == KindProposalFailed {
		e.Subject = fmt.Sprintf("Proposal delivery failed: %s", ev.Title)
	} else {
		e.Subject = fmt.Sprintf("New rental proposal: %s", ev.Title)
	}

	body := fmt.Sprintf("Analysis %s\n\n%s\n", ev.AnalysisID, ev.Message)
	body += fmt.Sprintf("\nTime: %s", ev.Time.Format("2006-01-02 15:04:05"))
	body += "\n\nRental Yield Service"
	e.Text = []byte(body)
	return e
}
