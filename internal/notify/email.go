package notify

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/Dan9191/finhealth-service/internal/config"
	"github.com/Dan9191/finhealth-service/internal/models"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// sendFunc delivers a prepared message; replaced in tests.
type sendFunc func(e *email.Email, addr string, auth smtp.Auth) error

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   sendFunc
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// SendHealthReport emails a user their current financial health score
func (s *Sender) SendHealthReport(to, username string, result models.ScoreResult) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = fmt.Sprintf("Your Financial Health Score: %d (%s)", result.Score, result.Status)
	e.Text = []byte(FormatHealthReport(username, result))

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := s.send(e, addr, auth); err != nil {
		s.logger.Errorf("Failed to send health report to %s: %v", to, err)
		return fmt.Errorf("failed to send health report: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}

// FormatHealthReport builds the plain-text body of a health report email
func FormatHealthReport(username string, result models.ScoreResult) string {
	if username == "" {
		username = "customer"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", username)
	fmt.Fprintf(&b, "Your financial health score is %d out of 100 (%s).\n", result.Score, result.Status)

	if len(result.Factors) > 0 {
		b.WriteString("\nScore breakdown:\n")
		for _, f := range result.Factors {
			fmt.Fprintf(&b, "  - %s: %d/100 (%s), current %s, target %s\n",
				f.Name, f.Score, f.Status, f.Current.StringFixed(2), f.Target.String())
		}
	}

	if len(result.Recommendations) > 0 {
		b.WriteString("\nRecommendations:\n")
		for i, rec := range result.Recommendations {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, rec)
		}
	}

	b.WriteString("\nBest regards,\nFinancial Health Service")
	return b.String()
}
