package services

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// PhaseEvent describes a document that reached a completed phase.
type PhaseEvent struct {
	Entity string
	Ref    string
	Status string
	Actor  int64
}

type Notifier interface {
	PhaseCompleted(event PhaseEvent) error
}

type NopNotifier struct{}

func (NopNotifier) PhaseCompleted(PhaseEvent) error { return nil }

type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	To       []string
}

// MailNotifier sends an html e-mail for every completed phase.
type MailNotifier struct {
	cfg    MailConfig
	dialer *gomail.Dialer
	log    *zap.Logger
}

// NewNotifier returns a MailNotifier, or a NopNotifier when SMTP or the
// recipient list is not configured.
func NewNotifier(cfg MailConfig, logger *zap.Logger) Notifier {
	if cfg.Host == "" || len(cfg.To) == 0 {
		return NopNotifier{}
	}
	return &MailNotifier{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		log:    logger,
	}
}

func (n *MailNotifier) PhaseCompleted(event PhaseEvent) error {
	msg := n.buildMessage(event)
	if err := n.dialer.DialAndSend(msg); err != nil {
		n.log.Warn("completion mail not sent", zap.String("ref", event.Ref), zap.Error(err))
		return err
	}
	n.log.Info("completion mail sent", zap.String("ref", event.Ref), zap.Strings("to", n.cfg.To))
	return nil
}

func (n *MailNotifier) buildMessage(event PhaseEvent) *gomail.Message {
	subject := fmt.Sprintf("%s %s is %s", event.Entity, event.Ref, event.Status)
	body := fmt.Sprintf(`
		<html>
			<body>
				<h3>%s</h3>
				<p>%s: <strong>%s</strong></p>
				<p>Status: <strong>%s</strong></p>
				<p>This is an auto-generated email. Please do not reply.</p>
			</body>
		</html>
	`, subject, event.Entity, event.Ref, event.Status)

	msg := gomail.NewMessage()
	msg.SetHeader("From", n.cfg.User)
	msg.SetHeader("To", n.cfg.To...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)
	return msg
}
