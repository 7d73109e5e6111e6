package mail

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/clab/student-portal-api/pkg/config"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// SendGridMailer delivers messages through the SendGrid v3 API using
// dynamic templates.
type SendGridMailer struct {
	key    string
	from   *sgmail.Email
	logger *zap.Logger
}

var _ Mailer = (*SendGridMailer)(nil)

// NewSendGridMailer builds a mailer from config.
func NewSendGridMailer(cfg config.MailConfig, logger *zap.Logger) *SendGridMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SendGridMailer{
		key:    cfg.SendGridAPIKey,
		from:   sgmail.NewEmail(cfg.FromName, cfg.FromAddress),
		logger: logger,
	}
}

// Send submits a single templated message.
func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	if msg.ToEmail == "" || msg.TemplateID == "" {
		return fmt.Errorf("mail: recipient and template required")
	}

	p := sgmail.NewPersonalization()
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.ToEmail))
	for key, value := range msg.Data {
		p.SetDynamicTemplateData(key, value)
	}

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(m.from)
	v3.SetTemplateID(msg.TemplateID)
	v3.AddPersonalizations(p)

	req := sendgrid.GetRequest(m.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(v3)

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		m.logger.Error("sendgrid rejected message",
			zap.Int("status", res.StatusCode),
			zap.String("template", msg.TemplateID),
		)
		return fmt.Errorf("sendgrid status %d", res.StatusCode)
	}
	return nil
}
