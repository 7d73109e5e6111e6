package mail

import "context"

// Message is a template-driven transactional email: the template is
// rendered by the provider from the ID and data bag.
type Message struct {
	ToName     string
	ToEmail    string
	TemplateID string
	Data       map[string]interface{}
}

// Mailer delivers transactional messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
