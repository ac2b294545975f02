package notify

import (
	"context"
	"log/slog"
)

const (
	TemplateStoreOwnerWelcome = "store_owner_welcome"
	TemplateEmailVerified     = "email_verified"
)

// EmailJob is the message a mail worker consumes.
type EmailJob struct {
	Template string            `json:"template"`
	To       string            `json:"to"`
	Data     map[string]string `json:"data"`
}

type Publisher interface {
	PublishEmail(ctx context.Context, job EmailJob) error
}

// LogPublisher stands in for a broker in local setups.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p LogPublisher) PublishEmail(ctx context.Context, job EmailJob) error {
	lg := p.Logger
	if lg == nil {
		lg = slog.Default()
	}
	lg.InfoContext(ctx, "email job (no broker configured)", "template", job.Template, "to", job.To)
	return nil
}
