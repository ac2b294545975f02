package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/store-auth/internal/core/events"
)

// Subscribe turns domain events into queued emails.
func Subscribe(bus *events.EventBus, publisher Publisher, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	bus.Subscribe(events.EventTypeStoreOwnerCreated, func(ctx context.Context, event events.Event) error {
		e, ok := event.(*events.StoreOwnerCreatedEvent)
		if !ok {
			return fmt.Errorf("unexpected payload %T", event)
		}
		job := EmailJob{
			Template: TemplateStoreOwnerWelcome,
			To:       e.Email,
			Data: map[string]string{
				"full_name":          e.FullName,
				"username":           e.Username,
				"temporary_password": e.TemporaryPassword,
				"verification_link":  e.VerificationLink,
			},
		}
		if err := publisher.PublishEmail(ctx, job); err != nil {
			logger.Error("failed to enqueue welcome email", "user_id", e.UserID, "error", err)
			return err
		}
		return nil
	})

	bus.Subscribe(events.EventTypeEmailVerified, func(ctx context.Context, event events.Event) error {
		e, ok := event.(*events.EmailVerifiedEvent)
		if !ok {
			return fmt.Errorf("unexpected payload %T", event)
		}
		return publisher.PublishEmail(ctx, EmailJob{
			Template: TemplateEmailVerified,
			To:       e.Email,
			Data:     map[string]string{"user_id": e.UserID},
		})
	})
}
