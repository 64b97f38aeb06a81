// Package notifier delivers user-visible alerts. Delivery is fire-and-forget:
// callers log failures and carry on.
package notifier

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Well-known notification ids.
const (
	BlockedSiteID = "site-blocked-notification"
)

type Notification struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	Message            string `json:"message"`
	Priority           int    `json:"priority,omitempty"`
	RequireInteraction bool   `json:"requireInteraction"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
	Clear(ctx context.Context, id string) error
}

// LogNotifier writes notifications to the log.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, notification Notification) error {
	n.logger.Info("Notification",
		zap.String("id", notification.ID),
		zap.String("title", notification.Title),
		zap.String("message", notification.Message),
	)
	return nil
}

func (n *LogNotifier) Clear(_ context.Context, id string) error {
	n.logger.Debug("Notification cleared", zap.String("id", id))
	return nil
}

// Multi fans a notification out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Clear(ctx context.Context, id string) error {
	var errs []error
	for _, notifier := range m {
		if err := notifier.Clear(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
