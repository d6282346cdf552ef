// Package notify delivers participant-facing messages. The log notifier is
// the default backend; swapping in push or email only requires another
// service.Notifier implementation.
package notify

import (
	"context"

	"booze-courier/internal/model"
	"booze-courier/internal/service"

	"github.com/rs/zerolog"
)

// logNotifier writes every notification to the structured log. Dispatch is
// fire-and-forget: there is nothing to retry and no error to return.
type logNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a notifier that records messages in the log.
func NewLogNotifier(logger zerolog.Logger) service.Notifier {
	return &logNotifier{
		logger: logger.With().Str("component", "notifier").Logger(),
	}
}

func (n *logNotifier) NotifyUser(_ context.Context, user *model.User, message string) {
	if user == nil {
		return
	}
	n.logger.Info().
		Str("user_id", user.ID.String()).
		Str("message", message).
		Msg("user notification")
}

func (n *logNotifier) NotifyDriver(_ context.Context, driver *model.Driver, delivery *model.Delivery, message string) {
	if driver == nil {
		return
	}
	event := n.logger.Info().
		Str("driver_id", driver.ID.String()).
		Str("message", message)
	if delivery != nil {
		event = event.Str("delivery_id", delivery.ID.String())
	}
	event.Msg("driver notification")
}

func (n *logNotifier) NotifyMerchant(_ context.Context, merchant *model.Merchant, message string) {
	if merchant == nil {
		return
	}
	n.logger.Info().
		Str("merchant_id", merchant.ID.String()).
		Str("message", message).
		Msg("merchant notification")
}

func (n *logNotifier) BroadcastSystemMessage(_ context.Context, message string) {
	n.logger.Info().
		Str("message", message).
		Msg("system broadcast")
}
