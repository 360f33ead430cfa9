package services

import (
	"context"
	"log/slog"

	"flight-system/models"
	"flight-system/utils"

	pubnub "github.com/pubnub/go"
)

// NotifyService pushes realtime booking confirmations to the web front-end
// over PubNub. Publishing is strictly best effort: the breaker keeps a
// failing transport from slowing down bookings, and every error is only
// logged.
type NotifyService struct {
	pubnub  *pubnub.PubNub
	breaker *utils.CircuitBreaker
}

func NewNotifyService(pn *pubnub.PubNub) *NotifyService {
	return &NotifyService{
		pubnub:  pn,
		breaker: utils.NewCircuitBreaker("pubnub-notify"),
	}
}

func (s *NotifyService) PublishBookingConfirmed(ctx context.Context, userID string, confirmation models.BookingConfirmation) {
	if s.pubnub == nil {
		// Notifications disabled, no PubNub keys configured.
		return
	}

	channel := "bookings." + userID
	message := map[string]any{
		"type":          "booking_confirmed",
		"booking_id":    confirmation.ID,
		"ticket_number": confirmation.TicketNumber,
		"total_price":   confirmation.TotalPrice,
		"status":        confirmation.Status,
	}

	_, err := s.breaker.Execute(ctx, func() (any, error) {
		_, _, err := s.pubnub.Publish().
			Channel(channel).
			Message(message).
			Execute()
		return nil, err
	})
	if err != nil {
		slog.Warn("booking notification not delivered",
			"user_id", userID,
			"booking_id", confirmation.ID,
			"error", err,
		)
		return
	}

	slog.Info("booking notification published", "user_id", userID, "booking_id", confirmation.ID)
}
