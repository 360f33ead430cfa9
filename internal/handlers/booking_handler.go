package handlers

import (
	"errors"
	"net/http"

	"flight-system/internal/services"
	"flight-system/internal/status"
	"flight-system/models"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type BookingHandler struct {
	app            *pocketbase.PocketBase
	bookingService *services.BookingService
}

func NewBookingHandler(app *pocketbase.PocketBase, bookingService *services.BookingService) *BookingHandler {
	return &BookingHandler{
		app:            app,
		bookingService: bookingService,
	}
}

// BookFlight - Create a booking with its passengers in one atomic write
func (h *BookingHandler) BookFlight(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req models.BookingRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	confirmation, err := h.bookingService.BookFlight(e.Request.Context(), e.Auth.Id, req)
	if err != nil {
		if errors.Is(err, status.ErrFlightNotFound) {
			return apis.NewBadRequestError("Flight not found", err)
		}
		return apis.NewBadRequestError("Failed to create booking", err)
	}

	return e.JSON(http.StatusOK, confirmation)
}

// GetFlightHistory - All of the user's bookings, newest booking first
func (h *BookingHandler) GetFlightHistory(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	bookings, err := h.bookingService.GetFlightHistory(e.Request.Context(), e.Auth.Id)
	if err != nil {
		return apis.NewBadRequestError("Failed to get booking history", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// GetUpcomingFlights - Bookings departing from now on, soonest first
func (h *BookingHandler) GetUpcomingFlights(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	bookings, err := h.bookingService.GetUpcomingFlights(e.Request.Context(), e.Auth.Id)
	if err != nil {
		return apis.NewBadRequestError("Failed to get upcoming flights", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"bookings": bookings,
		"count":    len(bookings),
	})
}
