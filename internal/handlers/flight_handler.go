package handlers

import (
	"net/http"
	"time"

	"flight-system/internal/services"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type FlightHandler struct {
	app           *pocketbase.PocketBase
	flightService *services.FlightService
}

func NewFlightHandler(app *pocketbase.PocketBase, flightService *services.FlightService) *FlightHandler {
	return &FlightHandler{
		app:           app,
		flightService: flightService,
	}
}

// SearchFlights - Search flights by route and departure date
func (h *FlightHandler) SearchFlights(e *core.RequestEvent) error {
	query := e.Request.URL.Query()
	from := query.Get("from")
	to := query.Get("to")
	dateStr := query.Get("date")

	if from == "" || to == "" || dateStr == "" {
		return apis.NewBadRequestError("from, to and date are required", nil)
	}

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return apis.NewBadRequestError("date must be YYYY-MM-DD", err)
	}

	flights, err := h.flightService.SearchFlights(e.Request.Context(), from, to, date)
	if err != nil {
		return apis.NewBadRequestError("Failed to search flights", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"flights": flights,
		"count":   len(flights),
	})
}

// GetFlight - Get one flight with its active deal applied
func (h *FlightHandler) GetFlight(e *core.RequestEvent) error {
	flightID := e.Request.PathValue("flightId")

	flight, err := h.flightService.GetFlightByID(e.Request.Context(), flightID)
	if err != nil {
		return apis.NewBadRequestError("Failed to get flight", err)
	}
	if flight == nil {
		return apis.NewNotFoundError("Flight not found", nil)
	}

	return e.JSON(http.StatusOK, flight)
}

// SearchAirports - Autocomplete endpoint for the search form
func (h *FlightHandler) SearchAirports(e *core.RequestEvent) error {
	query := e.Request.URL.Query().Get("q")

	airports := h.flightService.SearchAirports(e.Request.Context(), query)

	return e.JSON(http.StatusOK, map[string]any{
		"airports": airports,
	})
}
