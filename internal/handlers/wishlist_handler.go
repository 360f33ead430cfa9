package handlers

import (
	"net/http"

	"flight-system/internal/services"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type WishlistHandler struct {
	app             *pocketbase.PocketBase
	wishlistService *services.WishlistService
}

func NewWishlistHandler(app *pocketbase.PocketBase, wishlistService *services.WishlistService) *WishlistHandler {
	return &WishlistHandler{
		app:             app,
		wishlistService: wishlistService,
	}
}

// GetWishlist - Flights the user has saved
func (h *WishlistHandler) GetWishlist(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	flights, err := h.wishlistService.GetUserWishlist(e.Request.Context(), e.Auth.Id)
	if err != nil {
		return apis.NewBadRequestError("Failed to get wishlist", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"flights": flights,
		"count":   len(flights),
	})
}

// AddToWishlist - Save a flight; already-saved flights succeed silently
func (h *WishlistHandler) AddToWishlist(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		FlightID string `json:"flight_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.FlightID == "" {
		return apis.NewBadRequestError("flight_id is required", nil)
	}

	if err := h.wishlistService.AddToWishlist(e.Request.Context(), e.Auth.Id, req.FlightID); err != nil {
		return apis.NewBadRequestError("Failed to add to wishlist", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"message":   "Flight added to wishlist",
		"flight_id": req.FlightID,
	})
}

// RemoveFromWishlist - Delete the link; removing an absent link still
// succeeds
func (h *WishlistHandler) RemoveFromWishlist(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	flightID := e.Request.PathValue("flightId")

	if err := h.wishlistService.RemoveFromWishlist(e.Request.Context(), e.Auth.Id, flightID); err != nil {
		return apis.NewBadRequestError("Failed to remove from wishlist", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"message":   "Flight removed from wishlist",
		"flight_id": flightID,
	})
}
