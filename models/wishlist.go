package models

type WishlistEntry struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	FlightID string `json:"flight_id"`
}
