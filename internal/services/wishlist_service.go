package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"flight-system/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// WishlistService reads and prunes the user-to-flight wishlist links.
type WishlistService struct {
	app     core.App
	flights *FlightService
}

func NewWishlistService(app core.App, flights *FlightService) *WishlistService {
	return &WishlistService{app: app, flights: flights}
}

// GetUserWishlist returns the flights the user has saved, newest first.
// Wishlist prices are base prices; deals resolve on flight detail only.
func (s *WishlistService) GetUserWishlist(ctx context.Context, userID string) ([]models.Flight, error) {
	records, err := s.app.FindRecordsByFilter(
		"wishlist",
		"user = {:user}",
		"-created",
		0,
		0,
		dbx.Params{"user": userID},
	)
	if err != nil {
		return nil, fmt.Errorf("get wishlist: %w", err)
	}

	flights := make([]models.Flight, 0, len(records))
	for _, record := range records {
		flightRecord, err := s.app.FindRecordById("flights", record.GetString("flight"))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// Dangling link to a removed flight, skip it.
				continue
			}
			return nil, fmt.Errorf("expand wishlist flight: %w", err)
		}

		flight, err := s.flights.flightFromRecord(flightRecord)
		if err != nil {
			return nil, err
		}
		flights = append(flights, flight)
	}

	return flights, nil
}

// AddToWishlist saves the link, succeeding silently when it already exists.
func (s *WishlistService) AddToWishlist(ctx context.Context, userID, flightID string) error {
	_, err := s.app.FindFirstRecordByFilter(
		"wishlist",
		"user = {:user} && flight = {:flight}",
		dbx.Params{"user": userID, "flight": flightID},
	)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check wishlist entry: %w", err)
	}

	collection, err := s.app.FindCollectionByNameOrId("wishlist")
	if err != nil {
		return fmt.Errorf("find wishlist collection: %w", err)
	}

	record := core.NewRecord(collection)
	record.Set("user", userID)
	record.Set("flight", flightID)

	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("save wishlist entry: %w", err)
	}

	return nil
}

// RemoveFromWishlist deletes the matching link. Removing an absent link is
// not an error, so repeated removals are idempotent.
func (s *WishlistService) RemoveFromWishlist(ctx context.Context, userID, flightID string) error {
	record, err := s.app.FindFirstRecordByFilter(
		"wishlist",
		"user = {:user} && flight = {:flight}",
		dbx.Params{"user": userID, "flight": flightID},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("find wishlist entry: %w", err)
	}

	if err := s.app.Delete(record); err != nil {
		return fmt.Errorf("remove wishlist entry: %w", err)
	}

	return nil
}
