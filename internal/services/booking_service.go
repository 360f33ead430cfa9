package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"flight-system/internal/status"
	"flight-system/models"
	"flight-system/monitoring"
	"flight-system/utils"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/shopspring/decimal"
)

// BookingService owns the booking aggregate: the booking row plus its
// passenger rows are written inside one transaction, so a failure anywhere
// leaves no partial state behind.
type BookingService struct {
	app     core.App
	flights *FlightService
	notify  *NotifyService
}

func NewBookingService(app core.App, flights *FlightService, notify *NotifyService) *BookingService {
	return &BookingService{
		app:     app,
		flights: flights,
		notify:  notify,
	}
}

// TotalPrice multiplies the per-seat price by the passenger count, rounded
// to 2 decimal places. The total is fixed at booking time and never
// recomputed, even if the flight's deal later changes.
func TotalPrice(effectivePrice float64, passengerCount int) float64 {
	total, _ := decimal.NewFromFloat(effectivePrice).
		Mul(decimal.NewFromInt(int64(passengerCount))).
		Round(2).
		Float64()
	return total
}

// BookFlight creates a booking with its passengers atomically. A missing
// flight fails fast with status.ErrFlightNotFound before anything is
// written; any store failure mid-write rolls the whole aggregate back and
// surfaces status.ErrBookingFailed.
func (s *BookingService) BookFlight(ctx context.Context, userID string, req models.BookingRequest) (*models.BookingConfirmation, error) {
	if req.FlightID == "" || len(req.Passengers) == 0 {
		return nil, fmt.Errorf("%w: flight id and at least one passenger are required", status.ErrBookingFailed)
	}

	ticketNumber, err := utils.GenerateTicketNumber()
	if err != nil {
		return nil, fmt.Errorf("%w: generate ticket number: %w", status.ErrBookingFailed, err)
	}

	confirmation := &models.BookingConfirmation{
		TicketNumber: ticketNumber,
		Status:       "confirmed",
	}

	err = s.app.RunInTransaction(func(txApp core.App) error {
		flightRecord, err := txApp.FindRecordById("flights", req.FlightID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return status.ErrFlightNotFound
			}
			return fmt.Errorf("find flight: %w", err)
		}

		deal := findDealTx(txApp, req.FlightID)
		effective := models.EffectivePrice(flightRecord.GetFloat("base_price"), deal, time.Now())
		confirmation.TotalPrice = TotalPrice(effective, len(req.Passengers))

		bookings, err := txApp.FindCollectionByNameOrId("bookings")
		if err != nil {
			return fmt.Errorf("find bookings collection: %w", err)
		}

		booking := core.NewRecord(bookings)
		booking.Set("user", userID)
		booking.Set("flight", req.FlightID)
		booking.Set("status", "confirmed")
		booking.Set("total_price", confirmation.TotalPrice)
		booking.Set("booking_date", types.NowDateTime())
		booking.Set("ticket_number", ticketNumber)

		if err := txApp.Save(booking); err != nil {
			return fmt.Errorf("save booking: %w", err)
		}
		confirmation.ID = booking.Id

		passengers, err := txApp.FindCollectionByNameOrId("passengers")
		if err != nil {
			return fmt.Errorf("find passengers collection: %w", err)
		}

		for _, p := range req.Passengers {
			passenger := core.NewRecord(passengers)
			passenger.Set("booking", booking.Id)
			passenger.Set("first_name", p.FirstName)
			passenger.Set("last_name", p.LastName)
			passenger.Set("date_of_birth", p.DateOfBirth)
			passenger.Set("passport_number", p.PassportNumber)
			passenger.Set("nationality", p.Nationality)

			if err := txApp.Save(passenger); err != nil {
				return fmt.Errorf("save passenger: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, status.ErrFlightNotFound) {
			return nil, status.ErrFlightNotFound
		}
		return nil, fmt.Errorf("%w: %w", status.ErrBookingFailed, err)
	}

	monitoring.TrackBooking(confirmation.TotalPrice)

	// Realtime confirmation is best effort and never blocks the booking.
	go s.notify.PublishBookingConfirmed(context.WithoutCancel(ctx), userID, *confirmation)

	return confirmation, nil
}

// findDealTx resolves the flight's deal inside the booking transaction.
// Deal lookup failures are treated as "no deal" so a broken deals row
// cannot block a booking at base price.
func findDealTx(txApp core.App, flightID string) *models.Deal {
	record, err := txApp.FindFirstRecordByFilter(
		"deals",
		"flight = {:flight}",
		dbx.Params{"flight": flightID},
	)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Warn("deal lookup failed during booking", "flight_id", flightID, "error", err)
		}
		return nil
	}

	return &models.Deal{
		ID:                 record.Id,
		FlightID:           flightID,
		DiscountPercentage: record.GetFloat("discount_percentage"),
		ValidUntil:         record.GetDateTime("valid_until").Time(),
	}
}

// GetUpcomingFlights returns the user's bookings whose flight departs at or
// after now, ordered by departure time ascending.
func (s *BookingService) GetUpcomingFlights(ctx context.Context, userID string) ([]models.Booking, error) {
	now := types.NowDateTime()

	records, err := s.app.FindRecordsByFilter(
		"bookings",
		"user = {:user} && flight.departure_time >= {:now}",
		"",
		0,
		0,
		dbx.Params{"user": userID, "now": now.String()},
	)
	if err != nil {
		return nil, fmt.Errorf("get upcoming flights: %w", err)
	}

	bookings, err := s.shapeBookings(records)
	if err != nil {
		return nil, err
	}

	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].Flight.DepartureTime.Before(bookings[j].Flight.DepartureTime)
	})

	return bookings, nil
}

// GetFlightHistory returns all of the user's bookings ordered by booking
// date descending, regardless of whether the flight already departed.
func (s *BookingService) GetFlightHistory(ctx context.Context, userID string) ([]models.Booking, error) {
	records, err := s.app.FindRecordsByFilter(
		"bookings",
		"user = {:user}",
		"-booking_date",
		0,
		0,
		dbx.Params{"user": userID},
	)
	if err != nil {
		return nil, fmt.Errorf("get flight history: %w", err)
	}

	return s.shapeBookings(records)
}

// shapeBookings denormalizes booking records into UI-facing values:
// embedded flight, ordered passenger list, lower-cased status. Lower-case
// is the canonical status casing at this boundary.
func (s *BookingService) shapeBookings(records []*core.Record) ([]models.Booking, error) {
	bookings := make([]models.Booking, 0, len(records))

	for _, record := range records {
		booking := models.Booking{
			ID:           record.Id,
			Status:       strings.ToLower(record.GetString("status")),
			TotalPrice:   record.GetFloat("total_price"),
			BookingDate:  record.GetDateTime("booking_date").Time(),
			TicketNumber: record.GetString("ticket_number"),
		}

		flightRecord, err := s.app.FindRecordById("flights", record.GetString("flight"))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("%w: flight for booking %s", status.ErrNotFound, record.Id)
			}
			return nil, fmt.Errorf("expand flight for booking %s: %w", record.Id, err)
		}
		booking.Flight, err = s.flights.flightFromRecord(flightRecord)
		if err != nil {
			return nil, err
		}

		passengerRecords, err := s.app.FindRecordsByFilter(
			"passengers",
			"booking = {:booking}",
			"created",
			0,
			0,
			dbx.Params{"booking": record.Id},
		)
		if err != nil {
			return nil, fmt.Errorf("expand passengers for booking %s: %w", record.Id, err)
		}

		booking.Passengers = make([]models.Passenger, 0, len(passengerRecords))
		for _, p := range passengerRecords {
			dateOfBirth := ""
			if dob := p.GetDateTime("date_of_birth"); !dob.IsZero() {
				dateOfBirth = dob.Time().Format("2006-01-02")
			}

			booking.Passengers = append(booking.Passengers, models.Passenger{
				FirstName:      p.GetString("first_name"),
				LastName:       p.GetString("last_name"),
				DateOfBirth:    dateOfBirth,
				PassportNumber: p.GetString("passport_number"),
				Nationality:    p.GetString("nationality"),
			})
		}

		bookings = append(bookings, booking)
	}

	return bookings, nil
}
