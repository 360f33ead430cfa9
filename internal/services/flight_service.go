package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"flight-system/config"
	"flight-system/models"
	"flight-system/monitoring"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
)

// FlightService is the single seam between the HTTP surface and the
// persistent store. All derived-field computation (duration, effective
// price, formatted times) happens here so callers receive ready-to-render
// values. Nothing is cached: every read goes back to the store.
type FlightService struct {
	app core.App
	cfg *config.Config
}

func NewFlightService(app core.App, cfg *config.Config) *FlightService {
	return &FlightService{app: app, cfg: cfg}
}

// flightRow is the joined shape produced by the search query.
type flightRow struct {
	ID            string         `db:"id"`
	FlightNumber  string         `db:"flight_number"`
	AirlineName   string         `db:"airline_name"`
	DepartureCity string         `db:"departure_city"`
	ArrivalCity   string         `db:"arrival_city"`
	DepartureIATA string         `db:"departure_iata"`
	ArrivalIATA   string         `db:"arrival_iata"`
	DepartureTime types.DateTime `db:"departure_time"`
	ArrivalTime   types.DateTime `db:"arrival_time"`
	Aircraft      string         `db:"aircraft"`
	Stops         int            `db:"stops"`
	Status        string         `db:"status"`
	BasePrice     float64        `db:"base_price"`
	FlightDate    types.DateTime `db:"flight_date"`
}

func (r flightRow) toModel() models.Flight {
	flight := models.Flight{
		ID:            r.ID,
		FlightNumber:  r.FlightNumber,
		Airline:       r.AirlineName,
		DepartureCity: r.DepartureCity,
		ArrivalCity:   r.ArrivalCity,
		DepartureIATA: r.DepartureIATA,
		ArrivalIATA:   r.ArrivalIATA,
		DepartureTime: r.DepartureTime.Time(),
		ArrivalTime:   r.ArrivalTime.Time(),
		Duration:      models.FormatDuration(r.DepartureTime.Time(), r.ArrivalTime.Time()),
		Aircraft:      r.Aircraft,
		Stops:         r.Stops,
		Status:        strings.ToLower(r.Status),
		BasePrice:     r.BasePrice,
		// Search results carry the undiscounted price; deals resolve
		// only on single-flight lookup.
		Price: r.BasePrice,
	}

	if !r.FlightDate.IsZero() {
		flight.FlightDate = r.FlightDate.Time().Format("2006-01-02")
	}

	return flight
}

// SearchFlights returns flights departing within the UTC calendar day of
// date whose departure and arrival cities match from/to as case-insensitive
// substrings. Results are ordered by departure time ascending.
func (s *FlightService) SearchFlights(ctx context.Context, from, to string, date time.Time) ([]models.Flight, error) {
	start := time.Now()

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	rows := []flightRow{}
	err := s.app.DB().
		Select(
			"f.id", "f.flight_number", "al.name AS airline_name",
			"dep.city AS departure_city", "arr.city AS arrival_city",
			"dep.iata AS departure_iata", "arr.iata AS arrival_iata",
			"f.departure_time", "f.arrival_time", "f.aircraft",
			"f.stops", "f.status", "f.base_price", "f.flight_date",
		).
		From("flights f").
		InnerJoin("airlines al", dbx.NewExp("al.id = f.airline")).
		InnerJoin("airports dep", dbx.NewExp("dep.id = f.departure_airport")).
		InnerJoin("airports arr", dbx.NewExp("arr.id = f.arrival_airport")).
		Where(dbx.And(
			dbx.NewExp("f.departure_time >= {:start}", dbx.Params{"start": dayStart.Format(types.DefaultDateLayout)}),
			dbx.NewExp("f.departure_time < {:end}", dbx.Params{"end": dayEnd.Format(types.DefaultDateLayout)}),
			dbx.Like("dep.city", from),
			dbx.Like("arr.city", to),
		)).
		OrderBy("f.departure_time ASC").
		WithContext(ctx).
		All(&rows)
	if err != nil {
		monitoring.TrackSearch("flights", "error", time.Since(start))
		return nil, fmt.Errorf("search flights: %w", err)
	}

	flights := make([]models.Flight, 0, len(rows))
	for _, row := range rows {
		flights = append(flights, row.toModel())
	}

	monitoring.TrackSearch("flights", "ok", time.Since(start))
	return flights, nil
}

// GetFlightByID fetches one flight joined with its deal, applying the
// discount only while the deal is still valid. A missing flight is
// (nil, nil), not an error; only real store failures are errors.
func (s *FlightService) GetFlightByID(ctx context.Context, id string) (*models.Flight, error) {
	record, err := s.app.FindRecordById("flights", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get flight %s: %w", id, err)
	}

	flight, err := s.flightFromRecord(record)
	if err != nil {
		return nil, err
	}

	deal, err := s.findDeal(id)
	if err != nil {
		return nil, err
	}
	flight.Price = models.EffectivePrice(flight.BasePrice, deal, time.Now())

	return &flight, nil
}

func (s *FlightService) findDeal(flightID string) (*models.Deal, error) {
	record, err := s.app.FindFirstRecordByFilter(
		"deals",
		"flight = {:flight}",
		dbx.Params{"flight": flightID},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find deal for flight %s: %w", flightID, err)
	}

	return &models.Deal{
		ID:                 record.Id,
		FlightID:           flightID,
		DiscountPercentage: record.GetFloat("discount_percentage"),
		ValidUntil:         record.GetDateTime("valid_until").Time(),
	}, nil
}

// flightFromRecord reshapes a raw flight record, resolving its airline and
// airport relations. Missing relations degrade to empty strings rather
// than failing the whole lookup.
func (s *FlightService) flightFromRecord(record *core.Record) (models.Flight, error) {
	flight := models.Flight{
		ID:            record.Id,
		FlightNumber:  record.GetString("flight_number"),
		DepartureTime: record.GetDateTime("departure_time").Time(),
		ArrivalTime:   record.GetDateTime("arrival_time").Time(),
		Aircraft:      record.GetString("aircraft"),
		Stops:         record.GetInt("stops"),
		Status:        strings.ToLower(record.GetString("status")),
		BasePrice:     record.GetFloat("base_price"),
	}
	flight.Price = flight.BasePrice
	flight.Duration = models.FormatDuration(flight.DepartureTime, flight.ArrivalTime)

	if flightDate := record.GetDateTime("flight_date"); !flightDate.IsZero() {
		flight.FlightDate = flightDate.Time().Format("2006-01-02")
	}

	if airline, err := s.app.FindRecordById("airlines", record.GetString("airline")); err == nil {
		flight.Airline = airline.GetString("name")
	}

	if dep, err := s.app.FindRecordById("airports", record.GetString("departure_airport")); err == nil {
		flight.DepartureCity = dep.GetString("city")
		flight.DepartureIATA = dep.GetString("iata")
	}

	if arr, err := s.app.FindRecordById("airports", record.GetString("arrival_airport")); err == nil {
		flight.ArrivalCity = arr.GetString("city")
		flight.ArrivalIATA = arr.GetString("iata")
	}

	return flight, nil
}

// SearchAirports matches city, IATA code or airport name case-insensitively.
// Queries shorter than the configured minimum return an empty list without
// touching the store, and store failures soft-fail to an empty list so the
// autocomplete never blocks the search form.
func (s *FlightService) SearchAirports(ctx context.Context, query string) []models.Airport {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < s.cfg.MinAirportQueryLen {
		return []models.Airport{}
	}

	rows := []models.Airport{}
	err := s.app.DB().
		Select("id", "iata", "name", "city", "country").
		From("airports").
		Where(dbx.Or(
			dbx.Like("city", query),
			dbx.Like("iata", query),
			dbx.Like("name", query),
		)).
		OrderBy("city ASC").
		Limit(int64(s.cfg.AirportResultLimit)).
		WithContext(ctx).
		All(&rows)
	if err != nil {
		slog.Warn("airport autocomplete query failed", "query", query, "error", err)
		monitoring.TrackSearch("airports", "error", 0)
		return []models.Airport{}
	}

	return rows
}
