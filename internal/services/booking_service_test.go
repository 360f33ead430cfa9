package services

import (
	"context"
	"testing"
	"time"

	"flight-system/internal/status"
	"flight-system/models"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalPrice(t *testing.T) {
	tests := []struct {
		name           string
		effectivePrice float64
		passengers     int
		want           float64
	}{
		{"single passenger", 250, 1, 250},
		{"three passengers", 250, 3, 750},
		{"discounted fare", 84.99, 2, 169.98},
		{"fractional rounding", 33.335, 3, 100.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TotalPrice(tt.effectivePrice, tt.passengers))
		})
	}
}

func TestBookFlight_RejectsEmptyRequest(t *testing.T) {
	service := NewBookingService(nil, nil, nil)
	ctx := context.Background()

	_, err := service.BookFlight(ctx, "user-1", models.BookingRequest{})
	assert.ErrorIs(t, err, status.ErrBookingFailed)

	_, err = service.BookFlight(ctx, "user-1", models.BookingRequest{FlightID: "flight-1"})
	assert.ErrorIs(t, err, status.ErrBookingFailed)

	_, err = service.BookFlight(ctx, "user-1", models.BookingRequest{
		Passengers: []models.Passenger{{FirstName: "Ana", LastName: "Souza"}},
	})
	assert.ErrorIs(t, err, status.ErrBookingFailed)
}

func setupBookingFixture(t *testing.T) (*tests.TestApp, *BookingService, *core.Record) {
	t.Helper()

	app := setupTestApp(t)
	flights := NewFlightService(app, testConfig())
	service := NewBookingService(app, flights, NewNotifyService(nil))
	user := createTestUser(t, app, "traveler@example.com")
	return app, service, user
}

func TestBookFlight_PersistsBookingAndPassengers(t *testing.T) {
	app, service, user := setupBookingFixture(t)
	ctx := context.Background()

	airline := createTestAirline(t, app, "QV", "Lao Airlines")
	vte := createTestAirport(t, app, "VTE", "Wattay International", "Vientiane", "Laos")
	bkk := createTestAirport(t, app, "BKK", "Suvarnabhumi", "Bangkok", "Thailand")
	flight := createTestFlight(t, app, airline, vte, bkk, "QV312", time.Now().UTC().Add(48*time.Hour), 250)

	conf, err := service.BookFlight(ctx, user.Id, models.BookingRequest{
		FlightID: flight.Id,
		Passengers: []models.Passenger{
			{FirstName: "Ana", LastName: "Souza", DateOfBirth: "1990-05-10", Nationality: "BR"},
			{FirstName: "Noy", LastName: "Vong", DateOfBirth: "1988-01-22", Nationality: "LA"},
			{FirstName: "Mai", LastName: "Vong", DateOfBirth: "2015-07-03", Nationality: "LA"},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, conf)

	assert.Equal(t, 750.0, conf.TotalPrice)
	assert.Equal(t, "confirmed", conf.Status)
	assert.NotEmpty(t, conf.ID)
	assert.NotEmpty(t, conf.TicketNumber)

	booking, err := app.FindRecordById("bookings", conf.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Id, booking.GetString("user"))
	assert.Equal(t, 750.0, booking.GetFloat("total_price"))

	passengerCount, err := app.CountRecords("passengers")
	require.NoError(t, err)
	assert.Equal(t, int64(3), passengerCount)
}

func TestBookFlight_MissingFlight(t *testing.T) {
	_, service, user := setupBookingFixture(t)

	_, err := service.BookFlight(context.Background(), user.Id, models.BookingRequest{
		FlightID:   "nope123456",
		Passengers: []models.Passenger{{FirstName: "Ana", LastName: "Souza"}},
	})
	assert.ErrorIs(t, err, status.ErrFlightNotFound)
}

func TestBookFlight_RollsBackBookingOnPassengerFailure(t *testing.T) {
	app, service, user := setupBookingFixture(t)

	airline := createTestAirline(t, app, "QV", "Lao Airlines")
	vte := createTestAirport(t, app, "VTE", "Wattay International", "Vientiane", "Laos")
	bkk := createTestAirport(t, app, "BKK", "Suvarnabhumi", "Bangkok", "Thailand")
	flight := createTestFlight(t, app, airline, vte, bkk, "QV312", time.Now().UTC().Add(48*time.Hour), 250)

	// Second passenger fails validation, so the already-written booking and
	// first passenger must roll back with it.
	_, err := service.BookFlight(context.Background(), user.Id, models.BookingRequest{
		FlightID: flight.Id,
		Passengers: []models.Passenger{
			{FirstName: "Ana", LastName: "Souza"},
			{FirstName: "", LastName: "Vong"},
		},
	})
	assert.ErrorIs(t, err, status.ErrBookingFailed)

	bookingCount, err := app.CountRecords("bookings")
	require.NoError(t, err)
	assert.Equal(t, int64(0), bookingCount)

	passengerCount, err := app.CountRecords("passengers")
	require.NoError(t, err)
	assert.Equal(t, int64(0), passengerCount)
}

func TestGetUpcomingFlights_ExcludesDepartedAndSortsAscending(t *testing.T) {
	app, service, user := setupBookingFixture(t)
	ctx := context.Background()

	airline := createTestAirline(t, app, "QV", "Lao Airlines")
	vte := createTestAirport(t, app, "VTE", "Wattay International", "Vientiane", "Laos")
	bkk := createTestAirport(t, app, "BKK", "Suvarnabhumi", "Bangkok", "Thailand")

	now := time.Now().UTC()
	departed := createTestFlight(t, app, airline, vte, bkk, "QV310", now.Add(-2*time.Hour), 150)
	later := createTestFlight(t, app, airline, vte, bkk, "QV314", now.Add(48*time.Hour), 210)
	soon := createTestFlight(t, app, airline, vte, bkk, "QV312", now.Add(3*time.Hour), 180)

	// Booked in an order that differs from departure order.
	createTestBooking(t, app, user, later, now.Add(-72*time.Hour))
	createTestBooking(t, app, user, departed, now.Add(-48*time.Hour))
	createTestBooking(t, app, user, soon, now.Add(-24*time.Hour))

	bookings, err := service.GetUpcomingFlights(ctx, user.Id)
	require.NoError(t, err)

	require.Len(t, bookings, 2)
	assert.Equal(t, "QV312", bookings[0].Flight.FlightNumber)
	assert.Equal(t, "QV314", bookings[1].Flight.FlightNumber)
	assert.Equal(t, "confirmed", bookings[0].Status)
}

func TestGetFlightHistory_NewestBookingFirst(t *testing.T) {
	app, service, user := setupBookingFixture(t)
	ctx := context.Background()

	airline := createTestAirline(t, app, "QV", "Lao Airlines")
	vte := createTestAirport(t, app, "VTE", "Wattay International", "Vientiane", "Laos")
	bkk := createTestAirport(t, app, "BKK", "Suvarnabhumi", "Bangkok", "Thailand")

	now := time.Now().UTC()
	old := createTestFlight(t, app, airline, vte, bkk, "QV310", now.Add(-30*24*time.Hour), 150)
	recent := createTestFlight(t, app, airline, vte, bkk, "QV312", now.Add(48*time.Hour), 180)

	createTestBooking(t, app, user, old, now.Add(-31*24*time.Hour))
	createTestBooking(t, app, user, recent, now.Add(-time.Hour))

	bookings, err := service.GetFlightHistory(ctx, user.Id)
	require.NoError(t, err)

	require.Len(t, bookings, 2)
	assert.Equal(t, "QV312", bookings[0].Flight.FlightNumber)
	assert.Equal(t, "QV310", bookings[1].Flight.FlightNumber)
}
