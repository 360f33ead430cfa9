package services

import (
	"testing"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tests"
	"github.com/stretchr/testify/require"
)

// setupTestApp boots an isolated app over a throwaway data dir and creates
// the domain collections with the same shape the migrations define.
func setupTestApp(t *testing.T) *tests.TestApp {
	t.Helper()

	app, err := tests.NewTestApp(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(app.Cleanup)

	createTestCollections(t, app)
	return app
}

func createTestCollections(t *testing.T, app core.App) {
	t.Helper()

	users, err := app.FindCollectionByNameOrId("users")
	require.NoError(t, err)

	airlines := core.NewBaseCollection("airlines")
	airlines.Fields.Add(
		&core.TextField{Name: "code", Required: true},
		&core.TextField{Name: "name", Required: true},
	)
	require.NoError(t, app.Save(airlines))

	airports := core.NewBaseCollection("airports")
	airports.Fields.Add(
		&core.TextField{Name: "iata", Required: true},
		&core.TextField{Name: "name", Required: true},
		&core.TextField{Name: "city", Required: true},
		&core.TextField{Name: "country", Required: true},
	)
	require.NoError(t, app.Save(airports))

	flights := core.NewBaseCollection("flights")
	flights.Fields.Add(
		&core.TextField{Name: "flight_number", Required: true},
		&core.RelationField{Name: "airline", CollectionId: airlines.Id, MaxSelect: 1, Required: true},
		&core.RelationField{Name: "departure_airport", CollectionId: airports.Id, MaxSelect: 1, Required: true},
		&core.RelationField{Name: "arrival_airport", CollectionId: airports.Id, MaxSelect: 1, Required: true},
		&core.DateField{Name: "departure_time", Required: true},
		&core.DateField{Name: "arrival_time", Required: true},
		&core.TextField{Name: "aircraft"},
		&core.NumberField{Name: "stops", OnlyInt: true},
		&core.SelectField{Name: "status", Values: []string{"scheduled", "delayed", "cancelled", "landed"}, MaxSelect: 1},
		&core.NumberField{Name: "base_price", Required: true},
		&core.DateField{Name: "flight_date"},
	)
	require.NoError(t, app.Save(flights))

	deals := core.NewBaseCollection("deals")
	deals.Fields.Add(
		&core.RelationField{Name: "flight", CollectionId: flights.Id, MaxSelect: 1, Required: true},
		&core.NumberField{Name: "discount_percentage", Required: true},
		&core.DateField{Name: "valid_until", Required: true},
	)
	require.NoError(t, app.Save(deals))

	bookings := core.NewBaseCollection("bookings")
	bookings.Fields.Add(
		&core.RelationField{Name: "user", CollectionId: users.Id, MaxSelect: 1, Required: true},
		&core.RelationField{Name: "flight", CollectionId: flights.Id, MaxSelect: 1, Required: true},
		&core.SelectField{Name: "status", Values: []string{"confirmed", "cancelled", "pending"}, MaxSelect: 1, Required: true},
		&core.NumberField{Name: "total_price", Required: true},
		&core.DateField{Name: "booking_date", Required: true},
		&core.TextField{Name: "ticket_number"},
	)
	require.NoError(t, app.Save(bookings))

	passengers := core.NewBaseCollection("passengers")
	passengers.Fields.Add(
		&core.RelationField{Name: "booking", CollectionId: bookings.Id, MaxSelect: 1, Required: true},
		&core.TextField{Name: "first_name", Required: true},
		&core.TextField{Name: "last_name", Required: true},
		&core.DateField{Name: "date_of_birth"},
		&core.TextField{Name: "passport_number"},
		&core.TextField{Name: "nationality"},
		&core.AutodateField{Name: "created", OnCreate: true},
	)
	require.NoError(t, app.Save(passengers))

	wishlist := core.NewBaseCollection("wishlist")
	wishlist.Fields.Add(
		&core.RelationField{Name: "user", CollectionId: users.Id, MaxSelect: 1, Required: true},
		&core.RelationField{Name: "flight", CollectionId: flights.Id, MaxSelect: 1, Required: true},
		&core.AutodateField{Name: "created", OnCreate: true},
	)
	require.NoError(t, app.Save(wishlist))
}

func createTestUser(t *testing.T, app core.App, email string) *core.Record {
	t.Helper()

	users, err := app.FindCollectionByNameOrId("users")
	require.NoError(t, err)

	user := core.NewRecord(users)
	user.Set("email", email)
	user.Set("password", "1234567890")
	require.NoError(t, app.Save(user))
	return user
}

func createTestAirline(t *testing.T, app core.App, code, name string) *core.Record {
	t.Helper()

	collection, err := app.FindCollectionByNameOrId("airlines")
	require.NoError(t, err)

	airline := core.NewRecord(collection)
	airline.Set("code", code)
	airline.Set("name", name)
	require.NoError(t, app.Save(airline))
	return airline
}

func createTestAirport(t *testing.T, app core.App, iata, name, city, country string) *core.Record {
	t.Helper()

	collection, err := app.FindCollectionByNameOrId("airports")
	require.NoError(t, err)

	airport := core.NewRecord(collection)
	airport.Set("iata", iata)
	airport.Set("name", name)
	airport.Set("city", city)
	airport.Set("country", country)
	require.NoError(t, app.Save(airport))
	return airport
}

func createTestFlight(t *testing.T, app core.App, airline, dep, arr *core.Record, number string, departure time.Time, price float64) *core.Record {
	t.Helper()

	collection, err := app.FindCollectionByNameOrId("flights")
	require.NoError(t, err)

	flight := core.NewRecord(collection)
	flight.Set("flight_number", number)
	flight.Set("airline", airline.Id)
	flight.Set("departure_airport", dep.Id)
	flight.Set("arrival_airport", arr.Id)
	flight.Set("departure_time", mustDateTime(t, departure))
	flight.Set("arrival_time", mustDateTime(t, departure.Add(2*time.Hour)))
	flight.Set("status", "scheduled")
	flight.Set("base_price", price)
	require.NoError(t, app.Save(flight))
	return flight
}

func createTestDeal(t *testing.T, app core.App, flight *core.Record, discount float64, validUntil time.Time) *core.Record {
	t.Helper()

	collection, err := app.FindCollectionByNameOrId("deals")
	require.NoError(t, err)

	deal := core.NewRecord(collection)
	deal.Set("flight", flight.Id)
	deal.Set("discount_percentage", discount)
	deal.Set("valid_until", mustDateTime(t, validUntil))
	require.NoError(t, app.Save(deal))
	return deal
}

func createTestBooking(t *testing.T, app core.App, user, flight *core.Record, bookingDate time.Time) *core.Record {
	t.Helper()

	collection, err := app.FindCollectionByNameOrId("bookings")
	require.NoError(t, err)

	booking := core.NewRecord(collection)
	booking.Set("user", user.Id)
	booking.Set("flight", flight.Id)
	booking.Set("status", "confirmed")
	booking.Set("total_price", flight.GetFloat("base_price"))
	booking.Set("booking_date", mustDateTime(t, bookingDate))
	booking.Set("ticket_number", "TKT-"+flight.GetString("flight_number"))
	require.NoError(t, app.Save(booking))
	return booking
}
