package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Airport struct {
	ID      string `db:"id" json:"id"`
	IATA    string `db:"iata" json:"iata"`
	Name    string `db:"name" json:"name"`
	City    string `db:"city" json:"city"`
	Country string `db:"country" json:"country"`
}

type Airline struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

type Flight struct {
	ID            string    `json:"id"`
	FlightNumber  string    `json:"flight_number"`
	Airline       string    `json:"airline"`
	DepartureCity string    `json:"departure_city"`
	ArrivalCity   string    `json:"arrival_city"`
	DepartureIATA string    `json:"departure_iata"`
	ArrivalIATA   string    `json:"arrival_iata"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	Duration      string    `json:"duration"`
	Aircraft      string    `json:"aircraft"`
	Stops         int       `json:"stops"`
	Status        string    `json:"status"` // scheduled, delayed, cancelled, landed
	BasePrice     float64   `json:"base_price"`
	Price         float64   `json:"price"`
	FlightDate    string    `json:"flight_date,omitempty"`
}

type Deal struct {
	ID                 string    `json:"id"`
	FlightID           string    `json:"flight_id"`
	DiscountPercentage float64   `json:"discount_percentage"`
	ValidUntil         time.Time `json:"valid_until"`
}

// Active reports whether the deal still applies at the given instant.
func (d *Deal) Active(now time.Time) bool {
	return d != nil && now.Before(d.ValidUntil)
}

// EffectivePrice applies the deal's percentage discount to the base price,
// rounded to 2 decimal places. Expired or missing deals leave the base
// price untouched.
func EffectivePrice(basePrice float64, deal *Deal, now time.Time) float64 {
	if !deal.Active(now) {
		return basePrice
	}

	base := decimal.NewFromFloat(basePrice)
	factor := decimal.NewFromInt(100).
		Sub(decimal.NewFromFloat(deal.DiscountPercentage)).
		Div(decimal.NewFromInt(100))

	price, _ := base.Mul(factor).Round(2).Float64()
	return price
}

// FormatDuration renders the departure-to-arrival span as "2h 45m".
// Malformed rows where arrival precedes departure render as "0h 0m".
func FormatDuration(departure, arrival time.Time) string {
	span := arrival.Sub(departure)
	if span < 0 {
		span = 0
	}

	hours := int(span.Hours())
	minutes := int(span.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
