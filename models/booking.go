package models

import (
	"time"
)

type Passenger struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	DateOfBirth    string `json:"date_of_birth"`
	PassportNumber string `json:"passport_number"`
	Nationality    string `json:"nationality"`
}

type Booking struct {
	ID           string      `json:"id"`
	Flight       Flight      `json:"flight"`
	Status       string      `json:"status"` // confirmed, cancelled, pending
	Passengers   []Passenger `json:"passengers"`
	TotalPrice   float64     `json:"total_price"`
	BookingDate  time.Time   `json:"booking_date"`
	TicketNumber string      `json:"ticket_number,omitempty"`
}

// BookingRequest is the payload accepted by the booking endpoint.
type BookingRequest struct {
	FlightID   string      `json:"flight_id"`
	Passengers []Passenger `json:"passengers"`
}

// BookingConfirmation is returned after a successful atomic booking write.
type BookingConfirmation struct {
	ID           string  `json:"id"`
	TicketNumber string  `json:"ticket_number"`
	TotalPrice   float64 `json:"total_price"`
	Status       string  `json:"status"`
}
