package model

import "time"

// ReservationStatus is the lifecycle state of a table reservation.
type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

// Valid reports whether s is a known reservation status.
func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationStatusPending, ReservationStatusConfirmed, ReservationStatusCancelled:
		return true
	}
	return false
}

// Reservation is a table booking.
type Reservation struct {
	ID            int64             `json:"id"`
	UserID        *int64            `json:"userId,omitempty"`
	CustomerName  string            `json:"customerName"`
	CustomerEmail string            `json:"customerEmail"`
	CustomerPhone string            `json:"customerPhone"`
	People        int               `json:"people"`
	Date          string            `json:"date"` // YYYY-MM-DD
	Time          string            `json:"time"` // HH:MM
	Status        ReservationStatus `json:"status"`
	AdvancePaid   bool              `json:"advancePaid"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// ReservationCustomer identifies who booked the table.
type ReservationCustomer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ReservationRequest is the payload for booking a table.
type ReservationRequest struct {
	Date     string               `json:"date"`
	Time     string               `json:"time"`
	People   int                  `json:"people"`
	Customer *ReservationCustomer `json:"customer"`
}
