package domain

import "time"

// BookingStatus is the durable state of a committed booking.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// Booking is the durable record written by the terminal checkout stage.
type Booking struct {
	Ref          string        `json:"ref"`
	SubjectID    string        `json:"subjectId"`
	FlightID     string        `json:"flightId"`
	Carrier      string        `json:"carrier"`
	FlightNumber string        `json:"flightNumber"`
	Origin       string        `json:"origin"`
	Destination  string        `json:"destination"`
	DepartAt     time.Time     `json:"departAt"`
	ContactName  string        `json:"contactName"`
	ContactEmail string        `json:"contactEmail"`
	Amount       Money         `json:"amount"`
	Status       BookingStatus `json:"status"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// PaymentStatus mirrors the gateway's terminal session states.
type PaymentStatus string

const (
	PaymentSucceeded PaymentStatus = "SUCCEEDED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// Payment is the durable record of the gateway settlement, committed in the
// same transaction as its Booking.
type Payment struct {
	ID         string        `json:"id"`
	BookingRef string        `json:"bookingRef"`
	SessionID  string        `json:"sessionId"`
	Status     PaymentStatus `json:"status"`
	Amount     Money         `json:"amount"`
	Method     string        `json:"method,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// CheckoutSession is an open payment-gateway session handed to the client.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// SessionStatus is the gateway's view of a session at confirmation time.
type SessionStatus struct {
	Status             string    `json:"status"`
	AmountTotal        int64     `json:"amountTotal"`
	Currency           string    `json:"currency"`
	PaymentMethodTypes []string  `json:"paymentMethodTypes"`
	Created            time.Time `json:"created"`
}

// Paid reports whether the session settled.
func (s SessionStatus) Paid() bool {
	return s.Status == "complete" || s.Status == "paid"
}

// LineItem is one priced entry of a payment session.
type LineItem struct {
	Description string `json:"description"`
	Amount      Money  `json:"amount"`
	Quantity    int    `json:"quantity"`
}
