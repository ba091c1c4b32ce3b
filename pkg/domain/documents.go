package domain

import (
	"encoding/json"
	"time"
)

// Money is an amount in minor units (cents) with its ISO currency code.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// FlightQuery are the validated search parameters forwarded to the provider.
type FlightQuery struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	DepartDate  string `json:"departDate"`
	Passengers  int    `json:"passengers"`
}

// FlightOffer is one result returned by the flight provider. Fields the core
// reads (id, route, price) are typed; everything else the provider sent rides
// along opaquely in Extra.
type FlightOffer struct {
	ID           string          `json:"id"`
	Carrier      string          `json:"carrier"`
	FlightNumber string          `json:"flightNumber"`
	Origin       string          `json:"origin"`
	Destination  string          `json:"destination"`
	DepartAt     time.Time       `json:"departAt"`
	ArriveAt     time.Time       `json:"arriveAt"`
	Price        Money           `json:"price"`
	Extra        json.RawMessage `json:"extra,omitempty"`
}

// FlightSearchResult is the Search-stage staged document.
type FlightSearchResult struct {
	Query   FlightQuery   `json:"query"`
	Flights []FlightOffer `json:"flightsResult"`
}

// Offer returns the offer with the given id, if present.
func (r *FlightSearchResult) Offer(id string) (FlightOffer, bool) {
	for _, f := range r.Flights {
		if f.ID == id {
			return f, true
		}
	}
	return FlightOffer{}, false
}

// FlightSelection is the Select-stage staged document: a single offer carved
// out of a search result. The originating search record is left untouched.
type FlightSelection struct {
	FlightInfo FlightOffer `json:"flightInfo"`
	SelectedAt time.Time   `json:"selectedAt"`
}

// Contact identifies the traveler on a booking draft.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// BillingAddress is carried on the draft for payment-session creation.
type BillingAddress struct {
	Line1   string `json:"line1"`
	City    string `json:"city"`
	Postal  string `json:"postal"`
	Country string `json:"country"`
}

// BookingDraft is the CheckoutInit-stage staged document. It pins the
// selected flight, the traveler, and the open payment-gateway session.
type BookingDraft struct {
	Flight    FlightOffer    `json:"flight"`
	Contact   Contact        `json:"contact"`
	Billing   BillingAddress `json:"billing"`
	SessionID string         `json:"sessionId"`
	Amount    Money          `json:"amount"`
	CreatedAt time.Time      `json:"createdAt"`
}

// SightQuery are the validated sightseeing search parameters.
type SightQuery struct {
	City     string `json:"city"`
	Category string `json:"category,omitempty"`
}

// Place is one sightseeing result. Same opacity rule as FlightOffer.
type Place struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Address string          `json:"address"`
	Rating  float64         `json:"rating,omitempty"`
	Extra   json.RawMessage `json:"extra,omitempty"`
}

// SightSearchResult is the SightSearch-stage staged document.
type SightSearchResult struct {
	Query  SightQuery `json:"query"`
	Places []Place    `json:"placesResult"`
}

// Place returns the place with the given id, if present.
func (r *SightSearchResult) Place(id string) (Place, bool) {
	for _, p := range r.Places {
		if p.ID == id {
			return p, true
		}
	}
	return Place{}, false
}

// SightSelection is the SightSelect-stage staged document.
type SightSelection struct {
	PlaceInfo  Place     `json:"placeInfo"`
	SelectedAt time.Time `json:"selectedAt"`
}

// Airport is provider airport metadata, cached in the ephemeral store.
type Airport struct {
	IATA     string `json:"iata"`
	Name     string `json:"name"`
	City     string `json:"city"`
	Country  string `json:"country"`
	TimeZone string `json:"timeZone,omitempty"`
}
