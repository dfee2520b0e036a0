package domain

import "strings"

// FuelType is the canonical fuel classification of a listing.
type FuelType string

const (
	FuelPetrol   FuelType = "Petrol"
	FuelDiesel   FuelType = "Diesel"
	FuelElectric FuelType = "Electric"
	FuelHybrid   FuelType = "Hybrid"
	FuelUnknown  FuelType = "Unknown"
)

// CanonicalFuel returns the FuelType whose name equals s ignoring case.
func CanonicalFuel(s string) (FuelType, bool) {
	for _, f := range []FuelType{FuelPetrol, FuelDiesel, FuelElectric, FuelHybrid} {
		if strings.EqualFold(strings.TrimSpace(s), string(f)) {
			return f, true
		}
	}
	return FuelUnknown, false
}

// Listing is one normalized vehicle advertisement. It is built once during
// extraction and never modified afterwards.
type Listing struct {
	Title        string   `json:"title"`
	PriceDisplay string   `json:"price"`
	PriceAmount  *float64 `json:"price_amount,omitempty"`
	Currency     string   `json:"currency"`
	Year         *int     `json:"year,omitempty"`
	Mileage      string   `json:"mileage,omitempty"`
	MileageKM    *int     `json:"mileage_km,omitempty"`
	Location     string   `json:"location"`
	FuelType     FuelType `json:"engine"`
	SourceURL    string   `json:"url"`
}
