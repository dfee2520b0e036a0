package extract

import (
	"github.com/ps-vitor/car-comparator/internal/domain"
	"github.com/ps-vitor/car-comparator/internal/scraping/normalize"
)

// Details holds what could be mined from a free-text details blob. Every field
// is optional.
type Details struct {
	Year      *int
	Mileage   string
	MileageKM *int
	Fuel      domain.FuelType
}

// MineDetails runs the year, mileage and fuel extractors independently over text.
func MineDetails(text string, vocab normalize.Vocabulary) Details {
	d := Details{Fuel: domain.FuelUnknown}
	if text == "" {
		return d
	}
	if y, ok := normalize.Year(text); ok {
		d.Year = &y
	}
	if display, km, ok := normalize.Mileage(text); ok {
		d.Mileage = display
		d.MileageKM = &km
	}
	d.Fuel = normalize.FindFuel(text, vocab)
	return d
}
