package sources

import (
	"github.com/ps-vitor/car-comparator/internal/domain"
	"github.com/ps-vitor/car-comparator/internal/scraping/extract"
	"github.com/ps-vitor/car-comparator/internal/scraping/normalize"
)

var germanFuel = normalize.Vocabulary{
	"benzin":  domain.FuelPetrol,
	"diesel":  domain.FuelDiesel,
	"elektro": domain.FuelElectric,
	"hybrid":  domain.FuelHybrid,
}

func mobile(base string) Descriptor {
	return Descriptor{
		ID:          "mobile",
		DisplayName: "Mobile.de",
		Country:     "Germany",
		Currency:    "EUR",
		BaseURL:     base,
		SearchURL: func(q domain.Query) string {
			u := base + "/fahrzeuge/search.html?dam=0&isSearchRequest=true&ms=" + encodedText(q)
			return withParam(u, "p", q.MaxPriceParam())
		},
		Chain: extract.NewChain(
			extract.Tree{
				Container: extract.Match("div", "result-item"),
				Title:     extract.Match("h2", "result-title") + " a",
				Price:     extract.Match("", "price-block"),
				Details:   extract.Match("", "vehicle-data"),
				BaseURL:   base,
				Currency:  "EUR",
				Location:  "Germany",
				Fuel:      germanFuel,
			},
		),
	}
}
