package sources

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/ps-vitor/car-comparator/internal/domain"
	"github.com/ps-vitor/car-comparator/internal/scraping/extract"
	"github.com/ps-vitor/car-comparator/internal/scraping/normalize"
)

var englishFuel = normalize.Vocabulary{
	"gasoline": domain.FuelPetrol,
	"petrol":   domain.FuelPetrol,
	"benzine":  domain.FuelPetrol,
	"diesel":   domain.FuelDiesel,
	"electric": domain.FuelElectric,
	"hybrid":   domain.FuelHybrid,
}

func autoscout24(base string) Descriptor {
	return Descriptor{
		ID:          "autoscout24",
		DisplayName: "AutoScout24",
		Country:     "Europe",
		Currency:    "EUR",
		BaseURL:     base,
		SearchURL: func(q domain.Query) string {
			return withParam(base+"/lst/"+encodedText(q), "priceto", q.MaxPriceParam())
		},
		Chain: extract.NewChain(
			extract.Structured{
				Label:  "next-data",
				Locate: extract.JSONScript("script#__NEXT_DATA__"),
				Decode: nextDataDecoder(base),
			},
			extract.Tree{
				Container: extract.Match("div", "ListItem_article"),
				Title:     extract.Match("h2", "ListItem_title") + " a",
				Price:     extract.Match("", "Price_price"),
				Details:   extract.Match("", "VehicleDetailTable"),
				BaseURL:   base,
				Currency:  "EUR",
				Location:  "Europe",
				Fuel:      englishFuel,
			},
		),
	}
}

type nextDataListing struct {
	URL   string `json:"url"`
	Price struct {
		PriceFormatted string `json:"priceFormatted"`
	} `json:"price"`
	Vehicle struct {
		Make              string `json:"make"`
		Model             string `json:"model"`
		ModelVersionInput string `json:"modelVersionInput"`
		Fuel              string `json:"fuel"`
		MileageInKm       string `json:"mileageInKm"`
	} `json:"vehicle"`
	Location struct {
		City string `json:"city"`
	} `json:"location"`
	Tracking struct {
		Price             string `json:"price"`
		FirstRegistration string `json:"firstRegistration"`
	} `json:"tracking"`
}

func nextDataDecoder(base string) extract.Decoder {
	return func(raw []byte, _ extract.Input) ([]domain.Listing, error) {
		var data struct {
			Props struct {
				PageProps struct {
					Listings []nextDataListing `json:"listings"`
				} `json:"pageProps"`
			} `json:"props"`
		}
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, err
		}
		items := data.Props.PageProps.Listings
		if items == nil {
			return nil, errors.New("props.pageProps.listings missing")
		}

		var listings []domain.Listing
		for _, it := range items {
			if len(listings) >= domain.MaxListingsPerSearch {
				break
			}
			title := normalize.Text(strings.Join([]string{it.Vehicle.Make, it.Vehicle.Model, it.Vehicle.ModelVersionInput}, " "))
			price := normalize.PriceDisplay(it.Price.PriceFormatted)
			if title == "" || price == "" {
				continue
			}
			l := domain.Listing{
				Title:        title,
				PriceDisplay: price,
				Currency:     "EUR",
				Location:     it.Location.City,
				FuelType:     normalize.Fuel(it.Vehicle.Fuel, englishFuel),
				SourceURL:    resolveLink(base, it.URL),
			}
			if amount, ok := normalize.ParseAmount(it.Tracking.Price); ok {
				l.PriceAmount = &amount
			}
			if y, ok := normalize.Year(it.Tracking.FirstRegistration); ok {
				l.Year = &y
			}
			if display, km, ok := normalize.Mileage(it.Vehicle.MileageInKm); ok {
				l.Mileage = display
				l.MileageKM = &km
			}
			if l.Location == "" {
				l.Location = "Europe"
			}
			listings = append(listings, l)
		}
		return listings, nil
	}
}
