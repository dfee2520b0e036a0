package sources

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/ps-vitor/car-comparator/internal/domain"
	"github.com/ps-vitor/car-comparator/internal/scraping/extract"
	"github.com/ps-vitor/car-comparator/internal/scraping/normalize"
)

var norwegianFuel = normalize.Vocabulary{
	"bensin":       domain.FuelPetrol,
	"diesel":       domain.FuelDiesel,
	"el":           domain.FuelElectric,
	"elektrisitet": domain.FuelElectric,
	"elbil":        domain.FuelElectric,
	"hybrid":       domain.FuelHybrid,
	"el+bensin":    domain.FuelHybrid,
	"el+diesel":    domain.FuelHybrid,
}

func finn(base string) Descriptor {
	return Descriptor{
		ID:          "finn",
		DisplayName: "FINN.no",
		Country:     "Norway",
		Currency:    "NOK",
		BaseURL:     base,
		SearchURL: func(q domain.Query) string {
			return withParam(base+"/car/used/search.html?q="+encodedText(q), "price_to", q.MaxPriceParam())
		},
		Chain: extract.NewChain(
			extract.Structured{
				Label:  "initial-state",
				Locate: extract.AssignedObject("window.__INITIAL_STATE__"),
				Decode: finnStateDecoder(base),
			},
			extract.Tree{
				Container: extract.Match("article", "ads__unit"),
				Title:     extract.Match("h2", "ads__unit__content__title") + " a",
				Price:     extract.Match("", "ads__unit__content__price"),
				Details:   extract.Match("", "ads__unit__content__details"),
				BaseURL:   base,
				Currency:  "NOK",
				Fuel:      norwegianFuel,
			},
		),
	}
}

type finnAd struct {
	Heading string `json:"heading"`
	Price   struct {
		Amount any `json:"amount"`
	} `json:"price"`
	Year         any    `json:"year"`
	Mileage      any    `json:"mileage"`
	Location     string `json:"location"`
	EngineType   string `json:"engineType"`
	CanonicalURL string `json:"canonical_url"`
}

func finnStateDecoder(base string) extract.Decoder {
	return func(raw []byte, _ extract.Input) ([]domain.Listing, error) {
		var state struct {
			SearchResult *struct {
				Ads []finnAd `json:"ads"`
			} `json:"searchResult"`
		}
		if err := json.Unmarshal(raw, &state); err != nil {
			return nil, err
		}
		if state.SearchResult == nil {
			return nil, errors.New("searchResult.ads missing")
		}

		listings := make([]domain.Listing, 0, len(state.SearchResult.Ads))
		for _, ad := range state.SearchResult.Ads {
			if len(listings) >= domain.MaxListingsPerSearch {
				break
			}
			l := domain.Listing{
				Title:        orNA(ad.Heading),
				PriceDisplay: "N/A",
				Currency:     "NOK",
				Location:     ad.Location,
				FuelType:     normalize.Fuel(ad.EngineType, norwegianFuel),
				SourceURL:    base + "#",
			}
			if amount, ok := normalize.ParseAmount(ad.Price.Amount); ok {
				l.PriceAmount = &amount
				l.PriceDisplay = normalize.FormatPrice(amount, "NOK")
			}
			if y, ok := normalize.ParseAmount(ad.Year); ok {
				if year, ok := normalize.Year(strconv.Itoa(int(y))); ok {
					l.Year = &year
				}
			}
			if km, ok := normalize.ParseAmount(ad.Mileage); ok {
				n := int(km)
				l.MileageKM = &n
				l.Mileage = normalize.FormatMileage(n)
			}
			if ad.CanonicalURL != "" {
				l.SourceURL = resolveLink(base, ad.CanonicalURL)
			}
			listings = append(listings, l)
		}
		return listings, nil
	}
}

func orNA(s string) string {
	if s = normalize.Text(s); s == "" {
		return "N/A"
	}
	return s
}

func resolveLink(base, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return base + href
}
