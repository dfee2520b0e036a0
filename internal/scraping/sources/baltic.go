package sources

import (
	"github.com/ps-vitor/car-comparator/internal/domain"
	"github.com/ps-vitor/car-comparator/internal/scraping/extract"
	"github.com/ps-vitor/car-comparator/internal/scraping/normalize"
)

var (
	estonianFuel = normalize.Vocabulary{
		"bensiin": domain.FuelPetrol,
		"diisel":  domain.FuelDiesel,
		"elekter": domain.FuelElectric,
		"hübriid": domain.FuelHybrid,
	}
	lithuanianFuel = normalize.Vocabulary{
		"benzinas":   domain.FuelPetrol,
		"dyzelinas":  domain.FuelDiesel,
		"elektra":    domain.FuelElectric,
		"hibridas":   domain.FuelHybrid,
		"elektrinis": domain.FuelElectric,
	}
)

func auto24(base string) Descriptor {
	return Descriptor{
		ID:          "auto24",
		DisplayName: "Auto24",
		Country:     "Estonia",
		Currency:    "EUR",
		BaseURL:     base,
		SearchURL: func(q domain.Query) string {
			return withParam(base+"/used/search?q="+encodedText(q), "price_max", q.MaxPriceParam())
		},
		Chain: extract.NewChain(
			extract.Tree{
				Container: extract.Match("div", "result-row"),
				Title:     extract.Match("a", "result-title"),
				Price:     extract.Match("", "result-price"),
				Details:   extract.Match("", "result-extra"),
				BaseURL:   base,
				Currency:  "EUR",
				Location:  "Estonia",
				Fuel:      estonianFuel,
			},
		),
	}
}

// ss has no price parameter in its search URL, so the ceiling is applied to
// the extracted listings instead.
func ss(base string) Descriptor {
	return Descriptor{
		ID:          "ss",
		DisplayName: "SS.lv",
		Country:     "Latvia",
		Currency:    "EUR",
		BaseURL:     base,
		SearchURL: func(q domain.Query) string {
			return base + "/lv/transport/cars/search/?q=" + encodedText(q)
		},
		Chain: extract.NewChain(
			extract.Tree{
				Container: extract.MatchAttr("tr", "id", "tr_"),
				Title:     extract.Match("a", "am"),
				Price:     extract.Match("", "price"),
				BaseURL:   base,
				Currency:  "EUR",
				Location:  "Latvia",
				Keep:      underMaxPrice,
			},
		),
	}
}

func autoplius(base string) Descriptor {
	return Descriptor{
		ID:          "autoplius",
		DisplayName: "Autoplius",
		Country:     "Lithuania",
		Currency:    "EUR",
		BaseURL:     base,
		SearchURL: func(q domain.Query) string {
			return base + "/skelbimai/search?q=" + encodedText(q)
		},
		Chain: extract.NewChain(
			extract.Tree{
				Container: extract.Match("div", "announcement-item"),
				Title:     extract.Match("a", "announcement-title"),
				Price:     extract.Match("", "announcement-price"),
				Details:   extract.Match("", "announcement-parameters"),
				BaseURL:   base,
				Currency:  "EUR",
				Location:  "Lithuania",
				Fuel:      lithuanianFuel,
			},
		),
	}
}
