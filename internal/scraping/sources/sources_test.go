package sources

import (
	"testing"

	"github.com/ps-vitor/car-comparator/internal/domain"
	"github.com/ps-vitor/car-comparator/internal/scraping/extract"
)

func mustQuery(t *testing.T, source, brand, model string, maxPrice float64) domain.Query {
	t.Helper()
	q, err := domain.NewQuery(source, brand, model, maxPrice)
	if err != nil {
		t.Fatalf("NewQuery: %v", err)
	}
	return q
}

func TestSearchURLs(t *testing.T) {
	reg := Load(nil)
	tests := []struct {
		source   string
		maxPrice float64
		want     string
	}{
		{"finn", 200000, "https://www.finn.no/car/used/search.html?q=Toyota+Corolla&price_to=200000"},
		{"finn", 0, "https://www.finn.no/car/used/search.html?q=Toyota+Corolla"},
		{"auto24", 9000, "https://www.auto24.ee/used/search?q=Toyota+Corolla&price_max=9000"},
		{"ss", 9000, "https://www.ss.lv/lv/transport/cars/search/?q=Toyota+Corolla"},
		{"autoplius", 9000, "https://lv.m.autoplius.lt/skelbimai/search?q=Toyota+Corolla"},
		{"autoscout24", 15000, "https://www.autoscout24.com/lst/Toyota+Corolla?priceto=15000"},
		{"autoscout24", 0, "https://www.autoscout24.com/lst/Toyota+Corolla"},
		{"mobile", 20000, "https://suchen.mobile.de/fahrzeuge/search.html?dam=0&isSearchRequest=true&ms=Toyota+Corolla&p=20000"},
	}
	for _, tt := range tests {
		d, ok := reg.Get(tt.source)
		if !ok {
			t.Fatalf("source %q not registered", tt.source)
		}
		got := d.SearchURL(mustQuery(t, tt.source, "Toyota", "Corolla", tt.maxPrice))
		if got != tt.want {
			t.Errorf("%s SearchURL: got %q, want %q", tt.source, got, tt.want)
		}
	}
}

func TestLoadOverrides(t *testing.T) {
	reg := Load(map[string]Override{
		"finn":   {BaseURL: "http://127.0.0.1:9999/", DisplayName: "FINN test"},
		"mobile": {Disabled: true},
	})
	if _, ok := reg.Get("mobile"); ok {
		t.Errorf("disabled source should not be registered")
	}
	if len(reg.IDs()) != 5 {
		t.Errorf("IDs: got %v, want 5 sources", reg.IDs())
	}
	if reg.IDs()[0] != "finn" {
		t.Errorf("order: got %v, want finn first", reg.IDs())
	}
	d, _ := reg.Get("finn")
	if d.DisplayName != "FINN test" || d.BaseURL != "http://127.0.0.1:9999" {
		t.Errorf("override: got %q %q", d.DisplayName, d.BaseURL)
	}
	if got := d.SearchURL(mustQuery(t, "finn", "Volvo", "", 0)); got != "http://127.0.0.1:9999/car/used/search.html?q=Volvo" {
		t.Errorf("override SearchURL: got %q", got)
	}
}

func TestEveryChainEndsWithTreeExtraction(t *testing.T) {
	for _, d := range Load(nil).All() {
		strategies := d.Chain.Strategies()
		if len(strategies) == 0 {
			t.Errorf("%s: empty chain", d.ID)
			continue
		}
		if _, ok := strategies[len(strategies)-1].(extract.Tree); !ok {
			t.Errorf("%s: last strategy is %s, want tree", d.ID, strategies[len(strategies)-1].Name())
		}
	}
}

const finnState = `<html><script>
window.__INITIAL_STATE__ = {"searchResult":{"ads":[
 {"heading":"Toyota Corolla 1.8 Hybrid","price":{"amount":189900},"year":2019,"mileage":45000,"location":"Oslo","engineType":"El+bensin","canonical_url":"/car/used/ad.html?finnkode=1"},
 {"heading":"","price":{},"location":"Bergen","engineType":"Bensin"}
]}};
</script></html>`

func TestFinnStructuredPath(t *testing.T) {
	d, _ := Load(nil).Get("finn")
	listings, errs := d.Chain.Run(extract.Input{Body: []byte(finnState)})
	if len(errs) != 0 {
		t.Fatalf("errs: %v", errs)
	}
	if len(listings) != 2 {
		t.Fatalf("listings: got %d, want 2", len(listings))
	}
	l := listings[0]
	if l.PriceDisplay != "kr 189 900" || l.PriceAmount == nil || *l.PriceAmount != 189900 {
		t.Errorf("price: got %q / %v", l.PriceDisplay, l.PriceAmount)
	}
	if l.Year == nil || *l.Year != 2019 {
		t.Errorf("year: got %v", l.Year)
	}
	if l.Mileage != "45,000 km" {
		t.Errorf("mileage: got %q", l.Mileage)
	}
	if l.FuelType != domain.FuelHybrid {
		t.Errorf("fuel: got %q", l.FuelType)
	}
	if l.SourceURL != "https://www.finn.no/car/used/ad.html?finnkode=1" {
		t.Errorf("url: got %q", l.SourceURL)
	}
	if listings[1].Title != "N/A" || listings[1].PriceDisplay != "N/A" || listings[1].FuelType != domain.FuelPetrol {
		t.Errorf("sparse ad: got %+v", listings[1])
	}
}

const finnMarkup = `<html><body>
<article class="ads__unit">
  <h2 class="ads__unit__content__title"><a href="/car/used/ad.html?finnkode=11">Toyota Corolla 1.6</a></h2>
  <div class="ads__unit__content__price">95 000 kr</div>
  <div class="ads__unit__content__details">2012 ∙ 154 000 km ∙ Bensin</div>
</article>
</body></html>`

func TestFinnFallsBackToMarkup(t *testing.T) {
	d, _ := Load(nil).Get("finn")
	listings, _ := d.Chain.Run(extract.Input{Body: []byte(finnMarkup)})
	if len(listings) != 1 {
		t.Fatalf("listings: got %d, want 1", len(listings))
	}
	l := listings[0]
	if l.Title != "Toyota Corolla 1.6" || l.PriceDisplay != "95 000 kr" {
		t.Errorf("title/price: got %q / %q", l.Title, l.PriceDisplay)
	}
	if l.PriceAmount != nil {
		t.Errorf("tree path must not set price amount, got %v", *l.PriceAmount)
	}
	if l.Mileage != "154,000 km" || l.FuelType != domain.FuelPetrol {
		t.Errorf("details: got %q / %q", l.Mileage, l.FuelType)
	}
	if l.Year == nil || *l.Year != 2012 {
		t.Errorf("year: got %v", l.Year)
	}
}

const nextData = `<html><body><script id="__NEXT_DATA__" type="application/json">
{"props":{"pageProps":{"listings":[
 {"url":"/offers/vw-golf-1","price":{"priceFormatted":"€ 14,990"},
  "vehicle":{"make":"Volkswagen","model":"Golf","modelVersionInput":"1.5 TSI","fuel":"Gasoline","mileageInKm":"61,000 km"},
  "location":{"city":"Berlin"},"tracking":{"price":"14990","firstRegistration":"03-2020"}}
]}}}
</script></body></html>`

func TestAutoScout24NextData(t *testing.T) {
	d, _ := Load(nil).Get("autoscout24")
	listings, errs := d.Chain.Run(extract.Input{Body: []byte(nextData)})
	if len(errs) != 0 || len(listings) != 1 {
		t.Fatalf("got %d listings, errs %v", len(listings), errs)
	}
	l := listings[0]
	if l.Title != "Volkswagen Golf 1.5 TSI" {
		t.Errorf("title: got %q", l.Title)
	}
	if l.PriceAmount == nil || *l.PriceAmount != 14990 {
		t.Errorf("amount: got %v", l.PriceAmount)
	}
	if l.Year == nil || *l.Year != 2020 || l.MileageKM == nil || *l.MileageKM != 61000 {
		t.Errorf("year/mileage: got %v / %v", l.Year, l.MileageKM)
	}
	if l.FuelType != domain.FuelPetrol || l.Location != "Berlin" {
		t.Errorf("fuel/location: got %q / %q", l.FuelType, l.Location)
	}
	if l.SourceURL != "https://www.autoscout24.com/offers/vw-golf-1" {
		t.Errorf("url: got %q", l.SourceURL)
	}
}

const ssRows = `<table>
<tr id="tr_1"><td><a class="am" href="/msg/lv/transport/cars/toyota/1.html">Toyota Corolla 2008</a></td><td class="msga2-o msg-price">3 200  €</td></tr>
<tr id="tr_2"><td><a class="am" href="/msg/lv/transport/cars/toyota/2.html">Toyota Corolla 2016</a></td><td class="msga2-o msg-price">11 900  €</td></tr>
<tr id="head_line"><td>header</td></tr>
</table>`

func TestSSFiltersByMaxPriceLocally(t *testing.T) {
	d, _ := Load(nil).Get("ss")
	listings, _ := d.Chain.Run(extract.Input{Body: []byte(ssRows), Query: mustQuery(t, "ss", "Toyota", "Corolla", 5000)})
	if len(listings) != 1 || listings[0].Title != "Toyota Corolla 2008" {
		t.Fatalf("local price filter: got %+v", listings)
	}
	if listings[0].SourceURL != "https://www.ss.lv/msg/lv/transport/cars/toyota/1.html" {
		t.Errorf("url: got %q", listings[0].SourceURL)
	}
	if listings[0].Location != "Latvia" || listings[0].FuelType != domain.FuelUnknown {
		t.Errorf("defaults: got %q / %q", listings[0].Location, listings[0].FuelType)
	}

	all, _ := d.Chain.Run(extract.Input{Body: []byte(ssRows), Query: mustQuery(t, "ss", "Toyota", "", 0)})
	if len(all) != 2 {
		t.Errorf("without ceiling: got %d, want 2", len(all))
	}
}

func TestFinnDetailsFuel(t *testing.T) {
	tests := []struct {
		text string
		want domain.FuelType
	}{
		{"2019 · 45 000 km · El+bensin", domain.FuelHybrid},
		{"2021 · 10 000 km · El+diesel", domain.FuelHybrid},
		{"2022 · 5 000 km · El", domain.FuelElectric},
		{"2012 · 180 000 km · Diesel", domain.FuelDiesel},
	}
	for _, tt := range tests {
		if got := extract.MineDetails(tt.text, norwegianFuel).Fuel; got != tt.want {
			t.Errorf("%q: got %q, want %q", tt.text, got, tt.want)
		}
	}
}
