package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ps-vitor/car-comparator/internal/domain"
	"github.com/ps-vitor/car-comparator/internal/scraping/normalize"
)

// Match builds a selector for elements with the given tag whose class
// attribute contains fragment. An empty tag matches any element.
func Match(tag, fragment string) string {
	return MatchAttr(tag, "class", fragment)
}

// MatchAttr is Match on an arbitrary attribute.
func MatchAttr(tag, attr, fragment string) string {
	return fmt.Sprintf(`%s[%s*=%q]`, tag, attr, fragment)
}

// Tree extracts listings by walking the markup with structural patterns.
type Tree struct {
	Container string // one element per result candidate
	Title     string
	Price     string
	Details   string // optional free-text blob
	Link      string // optional; defaults to the anchor in or at Title

	BaseURL  string
	Currency string
	Location string
	Fuel     normalize.Vocabulary

	// Keep, when set, drops candidates that do not satisfy the query.
	Keep func(l domain.Listing, q domain.Query) bool
}

func (t Tree) Name() string { return "tree" }

// Extract never fails: a body that cannot be parsed has no candidates.
func (t Tree) Extract(in Input) ([]domain.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(in.Body))
	if err != nil {
		return nil, nil
	}
	base, _ := url.Parse(t.BaseURL)

	var listings []domain.Listing
	doc.Find(t.Container).EachWithBreak(func(_ int, card *goquery.Selection) bool {
		l, ok := t.listing(card, base)
		if !ok {
			return true
		}
		if t.Keep != nil && !t.Keep(l, in.Query) {
			return true
		}
		listings = append(listings, l)
		return len(listings) < domain.MaxListingsPerSearch
	})
	return listings, nil
}

func (t Tree) listing(card *goquery.Selection, base *url.URL) (domain.Listing, bool) {
	titleSel := card.Find(t.Title).First()
	priceSel := card.Find(t.Price).First()
	title := normalize.Text(titleSel.Text())
	price := normalize.PriceDisplay(priceSel.Text())
	if title == "" || price == "" {
		return domain.Listing{}, false
	}

	var details Details
	if t.Details != "" {
		details = MineDetails(normalize.Text(card.Find(t.Details).First().Text()), t.Fuel)
	} else {
		details.Fuel = domain.FuelUnknown
	}

	return domain.Listing{
		Title:        title,
		PriceDisplay: price,
		Currency:     t.Currency,
		Year:         details.Year,
		Mileage:      details.Mileage,
		MileageKM:    details.MileageKM,
		Location:     t.Location,
		FuelType:     details.Fuel,
		SourceURL:    resolve(base, t.href(card, titleSel)),
	}, true
}

func (t Tree) href(card, titleSel *goquery.Selection) string {
	var anchor *goquery.Selection
	switch {
	case t.Link != "":
		anchor = card.Find(t.Link).First()
	case titleSel.Is("a"):
		anchor = titleSel
	default:
		anchor = titleSel.Find("a").First()
		if anchor.Length() == 0 {
			anchor = titleSel.Closest("a")
		}
	}
	href, _ := anchor.Attr("href")
	return strings.TrimSpace(href)
}

// resolve makes href absolute against base. Unparseable links are dropped.
func resolve(base *url.URL, href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
