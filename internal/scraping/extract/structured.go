package extract

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ps-vitor/car-comparator/internal/domain"
)

// Locator finds an embedded machine-readable payload inside a page body.
type Locator func(body []byte) ([]byte, bool)

// Decoder maps a located payload to listings.
type Decoder func(raw []byte, in Input) ([]domain.Listing, error)

// Structured reads listings from data the page embeds for its own scripts.
type Structured struct {
	Label  string
	Locate Locator
	Decode Decoder
}

func (s Structured) Name() string {
	if s.Label != "" {
		return s.Label
	}
	return "structured"
}

// Extract returns no listings and no error when the payload is absent; a
// payload that does not decode is an error so the chain can fall through.
func (s Structured) Extract(in Input) ([]domain.Listing, error) {
	raw, ok := s.Locate(in.Body)
	if !ok {
		return nil, nil
	}
	listings, err := s.Decode(raw, in)
	if err != nil {
		return nil, err
	}
	return truncate(listings), nil
}

// AssignedObject locates an object literal assigned to a page variable, as in
// `window.__INITIAL_STATE__ = {...};`.
func AssignedObject(variable string) Locator {
	needle := []byte(variable)
	return func(body []byte) ([]byte, bool) {
		from := 0
		for {
			i := bytes.Index(body[from:], needle)
			if i < 0 {
				return nil, false
			}
			pos := from + i + len(needle)
			pos = skipSpace(body, pos)
			if pos < len(body) && body[pos] == '=' {
				pos = skipSpace(body, pos+1)
				if pos < len(body) && body[pos] == '{' {
					if end, ok := matchBrace(body, pos); ok {
						return body[pos : end+1], true
					}
					return nil, false
				}
			}
			from = pos
		}
	}
}

// JSONScript locates an inline JSON block by CSS selector, e.g.
// `script#__NEXT_DATA__` or `script[type="application/ld+json"]`.
func JSONScript(selector string) Locator {
	return func(body []byte) ([]byte, bool) {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			return nil, false
		}
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text == "" {
			return nil, false
		}
		return []byte(text), true
	}
}

func skipSpace(b []byte, i int) int {
	for i < len(b) && (b[i] == ' ' || b[i] == '\t' || b[i] == '\n' || b[i] == '\r') {
		i++
	}
	return i
}

// matchBrace returns the index of the '}' closing the '{' at start, skipping
// braces inside string literals.
func matchBrace(b []byte, start int) (int, bool) {
	depth := 0
	var quote byte
	for i := start; i < len(b); i++ {
		c := b[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
