package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPrice wraps every maxPrice decoding failure.
var ErrInvalidPrice = errors.New("invalid maxPrice")

// Price is a price ceiling that clients send either as a JSON number or as a
// numeric string. Null and "" mean no ceiling.
type Price float64

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*p = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPrice, err)
		}
		return p.parse(s)
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPrice, err)
	}
	*p = Price(f)
	return nil
}

// ParseQueryValue reads a price from a URL query parameter.
func (p *Price) ParseQueryValue(s string) error { return p.parse(s) }

func (p *Price) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*p = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("%w: %q is not a number", ErrInvalidPrice, s)
	}
	*p = Price(f)
	return nil
}

// SearchRequest is the body of a single-source search. The source usually
// comes from the site query parameter; Site in the body is a fallback.
type SearchRequest struct {
	Site     string `json:"site,omitempty"`
	Brand    string `json:"brand"`
	Model    string `json:"model"`
	MaxPrice Price  `json:"maxPrice"`
}

// BatchSearchRequest searches several sources at once. An empty Sites means all.
type BatchSearchRequest struct {
	Brand    string   `json:"brand"`
	Model    string   `json:"model"`
	MaxPrice Price    `json:"maxPrice"`
	Sites    []string `json:"sites" validate:"omitempty,max=20,dive,required,alphanum,max=32"`
}
