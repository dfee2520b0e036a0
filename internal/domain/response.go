package domain

import (
	"encoding/json"
	"net/http"
	"time"
)

// Response is the envelope returned for every single-source search. Success is
// the authoritative outcome flag; consumers must not rely on transport status alone.
type Response struct {
	Success bool      `json:"success"`
	Results []Listing `json:"results,omitempty"`
	Error   string    `json:"error,omitempty"`
	Code    ErrorKind `json:"code,omitempty"`
	Source  string    `json:"source"`
	Query   string    `json:"query"`
	Cached  bool      `json:"cached,omitempty"`
}

// MarshalJSON always writes results on a success, [] when there are none, and
// never on a failure.
func (r Response) MarshalJSON() ([]byte, error) {
	type plain Response
	if !r.Success {
		return json.Marshal(plain(r))
	}
	results := r.Results
	if results == nil {
		results = []Listing{}
	}
	return json.Marshal(struct {
		plain
		Results []Listing `json:"results"`
	}{plain(r), results})
}

// Succeeded builds a success envelope.
func Succeeded(source, query string, listings []Listing, cached bool) Response {
	if listings == nil {
		listings = []Listing{}
	}
	return Response{Success: true, Results: listings, Source: source, Query: query, Cached: cached}
}

// Failed builds a failure envelope from err.
func Failed(source, query string, err error) Response {
	return Response{Success: false, Error: err.Error(), Code: KindOf(err), Source: source, Query: query}
}

// Status is the HTTP status that accompanies the envelope.
func (r Response) Status() int {
	if r.Success {
		return http.StatusOK
	}
	return HTTPStatus(r.Code)
}

// BatchResponse aggregates one Response per requested source.
type BatchResponse struct {
	Success   bool       `json:"success"`
	Query     string     `json:"query"`
	Responses []Response `json:"responses"`
}

// SearchTelemetryEntry is appended once per completed search.
type SearchTelemetryEntry struct {
	ID             string    `json:"id"`
	ClientIdentity string    `json:"ip_address"`
	Brand          string    `json:"brand"`
	Model          string    `json:"model,omitempty"`
	MaxPrice       float64   `json:"max_price,omitempty"`
	Sources        []string  `json:"sites_searched"`
	ResultCount    int       `json:"results_count"`
	DurationMs     int64     `json:"search_duration_ms"`
	CacheHit       bool      `json:"cache_hit"`
	Error          string    `json:"error,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}
