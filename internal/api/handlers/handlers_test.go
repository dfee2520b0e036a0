package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/ps-vitor/car-comparator/internal/domain"
	"github.com/ps-vitor/car-comparator/internal/scraping/sources"
	"github.com/ps-vitor/car-comparator/pkg/logger"
)

type fakeSearcher struct {
	resp    domain.Response
	batch   domain.BatchResponse
	queries []domain.Query
	clients []string
	sites   []string
}

func (f *fakeSearcher) Search(_ context.Context, client string, q domain.Query) domain.Response {
	f.queries = append(f.queries, q)
	f.clients = append(f.clients, client)
	if f.resp.Source == "" {
		return domain.Succeeded(q.SourceID, q.Text(), nil, false)
	}
	return f.resp
}

func (f *fakeSearcher) SearchAll(_ context.Context, client, brand, model string, maxPrice float64, ids []string) domain.BatchResponse {
	f.clients = append(f.clients, client)
	f.sites = ids
	return f.batch
}

func newRouter(s Searcher) *mux.Router {
	r := mux.NewRouter()
	NewAPIHandler(s, sources.Load(nil).All(), logger.Discard()).RegisterRoutes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func envelope(t *testing.T, rec *httptest.ResponseRecorder) domain.Response {
	t.Helper()
	var resp domain.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestSearchPostBody(t *testing.T) {
	s := &fakeSearcher{}
	rec := do(t, newRouter(s), http.MethodPost, "/api/search?site=finn", `{"brand":"Toyota","model":"Corolla","maxPrice":"200000"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (%s)", rec.Code, rec.Body)
	}
	if len(s.queries) != 1 {
		t.Fatalf("searches: got %d, want 1", len(s.queries))
	}
	q := s.queries[0]
	if q.SourceID != "finn" || q.Brand != "Toyota" || q.Model != "Corolla" || q.MaxPrice != 200000 {
		t.Errorf("query: got %+v", q)
	}
	resp := envelope(t, rec)
	if !resp.Success || resp.Query != "Toyota Corolla" || resp.Source != "finn" {
		t.Errorf("envelope: got %+v", resp)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("CORS origin: got %q", got)
	}
}

func TestSearchGetQueryParams(t *testing.T) {
	s := &fakeSearcher{}
	rec := do(t, newRouter(s), http.MethodGet, "/api/search?site=AUTO24&brand=Volvo&maxPrice=15000", "")
	if rec.Code != http.StatusOK || len(s.queries) != 1 {
		t.Fatalf("status %d, searches %d", rec.Code, len(s.queries))
	}
	if q := s.queries[0]; q.SourceID != "auto24" || q.Brand != "Volvo" || q.MaxPrice != 15000 {
		t.Errorf("query: got %+v", q)
	}
}

func TestSearchValidation(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		body    string
		message string
	}{
		{"missing site", "/api/search", `{"brand":"Toyota"}`, "Site and brand parameters are required"},
		{"missing brand", "/api/search?site=finn", `{"model":"Corolla"}`, "Site and brand parameters are required"},
		{"bad brand", "/api/search?site=finn", `{"brand":"Toyota<script>"}`, "Invalid brand name"},
		{"bad model", "/api/search?site=finn", `{"brand":"Toyota","model":"Corolla;drop"}`, "Invalid model name"},
		{"bad price", "/api/search?site=finn", `{"brand":"Toyota","maxPrice":"cheap"}`, "Invalid price"},
		{"negative price", "/api/search?site=finn", `{"brand":"Toyota","maxPrice":-5}`, "Invalid price"},
		{"broken json", "/api/search?site=finn", `{"brand":`, "Invalid JSON body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSearcher{}
			rec := do(t, newRouter(s), http.MethodPost, tt.target, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want 400", rec.Code)
			}
			resp := envelope(t, rec)
			if resp.Success || resp.Code != domain.KindValidation || resp.Error != tt.message {
				t.Errorf("envelope: got %+v, want %q", resp, tt.message)
			}
			if len(s.queries) != 0 {
				t.Errorf("invalid request reached the service")
			}
		})
	}
}

func TestSearchStatusFollowsEnvelope(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.UnsupportedSourceError("ebay"), http.StatusBadRequest},
		{domain.RateLimitedError(), http.StatusTooManyRequests},
		{domain.FetchError("HTTP Error: 403", nil), http.StatusBadGateway},
		{domain.InternalStoreError("cache get", nil), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		s := &fakeSearcher{resp: domain.Failed("finn", "Toyota", tt.err)}
		rec := do(t, newRouter(s), http.MethodPost, "/api/search?site=finn", `{"brand":"Toyota"}`)
		if rec.Code != tt.want {
			t.Errorf("%v: status got %d, want %d", tt.err, rec.Code, tt.want)
		}
		if resp := envelope(t, rec); resp.Success || resp.Code != domain.KindOf(tt.err) {
			t.Errorf("%v: envelope got %+v", tt.err, resp)
		}
	}
}

func TestPreflight(t *testing.T) {
	for _, target := range []string{"/api/search", "/api/search/all", "/api/sources"} {
		rec := do(t, newRouter(&fakeSearcher{}), http.MethodOptions, target, "")
		if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
			t.Errorf("%s: got %d with %q", target, rec.Code, rec.Body)
		}
		if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "POST, GET, OPTIONS" {
			t.Errorf("%s: methods header %q", target, got)
		}
		if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type" {
			t.Errorf("%s: headers header %q", target, got)
		}
	}
}

func TestSearchAllHandler(t *testing.T) {
	s := &fakeSearcher{batch: domain.BatchResponse{
		Success:   true,
		Query:     "Toyota",
		Responses: []domain.Response{domain.Succeeded("finn", "Toyota", nil, false)},
	}}
	rec := do(t, newRouter(s), http.MethodPost, "/api/search/all", `{"brand":"Toyota","sites":["finn","ss"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (%s)", rec.Code, rec.Body)
	}
	if len(s.sites) != 2 || s.sites[1] != "ss" {
		t.Errorf("sites: got %v", s.sites)
	}
	var batch domain.BatchResponse
	json.Unmarshal(rec.Body.Bytes(), &batch)
	if !batch.Success || len(batch.Responses) != 1 {
		t.Errorf("batch: got %+v", batch)
	}

	rec = do(t, newRouter(s), http.MethodPost, "/api/search/all", `{"brand":"Toyota","sites":["fi nn"]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad site list: got %d, want 400", rec.Code)
	}
}

func TestSourcesAndHealth(t *testing.T) {
	r := newRouter(&fakeSearcher{})
	rec := do(t, r, http.MethodGet, "/api/sources", "")
	var body struct {
		Success bool `json:"success"`
		Sources []struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			Currency string `json:"currency"`
			BaseURL  string `json:"base_url"`
		} `json:"sources"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Success || len(body.Sources) != 6 {
		t.Fatalf("sources: got %+v", body)
	}
	if s := body.Sources[0]; s.ID != "finn" || s.Currency != "NOK" || s.BaseURL != "https://www.finn.no" {
		t.Errorf("finn: got %+v", s)
	}

	rec = do(t, r, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("health: got %d %s", rec.Code, rec.Body)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	r := newRouter(&fakeSearcher{})
	tests := []struct {
		method, target string
	}{
		{http.MethodDelete, "/api/search"},
		{http.MethodGet, "/api/search/all"},
		{http.MethodPut, "/api/sources"},
		{http.MethodPost, "/health"},
	}
	for _, tt := range tests {
		rec := do(t, r, tt.method, tt.target, "")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: got %d, want 405", tt.method, tt.target, rec.Code)
			continue
		}
		if resp := envelope(t, rec); resp.Success || resp.Code != domain.KindValidation {
			t.Errorf("%s %s: envelope %+v", tt.method, tt.target, resp)
		}
	}

	if rec := do(t, r, http.MethodGet, "/api/nowhere", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown path: got %d, want 404", rec.Code)
	}
}

func TestEnvelopeKeys(t *testing.T) {
	rec := do(t, newRouter(&fakeSearcher{}), http.MethodPost, "/api/search?site=finn", `{"brand":"Lada"}`)
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatal(err)
	}
	if string(raw["source"]) != `"finn"` {
		t.Errorf("source: got %s, want \"finn\"", raw["source"])
	}
	if string(raw["results"]) != "[]" {
		t.Errorf("results: got %s, want []", raw["results"])
	}
	if _, ok := raw["site"]; ok {
		t.Errorf("unexpected site key in %s", rec.Body)
	}
}

func TestClientIdentity(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded public", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.2:5555", "203.0.113.7"},
		{"forwarded private falls through", map[string]string{"X-Forwarded-For": "10.1.2.3", "X-Real-IP": "198.51.100.20"}, "10.0.0.2:5555", "198.51.100.20"},
		{"client-ip", map[string]string{"Client-IP": "198.51.100.30"}, "127.0.0.1:1", "198.51.100.30"},
		{"garbage header", map[string]string{"X-Forwarded-For": "unknown"}, "192.0.2.1:80", "192.0.2.1"},
		{"remote only", nil, "192.168.1.10:40000", "192.168.1.10"},
		{"ipv6 remote", nil, "[2001:db8::1]:443", "2001:db8::1"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remote
		for k, v := range tt.headers {
			req.Header.Set(k, v)
		}
		if got := ClientIdentity(req); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}
