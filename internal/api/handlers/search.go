package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ps-vitor/car-comparator/internal/api/models"
	"github.com/ps-vitor/car-comparator/internal/domain"
)

const maxBodyBytes = 1 << 16

// handleSearch serves POST and GET /api/search?site=<id>. POST reads brand,
// model and maxPrice from a JSON body, GET from query parameters.
func (h *APIHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSearchRequest(r)
	site := strings.TrimSpace(r.URL.Query().Get("site"))
	if site == "" {
		site = req.Site
	}
	text := strings.TrimSpace(strings.TrimSpace(req.Brand) + " " + strings.TrimSpace(req.Model))
	if err != nil {
		h.writeEnvelope(w, domain.Failed(site, text, err))
		return
	}

	q, err := domain.NewQuery(site, req.Brand, req.Model, float64(req.MaxPrice))
	if err != nil {
		h.writeEnvelope(w, domain.Failed(strings.ToLower(site), text, err))
		return
	}
	h.writeEnvelope(w, h.searcher.Search(r.Context(), ClientIdentity(r), q))
}

// handleSearchAll serves POST /api/search/all.
func (h *APIHandler) handleSearchAll(w http.ResponseWriter, r *http.Request) {
	var req models.BatchSearchRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, domain.Failed("", "", err))
		return
	}
	if err := domain.Validator().Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, domain.Failed("", "", domain.ValidationError("Invalid site list")))
		return
	}
	batch := h.searcher.SearchAll(r.Context(), ClientIdentity(r), req.Brand, req.Model, float64(req.MaxPrice), req.Sites)
	status := http.StatusOK
	if !batch.Success && len(batch.Responses) > 0 {
		status = batch.Responses[0].Status()
	}
	writeJSON(w, status, batch)
}

func (h *APIHandler) writeEnvelope(w http.ResponseWriter, resp domain.Response) {
	if !resp.Success && resp.Status() >= http.StatusInternalServerError {
		h.log.Errorf("search %s %q: %s", resp.Source, resp.Query, resp.Error)
	}
	writeJSON(w, resp.Status(), resp)
}

func decodeSearchRequest(r *http.Request) (models.SearchRequest, error) {
	var req models.SearchRequest
	if r.Method == http.MethodGet {
		v := r.URL.Query()
		req.Brand = v.Get("brand")
		req.Model = v.Get("model")
		if err := req.MaxPrice.ParseQueryValue(v.Get("maxPrice")); err != nil {
			return req, domain.ValidationError("Invalid price")
		}
		return req, nil
	}
	err := decodeBody(r, &req)
	return req, err
}

// decodeBody reads a JSON body into v. An empty body leaves v at its zero value.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		if errors.Is(err, models.ErrInvalidPrice) {
			return domain.ValidationError("Invalid price")
		}
		return domain.ValidationError("Invalid JSON body")
	}
	return nil
}
