package api

import (
	"net/http"
	"strings"
)

// viewsHandler serves the dashboard views.
type viewsHandler struct {
	deps     Dependencies
	defaults Defaults
	maxLimit int
}

// loadID returns the id of the cached dataset, or "" while nothing is loaded.
func (h *viewsHandler) loadID() string {
	info, ok := h.deps.Info()
	if !ok {
		return ""
	}
	return info.LoadID
}

// tag sets the ETag and reports whether the client already holds it. before
// is the load id read ahead of computing the view; no ETag is set when the
// dataset changed meanwhile.
func (h *viewsHandler) tag(w http.ResponseWriter, r *http.Request, before string) bool {
	if before == "" || h.loadID() != before {
		return false
	}
	etag := `"` + before + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}
	return false
}

// HandleCountries handles GET /v1/countries?top=N&order=desc|asc requests.
func (h *viewsHandler) HandleCountries(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_countries"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	top, err := parseLimit(r, "top", h.defaults.BarTopN, h.maxLimit)
	if err != nil {
		writeFailure(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	desc, err := parseOrder(r)
	if err != nil {
		writeFailure(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	before := h.loadID()
	summaries, err := h.deps.CountryMedals(r.Context(), top, desc)
	if err != nil {
		writeFailure(w, r, Wrap(op, err))
		return
	}
	if h.tag(w, r, before) {
		return
	}
	writeBody(w, r, http.StatusOK, summaries)
}

// HandleTotals handles GET /v1/countries/totals?top=N requests.
func (h *viewsHandler) HandleTotals(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_totals"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	top, err := parseLimit(r, "top", h.defaults.StreamTopN, h.maxLimit)
	if err != nil {
		writeFailure(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	before := h.loadID()
	totals, err := h.deps.TopCountries(r.Context(), top)
	if err != nil {
		writeFailure(w, r, Wrap(op, err))
		return
	}
	if h.tag(w, r, before) {
		return
	}
	writeBody(w, r, http.StatusOK, totals)
}

// HandleDaily handles GET /v1/daily?top=N requests.
func (h *viewsHandler) HandleDaily(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_daily"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	top, err := parseLimit(r, "top", h.defaults.StreamTopN, h.maxLimit)
	if err != nil {
		writeFailure(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	before := h.loadID()
	matrix, err := h.deps.DailyMatrix(r.Context(), top)
	if err != nil {
		writeFailure(w, r, Wrap(op, err))
		return
	}
	if h.tag(w, r, before) {
		return
	}
	writeBody(w, r, http.StatusOK, matrix.View())
}

// HandleDisciplines handles GET /v1/disciplines?country=C&top=K requests.
func (h *viewsHandler) HandleDisciplines(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_disciplines"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	top, err := parseLimit(r, "top", h.defaults.WaffleTopK, h.maxLimit)
	if err != nil {
		writeFailure(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	country := strings.TrimSpace(r.URL.Query().Get("country"))
	if country == "" {
		country = h.defaults.WaffleCountry
	}
	before := h.loadID()
	entries, err := h.deps.CategoryBreakdown(r.Context(), country, top)
	if err != nil {
		writeFailure(w, r, Wrap(op, err))
		return
	}
	if h.tag(w, r, before) {
		return
	}
	writeBody(w, r, http.StatusOK, entries)
}
