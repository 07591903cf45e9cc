package api

import "net/http"

// cacheHandler exposes cache control.
type cacheHandler struct {
	deps Dependencies
}

// HandleClear handles POST /v1/cache/clear requests.
func (h *cacheHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	h.deps.ClearCache()
	w.WriteHeader(http.StatusNoContent)
}

// HandleReload handles POST /v1/cache/reload requests.
func (h *cacheHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	const op = "api.reload_cache"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	info, err := h.deps.Reload(r.Context())
	if err != nil {
		writeFailure(w, r, Wrap(op, err))
		return
	}
	writeBody(w, r, http.StatusOK, info)
}
