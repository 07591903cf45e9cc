package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/okian/podium/internal/adapters/snapshot"
)

// snapshotHandler serves persisted views.
type snapshotHandler struct {
	reader SnapshotReader
}

// HandleGetSnapshot handles GET /v1/snapshots/{view} requests.
func (h *snapshotHandler) HandleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_snapshot"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	view := strings.TrimPrefix(r.URL.Path, "/v1/snapshots/")
	if view == "" || strings.Contains(view, "/") {
		writeFailure(w, r, NewKind(op, ErrBadRequest))
		return
	}
	snap, err := h.reader.Latest(r.Context(), view)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			writeFailure(w, r, WrapKind(op, ErrNotFound, err))
			return
		}
		writeFailure(w, r, Wrap(op, err))
		return
	}

	w.Header().Set("ETag", `"`+snap.LoadID+`"`)
	if wantsYAML(r) {
		var payload any
		if err := sonic.Unmarshal(snap.Payload, &payload); err != nil {
			writeFailure(w, r, Wrap(op, err))
			return
		}
		writeBody(w, r, http.StatusOK, payload)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(snap.Payload)
}
