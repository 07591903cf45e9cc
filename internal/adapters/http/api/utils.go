package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// parseLimit reads a positive integer query parameter. An absent parameter
// yields def.
func parseLimit(r *http.Request, key string, def, maxLimit int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	if maxLimit > 0 && n > maxLimit {
		return 0, fmt.Errorf("%s must not exceed %d", key, maxLimit)
	}
	return n, nil
}

// parseOrder maps the order parameter to a descending flag. Descending is the default.
func parseOrder(r *http.Request) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("order"))) {
	case "", "desc":
		return true, nil
	case "asc":
		return false, nil
	default:
		return false, errors.New("order must be asc or desc")
	}
}
