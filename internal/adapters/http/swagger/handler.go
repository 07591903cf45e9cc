// Package swagger serves the OpenAPI description of the HTTP API.
package swagger

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bytedance/sonic"
	"gopkg.in/yaml.v3"
)

// Error constants.
var (
	ErrServe = errors.New("openapi serve failed")
)

// Register attaches the OpenAPI routes to mux.
// Routes:
//
//	GET /openapi.yaml -> embedded OpenAPI spec
//	GET /openapi.json -> the same spec as JSON
func Register(_ context.Context, mux *http.ServeMux) error {
	if mux == nil {
		return fmt.Errorf("%w: mux is nil", ErrServe)
	}

	asJSON, err := toJSON(OpenAPI)
	if err != nil {
		return err
	}

	mux.HandleFunc("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		_, _ = w.Write(OpenAPI)
	})

	mux.HandleFunc("/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write(asJSON)
	})
	return nil
}

// toJSON converts a YAML document to JSON.
func toJSON(doc []byte) ([]byte, error) {
	var v map[string]any
	if err := yaml.Unmarshal(doc, &v); err != nil {
		return nil, fmt.Errorf("%w: parse spec: %w", ErrServe, err)
	}
	out, err := sonic.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: encode spec: %w", ErrServe, err)
	}
	return out, nil
}
