// Package site answers the service root with a short description and links
// to the API reference.
package site

import (
	"context"
	"encoding/json"
	"net/http"
)

// Name is reported by the root endpoint.
const Name = "Algorithms Arcade API"

// Register attaches the root route to mux. Every path not claimed by a more
// specific route falls through to it and gets a 404.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("/", NewRootHandler())
}

type rootResponse struct {
	Message string            `json:"message"`
	Status  string            `json:"status"`
	Links   map[string]string `json:"links"`
}

// RootHandler handles root path requests.
type RootHandler struct{}

// NewRootHandler creates a new root handler.
func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

// ServeHTTP handles GET / requests.
func (h *RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" || r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(rootResponse{
		Message: Name,
		Status:  "running",
		Links: map[string]string{
			"docs":      "/api-docs",
			"openapi":   "/openapi.yaml",
			"metrics":   "/healthz",
			"stats":     "/stats",
			"dashboard": "/dashboard",
		},
	})
}
