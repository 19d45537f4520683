// Package handler contains the HTTP request handlers.
//
// WHAT IS A HANDLER?
// In Go, an HTTP handler is anything that implements the http.Handler interface:
//
//	type Handler interface {
//	    ServeHTTP(ResponseWriter, *Request)
//	}
//
// Or more commonly, a function with the http.HandlerFunc signature. Chi's
// router accepts these directly.
//
// HANDLER RESPONSIBILITIES:
// 1. Parse the incoming HTTP request (query params, body, cookies)
// 2. Call the service layer
// 3. Write the HTTP response (status code, headers, body)
//
// Handlers contain no business logic. They are the glue between HTTP and the
// services.
package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// StaticHandler serves the browser front end from a directory laid out as
//
//	<dir>/index.html
//	<dir>/assets/...
type StaticHandler struct {
	indexPath string
	assets    http.Handler
	logger    *slog.Logger
}

// NewStaticHandler checks that dir holds an index.html.
func NewStaticHandler(dir string, logger *slog.Logger) (*StaticHandler, error) {
	index := filepath.Join(dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		return nil, fmt.Errorf("handler: front end not found: %w", err)
	}

	// GET /assets/css/app.css → serves {dir}/assets/css/app.css
	fileServer := http.FileServer(http.Dir(filepath.Join(dir, "assets")))

	return &StaticHandler{
		indexPath: index,
		assets:    http.StripPrefix("/assets/", noListing(fileServer)),
		logger:    logger,
	}, nil
}

// HandleIndex serves the single HTML page.
//
// HTTP: GET /
func (h *StaticHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, h.indexPath)
}

// HandleAssets serves scripts, styles and images.
//
// HTTP: GET /assets/*
func (h *StaticHandler) HandleAssets(w http.ResponseWriter, r *http.Request) {
	h.assets.ServeHTTP(w, r)
}

// noListing hides directory indexes.
func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
