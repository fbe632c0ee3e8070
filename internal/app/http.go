package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dgcreview/api/internal/listing"
	"dgcreview/api/internal/logging"
	"dgcreview/api/internal/store"
)

const maxBodyBytes = 1 << 20

type reviewService interface {
	Submit(context.Context, store.Review) (store.Review, error)
	Delete(context.Context, string) error
	List(context.Context) ([]listing.Item, error)
}

// Pinger is a dependency checked by /api/ready.
type Pinger interface {
	Ping(context.Context) error
}

type Options struct {
	CORSOrigin string
	Maintainer Maintainer
	Checks     map[string]Pinger
}

type HTTPServer struct {
	reviews    reviewService
	log        logging.Logger
	corsOrigin string
	maintainer Maintainer
	checks     map[string]Pinger
}

func NewHTTPServer(reviews reviewService, log logging.Logger, opts Options) *HTTPServer {
	origin := opts.CORSOrigin
	if origin == "" {
		origin = "*"
	}
	return &HTTPServer{
		reviews:    reviews,
		log:        log,
		corsOrigin: origin,
		maintainer: opts.Maintainer,
		checks:     opts.Checks,
	}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	isRead := r.Method == http.MethodGet || r.Method == http.MethodHead

	if isRead && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if isRead && r.URL.Path == "/api/ready" {
		s.handleReady(w, r)
		return
	}

	if r.URL.Path == "/add" {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
			return
		}
		s.handleAdd(w, r)
		return
	}

	if isRead && r.URL.Path == "/" {
		if !s.requireMaintainer(w, r) {
			return
		}
		s.handleIndex(w, r)
		return
	}

	if isRead && r.URL.Path == "/api/reviews" {
		if !s.requireMaintainer(w, r) {
			return
		}
		items, err := s.reviews.List(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": reviewItems(items)})
		return
	}

	if isRead && strings.HasPrefix(r.URL.Path, "/delete/") {
		guid := strings.TrimPrefix(r.URL.Path, "/delete/")
		if guid == "" || strings.Contains(guid, "/") {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
			return
		}
		if !s.requireMaintainer(w, r) {
			return
		}
		if err := s.reviews.Delete(r.Context(), guid); err != nil {
			s.fail(w, r, err)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleAdd(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	body, err := decodeReview(r)
	if err != nil {
		s.log.Info(r.Context(), "invalid review body", "err", err)
		s.fail(w, r, errInvalidJSON)
		return
	}
	accepted, err := s.reviews.Submit(r.Context(), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Ok", "guid": accepted.GUID})
}

func (s *HTTPServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	items, err := s.reviews.List(r.Context())
	if err != nil {
		status, _, message, _ := mapError(err)
		s.logFailure(r, status, err)
		writeText(w, status, message)
		return
	}
	page, err := renderIndex(indexData{Title: "Reviews", Items: items})
	if err != nil {
		s.log.Error(r.Context(), "render listing", "err", err)
		writeText(w, http.StatusInternalServerError, "Couldn't render the review list.")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	statusCode := http.StatusOK
	checks := map[string]any{}
	for name, dep := range s.checks {
		if err := dep.Ping(ctx); err != nil {
			statusCode = http.StatusServiceUnavailable
			checks[name] = map[string]any{"status": "error", "error": err.Error()}
			continue
		}
		checks[name] = map[string]any{"status": "ok"}
	}

	status := "ready"
	if statusCode != http.StatusOK {
		status = "not_ready"
	}
	writeJSON(w, statusCode, map[string]any{
		"ok":     statusCode == http.StatusOK,
		"status": status,
		"checks": checks,
	})
}

func (s *HTTPServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message, details := mapError(err)
	s.logFailure(r, status, err)
	writeError(w, status, code, message, details)
}

func (s *HTTPServer) logFailure(r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.log.Error(r.Context(), "request failed", "path", r.URL.Path, "status", status, "err", err)
		return
	}
	s.log.Info(r.Context(), "request rejected", "path", r.URL.Path, "status", status, "err", err)
}

type reviewItem struct {
	GUID   string       `json:"guid"`
	Card   store.Card   `json:"old"`
	Review store.Review `json:"new"`
	Rows   []reviewRow  `json:"rows"`
}

type reviewRow struct {
	Label   string `json:"label"`
	Old     string `json:"old"`
	New     string `json:"new"`
	Changed bool   `json:"changed"`
}

func reviewItems(items []listing.Item) []reviewItem {
	out := make([]reviewItem, 0, len(items))
	for _, item := range items {
		rows := make([]reviewRow, 0, len(item.Rows))
		for _, row := range item.Rows {
			rows = append(rows, reviewRow{Label: row.Label, Old: row.Old, New: row.New, Changed: row.Changed})
		}
		out = append(out, reviewItem{GUID: item.GUID, Card: item.Card, Review: item.Review, Rows: rows})
	}
	return out
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := logging.WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		s.log.Info(ctx, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", writer.status,
			"duration_ms", time.Since(started).Milliseconds(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Methods", "POST, GET, PATCH, OPTIONS")
	header.Set("Access-Control-Allow-Headers", "*")
	// Credentials are not allowed together with a wildcard origin.
	if corsOrigin != "*" {
		header.Set("Access-Control-Allow-Credentials", "true")
	}
	header.Set("Cache-Control", "no-store")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func writeText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, message)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if decoder.More() {
		return errors.New("invalid JSON body: trailing data")
	}
	return nil
}

var requiredReviewFields = []string{"id", "text", "count", "uses", "rounds", "personal", "remote", "unique", "note", "branch"}

// decodeReview requires every review field except guid to be present.
func decodeReview(r *http.Request) (store.Review, error) {
	var raw json.RawMessage
	if err := decodeBody(r, &raw); err != nil {
		return store.Review{}, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return store.Review{}, fmt.Errorf("invalid JSON body: %w", err)
	}
	for _, name := range requiredReviewFields {
		value, ok := fields[name]
		if !ok || string(value) == "null" {
			return store.Review{}, fmt.Errorf("invalid JSON body: missing field %q", name)
		}
	}
	var review store.Review
	if err := json.Unmarshal(raw, &review); err != nil {
		return store.Review{}, fmt.Errorf("invalid JSON body: %w", err)
	}
	return review, nil
}
