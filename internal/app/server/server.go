// Package server is the read-only exchange data API: two dataset endpoints
// behind an API key, a health probe, and a service info page. Responses use
// the success/error envelopes the sync client expects.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"exchangesync/internal/app/repository"
	"exchangesync/internal/models"
)

const apiVersion = "1.0"

type Server struct {
	repo   repository.Database
	apiKey string
}

func New(repo repository.Database, apiKey string) *Server {
	return &Server{repo: repo, apiKey: apiKey}
}

// Handler returns the full route table wrapped in the request-ID middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/v1/exchange-scores", s.requireAPIKey(s.handleData("exchange-scores", s.repo.ExchangeScores)))
	mux.HandleFunc("/api/v1/exchange-certificates", s.requireAPIKey(s.handleData("exchange-certificates", s.repo.ExchangeCertificates)))
	return withRequestID(mux)
}

// successEnvelope's field order is the wire order.
type successEnvelope struct {
	Success   bool            `json:"success"`
	Timestamp string          `json:"timestamp"`
	RowCount  int             `json:"row_count"`
	Data      []models.Record `json:"data"`
}

type errorEnvelope struct {
	Success   bool      `json:"success"`
	Timestamp string    `json:"timestamp"`
	Error     errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.Errorf("encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{
		Success:   false,
		Timestamp: timestamp(),
		Error:     errorBody{Code: code, Message: message},
	})
}

// requireAPIKey rejects requests whose X-API-Key header does not match.
// Failed attempts are logged with the remote address.
func (s *Server) requireAPIKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != s.apiKey {
			requestLog(r).Warnf("unauthorized access attempt from %s", r.RemoteAddr)
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED",
				"Invalid or missing API key. Please provide X-API-Key header.")
			return
		}
		next(w, r)
	}
}

// handleData serves one dataset query as a success envelope.
func (s *Server) handleData(name string, query func() ([]models.Record, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLog(r).WithFields(logrus.Fields{"dataset": name, "remote": r.RemoteAddr})
		log.Info("API request")

		rows, err := query()
		if err != nil {
			log.Errorf("database error: %v", err)
			writeError(w, http.StatusInternalServerError, "DATABASE_ERROR",
				"Database error: "+err.Error())
			return
		}
		log.WithFields(logrus.Fields{"rows": len(rows)}).Info("query complete")
		writeJSON(w, http.StatusOK, successEnvelope{
			Success:   true,
			Timestamp: timestamp(),
			RowCount:  len(rows),
			Data:      rows,
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbStatus := "connected"
	if err := s.repo.Ping(); err != nil {
		requestLog(r).Warnf("health check: database unreachable: %v", err)
		dbStatus = "disconnected"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"timestamp":      timestamp(),
		"database":       dbStatus,
		"api_version":    apiVersion,
		"secret_manager": true,
	})
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	// The mux routes every unknown path here; anything but the root itself
	// is a 404 in the error envelope.
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Endpoint not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "Exchange Data API",
		"version": apiVersion,
		"endpoints": map[string]string{
			"exchange_scores":       "/api/v1/exchange-scores",
			"exchange_certificates": "/api/v1/exchange-certificates",
			"health":                "/health",
		},
		"documentation": "Use X-API-Key header for authentication",
	})
}
