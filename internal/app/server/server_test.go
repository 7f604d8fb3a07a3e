package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"exchangesync/internal/models"
)

type fakeRepo struct {
	scores  []models.Record
	certs   []models.Record
	err     error
	pingErr error
}

func (f *fakeRepo) ExchangeScores() ([]models.Record, error)       { return f.scores, f.err }
func (f *fakeRepo) ExchangeCertificates() ([]models.Record, error) { return f.certs, f.err }
func (f *fakeRepo) Ping() error                                    { return f.pingErr }

func record(t *testing.T, data string) models.Record {
	t.Helper()
	var r models.Record
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		t.Fatal(err)
	}
	return r
}

func get(t *testing.T, handler http.Handler, path, apiKey string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestDataEndpointSuccess(t *testing.T) {
	repo := &fakeRepo{scores: []models.Record{
		record(t, `{"exchange_id":1,"exchange_name":"Alpha","score":9.5}`),
		record(t, `{"exchange_id":2,"exchange_name":"Beta","score":7.2}`),
	}}
	srv := New(repo, "sk-test")

	rec := get(t, srv.Handler(), "/api/v1/exchange-scores", "sk-test")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	body := rec.Body.String()
	// Envelope key order and record field order are part of the contract.
	if !strings.HasPrefix(body, `{"success":true,"timestamp":`) {
		t.Errorf("envelope does not lead with success+timestamp: %s", body)
	}
	if !strings.Contains(body, `"row_count":2`) {
		t.Errorf("missing row_count: %s", body)
	}
	if !strings.Contains(body, `{"exchange_id":1,"exchange_name":"Alpha","score":9.5}`) {
		t.Errorf("record field order not preserved: %s", body)
	}
}

func TestDataEndpointUnauthorized(t *testing.T) {
	srv := New(&fakeRepo{}, "sk-test")

	for _, key := range []string{"", "wrong"} {
		rec := get(t, srv.Handler(), "/api/v1/exchange-certificates", key)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("key %q: status = %d, want 401", key, rec.Code)
		}
		var env struct {
			Success bool `json:"success"`
			Error   struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decoding error envelope: %v", err)
		}
		if env.Success || env.Error.Code != "UNAUTHORIZED" {
			t.Errorf("envelope = %+v", env)
		}
		if !strings.Contains(env.Error.Message, "X-API-Key") {
			t.Errorf("message = %q", env.Error.Message)
		}
	}
}

func TestDataEndpointDatabaseError(t *testing.T) {
	srv := New(&fakeRepo{err: errors.New("connection reset")}, "k")

	rec := get(t, srv.Handler(), "/api/v1/exchange-scores", "k")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"DATABASE_ERROR"`) || !strings.Contains(body, "connection reset") {
		t.Errorf("body = %s", body)
	}
}

func TestHealthEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		pingErr error
		want    string
	}{
		{"database up", nil, "connected"},
		{"database down", errors.New("refused"), "disconnected"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New(&fakeRepo{pingErr: tt.pingErr}, "k")
			rec := get(t, srv.Handler(), "/health", "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			var h models.Health
			if err := json.Unmarshal(rec.Body.Bytes(), &h); err != nil {
				t.Fatalf("decoding health: %v", err)
			}
			if h.Status != "healthy" || h.Database != tt.want {
				t.Errorf("health = %+v, want database %q", h, tt.want)
			}
		})
	}
}

func TestHealthNeedsNoAPIKey(t *testing.T) {
	srv := New(&fakeRepo{}, "secret")
	rec := get(t, srv.Handler(), "/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, health must not require the key", rec.Code)
	}
}

func TestHomeAndNotFound(t *testing.T) {
	srv := New(&fakeRepo{}, "k")

	rec := get(t, srv.Handler(), "/", "")
	if rec.Code != http.StatusOK {
		t.Errorf("home status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Exchange Data API") {
		t.Errorf("home body = %s", rec.Body)
	}

	rec = get(t, srv.Handler(), "/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"NOT_FOUND"`) {
		t.Errorf("body = %s", rec.Body)
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv := New(&fakeRepo{}, "k")

	rec := get(t, srv.Handler(), "/health", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("response missing generated X-Request-ID")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "client-supplied")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "client-supplied" {
		t.Errorf("X-Request-ID = %q, want the client's value echoed", got)
	}
}
