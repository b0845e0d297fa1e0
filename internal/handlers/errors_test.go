package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"learnlens/internal/logger"
	"learnlens/internal/service"
	"learnlens/internal/validation"
)

func TestRespondWithErrorWritesStatusAndBody(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithError(recorder, logger.Nop(), 418, "Teapot", "", nil)

	if recorder.Code != 418 {
		t.Fatalf("expected status 418, got %d", recorder.Code)
	}
	if ct := recorder.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON content type, got %q", ct)
	}

	body := strings.TrimSpace(recorder.Body.String())
	if body != `{"error":"Teapot"}` {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestRespondWithErrorLogsMessage(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	recorder := httptest.NewRecorder()

	respondWithError(recorder, logger.NewCore(core), 500, "Internal server error", "", errors.New("boom"))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	if entries[0].Message != "Internal server error" {
		t.Fatalf("expected log to use the user message, got %q", entries[0].Message)
	}
	if got := fmt.Sprint(entries[0].ContextMap()["error"]); got != "boom" {
		t.Fatalf("expected log to include error, got %q", got)
	}
}

func TestRespondWithServiceError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		logged bool
	}{
		{"kid not found", service.ErrKidNotFound, http.StatusNotFound, false},
		{"activity not found", service.ErrActivityNotFound, http.StatusNotFound, false},
		{"forbidden", service.ErrForbidden, http.StatusForbidden, false},
		{"bad command", fmt.Errorf("%w: command 0", service.ErrInvalidCommand), http.StatusBadRequest, false},
		{"bad color", validation.ErrInvalidColor, http.StatusBadRequest, false},
		{"email taken", service.ErrEmailTaken, http.StatusConflict, false},
		{"bad credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, false},
		{"expired session", service.ErrSessionExpired, http.StatusUnauthorized, false},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.DebugLevel)
			recorder := httptest.NewRecorder()

			respondWithServiceError(recorder, logger.NewCore(core), "Error doing work", tt.err)

			if recorder.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, recorder.Code)
			}
			if logged := logs.Len() > 0; logged != tt.logged {
				t.Errorf("expected logged=%v, got %v", tt.logged, logged)
			}
		})
	}
}

func TestDecodeJSONRejectsTrailingData(t *testing.T) {
	tests := []struct {
		body    string
		wantErr bool
	}{
		{`{"name":"Léa"}`, false},
		{"  {\"name\":\"Léa\"}\n", false},
		{`{"name":"Léa"} {"name":"Tom"}`, true},
		{`{"name":"Léa"} trailing`, true},
		{`{"name":`, true},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
		var v createKidRequest
		err := decodeJSON(httptest.NewRecorder(), req, 1024, &v)
		if (err != nil) != tt.wantErr {
			t.Errorf("decodeJSON(%q) error = %v, wantErr %v", tt.body, err, tt.wantErr)
		}
	}
}
