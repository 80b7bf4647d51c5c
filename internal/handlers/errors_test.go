package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"shikshaleap/internal/logger"
	"shikshaleap/internal/service"
	"shikshaleap/internal/validation"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON error body, got %q: %v", rec.Body.String(), err)
	}
	return body["error"]
}

func TestRespondWithErrorWritesStatusAndBody(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithError(recorder, logger.NewNop(), 418, "Teapot", "", nil)

	if recorder.Code != 418 {
		t.Fatalf("expected status 418, got %d", recorder.Code)
	}
	if got := recorder.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected JSON content type, got %q", got)
	}
	if msg := decodeError(t, recorder); msg != "Teapot" {
		t.Fatalf("expected error 'Teapot', got %q", msg)
	}
}

func TestRespondWithErrorLogsMessage(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.NewFromZap(zap.New(core))

	recorder := httptest.NewRecorder()
	respondWithError(recorder, log, 500, "Internal server error", "", errors.New("boom"))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if entries[0].Message != "Internal server error" {
		t.Fatalf("expected log message to be the user message, got %q", entries[0].Message)
	}
	if got := fmt.Sprint(entries[0].ContextMap()["error"]); got != "boom" {
		t.Fatalf("expected logged error 'boom', got %q", got)
	}
}

func TestRespondWithServiceErrorStatuses(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", &validation.Error{Field: "grade", Message: "grade must be between 6 and 12"}, http.StatusBadRequest, "grade must be between 6 and 12"},
		{"invalid code", service.ErrInvalidOrExpiredCode, http.StatusBadRequest, "Invalid or expired OTP"},
		{"unauthenticated", service.ErrUnauthenticated, http.StatusUnauthorized, MsgNotAuthenticated},
		{"forbidden", service.ErrForbidden, http.StatusForbidden, MsgNotAuthorized},
		{"disabled account", service.ErrAccountDisabled, http.StatusForbidden, "Account is disabled"},
		{"student missing", service.ErrStudentNotFound, http.StatusNotFound, "Student not found"},
		{"teacher missing", service.ErrTeacherNotFound, http.StatusNotFound, "Teacher not found"},
		{"school missing", service.ErrSchoolNotFound, http.StatusNotFound, "UDISE code not found"},
		{"duplicate", service.ErrDuplicateProfile, http.StatusConflict, "Profile already registered"},
		{"rate limited", service.ErrRateLimited, http.StatusTooManyRequests, "Too many OTP requests, try again later"},
		{"delivery", fmt.Errorf("%w: ses down", service.ErrDeliveryFailed), http.StatusInternalServerError, "Failed to send OTP"},
		{"wrapped validation", fmt.Errorf("outer: %w", &validation.Error{Field: "dob", Message: "dob must be a date"}), http.StatusBadRequest, "dob must be a date"},
		{"unexpected", errors.New("disk full"), http.StatusInternalServerError, ErrInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondWithServiceError(rec, logger.NewNop(), "operation failed", tt.err)

			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rec.Code)
			}
			if msg := decodeError(t, rec); msg != tt.message {
				t.Errorf("expected error %q, got %q", tt.message, msg)
			}
		})
	}
}

func TestRespondWithServiceErrorLogsOnlyUnexpected(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.NewFromZap(zap.New(core))

	respondWithServiceError(httptest.NewRecorder(), log, "lookup failed", service.ErrSchoolNotFound)
	if logs.Len() != 0 {
		t.Fatalf("expected no log for a not found error, got %d entries", logs.Len())
	}

	respondWithServiceError(httptest.NewRecorder(), log, "lookup failed", errors.New("connection reset"))
	if logs.FilterMessage("lookup failed").Len() != 1 {
		t.Fatalf("expected unexpected error to be logged with the log message")
	}
}
