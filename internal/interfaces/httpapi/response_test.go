package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/club-standings/internal/usecase"
)

func TestWriteError_Body(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, fmt.Errorf("%w: bad limit", usecase.ErrInvalidInput))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	if got, _ := body["error"].(string); got != codeInvalidInput {
		t.Fatalf("expected error=%s, got %v", codeInvalidInput, body["error"])
	}
	if got, _ := body["message"].(string); got != "invalid input: bad limit" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
	if got, _ := body["timestamp"].(string); got == "" {
		t.Fatalf("expected timestamp in error body")
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "unauthorized", err: usecase.ErrUnauthorized, status: http.StatusUnauthorized, code: codeUnauthorized},
		{name: "dependency", err: fmt.Errorf("wrap: %w", usecase.ErrDependencyUnavailable), status: http.StatusServiceUnavailable, code: codeDependencyUnavailable},
		{name: "table not found", err: fmt.Errorf("league=waba: %w", usecase.ErrTableNotFound), status: http.StatusInternalServerError, code: codeScrapeFailed},
		{name: "joined scrape failure", err: errors.Join(errors.New("db down"), usecase.ErrNoTeamsParsed), status: http.StatusInternalServerError, code: codeScrapeFailed},
		{name: "renderer circuit open", err: fmt.Errorf("league=waba: %w", usecase.ErrRendererCircuitOpen), status: http.StatusInternalServerError, code: codeScrapeFailed},
		{name: "joined scrape and dependency", err: errors.Join(usecase.ErrDependencyUnavailable, usecase.ErrSessionUnavailable), status: http.StatusInternalServerError, code: codeScrapeFailed},
		{name: "timeout", err: usecase.ErrTimeout, status: http.StatusInternalServerError, code: codeScrapeFailed},
		{name: "upstream code", err: fmt.Errorf("invoke: %w", stubCodedError{code: "scrape_failed"}), status: http.StatusInternalServerError, code: codeScrapeFailed},
		{name: "unknown", err: errors.New("boom"), status: http.StatusInternalServerError, code: codeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(context.Background(), tt.err)
			if got.HTTPStatus != tt.status || got.Code != tt.code {
				t.Fatalf("mapError(%v)=%+v want status=%d code=%s", tt.err, got, tt.status, tt.code)
			}
		})
	}
}

type stubCodedError struct {
	code string
}

func (e stubCodedError) Error() string     { return "upstream failed" }
func (e stubCodedError) ErrorCode() string { return e.code }
