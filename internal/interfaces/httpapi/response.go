package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/club-standings/internal/usecase"
)

// isoTimestampLayout matches JavaScript's Date.toISOString.
const isoTimestampLayout = "2006-01-02T15:04:05.000Z07:00"

const (
	codeUnauthorized          = "unauthorized"
	codeInvalidInput          = "invalid_input"
	codeNotFound              = "not_found"
	codeDependencyUnavailable = "dependency_unavailable"
	codeScrapeFailed          = "scrape_failed"
	codeInternalError         = "internal_error"
)

var nowFunc = time.Now

type errorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type mappedError struct {
	HTTPStatus int
	Code       string
}

// codedError is implemented by upstream errors that already carry a short
// error code, such as the cron route's body relayed by the admin route.
type codedError interface {
	ErrorCode() string
}

func timestamp() string {
	return formatTime(nowFunc())
}

func formatTime(t time.Time) string {
	return t.UTC().Format(isoTimestampLayout)
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	ctx, span := startSpan(ctx, "httpapi.writeJSON")
	defer span.End()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	ctx, span := startSpan(ctx, "httpapi.writeError")
	defer span.End()

	mapped := mapError(ctx, err)
	writeJSON(ctx, w, mapped.HTTPStatus, errorResponse{
		Error:     mapped.Code,
		Message:   err.Error(),
		Timestamp: timestamp(),
	})
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	ctx, span := startSpan(ctx, "httpapi.writeInternalError")
	defer span.End()

	writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{
		Error:     codeInternalError,
		Message:   "internal server error",
		Timestamp: timestamp(),
	})
}

func mapError(ctx context.Context, err error) mappedError {
	_, span := startSpan(ctx, "httpapi.mapError")
	defer span.End()

	var coded codedError
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return mappedError{HTTPStatus: http.StatusBadRequest, Code: codeInvalidInput}
	case errors.Is(err, usecase.ErrNotFound):
		return mappedError{HTTPStatus: http.StatusNotFound, Code: codeNotFound}
	case errors.Is(err, usecase.ErrUnauthorized):
		return mappedError{HTTPStatus: http.StatusUnauthorized, Code: codeUnauthorized}
	case isScrapeError(err):
		return mappedError{HTTPStatus: http.StatusInternalServerError, Code: codeScrapeFailed}
	case errors.Is(err, usecase.ErrDependencyUnavailable):
		return mappedError{HTTPStatus: http.StatusServiceUnavailable, Code: codeDependencyUnavailable}
	case errors.As(err, &coded) && strings.TrimSpace(coded.ErrorCode()) != "":
		return mappedError{HTTPStatus: http.StatusInternalServerError, Code: strings.TrimSpace(coded.ErrorCode())}
	default:
		return mappedError{HTTPStatus: http.StatusInternalServerError, Code: codeInternalError}
	}
}

func isScrapeError(err error) bool {
	return errors.Is(err, usecase.ErrRendererUnavailable) ||
		errors.Is(err, usecase.ErrRendererCircuitOpen) ||
		errors.Is(err, usecase.ErrSessionUnavailable) ||
		errors.Is(err, usecase.ErrTableNotFound) ||
		errors.Is(err, usecase.ErrNoTeamsParsed) ||
		errors.Is(err, usecase.ErrTimeout)
}
