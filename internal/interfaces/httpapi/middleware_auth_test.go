package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/riskibarqy/club-standings/internal/domain/user"
	"github.com/riskibarqy/club-standings/internal/usecase"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireCronSecret(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		header string
		want   int
	}{
		{name: "not configured", secret: "", header: "Bearer anything", want: http.StatusServiceUnavailable},
		{name: "missing header", secret: "s3cret", header: "", want: http.StatusUnauthorized},
		{name: "wrong secret", secret: "s3cret", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "lowercase scheme", secret: "s3cret", header: "bearer s3cret", want: http.StatusUnauthorized},
		{name: "trailing space", secret: "s3cret", header: "Bearer s3cret ", want: http.StatusUnauthorized},
		{name: "exact match", secret: "s3cret", header: "Bearer s3cret", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, usecase.CronUpdatePath, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			RequireCronSecret(tt.secret, okHandler()).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	verifier := &stubVerifier{principals: map[string]user.Principal{
		"admin-token":  {UserID: "u-1", Roles: []string{"admin"}},
		"viewer-token": {UserID: "u-2", Roles: []string{"viewer"}},
	}}

	tests := []struct {
		name     string
		verifier TokenVerifier
		header   string
		want     int
	}{
		{name: "no verifier", verifier: nil, header: "Bearer admin-token", want: http.StatusServiceUnavailable},
		{name: "missing header", verifier: verifier, header: "", want: http.StatusUnauthorized},
		{name: "bad format", verifier: verifier, header: "Token admin-token", want: http.StatusUnauthorized},
		{name: "unknown token", verifier: verifier, header: "Bearer other", want: http.StatusUnauthorized},
		{name: "missing role", verifier: verifier, header: "Bearer viewer-token", want: http.StatusUnauthorized},
		{name: "admin", verifier: verifier, header: "Bearer admin-token", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/standings/update", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			RequireAdmin(tt.verifier, "admin", okHandler()).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestRequireAdmin_PutsPrincipalInContext(t *testing.T) {
	verifier := &stubVerifier{principals: map[string]user.Principal{
		"admin-token": {UserID: "u-1", Roles: []string{"Admin"}},
	}}

	var got user.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = principalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/standings/runs", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := httptest.NewRecorder()
	RequireAdmin(verifier, "admin", next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || got.UserID != "u-1" {
		t.Fatalf("unexpected result: status=%d principal=%+v", rec.Code, got)
	}
}

type stubVerifier struct {
	principals map[string]user.Principal
}

func (v *stubVerifier) VerifyAccessToken(_ context.Context, token string) (user.Principal, error) {
	p, ok := v.principals[token]
	if !ok {
		return user.Principal{}, usecase.ErrUnauthorized
	}
	return p, nil
}
