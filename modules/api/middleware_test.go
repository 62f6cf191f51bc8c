package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/Deekshith9238/testingfhm/domain/market"
	"github.com/Deekshith9238/testingfhm/modules/session"
)

// stubValidator accepts one fixed token.
type stubValidator struct {
	token  string
	userID string
}

func (s *stubValidator) Validate(_ context.Context, token string) (string, error) {
	if token == s.token {
		return s.userID, nil
	}
	return "", session.ErrInvalidToken
}

func newAuthTestApp() *fiber.App {
	app := fiber.New()
	app.Use(AuthMiddleware(&stubValidator{token: "good-token", userID: "user-1"}))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": actorID(c)})
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
		wantUserID string
	}{
		{
			name:       "valid bearer token",
			header:     "Authorization",
			value:      "Bearer good-token",
			wantStatus: fiber.StatusOK,
			wantUserID: "user-1",
		},
		{
			name:       "valid fallback header",
			header:     "X-Session-Token",
			value:      "good-token",
			wantStatus: fiber.StatusOK,
			wantUserID: "user-1",
		},
		{
			name:       "invalid token",
			header:     "Authorization",
			value:      "Bearer bad-token",
			wantStatus: fiber.StatusUnauthorized,
		},
		{
			name:       "missing token",
			wantStatus: fiber.StatusUnauthorized,
		},
		{
			name:       "malformed authorization header",
			header:     "Authorization",
			value:      "good-token",
			wantStatus: fiber.StatusUnauthorized,
		},
	}

	app := newAuthTestApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/whoami", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}

			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantUserID == "" {
				return
			}

			body, _ := io.ReadAll(resp.Body)
			var payload map[string]string
			if err := json.Unmarshal(body, &payload); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if payload["userID"] != tt.wantUserID {
				t.Errorf("userID = %q, want %q", payload["userID"], tt.wantUserID)
			}
		})
	}
}

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantTag  string
	}{
		{"task not found", market.ErrTaskNotFound, fiber.StatusNotFound, "not_found"},
		{"provider not found", market.ErrProviderNotFound, fiber.StatusNotFound, "not_found"},
		{"notification not found", market.ErrNotificationNotFound, fiber.StatusNotFound, "not_found"},
		{"invalid token", session.ErrInvalidToken, fiber.StatusUnauthorized, "unauthorized"},
		{"forbidden", market.ErrForbidden, fiber.StatusForbidden, "forbidden"},
		{"category mismatch", market.ErrCategoryMismatch, fiber.StatusForbidden, "category_mismatch"},
		{"already accepted", market.ErrAlreadyAccepted, fiber.StatusBadRequest, "already_accepted"},
		{"invalid transition", market.ErrInvalidTransition, fiber.StatusBadRequest, "invalid_transition"},
		{"validation", market.ErrValidation, fiber.StatusBadRequest, "validation_error"},
		{"unknown", io.ErrUnexpectedEOF, fiber.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, tag := statusFromError(tt.err)
			if code != tt.wantCode || tag != tt.wantTag {
				t.Errorf("statusFromError() = (%d, %q), want (%d, %q)", code, tag, tt.wantCode, tt.wantTag)
			}
		})
	}
}
