package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dosada05/festival-teams/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestAuthenticate(t *testing.T) {
	userID := uuid.New()
	valid := signToken(t, testSecret, jwt.MapClaims{
		"user_id": userID.String(),
		"role":    "admin",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	tests := []struct {
		name       string
		header     string
		query      string
		wantStatus int
	}{
		{name: "bearer header", header: "Bearer " + valid, wantStatus: http.StatusOK},
		{name: "query token", query: "?token=" + valid, wantStatus: http.StatusOK},
		{name: "missing", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + valid, wantStatus: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + signToken(t, "other", jwt.MapClaims{"user_id": userID.String()}), wantStatus: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + signToken(t, testSecret, jwt.MapClaims{
			"user_id": userID.String(),
			"exp":     time.Now().Add(-time.Hour).Unix(),
		}), wantStatus: http.StatusUnauthorized},
		{name: "non uuid subject", header: "Bearer " + signToken(t, testSecret, jwt.MapClaims{"user_id": "42"}), wantStatus: http.StatusUnauthorized},
	}

	auth := NewAuthenticator(testSecret)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got models.AuthContext
			h := auth.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = AuthFromContext(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/teams/mine"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && (got.UserID != userID || !got.IsAdmin()) {
				t.Fatalf("auth context = %+v", got)
			}
		})
	}
}

func TestAuthorize(t *testing.T) {
	h := Authorize(models.UserRoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/admin/teams/stats", nil)
	req = req.WithContext(WithAuth(req.Context(), models.AuthContext{UserID: uuid.New(), Role: models.UserRoleParticipant}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("participant status = %d, want 403", rec.Code)
	}

	req = req.WithContext(WithAuth(req.Context(), models.AuthContext{UserID: uuid.New(), Role: models.UserRoleAdmin}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin status = %d, want 200", rec.Code)
	}
}
