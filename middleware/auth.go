package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Dosada05/festival-teams/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

type contextKey string

const authContextKey contextKey = "auth"

const (
	jwtClaimUserID = "user_id"
	jwtClaimRole   = "role"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Authenticator проверяет HS256 токены, выпущенные сервисом аутентификации.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Authenticate reads the token from the Authorization header, or from the
// token query parameter for websocket upgrades, and stores the caller in the context.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeAuthError(w, http.StatusUnauthorized, ErrMissingToken.Error())
			return
		}
		auth, err := a.Parse(raw)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), auth)))
	})
}

func (a *Authenticator) Parse(raw string) (models.AuthContext, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return models.AuthContext{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return authFromClaims(claims)
}

func authFromClaims(claims jwt.MapClaims) (models.AuthContext, error) {
	idStr, ok := claims[jwtClaimUserID].(string)
	if !ok {
		return models.AuthContext{}, fmt.Errorf("%w: missing '%s' claim", ErrInvalidToken, jwtClaimUserID)
	}
	userID, err := uuid.Parse(idStr)
	if err != nil || userID == uuid.Nil {
		return models.AuthContext{}, fmt.Errorf("%w: malformed '%s' claim", ErrInvalidToken, jwtClaimUserID)
	}

	role := models.UserRoleParticipant
	if roleStr, ok := claims[jwtClaimRole].(string); ok && roleStr != "" {
		switch r := models.UserRole(strings.ToLower(roleStr)); r {
		case models.UserRoleParticipant, models.UserRoleAdmin:
			role = r
		default:
			return models.AuthContext{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, roleStr)
		}
	}
	return models.AuthContext{UserID: userID, Role: role}, nil
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// Authorize пропускает только пользователей с одной из ролей.
func Authorize(roles ...models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth, ok := AuthFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, ErrMissingToken.Error())
				return
			}
			for _, role := range roles {
				if auth.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeAuthError(w, http.StatusForbidden, "forbidden")
		})
	}
}

func WithAuth(ctx context.Context, auth models.AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, auth)
}

func AuthFromContext(ctx context.Context) (models.AuthContext, bool) {
	auth, ok := ctx.Value(authContextKey).(models.AuthContext)
	return auth, ok
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
