package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jwebster45206/eryndor/internal/game"
)

type contextKey string

const (
	playerIDKey    contextKey = "player_id"
	displayNameKey contextKey = "display_name"
)

// Claims are the JWT claims issued by the auth service. The subject is the
// player's id.
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Auth verifies an HS256 bearer token and stores the player in the request
// context. Requests without a valid token get a 401 in the uniform result shape.
func Auth(secret []byte, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				logger.Warn("Authorization header missing or malformed", "path", r.URL.Path)
				unauthorized(w, logger)
				return
			}

			claims, err := ParseToken(secret, tokenString)
			if err != nil {
				logger.Warn("Token verification failed", "error", err, "path", r.URL.Path)
				unauthorized(w, logger)
				return
			}

			playerID, err := uuid.Parse(claims.Subject)
			if err != nil {
				logger.Warn("Token subject is not a player id", "subject", claims.Subject)
				unauthorized(w, logger)
				return
			}

			ctx := WithPlayer(r.Context(), playerID, claims.Name)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ParseToken validates signature and expiry and returns the claims.
func ParseToken(secret []byte, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is invalid")
	}
	return claims, nil
}

// IssueToken signs a token for playerID. A zero ttl issues a token without expiry.
func IssueToken(secret []byte, playerID uuid.UUID, name string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  playerID.String(),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// WithPlayer returns a context carrying the authenticated player.
func WithPlayer(ctx context.Context, playerID uuid.UUID, displayName string) context.Context {
	ctx = context.WithValue(ctx, playerIDKey, playerID)
	return context.WithValue(ctx, displayNameKey, displayName)
}

// PlayerID returns the authenticated player, or uuid.Nil.
func PlayerID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(playerIDKey).(uuid.UUID)
	return id
}

// DisplayName returns the name claim of the authenticated player, if any.
func DisplayName(ctx context.Context) string {
	name, _ := ctx.Value(displayNameKey).(string)
	return name
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	if err := json.NewEncoder(w).Encode(game.Fail(game.ErrNotAuthenticated)); err != nil {
		logger.Error("Failed to encode error response", "error", err)
	}
}
