package middleware

import (
	"context"
	"net/http"
	"strings"

	"passmais-agenda/internal/infrastructure/upstream"
	"passmais-agenda/pkg/jwt"
	"passmais-agenda/pkg/response"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserEmailKey contextKey = "user_email"
	RoleKey      contextKey = "role"
	SessionKey   contextKey = "session"
)

// RefreshTokenHeader lets the client hand over its refresh token so expired
// access tokens can be renewed server side.
const RefreshTokenHeader = "X-Refresh-Token"

type AuthMiddleware struct {
	jwtService *jwt.JWTService
	tokenStore upstream.TokenStore
	log        *logrus.Logger
}

func NewAuthMiddleware(jwtService *jwt.JWTService, tokenStore upstream.TokenStore, log *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		tokenStore: tokenStore,
		log:        log,
	}
}

func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Authorization header is required")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(w, "Invalid authorization header format")
			return
		}

		tokenString := parts[1]

		claims, err := m.jwtService.ValidateToken(tokenString)
		if err != nil {
			response.Unauthorized(w, "Invalid or expired token")
			return
		}

		if claims.TokenType != "" && claims.TokenType != jwt.AccessToken {
			response.Unauthorized(w, "Invalid token type")
			return
		}

		// The upstream session outlives a single request so a refreshed
		// access token is reused by later calls.
		sess := upstream.NewSession(m.tokenStore, claims.UserID.String())
		if err := sess.Init(r.Context()); err != nil {
			m.log.Warnf("Failed to load session for %s: %+v", claims.UserID, err)
			response.InternalServerError(w, "Failed to load session")
			return
		}
		refresh := r.Header.Get(RefreshTokenHeader)
		if sess.Read().AccessToken == "" || refresh != "" {
			if err := sess.SetTokens(r.Context(), tokenString, refresh); err != nil {
				m.log.Warnf("Failed to store session for %s: %+v", claims.UserID, err)
				response.InternalServerError(w, "Failed to store session")
				return
			}
		}

		ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, UserEmailKey, claims.Email)
		ctx = context.WithValue(ctx, RoleKey, strings.ToUpper(claims.Role))
		ctx = context.WithValue(ctx, SessionKey, sess)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserIDFromContext extracts user ID from context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetUserEmailFromContext extracts user email from context
func GetUserEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(UserEmailKey).(string)
	return email, ok
}

// GetRoleFromContext extracts the upper-cased role from context
func GetRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleKey).(string)
	return role, ok
}

// GetSessionFromContext returns the upstream session bound to the request
func GetSessionFromContext(ctx context.Context) (*upstream.Session, bool) {
	sess, ok := ctx.Value(SessionKey).(*upstream.Session)
	return sess, ok
}
