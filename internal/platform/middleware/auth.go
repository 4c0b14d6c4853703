package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"fundgate/pkg/domain"
	"fundgate/pkg/requestcontext"
)

// JWTClaims represents the claims we expect from the token validator. The
// engine treats the address as an opaque, already-authenticated identity;
// the role is a capability tag, not a hierarchy.
type JWTClaims struct {
	Address string
	Role    string
}

// JWTValidator defines the interface for validating session tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// RequireAuth resolves the caller's verified address and role from a Bearer
// token and injects the resulting Actor into the request context. Requests
// without a valid token are rejected before reaching handlers. The configured
// owner address always carries the owner capability, so the platform owner
// keeps administrative access even with a participant token.
func RequireAuth(validator JWTValidator, owner domain.Address, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				unauthorized(w)
				return
			}
			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				unauthorized(w)
				return
			}
			address, err := domain.ParseAddress(claims.Address)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - malformed address claim",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				unauthorized(w)
				return
			}
			actor := domain.Actor{Address: address, Role: parseRole(claims.Role)}
			if address == owner {
				actor.Role = domain.RoleOwner
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithActor(ctx, actor)))
		})
	}
}

func parseRole(s string) domain.Role {
	if s == string(domain.RoleOwner) {
		return domain.RoleOwner
	}
	return domain.RoleParticipant
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
}
