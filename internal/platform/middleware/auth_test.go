package middleware

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"fundgate/pkg/domain"
	"fundgate/pkg/requestcontext"
)

type stubValidator struct {
	claims *JWTClaims
	err    error
}

func (v *stubValidator) ValidateToken(string) (*JWTClaims, error) {
	return v.claims, v.err
}

func authTestHandler(captured *domain.Actor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = requestcontext.Actor(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	const owner = domain.Address("0xowner")

	tests := []struct {
		name       string
		authHeader string
		validator  *stubValidator
		wantStatus int
		wantActor  domain.Actor
	}{
		{
			name:       "missing bearer token",
			authHeader: "",
			validator:  &stubValidator{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid token",
			authHeader: "Bearer bad",
			validator:  &stubValidator{err: fmt.Errorf("expired")},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed address claim",
			authHeader: "Bearer ok",
			validator:  &stubValidator{claims: &JWTClaims{Address: "has spaces"}},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "participant token",
			authHeader: "Bearer ok",
			validator:  &stubValidator{claims: &JWTClaims{Address: "0xalice", Role: "participant"}},
			wantStatus: http.StatusOK,
			wantActor:  domain.Actor{Address: "0xalice", Role: domain.RoleParticipant},
		},
		{
			name:       "unknown role defaults to participant",
			authHeader: "Bearer ok",
			validator:  &stubValidator{claims: &JWTClaims{Address: "0xalice", Role: "superuser"}},
			wantStatus: http.StatusOK,
			wantActor:  domain.Actor{Address: "0xalice", Role: domain.RoleParticipant},
		},
		{
			name:       "owner role claim",
			authHeader: "Bearer ok",
			validator:  &stubValidator{claims: &JWTClaims{Address: "0xadmin", Role: "owner"}},
			wantStatus: http.StatusOK,
			wantActor:  domain.Actor{Address: "0xadmin", Role: domain.RoleOwner},
		},
		{
			name:       "configured owner address is escalated",
			authHeader: "Bearer ok",
			validator:  &stubValidator{claims: &JWTClaims{Address: "0xowner", Role: "participant"}},
			wantStatus: http.StatusOK,
			wantActor:  domain.Actor{Address: owner, Role: domain.RoleOwner},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured domain.Actor
			mw := RequireAuth(tt.validator, owner, logger)
			req := httptest.NewRequest(http.MethodGet, "/proposals", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			mw(authTestHandler(&captured)).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantActor, captured)
			}
		})
	}
}
