package middleware

import (
	"context"
	"net/http"

	"github.com/solmart/solmart-backend/api/responses"
	"github.com/solmart/solmart-backend/api/validators"
	pkgauth "github.com/solmart/solmart-backend/pkg/auth"
	"github.com/solmart/solmart-backend/pkg/logger"
)

// SessionVerifier checks a bearer token against the session store.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (*pkgauth.AccessTokenClaims, error)
}

// Auth validates a bearer token and seeds the request context with the claims.
func Auth(verifier SessionVerifier, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := validators.BearerToken(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithUserID(r.Context(), claims.UserID.String())
			ctx = WithWallet(ctx, claims.Wallet)
			ctx = WithRole(ctx, string(claims.Role))

			if logg != nil {
				ctx = logg.WithWallet(ctx, claims.Wallet)
				ctx = logg.WithActorRole(ctx, string(claims.Role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
