package middleware

import (
	"context"
	"net/http"

	"taskboard/internal/app/service"
	"taskboard/internal/common"
	"taskboard/internal/domain/model"
)

type contextKey string

const identityCtxKey contextKey = "identity"

// IdentityResolver is satisfied by *service.IdentityService.
type IdentityResolver interface {
	Resolve(r *http.Request) (*service.Identity, error)
}

// Authenticator rejects requests without a valid credential and stores the
// resolved identity in the request context.
func Authenticator(resolver IdentityResolver, debug bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := resolver.Resolve(r)
			if err != nil {
				common.RespondWithAppError(w, r, err, debug)
				return
			}
			ctx := context.WithValue(r.Context(), identityCtxKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func IdentityFromContext(ctx context.Context) (*service.Identity, bool) {
	identity, ok := ctx.Value(identityCtxKey).(*service.Identity)
	return identity, ok && identity != nil && identity.User != nil
}

// PrincipalFromContext returns the live user record of the caller.
func PrincipalFromContext(ctx context.Context) (*model.User, bool) {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, false
	}
	return identity.User, true
}
