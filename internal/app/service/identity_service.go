package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"taskboard/internal/common"
	"taskboard/internal/common/security"
	"taskboard/internal/domain/model"
	"taskboard/internal/domain/repository"
	"taskboard/internal/platform/logger"
)

var errUnauthenticated = common.NewError(common.ErrUnauthorized, "Unauthorized")

// Identity is a resolved request principal. User is the live record; the
// claims are kept only so logout can revoke the presented token.
type Identity struct {
	User   *model.User
	Claims *security.Claims
}

// IdentityService turns a request credential into the current user.
type IdentityService struct {
	users     repository.UserRepository
	codec     *security.TokenCodec
	transport *security.CookieTransport
	denylist  repository.TokenDenylist
}

func NewIdentityService(
	users repository.UserRepository,
	codec *security.TokenCodec,
	transport *security.CookieTransport,
	denylist repository.TokenDenylist,
) *IdentityService {
	return &IdentityService{users: users, codec: codec, transport: transport, denylist: denylist}
}

// Resolve extracts the credential from r and resolves it. Every
// authentication failure is reported as the same Unauthorized error.
func (s *IdentityService) Resolve(r *http.Request) (*Identity, error) {
	token, ok := s.transport.Extract(r)
	if !ok {
		return nil, s.reject("missing")
	}
	return s.ResolveToken(r.Context(), token)
}

func (s *IdentityService) ResolveToken(ctx context.Context, token string) (*Identity, error) {
	claims, err := s.codec.Verify(token)
	if err != nil {
		switch {
		case errors.Is(err, security.ErrTokenExpired):
			return nil, s.reject("expired")
		case errors.Is(err, security.ErrTokenBadSignature):
			return nil, s.reject("bad_signature")
		default:
			return nil, s.reject("malformed")
		}
	}

	if s.denylist != nil && claims.ID != "" {
		revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check token revocation: %w", err)
		}
		if revoked {
			return nil, s.reject("revoked")
		}
	}

	user, err := s.users.FindByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, s.reject("unknown_user")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if user.Role != claims.Role {
		// The stored role wins; the token is only a pointer to the user.
		logger.Debug("token role differs from stored role", "user_id", user.ID, "token_role", claims.Role, "role", user.Role)
	}
	identityResolutions.WithLabelValues("ok").Inc()
	return &Identity{User: user, Claims: claims}, nil
}

func (s *IdentityService) reject(reason string) error {
	identityResolutions.WithLabelValues(reason).Inc()
	logger.Debug("credential rejected", "reason", reason)
	return errUnauthenticated
}
