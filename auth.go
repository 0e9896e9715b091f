package main

import (
	"context"
	"errors"
	"strings"
	"time"

	"bb01/models"
	"bb01/pkg/tokens"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// revokedTTLMargin pads the ledger entry past the token's own expiry so the
// entry outlives any window in which the signature would still validate.
const revokedTTLMargin = 7 * 24 * time.Hour

// Store dependencies of the auth flows, defined here at the consumer so tests
// can substitute fakes.
type identityDirectory interface {
	GetByValue(ctx context.Context, value string) (*models.AuthIdentity, error)
	GetByID(ctx context.Context, id uint) (*models.AuthIdentity, error)
	Rotate(ctx context.Context, user *models.User) (*models.AuthIdentity, error)
}

type revocationLedger interface {
	IsRevoked(ctx context.Context, value string) (bool, error)
	Revoke(ctx context.Context, value string, ttl time.Time) error
}

type userDirectory interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByAuthIdentityID(ctx context.Context, identityID uint) (*models.User, error)
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
}

// TokenPair is what every successful login/register/refresh hands back. The
// handler decides transport: access token in the body, refresh token in an
// HttpOnly cookie.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService coordinates the codec, the identity rows and the revocation
// ledger to implement login, refresh and logout as atomic protocols.
type AuthService struct {
	users      userDirectory
	identities identityDirectory
	revoked    revocationLedger
	codec      *tokens.Codec

	// verifyPassword is bcrypt in production; injectable because bcrypt is
	// deliberately slow and unit tests compare it constantly.
	verifyPassword func(hashed []byte, password string) error
	now            func() time.Time
}

func NewAuthService(users userDirectory, identities identityDirectory, revoked revocationLedger, codec *tokens.Codec) *AuthService {
	return &AuthService{
		users:          users,
		identities:     identities,
		revoked:        revoked,
		codec:          codec,
		verifyPassword: func(hashed []byte, password string) error {
			return bcrypt.CompareHashAndPassword(hashed, []byte(password))
		},
		now:            time.Now,
	}
}

// Login resolves the principal and issues a fresh pair. Unknown email and
// wrong password are indistinguishable to the caller so accounts cannot be
// enumerated.
func (a *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errInvalidCredentials
	}
	if err := a.verifyPassword(user.HashedPassword, password); err != nil {
		return nil, errInvalidCredentials
	}

	identity, err := a.identities.GetByID(ctx, user.AuthIdentityID)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		log.Error().Uint("user_id", user.ID).Msg("user has no auth identity")
		return nil, errIntegrity
	}

	return a.issuePair(identity.Value)
}

// Register creates the user (identity included, one transaction) and logs it
// straight in with a fresh pair.
func (a *AuthService) Register(ctx context.Context, in RegisterInput) (*TokenPair, error) {
	user, err := a.users.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	identity, err := a.identities.GetByID(ctx, user.AuthIdentityID)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		log.Error().Uint("user_id", user.ID).Msg("freshly registered user has no auth identity")
		return nil, errIntegrity
	}
	return a.issuePair(identity.Value)
}

// Refresh consumes a refresh token and issues a new pair. The ledger check
// runs before any decoding: a revoked token is dead even while its signature
// still validates. Refresh tokens are single-use; the presented one is
// revoked before the new pair exists, so a failure after that point leaves
// the token unusable rather than reusable.
func (a *AuthService) Refresh(ctx context.Context, accessSubject, refreshToken string) (*TokenPair, error) {
	revoked, err := a.revoked.IsRevoked(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, errTokenRevoked
	}

	claims, err := a.codec.DecodeRefresh(refreshToken)
	if err != nil {
		return nil, err // codec taxonomy, mapped to a status by the handler
	}

	// anti-theft: the refresh token must belong to the same identity as the
	// access token it arrived with
	if !strings.EqualFold(accessSubject, claims.Subject) {
		return nil, errClaimMismatch
	}

	ttl := claims.ExpiresAt.Time.Add(revokedTTLMargin)
	if err := a.revoked.Revoke(ctx, refreshToken, ttl); err != nil {
		if errors.Is(err, errAlreadyRevoked) {
			// lost the race against a concurrent refresh of the same token
			return nil, errTokenRevoked
		}
		return nil, err
	}

	return a.issuePair(claims.Subject)
}

// Logout renders the presented session unusable. refreshToken may be empty
// (no cookie). When the specific token cannot be confidently revoked, the
// whole identity is rotated instead, logging the user out everywhere; a
// logout request never returns without some invalidation effect.
func (a *AuthService) Logout(ctx context.Context, accessSubject, refreshToken string) error {
	if refreshToken != "" {
		revoked, err := a.revoked.IsRevoked(ctx, refreshToken)
		if err != nil {
			return err
		}
		if revoked {
			return nil // already done, idempotent success
		}

		claims, err := a.codec.DecodeRefresh(refreshToken)
		switch {
		case err == nil:
			if strings.EqualFold(accessSubject, claims.Subject) {
				ttl := claims.ExpiresAt.Time.Add(revokedTTLMargin)
				revokeErr := a.revoked.Revoke(ctx, refreshToken, ttl)
				if revokeErr == nil || errors.Is(revokeErr, errAlreadyRevoked) {
					return nil
				}
				log.Error().Err(revokeErr).Msg("failed to revoke refresh token on logout")
			}
			// mismatched subject or failed write: fall through to rotation
		case errors.Is(err, tokens.ErrExpired):
			// expired means the embedded expiry can't be trusted; revoke
			// defensively with a ttl counted from now
			ttl := a.now().Add(revokedTTLMargin)
			revokeErr := a.revoked.Revoke(ctx, refreshToken, ttl)
			if revokeErr == nil || errors.Is(revokeErr, errAlreadyRevoked) {
				return nil
			}
			log.Error().Err(revokeErr).Msg("failed to revoke expired refresh token on logout")
		default:
			// undecodable token: fall through to rotation
		}
	}

	// Account-wide fallback: rotate the identity, orphaning every token ever
	// issued under the old value.
	identity, err := a.identities.GetByValue(ctx, accessSubject)
	if err != nil {
		return err
	}
	if identity == nil {
		return errMustAuthenticate
	}
	user, err := a.users.GetByAuthIdentityID(ctx, identity.ID)
	if err != nil {
		return err
	}
	if user == nil {
		return errMustAuthenticate
	}
	if _, err := a.identities.Rotate(ctx, user); err != nil {
		return err
	}
	return nil
}

// ResolveSubject maps a verified token subject to the principal it currently
// belongs to. A rotated or expired identity no longer resolves, which is what
// makes logout-everywhere take effect before the old access tokens run out.
func (a *AuthService) ResolveSubject(ctx context.Context, subject string) (*models.User, error) {
	identity, err := a.identities.GetByValue(ctx, subject)
	if err != nil {
		return nil, err
	}
	if identity == nil || !identity.Active(a.now()) {
		return nil, errMustAuthenticate
	}
	user, err := a.users.GetByAuthIdentityID(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errMustAuthenticate
	}
	return user, nil
}

func (a *AuthService) issuePair(subject string) (*TokenPair, error) {
	access, err := a.codec.IssueAccess(subject)
	if err != nil {
		return nil, err
	}
	refresh, err := a.codec.IssueRefresh(subject)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
