// Package tokens issues and verifies the signed access/refresh token pair.
// Access and refresh tokens are signed with separate secrets so a leaked
// access secret can never forge a refresh token, and each token carries its
// class in the claims so one class cannot be replayed as the other.
package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Class discriminates the two token kinds. The value is embedded in the
// token_type claim and checked on decode.
type Class string

const (
	Access  Class = "access"
	Refresh Class = "refresh"
)

// Decode failures, matched with errors.Is. Raw jwt library errors never leave
// this package.
var (
	ErrExpired          = errors.New("token has expired")
	ErrInvalidSignature = errors.New("token signature is invalid")
	ErrMalformed        = errors.New("token is not recognized")
	ErrInvalid          = errors.New("token is invalid")
)

// Claims carried by every issued token. Timestamps are whole-second Unix
// epoch values; sub-second precision is not preserved.
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"token_type"`
}

// Config holds the signing secrets and lifetimes for both classes.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// Codec issues and verifies tokens of both classes. Pure in-memory
// computation, safe for concurrent use.
type Codec struct {
	cfg Config
}

func NewCodec(cfg Config) *Codec {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Codec{cfg: cfg}
}

// IssueAccess signs a short-lived access token for subject.
func (c *Codec) IssueAccess(subject string) (string, error) {
	return c.issue(subject, Access, c.cfg.AccessTTL, c.cfg.AccessSecret)
}

// IssueRefresh signs a long-lived refresh token for subject.
func (c *Codec) IssueRefresh(subject string) (string, error) {
	return c.issue(subject, Refresh, c.cfg.RefreshTTL, c.cfg.RefreshSecret)
}

func (c *Codec) issue(subject string, class Class, ttl time.Duration, secret []byte) (string, error) {
	now := c.cfg.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: string(class),
	})
	return token.SignedString(secret)
}

// DecodeAccess verifies an access token, including its expiry. A token
// examined at exactly its expiry instant is already expired.
func (c *Codec) DecodeAccess(token string) (*Claims, error) {
	return c.decode(token, Access, c.cfg.AccessSecret, true)
}

// DecodeRefresh verifies a refresh token, including its expiry.
func (c *Codec) DecodeRefresh(token string) (*Claims, error) {
	return c.decode(token, Refresh, c.cfg.RefreshSecret, true)
}

// DecodeAccessExpired verifies an access token's signature, structure and
// class but tolerates an elapsed expiry. Only the refresh endpoint may use
// this: recovering from an expired access token is the whole point of refresh.
func (c *Codec) DecodeAccessExpired(token string) (*Claims, error) {
	return c.decode(token, Access, c.cfg.AccessSecret, false)
}

func (c *Codec) decode(token string, class Class, secret []byte, checkExpiry bool) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithTimeFunc(c.cfg.Now),
		jwt.WithExpirationRequired(),
	}
	if !checkExpiry {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		return nil, translate(err)
	}
	if !parsed.Valid {
		return nil, ErrInvalid
	}
	if claims.TokenType != string(class) {
		return nil, ErrInvalid
	}
	if claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, ErrInvalid
	}
	return claims, nil
}

// translate maps jwt/v5 parse errors onto the package taxonomy.
func translate(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	default:
		return ErrInvalid
	}
}
