package main

import (
	"errors"
	"net/http"
	"strings"

	"bb01/pkg/tokens"

	"github.com/gin-gonic/gin"
)

// ctxSubject is the gin context key under which the middleware stores the
// verified token subject (the caller's auth identity value).
const ctxSubject = "auth_subject"

const refreshPath = "/api/auth/refresh"

// authRequired verifies the bearer access token and attaches its subject to
// the request context. The refresh endpoint is the single sanctioned
// exception to the expiry check: recovering from an expired access token is
// what refresh is for, so there the subject is still extracted from an
// expired-but-signature-valid token.
func authRequired(codec *tokens.Codec) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			respond(c, http.StatusUnauthorized, "Access token is required")
			c.Abort()
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			respond(c, http.StatusUnauthorized, "Invalid authorization format. Expected 'Bearer <token>'")
			c.Abort()
			return
		}

		claims, err := codec.DecodeAccess(token)
		if err != nil {
			if errors.Is(err, tokens.ErrExpired) && c.Request.URL.Path == refreshPath {
				claims, err = codec.DecodeAccessExpired(token)
				if err == nil {
					c.Set(ctxSubject, claims.Subject)
					c.Next()
					return
				}
			}
			code, msg := accessTokenError(err)
			respond(c, code, msg)
			c.Abort()
			return
		}

		c.Set(ctxSubject, claims.Subject)
		c.Next()
	}
}

func accessTokenError(err error) (int, string) {
	switch {
	case errors.Is(err, tokens.ErrExpired):
		return http.StatusUnauthorized, "Access token has expired"
	case errors.Is(err, tokens.ErrInvalidSignature):
		return http.StatusUnauthorized, "Access token signature is invalid"
	case errors.Is(err, tokens.ErrMalformed):
		return http.StatusUnauthorized, "Access token is not recognized"
	case errors.Is(err, tokens.ErrInvalid):
		return http.StatusUnauthorized, "Access token is invalid"
	default:
		return http.StatusInternalServerError, "Server error, try again later"
	}
}

// subjectFromContext returns the subject placed there by authRequired.
func subjectFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxSubject)
	if !ok {
		return "", false
	}
	sub, ok := v.(string)
	return sub, ok && sub != ""
}
