package main

import "errors"

// Service-level failures. Handlers map these onto HTTP statuses; the message
// text sent to clients lives in the handlers, never here, so nothing ever
// dispatches on error strings.
var (
	errInvalidCredentials = errors.New("invalid credentials")
	errTokenRevoked       = errors.New("refresh token is no longer valid")
	errClaimMismatch      = errors.New("claim subjects did not match")
	errMustAuthenticate   = errors.New("must be authenticated")
	errIntegrity          = errors.New("data integrity fault")
	errRetryExhausted     = errors.New("identity generation retry limit reached")
	errAlreadyRevoked     = errors.New("token already revoked")
	errDuplicate          = errors.New("duplicate record")
	errNotFound           = errors.New("record not found")
)
