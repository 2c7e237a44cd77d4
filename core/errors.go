package core

import "errors"

var (
	ErrMalformedPayload = errors.New("malformed payload")
	ErrMalformedToken   = errors.New("malformed token")
	ErrTokenAuthFailed  = errors.New("token authentication failed")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrClockSyncFailed  = errors.New("clock sync failed")
	ErrInvalidKey       = errors.New("invalid key")
)
