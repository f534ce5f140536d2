package api

import "errors"

var (
	// ErrInvalidCredentials maps 401/403 responses on login.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNetwork covers requests that never produced a response: DNS,
	// connection, and timeout failures.
	ErrNetwork = errors.New("auth server unreachable")

	// ErrServer covers any other non-2xx response.
	ErrServer = errors.New("auth server error")

	// ErrMalformedResponse covers 2xx responses missing required fields.
	ErrMalformedResponse = errors.New("malformed auth response")
)
