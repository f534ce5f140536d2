package session

import "errors"

var (
	// ErrNoSession reports that no refresh token is persisted: the process
	// was never authenticated (or has been logged out). It is definitive and
	// must not be retried.
	ErrNoSession = errors.New("no active session")

	// ErrStorage reports that the session could not be saved to secure
	// storage during login.
	ErrStorage = errors.New("could not save session")
)
