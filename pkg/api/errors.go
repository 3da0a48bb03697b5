package api

import (
	"errors"
	"fmt"
)

var (
	// ErrRemoteFetch signals that the remote keyword source could not deliver data.
	ErrRemoteFetch = errors.New("remote fetch failed")
	// ErrInvalidRequest signals a request rejected before any network call.
	ErrInvalidRequest = errors.New("invalid remote request")
)

// RemoteFetchError describes a failed remote call. StatusCode is 0 for transport failures.
type RemoteFetchError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *RemoteFetchError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s: API returned status %d: %s", ErrRemoteFetch, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: API returned status %d", ErrRemoteFetch, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", ErrRemoteFetch, e.Err)
	}
	return ErrRemoteFetch.Error()
}

func (e *RemoteFetchError) Is(target error) bool { return target == ErrRemoteFetch }

func (e *RemoteFetchError) Unwrap() error { return e.Err }
