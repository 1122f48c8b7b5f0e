package source

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNetwork wraps transport failures: the backend could not be reached.
	ErrNetwork = errors.New("backend unreachable")

	// ErrNotFound matches APIErrors with status 404.
	ErrNotFound = errors.New("not found")

	// ErrConflict matches APIErrors with status 409, e.g. a duplicate line item.
	ErrConflict = errors.New("conflict")

	// ErrRejected matches acknowledgments carrying {success: false}.
	ErrRejected = errors.New("rejected by backend")
)

// APIError is a failure reported by the backend. Message is shown verbatim.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.Status)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

// Is lets callers match an APIError against the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrConflict:
		return e.Status == http.StatusConflict
	case ErrRejected:
		return e.Status >= 200 && e.Status < 300
	}
	return false
}
