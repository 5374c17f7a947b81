package pokeapi

import (
	"errors"
	"fmt"
	"net/http"
)

// NetworkError covers transport failures, undecodable bodies and any
// non-success HTTP status. StatusCode is 0 when no response was received.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("pokeapi: HTTP %d for %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("pokeapi: request to %s failed: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// NotFoundError is returned when an entity lookup hits a 404.
type NotFoundError struct {
	Resource string
	Name     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("pokeapi: %s %q not found", e.Resource, e.Name)
}

// IsNotFound reports whether err means the upstream has no such resource,
// either as a NotFoundError or as a NetworkError carrying a 404 status.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return true
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.StatusCode == http.StatusNotFound
	}
	return false
}
