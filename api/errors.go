package api

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is returned by Client.Do when the server answers with a
// non-2xx status.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Kind classifies a remote failure for presentation.
type Kind int

const (
	// KindNone means no error.
	KindNone Kind = iota
	// KindConflict is a 400-class answer: the resource exists or the input is invalid.
	KindConflict
	// KindNotFound is a 404 answer.
	KindNotFound
	// KindConnectivity is anything else: network, 5xx, timeout.
	KindConnectivity
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not-found"
	default:
		return "connectivity"
	}
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// IsClientError reports whether err is a 400-class status other than 404.
func IsClientError(err error) bool {
	s := StatusOf(err)
	return s >= 400 && s < 500 && s != http.StatusNotFound
}

// IsNotFound reports whether err is a 404 status.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// Classify maps err onto the presentation taxonomy.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case IsNotFound(err):
		return KindNotFound
	case IsClientError(err):
		return KindConflict
	default:
		return KindConnectivity
	}
}
