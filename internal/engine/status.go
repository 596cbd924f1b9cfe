package engine

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// StatusError is a non-2xx reply. Body is a bounded preview.
type StatusError struct {
	Code   int
	Status string
	URL    string
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("HTTP %s from %s", e.Status, e.URL)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// StatusCode returns the HTTP status in err's chain, or 0 if no response was received.
func StatusCode(err error) int {
	var se *StatusError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}
