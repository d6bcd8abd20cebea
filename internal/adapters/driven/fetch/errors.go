package fetch

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"

	"github.com/custodia-labs/filmsync/internal/core/domain"
)

// HTTPError is a non-2xx response. It is never retried.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("fetch: status %d from %s", e.StatusCode, e.URL)
}

// Unwrap maps a 404 onto domain.ErrNotFound so services can skip missing
// pages without knowing about HTTP.
func (e *HTTPError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	return nil
}

// IsNotFound checks if the error is a 404 response.
func IsNotFound(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusNotFound
	}
	return false
}

// IsRetryable reports whether err is one of the transient transport faults
// worth another try: a reset connection or a host name that did not resolve.
// Everything else, HTTP status errors included, is terminal.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsNotFound
	}
	return false
}
