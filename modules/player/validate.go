package player

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrBadURL means the URL did not parse as an absolute URL with a host.
	ErrBadURL = errors.New("invalid URL format")

	// ErrScheme means the URL scheme is not http or https.
	ErrScheme = errors.New("only http/https URLs are allowed")

	// ErrPrivateHost means the URL host looks like a loopback or private
	// network address.
	ErrPrivateHost = errors.New("local/private URLs not allowed")
)

// ValidationError reports a stream URL that was rejected before any process
// was spawned. It unwraps to one of ErrBadURL, ErrScheme or ErrPrivateHost.
type ValidationError struct {
	URL string
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid stream URL %q: %s", e.URL, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Loopback/private host indicators. The check is lexical only: it does not
// cover 172.17.0.0-172.31.255.255, IPv6 loopback or link-local addresses,
// and it does not resolve hostnames before checking, so it is a guard
// against obvious mistakes rather than a complete SSRF defense.
var privateHostPrefixes = []string{"192.168.", "10.", "172.16."}

// ValidateStreamURL decides whether a URL is safe to hand to the external
// player. Only absolute http/https URLs with a public-looking host pass.
func ValidateStreamURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return &ValidationError{URL: raw, Err: ErrBadURL}
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{URL: raw, Err: ErrScheme}
	}

	host := u.Hostname()
	if host == "" {
		return &ValidationError{URL: raw, Err: ErrBadURL}
	}

	if host == "localhost" || host == "127.0.0.1" {
		return &ValidationError{URL: raw, Err: ErrPrivateHost}
	}
	for _, prefix := range privateHostPrefixes {
		if strings.HasPrefix(host, prefix) {
			return &ValidationError{URL: raw, Err: ErrPrivateHost}
		}
	}

	return nil
}
