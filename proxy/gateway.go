package proxy

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrBadRequest        = errors.New("bad request: missing host/path")
	ErrHostNotAllowed    = errors.New("host not allowed")
	ErrMethodNotAllowed  = errors.New("method not allowed")
	ErrMissingCredential = errors.New("missing RIOT_API_KEY on server")
)

// PlatformHosts are the realm scoped upstream identifiers.
var PlatformHosts = []string{
	"br1", "eun1", "euw1", "jp1", "kr", "la1", "la2", "na1",
	"oc1", "ph2", "ru", "sg2", "th2", "tr1", "tw2", "vn2",
}

// RoutingHosts are the continent scoped upstream identifiers.
var RoutingHosts = []string{"americas", "europe", "asia", "sea"}

var allowedHosts = func() map[string]struct{} {
	m := make(map[string]struct{}, len(PlatformHosts)+len(RoutingHosts))
	for _, h := range PlatformHosts {
		m[h] = struct{}{}
	}
	for _, h := range RoutingHosts {
		m[h] = struct{}{}
	}
	return m
}()

func IsAllowedHost(host string) bool {
	_, ok := allowedHosts[host]
	return ok
}

// RejectError is a gateway rejection, fatal to the single proxied call.
type RejectError struct {
	Status int
	Err    error
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Err)
}

func (e *RejectError) Unwrap() error {
	return e.Err
}

// Reason is the short text sent back to the caller.
func (e *RejectError) Reason() string {
	switch {
	case errors.Is(e.Err, ErrBadRequest):
		return "Bad request: missing host/path"
	case errors.Is(e.Err, ErrHostNotAllowed):
		return "Host not allowed"
	case errors.Is(e.Err, ErrMethodNotAllowed):
		return "Method not allowed"
	case errors.Is(e.Err, ErrMissingCredential):
		return "Missing RIOT_API_KEY on server"
	}
	return e.Err.Error()
}

func reject(status int, err error) *RejectError {
	return &RejectError{Status: status, Err: err}
}

// Target is an accepted proxy destination.
type Target struct {
	Host string
	Path string
}

// SplitTarget splits "/<host>/<upstream-path>" on its first non empty segment.
// Empty segments are dropped, the remaining ones are kept verbatim.
func SplitTarget(p string) (host, path string) {
	parts := make([]string, 0, 8)
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], "/")
}

// Gateway validates inbound proxy requests before anything is forwarded.
type Gateway struct {
	credential func() string
}

// NewGateway takes the credential lookup so a key set after startup is honored.
func NewGateway(credential func() string) *Gateway {
	return &Gateway{credential: credential}
}

// Check validates the method, the target shape, the host allow-list and the credential, in that order.
func (g *Gateway) Check(method, target string) (Target, error) {
	if method != http.MethodGet {
		return Target{}, reject(http.StatusMethodNotAllowed, ErrMethodNotAllowed)
	}
	host, path := SplitTarget(target)
	if host == "" || path == "" {
		return Target{}, reject(http.StatusBadRequest, ErrBadRequest)
	}
	if !IsAllowedHost(host) {
		return Target{}, reject(http.StatusBadRequest, fmt.Errorf("%w: %q", ErrHostNotAllowed, host))
	}
	if g.credential == nil || g.credential() == "" {
		return Target{}, reject(http.StatusInternalServerError, ErrMissingCredential)
	}
	return Target{Host: host, Path: path}, nil
}
