package proxy

import (
	"context"
	"fmt"
	"net/http"
)

const statusEndpoint = "lol/status/v4/platform-data"

// KeyValidator checks the configured key against a lightweight platform endpoint.
type KeyValidator struct {
	upstream Upstream
	platform string
}

func NewKeyValidator(upstream Upstream, platform string) *KeyValidator {
	return &KeyValidator{
		upstream: upstream,
		platform: platform,
	}
}

// Validate returns:
//   - (true, nil) when the key is accepted
//   - (false, nil) when the key is rejected (401/403)
//   - (false, error) when validity could not be determined
func (v *KeyValidator) Validate(ctx context.Context) (bool, error) {
	if !IsAllowedHost(v.platform) {
		return false, fmt.Errorf("%w: %q", ErrHostNotAllowed, v.platform)
	}
	res, err := v.upstream.Forward(ctx, Request{Host: v.platform, Path: statusEndpoint})
	if err != nil {
		return false, err
	}
	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}
}
