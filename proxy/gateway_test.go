package proxy

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticKey(k string) func() string {
	return func() string { return k }
}

func TestSplitTarget(t *testing.T) {
	tests := []struct {
		in   string
		host string
		path string
	}{
		{"/euw1/lol/summoner/v4/summoners/by-puuid/abc", "euw1", "lol/summoner/v4/summoners/by-puuid/abc"},
		{"europe/riot/account/v1/accounts/by-riot-id/Caps/G2", "europe", "riot/account/v1/accounts/by-riot-id/Caps/G2"},
		{"//euw1//lol//x", "euw1", "lol/x"},
		{"/euw1", "euw1", ""},
		{"/", "", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			host, path := SplitTarget(tt.in)
			assert.Equal(t, tt.host, host)
			assert.Equal(t, tt.path, path)
		})
	}
}

func TestAllowList(t *testing.T) {
	assert.Len(t, PlatformHosts, 16)
	assert.Len(t, RoutingHosts, 4)
	for _, h := range append(append([]string{}, PlatformHosts...), RoutingHosts...) {
		assert.True(t, IsAllowedHost(h), h)
	}
	for _, h := range []string{"", "EUW1", "euw", "evil.com", "europe.evil", "127.0.0.1", "ddragon"} {
		assert.False(t, IsAllowedHost(h), h)
	}
}

func TestGatewayCheck(t *testing.T) {
	gw := NewGateway(staticKey("RGAPI-test"))

	tests := []struct {
		name   string
		method string
		target string
		status int
		err    error
	}{
		{"valid platform", http.MethodGet, "/euw1/lol/status/v4/platform-data", 0, nil},
		{"valid routing", http.MethodGet, "/europe/lol/match/v5/matches/EUW1_1", 0, nil},
		{"missing path", http.MethodGet, "/euw1", http.StatusBadRequest, ErrBadRequest},
		{"missing host", http.MethodGet, "/", http.StatusBadRequest, ErrBadRequest},
		{"disallowed host", http.MethodGet, "/example/lol/x", http.StatusBadRequest, ErrHostNotAllowed},
		{"post valid host", http.MethodPost, "/euw1/lol/x", http.StatusMethodNotAllowed, ErrMethodNotAllowed},
		{"delete bad host", http.MethodDelete, "/nope/lol/x", http.StatusMethodNotAllowed, ErrMethodNotAllowed},
		{"put empty", http.MethodPut, "", http.StatusMethodNotAllowed, ErrMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := gw.Check(tt.method, tt.target)
			if tt.err == nil {
				require.NoError(t, err)
				assert.NotEmpty(t, target.Host)
				assert.NotEmpty(t, target.Path)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
			var rej *RejectError
			require.True(t, errors.As(err, &rej))
			assert.Equal(t, tt.status, rej.Status)
		})
	}
}

func TestGatewayMissingCredential(t *testing.T) {
	gw := NewGateway(staticKey(""))
	_, err := gw.Check(http.MethodGet, "/euw1/lol/x")
	var rej *RejectError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, http.StatusInternalServerError, rej.Status)
	assert.Equal(t, "Missing RIOT_API_KEY on server", rej.Reason())

	// host validation still wins over the credential check
	_, err = gw.Check(http.MethodGet, "/nope/lol/x")
	assert.ErrorIs(t, err, ErrHostNotAllowed)
}
