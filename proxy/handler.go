package proxy

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
)

const (
	RiotPrefix   = "/api/riot"
	LegacyPrefix = "/riot"
	AssetPrefix  = "/champion-data"

	assetCacheControl = "public, max-age=86400"
)

// WriteError writes the short json reason used by every rejected call.
func WriteError(w http.ResponseWriter, status int, reason string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": reason})
}

type riotHandler struct {
	prefix   string
	gateway  *Gateway
	upstream Upstream
}

// NewRiotHandler serves GET {prefix}/<host>/<path>?<query> through the gateway then the upstream.
func NewRiotHandler(prefix string, gateway *Gateway, upstream Upstream) http.Handler {
	return &riotHandler{
		prefix:   prefix,
		gateway:  gateway,
		upstream: upstream,
	}
}

func (h *riotHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target := strings.TrimPrefix(r.URL.EscapedPath(), h.prefix)
	t, err := h.gateway.Check(r.Method, target)
	if err != nil {
		var rej *RejectError
		if errors.As(err, &rej) {
			slog.Warn(fmt.Sprintf("[riotProxy] - rejected %s %s : %s", r.Method, target, rej.Err))
			WriteError(w, rej.Status, rej.Reason())
			return
		}
		WriteError(w, http.StatusInternalServerError, "Proxy error")
		return
	}

	res, err := h.upstream.Forward(r.Context(), Request{Host: t.Host, Path: t.Path, RawQuery: r.URL.RawQuery})
	if err != nil {
		writeForwardError(w, "riotProxy", err)
		return
	}
	writeResponse(w, res, "application/json; charset=utf-8", "")
}

type assetHandler struct {
	prefix   string
	upstream Upstream
}

// NewAssetHandler serves GET {prefix}/<asset-path> from the fixed asset origin, no credential attached.
func NewAssetHandler(prefix string, upstream Upstream) http.Handler {
	return &assetHandler{
		prefix:   prefix,
		upstream: upstream,
	}
}

func (h *assetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	path := strings.TrimPrefix(strings.TrimPrefix(r.URL.EscapedPath(), h.prefix), "/")
	if path == "" {
		WriteError(w, http.StatusBadRequest, "Bad request: missing path")
		return
	}
	res, err := h.upstream.Forward(r.Context(), Request{Path: path, RawQuery: r.URL.RawQuery})
	if err != nil {
		writeForwardError(w, "assetProxy", err)
		return
	}
	cache := ""
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		cache = assetCacheControl
	}
	writeResponse(w, res, "application/octet-stream", cache)
}

// RewritePrefix maps a legacy path prefix onto the current one before routing.
func RewritePrefix(from, to string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		if p == from || strings.HasPrefix(p, from+"/") {
			r.URL.Path = to + strings.TrimPrefix(p, from)
			if r.URL.RawPath != "" {
				r.URL.RawPath = to + strings.TrimPrefix(r.URL.RawPath, from)
			}
		}
		next.ServeHTTP(w, r)
	})
}

func writeForwardError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ErrUpstreamTimeout) {
		slog.Error(fmt.Sprintf("[%s] - %s", op, err))
		WriteError(w, http.StatusGatewayTimeout, "Upstream timeout")
		return
	}
	slog.Error(fmt.Sprintf("[%s] - %s", op, err))
	WriteError(w, http.StatusInternalServerError, "Proxy error")
}

func writeResponse(w http.ResponseWriter, res *Response, defaultContentType, cacheControl string) {
	ct := res.Header.Get("Content-Type")
	if ct == "" {
		ct = defaultContentType
	}
	w.Header().Set("Content-Type", ct)
	for _, name := range RateLimitHeaders {
		if v := res.Header.Get(name); v != "" {
			w.Header().Set(name, v)
		}
	}
	if cacheControl != "" {
		w.Header().Set("Cache-Control", cacheControl)
	}
	w.WriteHeader(res.StatusCode)
	w.Write(res.Body)
}
