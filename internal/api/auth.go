package api

import (
	"crypto/subtle"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"oncestock/internal/config"
	"oncestock/internal/domain"
	"oncestock/internal/models"
)

const apiKeyHeaderDefault = "x-api-key"

const (
	permReadProducts   = "read:products"
	permWriteProducts  = "write:products"
	permReadMovements  = "read:movements"
	permWriteMovements = "write:movements"
	permExport         = "export"
)

var errPermissionDenied = fmt.Errorf("permission denied")

// HTTPAuth provides API-key auth and per-key rate limiting. When a cache
// repository is wired, the budget is counted there so every process pointed
// at the same redis shares it; the in-process token bucket is the fallback.
type HTTPAuth struct {
	cfg     config.APIConfig
	clients []config.APIClientKey
	cache   domain.CacheRepository
	limiter *rateLimiter
}

func NewHTTPAuth(cfg config.APIConfig, cache domain.CacheRepository) *HTTPAuth {
	return &HTTPAuth{
		cfg:     cfg,
		clients: cfg.Auth.APIKeys,
		cache:   cache,
		limiter: newRateLimiter(cfg),
	}
}

func (a *HTTPAuth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}

		if a.cfg.Auth.Enabled {
			if err := a.checkAuth(r); err != nil {
				statusCode := http.StatusUnauthorized
				if err == errPermissionDenied {
					statusCode = http.StatusForbidden
				}
				writeError(w, statusCode, err.Error())
				return
			}
		}

		if err := a.checkRateLimit(r); err != nil {
			writeError(w, http.StatusTooManyRequests, err.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *HTTPAuth) checkAuth(r *http.Request) error {
	apiKey := strings.TrimSpace(r.Header.Get(a.apiKeyHeader()))
	if apiKey == "" {
		return fmt.Errorf("missing api key header")
	}

	client, ok := a.matchClient(apiKey)
	if !ok {
		return fmt.Errorf("invalid api key")
	}

	return a.checkPermissions(client, r)
}

// matchClient scans every configured key with a constant-time compare so a
// lookup cannot leak which prefix matched.
func (a *HTTPAuth) matchClient(apiKey string) (config.APIClientKey, bool) {
	var matched config.APIClientKey
	found := false
	for _, client := range a.clients {
		if subtle.ConstantTimeCompare([]byte(client.Key), []byte(apiKey)) == 1 {
			matched = client
			found = true
		}
	}
	return matched, found
}

func (a *HTTPAuth) checkPermissions(client config.APIClientKey, r *http.Request) error {
	required := requiredPermissionHTTP(r)
	if required == "" {
		return nil
	}
	// An empty permissions list means allow-all.
	if len(client.Permissions) == 0 {
		return nil
	}
	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == required {
			return nil
		}
	}
	return errPermissionDenied
}

func requiredPermissionHTTP(r *http.Request) string {
	path := r.URL.Path
	write := r.Method != http.MethodGet

	switch {
	case strings.HasPrefix(path, "/api/v1/products"), path == "/api/v1/lookup":
		if write {
			return permWriteProducts
		}
		return permReadProducts
	case path == "/api/v1/movements", path == "/api/v1/scan":
		if write {
			return permWriteMovements
		}
		return permReadMovements
	case path == "/api/v1/export":
		return permExport
	default:
		return ""
	}
}

func (a *HTTPAuth) checkRateLimit(r *http.Request) error {
	key := a.clientKey(r)

	if a.cache != nil && a.cfg.RateLimit.Requests > 0 {
		window := time.Duration(a.cfg.RateLimit.WindowSeconds) * time.Second
		if window <= 0 {
			window = models.RateLimitWindow * time.Second
		}
		allowed, err := a.cache.CheckRateLimit(r.Context(), key, a.cfg.RateLimit.Requests, window)
		if err == nil {
			if !allowed {
				return fmt.Errorf("rate limit exceeded")
			}
			return nil
		}
		// Cache unreachable; fall back to the local bucket.
	}

	if a.cfg.RateLimit.RPS <= 0 {
		return nil
	}
	lim := a.limiter.getLimiter(key)
	if !lim.Allow() {
		return fmt.Errorf("rate limit exceeded")
	}
	return nil
}

// clientKey identifies the caller: API key when present, remote IP otherwise.
func (a *HTTPAuth) clientKey(r *http.Request) string {
	if apiKey := strings.TrimSpace(r.Header.Get(a.apiKeyHeader())); apiKey != "" {
		return apiKey
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}

func (a *HTTPAuth) apiKeyHeader() string {
	header := strings.TrimSpace(strings.ToLower(a.cfg.Auth.HeaderAPIKey))
	if header == "" {
		header = apiKeyHeaderDefault
	}
	return header
}
