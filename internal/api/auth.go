package api

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"

	"nannylink/internal/config"

	"golang.org/x/time/rate"
)

type contextKey string

const userIDKey contextKey = "user_id"

// UserID returns the acting user id the auth layer put on the context.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// HTTPAuth provides API-key auth and per-key rate limiting. The API key
// identifies the calling client; the user id header names the acting
// user on whose behalf the request runs.
type HTTPAuth struct {
	cfg      config.APIConfig
	limiters sync.Map // map[string]*rate.Limiter
}

func NewHTTPAuth(cfg config.APIConfig) *HTTPAuth {
	return &HTTPAuth{cfg: cfg}
}

func (a *HTTPAuth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.cfg.Auth.Enabled {
			userID, err := a.checkAuth(r)
			if err != nil {
				statusCode := http.StatusUnauthorized
				if err == errPermissionDenied {
					statusCode = http.StatusForbidden
				}
				writeError(w, statusCode, err.Error())
				return
			}
			r = r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
		}

		if err := a.checkRateLimit(r); err != nil {
			writeError(w, http.StatusTooManyRequests, err.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}

var errPermissionDenied = fmt.Errorf("permission denied")

func (a *HTTPAuth) checkAuth(r *http.Request) (string, error) {
	apiKey := strings.TrimSpace(r.Header.Get(a.headerAPIKey()))
	userID := strings.TrimSpace(r.Header.Get(a.headerUserID()))
	if apiKey == "" || userID == "" {
		return "", fmt.Errorf("missing auth headers")
	}

	client, ok := a.matchClient(apiKey)
	if !ok {
		return "", fmt.Errorf("invalid api key")
	}

	if err := a.checkPermissions(client, r); err != nil {
		return "", err
	}
	return userID, nil
}

// matchClient compares the candidate against every configured key in
// constant time per key.
func (a *HTTPAuth) matchClient(candidate string) (config.APIClientKey, bool) {
	var matched config.APIClientKey
	found := false
	for _, k := range a.cfg.Auth.APIKeys {
		if subtle.ConstantTimeCompare([]byte(k.Key), []byte(candidate)) == 1 {
			matched = k
			found = true
		}
	}
	return matched, found
}

func (a *HTTPAuth) checkPermissions(client config.APIClientKey, r *http.Request) error {
	required := requiredPermission(r)
	if required == "" {
		return nil
	}
	// Empty permissions list means allow-all.
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

func requiredPermission(r *http.Request) string {
	if strings.HasPrefix(r.URL.Path, "/api/v1/maintenance/") {
		return "maintenance"
	}
	if r.Method == http.MethodGet {
		return "read"
	}
	return "write"
}

func (a *HTTPAuth) checkRateLimit(r *http.Request) error {
	if a.cfg.RateLimit.RPS <= 0 {
		return nil
	}

	key := a.clientKey(r)
	lim := a.getLimiter(key)
	if !lim.Allow() {
		return fmt.Errorf("rate limit exceeded")
	}
	return nil
}

func (a *HTTPAuth) clientKey(r *http.Request) string {
	if apiKey := strings.TrimSpace(r.Header.Get(a.headerAPIKey())); apiKey != "" {
		return apiKey
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}

func (a *HTTPAuth) getLimiter(key string) *rate.Limiter {
	if v, ok := a.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	burst := a.cfg.RateLimit.Burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(a.cfg.RateLimit.RPS), burst)
	actual, loaded := a.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}

func (a *HTTPAuth) headerAPIKey() string {
	h := strings.TrimSpace(strings.ToLower(a.cfg.Auth.HeaderAPIKey))
	if h == "" {
		h = "x-api-key"
	}
	return h
}

func (a *HTTPAuth) headerUserID() string {
	h := strings.TrimSpace(strings.ToLower(a.cfg.Auth.HeaderUserID))
	if h == "" {
		h = "x-user-id"
	}
	return h
}
