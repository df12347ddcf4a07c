package http

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"estatehub-backend/internal/config"
	"estatehub-backend/internal/identity"
	"estatehub-backend/internal/logger"
	"estatehub-backend/internal/security"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"
)

// routeKey identifies the matched route as "METHOD path-template", the key
// format of config.RouteSecurityConfig.
func routeKey(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return r.Method + " " + r.URL.Path
	}
	tpl, err := route.GetPathTemplate()
	if err != nil {
		return r.Method + " " + r.URL.Path
	}
	return r.Method + " " + tpl
}

// AuthMiddleware validates the bearer token of protected routes and binds the
// actor to the request context.
func AuthMiddleware(tokens security.TokenManager) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := routeKey(r)
			if config.GetSecurityLevel(key) == config.SecurityPublic {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				respondErrorWithCode(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing bearer token")
				return
			}
			claims, err := tokens.ValidateToken(token)
			if err != nil {
				code := "UNAUTHENTICATED"
				if err == security.ErrExpiredToken {
					code = "TOKEN_EXPIRED"
				}
				respondErrorWithCode(w, http.StatusUnauthorized, code, err.Error())
				return
			}

			ctx := identity.WithActor(r.Context(), identity.Actor{ID: claims.UserID, RoleClaim: claims.Role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimiter keeps one token bucket per client address.
type RateLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients map[string]*client
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		clients: make(map[string]*client),
	}
}

func (rl *RateLimiter) allow(addr string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	c, ok := rl.clients[addr]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[addr] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// Sweep drops clients idle for longer than idle.
func (rl *RateLimiter) Sweep(idle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := time.Now().Add(-idle)
	for addr, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, addr)
		}
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientAddr(r), time.Now()) {
			respondErrorWithCode(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs one line per request.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("HTTP request",
			"method", r.Method,
			"route", routeKey(r),
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
