package middleware

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/nahidhasan98/checklist-notifier/internal/logger"
)

// Middleware represents the middleware dependencies
type Middleware struct {
	log         *logger.Logger
	rateLimiter *RateLimiter
	apiKeys     map[string]bool
}

// RateLimiter is a fixed-window limiter keyed by client address
type RateLimiter struct {
	clients map[string]*clientBucket
	mutex   sync.Mutex

	requestsPerWindow int
	windowSize        time.Duration
	now               func() time.Time
}

type clientBucket struct {
	tokens     int
	lastRefill time.Time
}

// NewRateLimiter creates a limiter allowing requests per window for each client
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		clients:           make(map[string]*clientBucket),
		requestsPerWindow: requests,
		windowSize:        window,
		now:               time.Now,
	}
}

// New creates a new middleware instance. requestsPerMinute <= 0 disables
// rate limiting.
func New(log *logger.Logger, requestsPerMinute int) *Middleware {
	m := &Middleware{
		log:     log,
		apiKeys: make(map[string]bool),
	}
	if requestsPerMinute > 0 {
		m.rateLimiter = NewRateLimiter(requestsPerMinute, time.Minute)
	}
	return m
}

// SetAPIKeys sets the valid API keys for authentication
func (m *Middleware) SetAPIKeys(keys []string) {
	m.apiKeys = make(map[string]bool)
	for _, key := range keys {
		m.apiKeys[key] = true
	}
}

// Logging logs HTTP requests with detailed information
func (m *Middleware) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.log.With("method", r.Method).
			With("path", r.URL.Path).
			With("status", status).
			With("duration", time.Since(start).String()).
			With("remote_addr", r.RemoteAddr).
			With("request_id", chimw.GetReqID(r.Context())).
			With("event", r.Header.Get("X-GitHub-Event")).
			Infof("HTTP request completed")
	})
}

// Recovery handles panics and returns a 500 error
func (m *Middleware) Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				m.log.Errorf("Panic in HTTP handler: %v", err)
				writeJSONError(w, "Internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// RateLimit applies rate limiting based on client IP address
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	if m.rateLimiter == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := clientAddress(r)

		if !m.rateLimiter.Allow(clientIP) {
			m.log.Warnf("Rate limit exceeded for client: %s", clientIP)
			w.Header().Set("Retry-After", strconv.Itoa(int(m.rateLimiter.windowSize.Seconds())))
			writeJSONError(w, "Rate limit exceeded. Please try again later.", "TOO_MANY_REQUESTS", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Allow checks if a request is allowed based on rate limiting
func (rl *RateLimiter) Allow(clientIP string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	bucket, exists := rl.clients[clientIP]
	if !exists || now.Sub(bucket.lastRefill) >= rl.windowSize {
		bucket = &clientBucket{tokens: rl.requestsPerWindow, lastRefill: now}
		rl.clients[clientIP] = bucket
	}

	if bucket.tokens > 0 {
		bucket.tokens--
		return true
	}

	return false
}

// clientAddress returns the host part of RemoteAddr, which chi's RealIP
// middleware has already replaced with the forwarded address
func clientAddress(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// APIKeyAuth validates API key authentication
func (m *Middleware) APIKeyAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			apiKey = r.URL.Query().Get("api_key")
		}

		if apiKey == "" {
			m.log.Warnf("Missing API key from %s", clientAddress(r))
			writeJSONError(w, "Missing API key", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		// Validate API key using constant-time comparison
		if !m.isValidAPIKey(apiKey) {
			m.log.Warnf("Invalid API key from %s", clientAddress(r))
			writeJSONError(w, "Invalid API key", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// isValidAPIKey validates API key using constant-time comparison
func (m *Middleware) isValidAPIKey(providedKey string) bool {
	for validKey := range m.apiKeys {
		if subtle.ConstantTimeCompare([]byte(providedKey), []byte(validKey)) == 1 {
			return true
		}
	}
	return false
}

// Security adds basic security headers
func (m *Middleware) Security(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")

		// Disable caching for everything except health checks
		if r.URL.Path != "/health" {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			w.Header().Set("Pragma", "no-cache")
			w.Header().Set("Expires", "0")
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSONError(w http.ResponseWriter, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + message + `","code":"` + code + `"}`))
}
