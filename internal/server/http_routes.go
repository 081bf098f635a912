package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"atsscore/internal/observability"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// keySet is an immutable set of accepted API keys
type keySet map[string]struct{}

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes(om *observability.ObservabilityManager) *http.ServeMux {
	mux := http.NewServeMux()

	// Add middleware layers with observability
	rateLimitHandler := s.createRateLimitMiddleware(om)
	requestLimitHandler := s.requestSizeLimitMiddleware()
	protect := func(h http.HandlerFunc) http.HandlerFunc {
		return rateLimitHandler(s.authMiddleware(requestLimitHandler(h)))
	}

	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/stats", s.statsHandler)
	mux.HandleFunc("/lexicon", protect(s.lexiconHandler))
	mux.HandleFunc("/analyze", protect(s.createAnalyzeHandler(om)))
	mux.HandleFunc("/analyze/batch", protect(s.createBatchHandler(om)))

	return mux
}

// SetAPIKeys replaces the accepted API keys. Safe to call while serving.
func (s *Server) SetAPIKeys(keys []string) {
	set := make(keySet, len(keys))
	for _, key := range keys {
		if key != "" {
			set[key] = struct{}{}
		}
	}
	s.apiKeys.Store(&set)
}

// APIKeyCount returns the number of accepted API keys
func (s *Server) APIKeyCount() int {
	if set := s.apiKeys.Load(); set != nil {
		return len(*set)
	}
	return 0
}

func (s *Server) validAPIKey(key string) bool {
	set := s.apiKeys.Load()
	if set == nil {
		return false
	}
	_, ok := (*set)[key]
	return ok
}

func (s *Server) authEnabled() bool {
	return s.APIKeyCount() > 0 || len(s.jwtSecret) > 0
}

// authMiddleware accepts an API key or an HS256 JWT signed with the
// configured secret
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication if neither API keys nor a JWT secret is configured
		if !s.authEnabled() {
			next(w, r)
			return
		}

		credential := credentialFromRequest(r)
		if credential == "" {
			s.Logger.Info("Authentication failed: missing credentials",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr,
				"request_id", RequestIDFromContext(r.Context()))
			writeErrorResponse(w, "Missing API key", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
			return
		}

		if s.validAPIKey(credential) {
			s.Logger.Debug("API authentication successful",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr,
				"api_key_prefix", maskAPIKey(credential))
			next(w, r)
			return
		}

		if len(s.jwtSecret) > 0 {
			claims, err := s.validateToken(credential)
			if err == nil {
				s.Logger.Debug("JWT authentication successful",
					"endpoint", r.URL.Path,
					"subject", claims.Subject)
				next(w, r)
				return
			}
			s.Logger.Debug("JWT validation failed", "error", err.Error())
		}

		s.Logger.Info("Authentication failed: invalid credentials",
			"endpoint", r.URL.Path,
			"client_ip", r.RemoteAddr,
			"api_key_prefix", maskAPIKey(credential),
			"request_id", RequestIDFromContext(r.Context()))
		writeErrorResponse(w, "Invalid API key", "Unauthorized access", http.StatusUnauthorized)
	}
}

// credentialFromRequest returns the X-API-Key header, falling back to a
// Bearer token
func credentialFromRequest(r *http.Request) string {
	if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
		return apiKey
	}
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

// validateToken parses an HS256 token and checks its registered claims
func (s *Server) validateToken(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}
	return claims, nil
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}

			next(w, r)
		}
	}
}

// requestIDMiddleware attaches a request ID to the context and response
// header, reusing the caller's ID when one is sent
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// RequestIDFromContext returns the ID stored by requestIDMiddleware
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
