package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"

	"atsscore/internal/errors"
)

// healthHandler reports the service as degraded while any check breaker is
// open
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	breakers := s.Service.Breakers()
	response := map[string]any{
		"status":           "healthy",
		"service":          "atsscore",
		"version":          s.Version,
		"lexicon":          s.Service.Lexicon().Source,
		"circuit_breakers": breakers.Stats(),
	}

	status := http.StatusOK
	if !s.Service.Healthy() {
		response["status"] = "degraded"
		response["open_checks"] = breakers.OpenSections()
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, response)
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"service": "atsscore",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"max_batch_size":         s.MaxBatchSize,
			"api_keys_configured":    s.APIKeyCount(),
			"jwt_enabled":            len(s.jwtSecret) > 0,
		},
		"scoring": s.Service.Stats(),
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// lexiconHandler serves the effective vocabulary, optionally narrowed with
// the language and category query parameters
func (s *Server) lexiconHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	view, err := s.Service.Lexicon().View(query.Get("language"), query.Get("category"))
	if err != nil {
		writeErrorResponse(w, "Unknown category", err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// readJSONBody reads a JSON request body, enforcing the content type and the
// size limit set by requestSizeLimitMiddleware
func readJSONBody(r *http.Request) ([]byte, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return nil, fmt.Errorf("content-type must be application/json")
	}

	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return nil, fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	return body, nil
}

// errorResponseFor maps an error to its HTTP status and response body
func errorResponseFor(err error) (int, ErrorResponse) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		return http.StatusInternalServerError, ErrorResponse{Error: "Internal error", Message: err.Error()}
	}

	resp := ErrorResponse{
		Error:   appErr.Message,
		Code:    appErr.Code,
		Details: appErr.Context,
	}
	switch appErr.Type {
	case errors.ErrorTypeValidation:
		return http.StatusBadRequest, resp
	case errors.ErrorTypeAuth:
		return http.StatusUnauthorized, resp
	default:
		resp.Error = "Analysis failed"
		resp.Message = appErr.Message
		return http.StatusInternalServerError, resp
	}
}

// writeAppError writes err with the status its type maps to
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := errorResponseFor(err)
	if status >= http.StatusInternalServerError {
		s.Logger.LogError(err, "Request failed",
			"endpoint", r.URL.Path,
			"request_id", RequestIDFromContext(r.Context()))
	} else {
		s.Logger.Debug("Request rejected",
			"endpoint", r.URL.Path,
			"code", resp.Code,
			"request_id", RequestIDFromContext(r.Context()))
	}
	writeJSON(w, status, resp)
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   error,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
