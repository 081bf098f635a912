package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"atsscore/internal/ats"
	"atsscore/internal/errors"
	"atsscore/internal/observability"
	"atsscore/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// createAnalyzeHandler wraps the analyze handler with observability
func (s *Server) createAnalyzeHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeErrorResponse(w, "Method not allowed", "use POST", http.StatusMethodNotAllowed)
			return
		}

		ctx, span := om.Tracer("atsscore.api").Start(r.Context(), "api.analyze")
		defer span.End()
		span.SetAttributes(attribute.String("request.id", RequestIDFromContext(ctx)))

		body, err := readJSONBody(r)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		req, err := ats.DecodeRequest(body)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			s.writeAppError(w, r, err)
			return
		}

		span.SetAttributes(
			attribute.Int("request.resume_length", len(req.ResumeText)),
			attribute.String("request.file_type", req.FileType),
			attribute.Bool("request.has_job_description", req.JobDescription != ""),
		)

		report, cached, err := s.Service.Analyze(ctx, req)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "analysis failed")
			s.writeAppError(w, r, err)
			return
		}

		span.SetAttributes(
			attribute.Bool("cache.hit", cached),
			attribute.Int("ats.global_score", report.GlobalScore),
			attribute.Int("ats.issues_count", report.IssuesCount),
		)

		w.Header().Set("X-Cache", cacheHeader(cached))
		writeJSON(w, http.StatusOK, report)
	}
}

// createBatchHandler analyses every request of a batch independently.
// Invalid items are reported inline and never fail the whole batch.
func (s *Server) createBatchHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeErrorResponse(w, "Method not allowed", "use POST", http.StatusMethodNotAllowed)
			return
		}

		ctx, span := om.Tracer("atsscore.api").Start(r.Context(), "api.analyze_batch")
		defer span.End()

		body, err := readJSONBody(r)
		if err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		var batch struct {
			Requests []json.RawMessage `json:"requests"`
		}
		if err := json.Unmarshal(body, &batch); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", fmt.Sprintf("failed to parse JSON: %v", err), http.StatusBadRequest)
			return
		}

		if len(batch.Requests) == 0 {
			s.writeAppError(w, r, errors.NewValidationError(errors.ErrCodeInvalidRequest, "requests must contain at least one analysis request", nil))
			return
		}
		if s.MaxBatchSize > 0 && len(batch.Requests) > s.MaxBatchSize {
			s.writeAppError(w, r, errors.NewValidationError(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("batch holds %d requests, the limit is %d", len(batch.Requests), s.MaxBatchSize), nil).
				WithContext("limit", s.MaxBatchSize))
			return
		}

		span.SetAttributes(attribute.Int("batch.size", len(batch.Requests)))

		results := make([]BatchItem, len(batch.Requests))
		valid := make([]*types.AnalysisRequest, 0, len(batch.Requests))
		positions := make([]int, 0, len(batch.Requests))
		for i, raw := range batch.Requests {
			results[i].Index = i
			req, err := ats.DecodeRequest(raw)
			if err != nil {
				_, resp := errorResponseFor(err)
				results[i].Error = &resp
				continue
			}
			valid = append(valid, req)
			positions = append(positions, i)
		}

		for j, item := range s.Service.AnalyzeBatch(ctx, valid) {
			i := positions[j]
			if item.Err != nil {
				_, resp := errorResponseFor(item.Err)
				results[i].Error = &resp
				continue
			}
			results[i].Report = item.Report
			results[i].Cached = item.Cached
		}

		response := BatchResponse{Results: results}
		for _, item := range results {
			if item.Error != nil {
				response.Failed++
			} else {
				response.Succeeded++
			}
		}

		span.SetAttributes(
			attribute.Int("batch.succeeded", response.Succeeded),
			attribute.Int("batch.failed", response.Failed),
		)
		writeJSON(w, http.StatusOK, response)
	}
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	originalMiddleware := s.rateLimitMiddleware()
	metrics := om.Metrics()

	return func(next http.HandlerFunc) http.HandlerFunc {
		limited := originalMiddleware(next)
		return func(w http.ResponseWriter, r *http.Request) {
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}

			limited(wrapper, r)

			if wrapper.statusCode == http.StatusTooManyRequests {
				metrics.RecordRateLimitHit(r.Context(), rateLimitKeyType(r, s.RateLimit))
			}
		}
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func cacheHeader(cached bool) string {
	if cached {
		return "HIT"
	}
	return "MISS"
}
