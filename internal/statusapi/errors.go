// Package statusapi exposes a read-only HTTP surface reporting run and
// stage state for operators (spec.md §4.5). It never triggers or cancels a
// run; internal/pipeline and internal/provider have no knowledge of it.
package statusapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/varpipe-io/varpipe/internal/statusapi/middleware"
)

// ProblemDetail is an RFC 7807 Problem Details payload.
type ProblemDetail struct {
	Type          string `json:"type"`
	Title         string `json:"title"`
	Status        int    `json:"status"`
	Detail        string `json:"detail,omitempty"`
	Instance      string `json:"instance,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// NewProblemDetail builds a ProblemDetail for status.
func NewProblemDetail(status int, title, detail string) *ProblemDetail {
	return &ProblemDetail{
		Type:   "https://varpipe.io/problems/" + http.StatusText(status),
		Title:  title,
		Status: status,
		Detail: detail,
	}
}

// WriteErrorResponse writes problem as an RFC 7807 response, filling in the
// correlation ID and request path when not already set.
func WriteErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, problem *ProblemDetail) {
	if problem.CorrelationID == "" {
		problem.CorrelationID = middleware.GetCorrelationID(r.Context())
	}

	if problem.Instance == "" {
		problem.Instance = r.URL.Path
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(problem.Status)

	if err := json.NewEncoder(w).Encode(problem); err != nil {
		logger.Error("failed to encode error response",
			slog.String("path", r.URL.Path), slog.String("error", err.Error()))
	}
}
