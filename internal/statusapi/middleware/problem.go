package middleware

import (
	"encoding/json"
	"net/http"
)

// problemDetail is a minimal RFC 7807 payload, duplicated from
// internal/statusapi.ProblemDetail to avoid an import cycle (this package
// is imported by internal/statusapi, not the other way around).
type problemDetail struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// WriteProblem writes an RFC 7807 Problem Details response.
func WriteProblem(w http.ResponseWriter, _ *http.Request, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(problemDetail{
		Type:   "https://varpipe.io/problems/" + http.StatusText(status),
		Title:  title,
		Status: status,
		Detail: detail,
	})
}
