package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/wesleyorama2/viewrace/internal/metrics"
)

// IncrementResponse is the body of a successful increment.
type IncrementResponse struct {
	Status         string `json:"status"`
	PostID         int64  `json:"post_id"`
	FinalViewCount int64  `json:"final_view_count_reported"`
}

// IncrementResponseSchema is the JSON schema every successful increment body satisfies.
const IncrementResponseSchema = `{
	"type": "object",
	"required": ["status", "post_id", "final_view_count_reported"],
	"properties": {
		"status": {"const": "success"},
		"post_id": {"type": "integer", "minimum": 1},
		"final_view_count_reported": {"type": "integer", "minimum": 0}
	}
}`

// FinalViewCountPath locates the reported count in an increment body.
const FinalViewCountPath = "$.final_view_count_reported"

type healthResponse struct {
	Status   string `json:"status"`
	Strategy string `json:"strategy"`
}

type statsResponse struct {
	Strategy string            `json:"strategy"`
	PostID   int64             `json:"post_id"`
	Metrics  *metrics.Snapshot `json:"metrics"`
}

func (s *Server) handleIncrement(w http.ResponseWriter, r *http.Request) {
	postID, err := strconv.ParseInt(chi.URLParam(r, "postID"), 10, 64)
	if err != nil || postID != s.postID {
		respondError(w, http.StatusBadRequest, "Invalid Post ID")
		return
	}

	done := s.metrics.Begin()
	defer done()

	// A client that hangs up must not cut a strategy off between its
	// database write and its cache write.
	start := time.Now()
	count, err := s.strategy.Increment(context.WithoutCancel(r.Context()), postID)
	s.metrics.RecordLatency(time.Since(start), err == nil)

	if err != nil {
		s.log.Error("increment failed",
			zap.Error(err),
			zap.Int64("post_id", postID),
			zap.String("request_id", r.Header.Get(RequestIDHeader)))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, IncrementResponse{
		Status:         "success",
		PostID:         postID,
		FinalViewCount: count,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, healthResponse{Status: "ok", Strategy: s.strategy.Name()})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, statsResponse{
		Strategy: s.strategy.Name(),
		PostID:   s.postID,
		Metrics:  s.metrics.GetSnapshot(),
	})
}

func (s *Server) handleStatsReset(w http.ResponseWriter, r *http.Request) {
	s.metrics.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
