package http

import (
	"errors"
	"net/http"
	"time"

	"saoke/internal/log"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports ready once a run has been installed.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	res, err := s.Latest()
	if err != nil {
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
			"source": s.runner.Source(),
		})
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":  "ready",
		"run_id":  res.RunID,
		"source":  res.Source,
		"records": res.Summary.Count,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	res, err := s.Latest()
	if err != nil {
		writeError(w, r, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, newSummaryResponse(res))
}

func (s *Server) handleHistogram(w http.ResponseWriter, r *http.Request) {
	res, err := s.Latest()
	if err != nil {
		writeError(w, r, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, res.Buckets)
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := s.Latest()
	if err != nil {
		writeError(w, r, http.StatusServiceUnavailable, err.Error())
		return
	}

	q, err := ParseRecordsQuery(r.URL.Query(), s.pageSize)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	q = q.Normalize(s.pageSize)

	// keyed by run so pages of a replaced run are never served
	key := res.RunID + "|" + q.Key()
	page, ok := s.queryCache.Get(key)
	if !ok {
		page, err = s.index.Query(ctx, q)
		if err != nil {
			log.FromContext(ctx).ErrorContext(ctx, "Record query failed",
				log.NewFields().WithError(err).WithOperation(log.OpQuery).ToSlice()...)
			writeError(w, r, http.StatusInternalServerError, "record query failed")
			return
		}
		s.queryCache.Set(key, page)
	}

	writeJSON(w, r, http.StatusOK, newRecordsResponse(q, page))
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	ev := s.hub.Latest()
	if ev == nil {
		writeJSON(w, r, http.StatusOK, ProgressEvent{Type: "idle"})
		return
	}
	writeJSON(w, r, http.StatusOK, ev)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"query_cache": s.queryCache.Stats(),
		"rate_limit":  s.limiter.GetMetrics(),
		"requests":    s.tracer.GetMetrics().TotalRequests,
	})
}

// handleReload runs the pipeline and answers with the new summary.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	res, shared, err := s.Reload(ctx)
	if err != nil {
		if errors.Is(err, ctx.Err()) {
			return
		}
		logger.WarnContext(ctx, "Reload failed", log.NewFields().WithError(err).WithOperation(log.OpReload).ToSlice()...)
		writeError(w, r, http.StatusBadGateway, err.Error())
		return
	}

	logger.InfoContext(ctx, "Reload completed", log.FieldRunID, res.RunID, "shared", shared)
	writeJSON(w, r, http.StatusOK, newSummaryResponse(res))
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Reload rate limit exceeded", log.FieldClientIP, extractClientIP(r))
	writeError(w, r, http.StatusTooManyRequests, "too many reloads, try again later")
}
