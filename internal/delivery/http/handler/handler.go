package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/user/pageview-ranker/internal/delivery/http/response"
	"github.com/user/pageview-ranker/internal/entity"
	"github.com/user/pageview-ranker/internal/usecase"
	"github.com/user/pageview-ranker/pkg/utils"
)

// HealthCheck reports whether one backing store is reachable.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	hours  usecase.HourStatusQuery
	checks map[string]HealthCheck
	logger *zap.Logger
}

func NewHandler(hours usecase.HourStatusQuery, checks map[string]HealthCheck, logger *zap.Logger) *Handler {
	return &Handler{
		hours:  hours,
		checks: checks,
		logger: logger,
	}
}

func (h *Handler) HandleGetHourStatus(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "hour")
	hour, err := utils.ParseHourKey(key, time.UTC)
	if err != nil {
		h.writeJSONError(w, "hour must look like 20060102-15", http.StatusBadRequest)
		return
	}

	status, err := h.hours.GetStatus(r.Context(), hour)
	if err != nil {
		h.logger.Error("failed to get hour status", zap.String("hour", key), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if status.Status == entity.HourStatusNotFound {
		h.writeJSONError(w, "No output or record for the given hour", http.StatusNotFound)
		return
	}

	resp := response.HourStatusResponse{
		Hour:           entity.NewHourWindow(status.Hour).Key(),
		Status:         status.Status,
		RunID:          status.RunID,
		DownloadFailed: status.DownloadFailed,
		RowsLoaded:     status.RowsLoaded,
		RowsRanked:     status.RowsRanked,
		OutputPath:     status.OutputPath,
		FailureReason:  status.FailureReason,
		DurationMS:     status.DurationMS,
	}
	if !status.ProcessedAt.IsZero() {
		resp.ProcessedAt = &status.ProcessedAt
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := response.HealthResponse{Status: "ok"}
	code := http.StatusOK
	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
	}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Error("health check failed", zap.String("store", name), zap.Error(err))
			resp.Checks[name] = "unhealthy"
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "healthy"
	}
	h.writeJSON(w, code, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, response.ErrorResponse{Error: message})
}
