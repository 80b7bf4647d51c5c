package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"shikshaleap/internal/logger"
	"shikshaleap/internal/models"
	"shikshaleap/internal/service"
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 100
)

// PerformanceHandler records game and quiz attempts
type PerformanceHandler struct {
	performanceService *service.PerformanceService
	log                *logger.Logger
}

// NewPerformanceHandler creates a new performance handler
func NewPerformanceHandler(performanceService *service.PerformanceService, log *logger.Logger) *PerformanceHandler {
	return &PerformanceHandler{
		performanceService: performanceService,
		log:                log,
	}
}

type gameLogResponse struct {
	Message      string               `json:"message"`
	Entry        *models.GameLogEntry `json:"entry"`
	Achievements []models.Achievement `json:"achievements"`
}

type syncRequest struct {
	Logs []json.RawMessage `json:"logs"`
}

type syncResponse struct {
	Message string `json:"message"`
	models.SyncSummary
}

type activityResponse struct {
	Logs     []models.GameLogEntry   `json:"logs"`
	Progress []models.ProgressRecord `json:"progress"`
}

// LogGame records a single attempt for the calling student
func (h *PerformanceHandler) LogGame(w http.ResponseWriter, r *http.Request) {
	principal, _ := GetPrincipalFromContext(r.Context())

	var req service.AttemptInput
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, MsgInvalidRequest, "", nil)
		return
	}

	entry, awarded, err := h.performanceService.RecordAttempt(r.Context(), principal, req)
	if err != nil {
		respondWithServiceError(w, h.log, "failed to log game", err)
		return
	}
	if awarded == nil {
		awarded = []models.Achievement{}
	}

	writeJSON(w, http.StatusOK, gameLogResponse{
		Message:      MsgPerformanceLogged,
		Entry:        entry,
		Achievements: awarded,
	})
}

// SyncOffline stores attempts queued by the client while offline
func (h *PerformanceHandler) SyncOffline(w http.ResponseWriter, r *http.Request) {
	principal, _ := GetPrincipalFromContext(r.Context())

	var req syncRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, MsgInvalidRequest, "", nil)
		return
	}

	summary, err := h.performanceService.SyncOffline(r.Context(), principal, req.Logs)
	if err != nil {
		respondWithServiceError(w, h.log, "failed to sync offline logs", err)
		return
	}

	writeJSON(w, http.StatusOK, syncResponse{
		Message:     fmt.Sprintf("Synced %d logs successfully", summary.Synced),
		SyncSummary: summary,
	})
}

// Activity returns the caller's recent attempts and topic progress
func (h *PerformanceHandler) Activity(w http.ResponseWriter, r *http.Request) {
	principal, _ := GetPrincipalFromContext(r.Context())

	limit := defaultActivityLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondWithError(w, h.log, http.StatusBadRequest, "limit must be a positive number", "", nil)
			return
		}
		limit = min(n, maxActivityLimit)
	}

	logs, progress, err := h.performanceService.RecentActivity(r.Context(), principal, limit)
	if err != nil {
		respondWithServiceError(w, h.log, "failed to load activity", err)
		return
	}
	if logs == nil {
		logs = []models.GameLogEntry{}
	}
	if progress == nil {
		progress = []models.ProgressRecord{}
	}

	writeJSON(w, http.StatusOK, activityResponse{Logs: logs, Progress: progress})
}
