package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"shikshaleap/internal/logger"
	"shikshaleap/internal/models"
	"shikshaleap/internal/service"
)

// DashboardHandler serves teacher dashboards
type DashboardHandler struct {
	dashboardService *service.DashboardService
	log              *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *service.DashboardService, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		log:              log,
	}
}

// DashboardData returns per-student and per-subject rollups for the calling teacher
func (h *DashboardHandler) DashboardData(w http.ResponseWriter, r *http.Request) {
	principal, _ := GetPrincipalFromContext(r.Context())

	query := r.URL.Query()
	filter := models.DashboardFilter{
		School:   strings.TrimSpace(query.Get("school")),
		District: strings.TrimSpace(query.Get("district")),
	}
	if v := strings.TrimSpace(query.Get("grade")); v != "" {
		grade, err := strconv.Atoi(v)
		if err != nil {
			respondWithError(w, h.log, http.StatusBadRequest, "grade must be a number", "", nil)
			return
		}
		filter.Grade = grade
	}

	view, err := h.dashboardService.DashboardFor(r.Context(), principal, filter)
	if err != nil {
		respondWithServiceError(w, h.log, "failed to build dashboard", err)
		return
	}
	if view.Students == nil {
		view.Students = []models.StudentRollup{}
	}
	if view.Subjects == nil {
		view.Subjects = []models.SubjectRollup{}
	}

	writeJSON(w, http.StatusOK, view)
}
