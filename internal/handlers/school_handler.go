package handlers

import (
	"net/http"

	"shikshaleap/internal/logger"
	"shikshaleap/internal/models"
	"shikshaleap/internal/service"
)

// SchoolHandler serves UDISE school lookups
type SchoolHandler struct {
	schoolService *service.SchoolService
	log           *logger.Logger
}

// NewSchoolHandler creates a new school handler
func NewSchoolHandler(schoolService *service.SchoolService, log *logger.Logger) *SchoolHandler {
	return &SchoolHandler{
		schoolService: schoolService,
		log:           log,
	}
}

// SchoolInfo looks up a school by its UDISE code
func (h *SchoolHandler) SchoolInfo(w http.ResponseWriter, r *http.Request) {
	school, err := h.schoolService.Lookup(r.Context(), r.PathValue("code"))
	if err != nil {
		respondWithServiceError(w, h.log, "failed to look up school", err)
		return
	}
	writeJSON(w, http.StatusOK, school)
}

// SearchSchools matches q against codes, names and districts
func (h *SchoolHandler) SearchSchools(w http.ResponseWriter, r *http.Request) {
	schools, err := h.schoolService.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondWithServiceError(w, h.log, "failed to search schools", err)
		return
	}
	if schools == nil {
		schools = []models.School{}
	}
	writeJSON(w, http.StatusOK, schools)
}
