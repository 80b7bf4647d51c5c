package handlers

import (
	"net/http"

	"shikshaleap/internal/logger"
	"shikshaleap/internal/models"
	"shikshaleap/internal/security"
	"shikshaleap/internal/service"
)

// RegistrationHandler completes student and teacher profiles
type RegistrationHandler struct {
	registrationService *service.RegistrationService
	sessions            *security.SessionManager
	log                 *logger.Logger
}

// NewRegistrationHandler creates a new registration handler
func NewRegistrationHandler(registrationService *service.RegistrationService, sessions *security.SessionManager, log *logger.Logger) *RegistrationHandler {
	return &RegistrationHandler{
		registrationService: registrationService,
		sessions:            sessions,
		log:                 log,
	}
}

type registrationResponse struct {
	Message  string `json:"message"`
	Redirect string `json:"redirect"`
}

type studentProfileResponse struct {
	Student      *models.StudentProfile `json:"student"`
	Achievements []models.Achievement   `json:"achievements"`
}

// RegisterStudent stores the caller's student profile
func (h *RegistrationHandler) RegisterStudent(w http.ResponseWriter, r *http.Request) {
	principal, _ := GetPrincipalFromContext(r.Context())

	var req service.StudentRegistration
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, MsgInvalidRequest, "", nil)
		return
	}

	if _, err := h.registrationService.CompleteStudentRegistration(r.Context(), principal, req); err != nil {
		respondWithServiceError(w, h.log, "failed to register student", err)
		return
	}

	h.finish(w, r, principal.UserID, models.RoleStudent)
}

// RegisterTeacher stores the caller's teacher profile
func (h *RegistrationHandler) RegisterTeacher(w http.ResponseWriter, r *http.Request) {
	principal, _ := GetPrincipalFromContext(r.Context())

	var req service.TeacherRegistration
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, MsgInvalidRequest, "", nil)
		return
	}

	if _, err := h.registrationService.CompleteTeacherRegistration(r.Context(), principal, req); err != nil {
		respondWithServiceError(w, h.log, "failed to register teacher", err)
		return
	}

	h.finish(w, r, principal.UserID, models.RoleTeacher)
}

// finish reissues the session with the completed role
func (h *RegistrationHandler) finish(w http.ResponseWriter, r *http.Request, userID int64, role models.Role) {
	if !issueSessionCookie(w, r, h.sessions, h.log, models.Principal{UserID: userID, Role: role}) {
		return
	}
	writeJSON(w, http.StatusOK, registrationResponse{
		Message:  MsgRegistrationSuccess,
		Redirect: models.RedirectFor(role),
	})
}

// StudentProfile returns the caller's profile and badges
func (h *RegistrationHandler) StudentProfile(w http.ResponseWriter, r *http.Request) {
	principal, _ := GetPrincipalFromContext(r.Context())

	student, achievements, err := h.registrationService.StudentProfile(r.Context(), principal)
	if err != nil {
		respondWithServiceError(w, h.log, "failed to load student profile", err)
		return
	}
	if achievements == nil {
		achievements = []models.Achievement{}
	}

	writeJSON(w, http.StatusOK, studentProfileResponse{Student: student, Achievements: achievements})
}

// TeacherProfile returns the caller's teacher profile
func (h *RegistrationHandler) TeacherProfile(w http.ResponseWriter, r *http.Request) {
	principal, _ := GetPrincipalFromContext(r.Context())

	teacher, err := h.registrationService.TeacherProfile(r.Context(), principal)
	if err != nil {
		respondWithServiceError(w, h.log, "failed to load teacher profile", err)
		return
	}

	writeJSON(w, http.StatusOK, teacher)
}
