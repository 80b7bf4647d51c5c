package handlers

import (
	"errors"
	"net/http"

	"shikshaleap/internal/logger"
	"shikshaleap/internal/security"
	"shikshaleap/internal/service"
	"shikshaleap/internal/validation"
)

func respondWithError(w http.ResponseWriter, log *logger.Logger, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Error(logMsg, "status", status, "error", err)
	}

	writeJSON(w, status, map[string]string{"error": userMsg})
}

// respondWithServiceError maps an error returned by the service layer to a response.
// Only unexpected errors are logged.
func respondWithServiceError(w http.ResponseWriter, log *logger.Logger, logMsg string, err error) {
	if verr, ok := validation.AsError(err); ok {
		respondWithError(w, log, http.StatusBadRequest, verr.Message, "", nil)
		return
	}

	switch {
	case errors.Is(err, service.ErrInvalidOrExpiredCode):
		respondWithError(w, log, http.StatusBadRequest, "Invalid or expired OTP", "", nil)
	case errors.Is(err, service.ErrUnauthenticated):
		respondWithError(w, log, http.StatusUnauthorized, MsgNotAuthenticated, "", nil)
	case errors.Is(err, service.ErrAccountDisabled):
		respondWithError(w, log, http.StatusForbidden, "Account is disabled", "", nil)
	case errors.Is(err, service.ErrForbidden):
		respondWithError(w, log, http.StatusForbidden, MsgNotAuthorized, "", nil)
	case errors.Is(err, service.ErrStudentNotFound):
		respondWithError(w, log, http.StatusNotFound, "Student not found", "", nil)
	case errors.Is(err, service.ErrTeacherNotFound):
		respondWithError(w, log, http.StatusNotFound, "Teacher not found", "", nil)
	case errors.Is(err, service.ErrSchoolNotFound):
		respondWithError(w, log, http.StatusNotFound, "UDISE code not found", "", nil)
	case errors.Is(err, service.ErrDuplicateProfile):
		respondWithError(w, log, http.StatusConflict, "Profile already registered", "", nil)
	case errors.Is(err, service.ErrRateLimited):
		respondWithError(w, log, http.StatusTooManyRequests, "Too many OTP requests, try again later", "", nil)
	case errors.Is(err, service.ErrDeliveryFailed):
		respondWithError(w, log, http.StatusInternalServerError, "Failed to send OTP", logMsg, err)
	case errors.Is(err, security.ErrLockTimeout):
		respondWithError(w, log, http.StatusServiceUnavailable, "Please try again", logMsg, err)
	default:
		respondWithError(w, log, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
	}
}
