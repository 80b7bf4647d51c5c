package handlers

import (
	"net/http"

	"shikshaleap/internal/logger"
	"shikshaleap/internal/models"
	"shikshaleap/internal/security"
	"shikshaleap/internal/service"
)

// AuthHandler handles OTP login and session endpoints
type AuthHandler struct {
	authService *service.AuthService
	sessions    *security.SessionManager
	log         *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, sessions *security.SessionManager, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
		log:         log,
	}
}

type sendOTPRequest struct {
	Contact string `json:"contact"`
}

type verifyOTPRequest struct {
	Contact string `json:"contact"`
	OTP     string `json:"otp"`
}

type verifyOTPResponse struct {
	Redirect string `json:"redirect"`
	NewUser  bool   `json:"new_user"`
	Role     string `json:"role"`
}

type meResponse struct {
	ID                int64  `json:"id"`
	Email             string `json:"email,omitempty"`
	Mobile            string `json:"mobile,omitempty"`
	Role              string `json:"role"`
	NeedsRegistration bool   `json:"needs_registration"`
}

// SendOTP issues a login code to an email address or mobile number
func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, MsgInvalidRequest, "", nil)
		return
	}

	contact, ok := models.ParseContact(req.Contact)
	if !ok {
		respondWithError(w, h.log, http.StatusBadRequest, MsgContactRequired, "", nil)
		return
	}

	if _, err := h.authService.IssueOTP(r.Context(), contact); err != nil {
		respondWithServiceError(w, h.log, "failed to issue OTP", err)
		return
	}

	writeMessage(w, http.StatusOK, MsgOTPSent)
}

// VerifyOTP consumes a login code and starts a session
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, MsgInvalidRequest, "", nil)
		return
	}

	contact, ok := models.ParseContact(req.Contact)
	if !ok || req.OTP == "" {
		respondWithError(w, h.log, http.StatusBadRequest, MsgContactAndOTPRequired, "", nil)
		return
	}

	result, err := h.authService.VerifyOTP(r.Context(), contact, req.OTP)
	if err != nil {
		respondWithServiceError(w, h.log, "failed to verify OTP", err)
		return
	}

	if !issueSessionCookie(w, r, h.sessions, h.log, models.Principal{UserID: result.UserID, Role: result.Role}) {
		return
	}

	writeJSON(w, http.StatusOK, verifyOTPResponse{
		Redirect: result.Redirect(),
		NewUser:  result.NeedsRegistration,
		Role:     result.Role.Public(),
	})
}

// Me returns the account behind the current session
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, _ := GetPrincipalFromContext(r.Context())

	user, err := h.authService.CurrentUser(r.Context(), principal)
	if err != nil {
		respondWithServiceError(w, h.log, "failed to load current user", err)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		ID:                user.ID,
		Email:             user.Email,
		Mobile:            user.Mobile,
		Role:              user.Role.Public(),
		NeedsRegistration: user.Role.NeedsRegistration(),
	})
}

// Logout clears the session cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookieName))
	writeMessage(w, http.StatusOK, MsgLoggedOut)
}

// issueSessionCookie signs a session for p and sets it on the response
func issueSessionCookie(w http.ResponseWriter, r *http.Request, sessions *security.SessionManager, log *logger.Logger, p models.Principal) bool {
	token, expires, err := sessions.Issue(p)
	if err != nil {
		respondWithError(w, log, http.StatusInternalServerError, ErrInternalServerError, "failed to issue session", err)
		return false
	}
	http.SetCookie(w, security.CreateSessionCookie(r, SessionCookieName, token, expires))
	return true
}
