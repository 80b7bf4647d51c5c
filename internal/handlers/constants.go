package handlers

const (
	SessionCookieName = "shiksha_session"

	maxBodyBytes = 1 << 20

	MsgContactRequired       = "Contact is required"
	MsgContactAndOTPRequired = "Contact and OTP are required"
	MsgOTPSent               = "OTP sent successfully"
	MsgLoggedOut             = "Logged out"
	MsgRegistrationSuccess   = "Registration successful"
	MsgPerformanceLogged     = "Performance logged successfully"
	MsgNotAuthenticated      = "Not authenticated"
	MsgNotAuthorized         = "Not authorized"
	MsgInvalidRequest        = "Invalid request body"
	MsgTooManyRequests       = "Too many requests"
	ErrInternalServerError   = "Internal server error"
)
