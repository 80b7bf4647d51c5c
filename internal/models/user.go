package models

import (
	"strings"
	"time"
)

// Role is the stored account role. Pending roles belong to accounts
// that verified a contact but have not completed registration.
type Role string

const (
	RoleUnset          Role = ""
	RolePendingStudent Role = "pending_student"
	RolePendingTeacher Role = "pending_teacher"
	RoleStudent        Role = "student"
	RoleTeacher        Role = "teacher"
)

// Complete reports whether registration has finished for this role
func (r Role) Complete() bool {
	return r == RoleStudent || r == RoleTeacher
}

// NeedsRegistration reports whether the account must still register a profile
func (r Role) NeedsRegistration() bool {
	return !r.Complete()
}

// Public returns the role as reported to clients, without the pending marker
func (r Role) Public() string {
	switch r {
	case RolePendingStudent, RoleStudent:
		return string(RoleStudent)
	case RolePendingTeacher, RoleTeacher:
		return string(RoleTeacher)
	default:
		return ""
	}
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleUnset, RolePendingStudent, RolePendingTeacher, RoleStudent, RoleTeacher:
		return true
	}
	return false
}

// ContactKind distinguishes email addresses from mobile numbers
type ContactKind int

const (
	ContactEmail ContactKind = iota
	ContactMobile
)

func (k ContactKind) String() string {
	if k == ContactEmail {
		return "email"
	}
	return "mobile"
}

// Contact is an email address or a mobile number used to log in
type Contact struct {
	Kind  ContactKind
	Value string
}

// ParseContact trims s and classifies it. Anything containing "@" is an
// email, everything else a mobile number. ok is false for blank input.
func ParseContact(s string) (Contact, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Contact{}, false
	}
	if strings.Contains(s, "@") {
		return Contact{Kind: ContactEmail, Value: s}, true
	}
	return Contact{Kind: ContactMobile, Value: s}, true
}

func (c Contact) IsEmail() bool {
	return c.Kind == ContactEmail
}

func (c Contact) String() string {
	return c.Value
}

// User represents an account identified by email or mobile number
type User struct {
	ID        int64
	Email     string
	Mobile    string
	Role      Role
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Principal is the authenticated caller resolved from the session
type Principal struct {
	UserID int64
	Role   Role
}

// OtpRecord is a one-time code issued to a contact
type OtpRecord struct {
	ID        int64
	Contact   string
	Code      string
	CodeHash  string
	ExpiresAt time.Time
	Verified  bool
	CreatedAt time.Time
}

// IsExpired checks if the code has expired at the given instant
func (o *OtpRecord) IsExpired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

// VerificationResult describes the account resolved by a successful OTP verification
type VerificationResult struct {
	UserID            int64
	Role              Role
	Existing          bool
	NeedsRegistration bool
}

// Redirect returns the landing page for the verified account
func (v VerificationResult) Redirect() string {
	return RedirectFor(v.Role)
}

// RedirectFor maps a role to the page the client should open next
func RedirectFor(role Role) string {
	switch role {
	case RoleStudent:
		return "/student/dashboard"
	case RoleTeacher:
		return "/teacher/dashboard"
	default:
		return "/registration"
	}
}
