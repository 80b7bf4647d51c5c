package service

import "errors"

var (
	ErrInvalidOrExpiredCode = errors.New("invalid or expired OTP")
	ErrDuplicateProfile     = errors.New("profile already registered")
	ErrStudentNotFound      = errors.New("student not found")
	ErrTeacherNotFound      = errors.New("teacher not found")
	ErrSchoolNotFound       = errors.New("UDISE code not found")
	ErrForbidden            = errors.New("not authorized")
	ErrUnauthenticated      = errors.New("not authenticated")
	ErrAccountDisabled      = errors.New("account is disabled")
	ErrUserNotFound         = errors.New("user not found")
	ErrDeliveryFailed       = errors.New("failed to send OTP")
	ErrRateLimited          = errors.New("too many OTP requests, try again later")
)
