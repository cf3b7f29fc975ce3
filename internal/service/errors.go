package service

import "errors"

var (
	// ErrUnauthenticated means no session token was presented.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidSession covers every reason a presented token is rejected.
	// Callers must not be able to tell a bad signature from an expired token.
	ErrInvalidSession = errors.New("invalid session")

	ErrInvalidSubject = errors.New("subject id is required")
	ErrInvalidRole    = errors.New("unknown role")

	ErrInvalidAdminRole = errors.New("admin role must be super_admin, manager or staff")

	// OTP failure details. These are logged, never returned to clients.
	ErrOTPNotFound = errors.New("otp not found")
	ErrOTPExpired  = errors.New("otp expired")
	ErrOTPMismatch = errors.New("otp mismatch")
)
