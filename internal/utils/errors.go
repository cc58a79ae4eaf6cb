package utils

import "errors"

// Common application errors used across services. The error text doubles as
// the API error code.
var (
	// Category hierarchy
	ErrCategoryNotFound = errors.New("CATEGORY_NOT_FOUND")
	ErrDepthExceeded    = errors.New("DEPTH_EXCEEDED")
	ErrCycleDetected    = errors.New("CYCLE_DETECTED")
	ErrCategoryInUse    = errors.New("CATEGORY_IN_USE")
	ErrSlugTaken        = errors.New("SLUG_TAKEN")

	// Import
	ErrHeaderMismatch = errors.New("HEADER_MISMATCH")

	// Auth
	ErrInvalidCredentials = errors.New("INVALID_CREDENTIALS")
	ErrAccountInactive    = errors.New("ACCOUNT_INACTIVE")
	ErrPhoneTaken         = errors.New("PHONE_TAKEN")
	ErrInvalidPhone       = errors.New("INVALID_PHONE")
	ErrDeviceTaken        = errors.New("DEVICE_TAKEN")
	ErrDeviceConflict     = errors.New("DEVICE_CONFLICT")
	ErrTokenRevoked       = errors.New("TOKEN_REVOKED")
	ErrInvalidDevice      = errors.New("INVALID_DEVICE")
	ErrUserNotFound       = errors.New("USER_NOT_FOUND")
)
