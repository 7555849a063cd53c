package services

import "errors"

var (
	ErrProjectNotFound         = errors.New("project not found")
	ErrSuggestionNotFound      = errors.New("suggestion not found")
	ErrFinancialRecordNotFound = errors.New("financial record not found")
	ErrInvalidInput            = errors.New("invalid input")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrTooManyAttempts         = errors.New("maximum attempts exceeded")
	ErrAdminNotConfigured      = errors.New("admin credentials are not configured")
	ErrInvalidSession          = errors.New("invalid or expired admin session")
	ErrConfirmationRequired    = errors.New("delete confirmation required")
)
