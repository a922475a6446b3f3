package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUserInactive        = errors.New("user is inactive")
	ErrDuplicateEmail      = errors.New("email already exists")
	ErrEmptyNote           = errors.New("note text is empty")
	ErrUnsupportedFormat   = errors.New("unsupported note content type")
	ErrNoteTooLarge        = errors.New("note exceeds maximum allowed size")
	ErrUploadFailed        = errors.New("note upload to storage failed")
	ErrNoteNotFound        = errors.New("note not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderNotExtracted   = errors.New("order has not been extracted yet")
	ErrOrderNotApproved    = errors.New("order must be approved before submission")
	ErrOrderAlreadySent    = errors.New("order already submitted")
	ErrInsufficientRole    = errors.New("insufficient role for this action")
	ErrInvalidReviewStatus = errors.New("invalid review status transition")
	ErrNoLLMConfigured     = errors.New("no LLM provider configured")
)
