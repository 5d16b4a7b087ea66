package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrBadRequest       = errors.New("bad request")

	// User errors
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrIdentifierExists   = errors.New("identifier already exists")
	ErrInvalidName        = errors.New("name must be a first and last name")
	ErrWrongRole          = errors.New("user does not have the required role")

	ErrUserNotFound = NewResourceNotFoundError("user not found")
)

// Catalog errors
var (
	ErrCourseNotFound  = NewResourceNotFoundError("course not found")
	ErrSectionNotFound = NewResourceNotFoundError("section not found")
	ErrDuplicateID     = errors.New("course ID already exists")
	ErrDuplicateName   = errors.New("course name already exists")
	ErrInvalidDuration = errors.New("time slot must end after it starts")
)

// Enrollment errors
var (
	ErrAlreadyEnrolled  = errors.New("student is already enrolled in this section")
	ErrCapacityExceeded = errors.New("section is at capacity")
	ErrNotEnrolled      = errors.New("student is not enrolled in this section")
	ErrAdvisingHold     = errors.New("student has an advising hold")
	ErrDuplicateCourse  = errors.New("student is already registered for this course")
	ErrTimeConflict     = errors.New("section conflicts with the student's schedule")
)

// Assignment errors
var (
	ErrAlreadyAssigned = errors.New("instructor already assigned to this section")
	ErrNotAssigned     = errors.New("instructor is not assigned to this section")
)

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) *CustomError {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// NewValidationError wraps ErrValidationFailed with a message
func NewValidationError(message string) error {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
	}
}

// Is returns whether target matches any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err       error
	Message   string
	StatusMsg string
	Code      string
	Details   map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

// WithStatusMsg adds a user-friendly status message
func (e *CustomError) WithStatusMsg(msg string) *CustomError {
	e.StatusMsg = msg
	return e
}
