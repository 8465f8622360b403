package utils

import "fmt"

// Application error taxonomy. Handlers map these to HTTP codes with
// RespondAppError; everything else becomes a 500.

// ValidationError -> malformed or semantically invalid input (400).
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Detail
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Detail)
}

func NewValidationError(field, detail string) *ValidationError {
	return &ValidationError{Field: field, Detail: detail}
}

// IllegalTransitionError -> the requested action violates the order or table
// state machine (403). The entity is left untouched.
type IllegalTransitionError struct {
	Detail string
}

func (e *IllegalTransitionError) Error() string {
	return e.Detail
}

func NewIllegalTransitionError(detail string) *IllegalTransitionError {
	return &IllegalTransitionError{Detail: detail}
}

// NotFoundError -> referenced entity does not exist (404).
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

func NewNotFoundError(entity string) *NotFoundError {
	return &NotFoundError{Entity: entity}
}

// BadRequestError -> request is understood but cannot be honored in the
// current state (400), e.g. accept-change with no staged proposal.
type BadRequestError struct {
	Detail string
}

func (e *BadRequestError) Error() string {
	return e.Detail
}

func NewBadRequestError(detail string) *BadRequestError {
	return &BadRequestError{Detail: detail}
}
