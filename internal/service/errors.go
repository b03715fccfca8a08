package service

import (
	"errors"

	"github.com/vedran77/taskmanager/pkg/validator"
)

var (
	ErrUnauthorized   = errors.New("please authenticate")
	ErrInvalidCreds   = errors.New("unable to login")
	ErrEmailTaken     = errors.New("email already taken")
	ErrUserNotFound   = errors.New("user not found")
	ErrTaskNotFound   = errors.New("task not found")
	ErrAvatarNotFound = errors.New("user image not found")
	ErrInvalidAvatar  = errors.New("please upload an image")
)

// ValidationError carries per-field messages for a rejected record.
type ValidationError struct {
	Fields validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

func validationError(errs validator.ValidationErrors) error {
	if !errs.HasErrors() {
		return nil
	}
	return &ValidationError{Fields: errs}
}
