package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation        = errors.New("validation")         // 400
	ErrInsufficientStock = errors.New("insufficient stock") // 409
	ErrUnauthenticated   = errors.New("unauthenticated")    // 401
	ErrForbidden         = errors.New("forbidden")          // 403
	ErrNotFound          = errors.New("not found")          // 404
	ErrConflict          = errors.New("conflict")           // 409
	ErrInvalidTransition = errors.New("invalid transition") // 409
	ErrPersistence       = errors.New("persistence")        // 500
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// ValidationError lists every violation found, in check order.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Add(field, message string, value any) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message, Value: value})
}

func (e *ValidationError) Has(field string) bool {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// OrNil returns nil when nothing was recorded.
func (e *ValidationError) OrNil() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

func invalid(field, message string, value any) *ValidationError {
	ve := &ValidationError{}
	ve.Add(field, message, value)
	return ve
}

type InsufficientStockError struct {
	Index     int
	ProductID string
	Name      string
	Size      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for items[%d] %s (size %s): requested %d, available %d",
		e.Index, e.Name, e.Size, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

func persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
}
