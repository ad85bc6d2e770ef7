package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"

	"ssfatpf-backend-go/internal/store"
)

type ServiceError struct {
	Status  int
	Message string
}

func (e ServiceError) Error() string {
	return e.Message
}

func ErrNotFound(msg string) error {
	return ServiceError{Status: 404, Message: msg}
}

func ErrBadRequest(msg string) error {
	return ServiceError{Status: 400, Message: msg}
}

func ErrForbidden(msg string) error {
	return ServiceError{Status: 403, Message: msg}
}

func ErrUnauthorized(msg string) error {
	return ServiceError{Status: 401, Message: msg}
}

func ErrConflict(msg string) error {
	return ServiceError{Status: 409, Message: msg}
}

func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// SubmitResult is the outcome of a submit-then-refresh operation.
type SubmitResult[T any] struct {
	Success bool   `json:"success"`
	Data    *T     `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func failed[T any](err error, fallback string) SubmitResult[T] {
	return SubmitResult[T]{Success: false, Error: BackendMessage(err, fallback)}
}

// BackendMessage picks the message a caller may see for err: service and
// database messages pass through, anything else becomes fallback.
func BackendMessage(err error, fallback string) string {
	var svcErr ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Message
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Message != "" {
		return pgErr.Message
	}
	if errors.Is(err, store.ErrDuplicate) {
		return "A record with the same key already exists"
	}
	if errors.Is(err, store.ErrNotFound) {
		return "Record not found"
	}
	return fallback
}

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validationError turns the first validator failure into a 400.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return ErrBadRequest("Invalid input")
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return ErrBadRequest(field + " is required")
	case "email":
		return ErrBadRequest(field + " must be a valid email address")
	case "gt":
		return ErrBadRequest(fmt.Sprintf("%s must be greater than %s", field, fe.Param()))
	case "gte", "min":
		return ErrBadRequest(fmt.Sprintf("%s must be at least %s", field, fe.Param()))
	case "max":
		return ErrBadRequest(fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
	case "oneof":
		return ErrBadRequest(fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
	case "url":
		return ErrBadRequest(field + " must be a valid URL")
	}
	return ErrBadRequest(field + " is invalid")
}
