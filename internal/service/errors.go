package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-forum-api/internal/repository"
)

// Error categories surfaced by the forum services. Handlers map them to HTTP statuses.
var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrUnauthenticated     = errors.New("authentication required")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrConflict            = errors.New("conflict")
)

var (
	ErrThreadLocked     = fmt.Errorf("%w: thread locked", ErrForbidden)
	ErrReplyDeleted     = fmt.Errorf("%w: reply deleted", ErrForbidden)
	ErrAccountDisabled  = fmt.Errorf("%w: account disabled", ErrForbidden)
	ErrPermissionDenied = fmt.Errorf("%w: insufficient permissions", ErrForbidden)
	ErrCategoryInUse    = fmt.Errorf("%w: category still has threads", ErrConflict)
)

func invalidArgument(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// translateNotFound converts gorm.ErrRecordNotFound into ErrNotFound naming the entity.
func translateNotFound(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, entity)
	}
	return err
}

// translateDuplicate converts unique violations into ErrConflict naming the entity.
func translateDuplicate(err error, entity string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s already exists", ErrConflict, entity)
	}
	return err
}

// translateTargetState maps state errors raised inside write transactions onto the service sentinels.
func translateTargetState(err error, entity string) error {
	switch {
	case errors.Is(err, repository.ErrThreadLocked):
		return ErrThreadLocked
	case errors.Is(err, repository.ErrReplyDeleted):
		return ErrReplyDeleted
	default:
		return translateNotFound(err, entity)
	}
}
