package service

import (
	"errors"
	"fmt"
)

// Store-level failures returned by repositories
var (
	ErrDuplicateApplication = errors.New("application already exists for this event and user")
	ErrCoinBalanceTooLow    = errors.New("coin balance too low")
)

const (
	msgUserNotFound        = "사용자를 찾을 수 없습니다."
	msgEventNotFound       = "이벤트를 찾을 수 없습니다."
	msgApplicationNotFound = "신청 내역을 찾을 수 없습니다."
	msgAlreadyApplied      = "이미 이 이벤트에 신청하셨습니다."
	msgActivityRequired    = "이번 달 서재 채널에 유효한 글을 1개 이상 작성해야 신청할 수 있습니다."
)

// NotFoundError means a referenced user, event or application does not exist
type NotFoundError struct {
	Resource string
	Message  string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// ConflictError means the user already applied to the event
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// ForbiddenError means the monthly activity requirement was not met
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

// InsufficientCoinsError means the coin balance cannot cover a guarantee
type InsufficientCoinsError struct {
	Required int64
	Held     int64
}

func (e *InsufficientCoinsError) Error() string {
	return fmt.Sprintf("코인이 부족합니다. 필요: %d, 보유: %d", e.Required, e.Held)
}

// ValidationError means the caller supplied malformed input
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func errUserNotFound() error {
	return &NotFoundError{Resource: "user", Message: msgUserNotFound}
}

func errEventNotFound() error {
	return &NotFoundError{Resource: "event", Message: msgEventNotFound}
}

func errApplicationNotFound() error {
	return &NotFoundError{Resource: "application", Message: msgApplicationNotFound}
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

func IsForbidden(err error) bool {
	var target *ForbiddenError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// AsInsufficientCoins extracts the coin shortfall details, if any
func AsInsufficientCoins(err error) (*InsufficientCoinsError, bool) {
	var target *InsufficientCoinsError
	ok := errors.As(err, &target)
	return target, ok
}
