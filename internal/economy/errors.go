package economy

import (
	"errors"
	"fmt"

	"github.com/roach88/upgrades/internal/catalog"
)

// ErrorCode categorizes economy failures.
type ErrorCode string

const (
	// CodeUnknownKind indicates an identifier that the catalog does not declare.
	CodeUnknownKind ErrorCode = "UNKNOWN_KIND"

	// CodeInsufficientFunds indicates the ledger cannot cover a cost.
	CodeInsufficientFunds ErrorCode = "INSUFFICIENT_FUNDS"

	// CodeAlreadyUnlocked indicates a technology was researched twice.
	CodeAlreadyUnlocked ErrorCode = "ALREADY_UNLOCKED"

	// CodeMaxLevelReached indicates an upgrade is at its level cap.
	CodeMaxLevelReached ErrorCode = "MAX_LEVEL_REACHED"

	// CodeInvalidAmount indicates a negative or non-finite quantity.
	CodeInvalidAmount ErrorCode = "INVALID_AMOUNT"
)

// Error is an expected, recoverable failure of an economy operation.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Kind is the identifier the operation was called with.
	Kind string

	// Message is a human-readable description.
	Message string
}

// Sentinels for errors.Is. They match any *Error with the same code.
var (
	ErrUnknownKind       = &Error{Code: CodeUnknownKind}
	ErrInsufficientFunds = &Error{Code: CodeInsufficientFunds}
	ErrAlreadyUnlocked   = &Error{Code: CodeAlreadyUnlocked}
	ErrMaxLevelReached   = &Error{Code: CodeMaxLevelReached}
	ErrInvalidAmount     = &Error{Code: CodeInvalidAmount}
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s: %s (kind=%s)", e.Code, e.Message, e.Kind)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return string(e.Code)
}

// Is matches on Code, so wrapped errors compare equal to the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Kind == "" || t.Kind == e.Kind)
}

// CodeOf returns the code of an economy error, or "" for any other error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsUnknownKind returns true if err is an unknown kind error.
func IsUnknownKind(err error) bool { return errors.Is(err, ErrUnknownKind) }

// IsInsufficientFunds returns true if err is an insufficient funds error.
func IsInsufficientFunds(err error) bool { return errors.Is(err, ErrInsufficientFunds) }

// IsAlreadyUnlocked returns true if err is a duplicate research error.
func IsAlreadyUnlocked(err error) bool { return errors.Is(err, ErrAlreadyUnlocked) }

// IsMaxLevelReached returns true if err is a level cap error.
func IsMaxLevelReached(err error) bool { return errors.Is(err, ErrMaxLevelReached) }

func unknownKind(what, kind string) *Error {
	return &Error{Code: CodeUnknownKind, Kind: kind, Message: fmt.Sprintf("unknown %s", what)}
}

func insufficientFunds(kind string, cost catalog.CostMap) *Error {
	return &Error{Code: CodeInsufficientFunds, Kind: kind, Message: fmt.Sprintf("cannot afford %v", cost)}
}

func invalidAmount(kind string, amount float64) *Error {
	return &Error{Code: CodeInvalidAmount, Kind: kind, Message: fmt.Sprintf("amount must be finite and >= 0, got %v", amount)}
}
