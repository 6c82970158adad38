package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/upgrades/internal/economy"
	"github.com/roach88/upgrades/internal/persist"
)

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeStopped means the engine no longer accepts intents.
	ErrCodeStopped ErrorCode = "STOPPED"

	// ErrCodeAlreadyRunning means Run was called twice.
	ErrCodeAlreadyRunning ErrorCode = "ALREADY_RUNNING"

	// ErrCodeNotConfirmed means a reset arrived without confirmation.
	ErrCodeNotConfirmed ErrorCode = "RESET_NOT_CONFIRMED"

	// ErrCodeSubscriptionClosed means the subscription will deliver nothing more.
	ErrCodeSubscriptionClosed ErrorCode = "SUBSCRIPTION_CLOSED"

	// ErrCodeNoSink means a save was requested from an engine without a sink.
	ErrCodeNoSink ErrorCode = "NO_SINK"
)

// Error is an engine failure unrelated to game rules. Game rule failures
// come back as *economy.Error, and persistence failures wrap the persist
// sentinels.
type Error struct {
	Code    ErrorCode
	Message string
	Session string
}

func (e *Error) Error() string {
	if e.Session != "" {
		return fmt.Sprintf("%s: %s (session=%s)", e.Code, e.Message, e.Session)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrStopped            = &Error{Code: ErrCodeStopped, Message: "engine stopped"}
	ErrAlreadyRunning     = &Error{Code: ErrCodeAlreadyRunning, Message: "engine already running"}
	ErrNotConfirmed       = &Error{Code: ErrCodeNotConfirmed, Message: "reset requires confirmation"}
	ErrSubscriptionClosed = &Error{Code: ErrCodeSubscriptionClosed, Message: "subscription closed"}
	ErrNoSink             = &Error{Code: ErrCodeNoSink, Message: "engine has no save sink"}
)

// IsStopped reports whether err means the engine has stopped.
func IsStopped(err error) bool { return errors.Is(err, ErrStopped) }

func (e *Engine) errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Session: e.session}
}

// CodeOf returns the wire code of err: the economy code for a rule error,
// the engine code for an engine error, a persistence code for save
// failures and INTERNAL for anything else.
func CodeOf(err error) string {
	if code := economy.CodeOf(err); code != "" {
		return string(code)
	}
	var ee *Error
	switch {
	case errors.As(err, &ee):
		return string(ee.Code)
	case errors.Is(err, persist.ErrCorruptSave):
		return "CORRUPT_SAVE"
	case errors.Is(err, persist.ErrPersistenceUnavailable):
		return "PERSISTENCE_UNAVAILABLE"
	}
	return "INTERNAL"
}
