package relationaldb

import (
	"errors"
	"fmt"
	"strings"
)

// Configuration errors, returned by Config.Validate.
var (
	ErrInvalidDriver          = errors.New("invalid history driver")
	ErrMissingDSN             = errors.New("history dsn is required")
	ErrInvalidMaxOpenConns    = errors.New("max open connections must be >= 0")
	ErrInvalidMaxIdleConns    = errors.New("max idle connections must be >= 0")
	ErrMaxIdleExceedsMaxOpen  = errors.New("max idle connections cannot exceed max open connections")
	ErrInvalidTimeout         = errors.New("timeout must be positive")
	ErrInvalidConnMaxLifetime = errors.New("connection max lifetime must be >= 0")
	ErrInvalidMaxRetries      = errors.New("max retries must be >= 0")
	ErrInvalidRetryDelay      = errors.New("retry delay must be >= 0")
	ErrInvalidRetryMaxDelay   = errors.New("retry max delay must be >= retry delay")
)

// Runtime errors.
var (
	ErrDatabaseClosed      = errors.New("history database is closed")
	ErrTransactionClosed   = errors.New("database transaction already finished")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidSignature    = errors.New("invalid transaction signature")
	ErrInvalidLimit        = errors.New("invalid query limit")
)

// ErrorType says which stage of talking to the history database failed.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeConfiguration
	ErrorTypeConnection
	ErrorTypeTransaction
	ErrorTypeQuery
	ErrorTypeSchema
)

var errorTypeNames = [...]string{"unknown", "configuration", "connection", "transaction", "query", "schema"}

func (t ErrorType) String() string {
	if int(t) < 0 || int(t) >= len(errorTypeNames) {
		return errorTypeNames[0]
	}
	return errorTypeNames[t]
}

// DatabaseError carries the failed operation and whether repeating it may
// succeed.
type DatabaseError struct {
	Type      ErrorType `json:"type"`
	Operation string    `json:"operation"`
	Message   string    `json:"message"`
	Cause     error     `json:"cause,omitempty"`
	Retryable bool      `json:"retryable"`
}

func (e *DatabaseError) Error() string {
	if e.Cause == nil {
		return e.Operation + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Operation, e.Message, e.Cause)
}

func (e *DatabaseError) Unwrap() error { return e.Cause }

// Is matches a DatabaseError of the same type and message, ignoring the
// operation it was raised in.
func (e *DatabaseError) Is(target error) bool {
	other, ok := target.(*DatabaseError)
	return ok && other.Type == e.Type && other.Message == e.Message
}

func newError(t ErrorType, operation, message string, cause error) *DatabaseError {
	retry := false
	switch t {
	case ErrorTypeConnection:
		retry = true
	case ErrorTypeTransaction, ErrorTypeQuery:
		retry = transient(cause)
	}
	return &DatabaseError{Type: t, Operation: operation, Message: message, Cause: cause, Retryable: retry}
}

func NewConfigurationError(operation, message string, cause error) *DatabaseError {
	return newError(ErrorTypeConfiguration, operation, message, cause)
}

func NewConnectionError(operation, message string, cause error) *DatabaseError {
	return newError(ErrorTypeConnection, operation, message, cause)
}

func NewTransactionError(operation, message string, cause error) *DatabaseError {
	return newError(ErrorTypeTransaction, operation, message, cause)
}

func NewQueryError(operation, message string, cause error) *DatabaseError {
	return newError(ErrorTypeQuery, operation, message, cause)
}

func NewSchemaError(operation, message string, cause error) *DatabaseError {
	return newError(ErrorTypeSchema, operation, message, cause)
}

// Driver messages for lock contention and dropped connections. sqlite
// reports SQLITE_BUSY as "database is locked"; postgres aborts conflicting
// serializable transactions.
var transientMessages = []string{
	"database is locked",
	"sqlite_busy",
	"could not serialize access",
	"deadlock detected",
	"connection refused",
	"connection reset",
	"too many clients",
	"timeout",
}

func transient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range transientMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

func hasType(err error, t ErrorType) bool {
	var dbErr *DatabaseError
	return errors.As(err, &dbErr) && dbErr.Type == t
}

func IsConnectionError(err error) bool { return hasType(err, ErrorTypeConnection) }

func IsQueryError(err error) bool { return hasType(err, ErrorTypeQuery) }

// IsRetryable reports whether err is worth another attempt. Errors from
// outside this package are judged by their message.
func IsRetryable(err error) bool {
	var dbErr *DatabaseError
	if errors.As(err, &dbErr) {
		return dbErr.Retryable
	}
	return transient(err)
}

// WrapError relabels err with operation, keeping its type when it is
// already a DatabaseError.
func WrapError(err error, operation string) error {
	if err == nil {
		return nil
	}
	var dbErr *DatabaseError
	if errors.As(err, &dbErr) {
		relabeled := *dbErr
		relabeled.Operation = operation
		return &relabeled
	}
	return newError(ErrorTypeUnknown, operation, "history operation failed", err)
}
