package services

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	CodeConfiguration     Code = "CONFIGURATION"
	CodeNotAdmin          Code = "NOT_ADMIN"
	CodeLotteryTerminated Code = "LOTTERY_TERMINATED"
	CodeOutsideWindow     Code = "OUTSIDE_WINDOW"
	CodeTicketLimit       Code = "TICKET_LIMIT_EXCEEDED"
	CodeAlreadyTerminated Code = "ALREADY_TERMINATED"
	CodeInvalidQuantity   Code = "INVALID_QUANTITY"
	CodePaymentMismatch   Code = "PAYMENT_MISMATCH"
	CodeInvalidWinner     Code = "INVALID_WINNER"
	CodeNotFound          Code = "NOT_FOUND"
	CodeJournalCorrupt    Code = "JOURNAL_CORRUPT"
	CodeInvalidCaller     Code = "INVALID_CALLER"
)

// HTTPStatus maps the code to the status the API answers with.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeConfiguration, CodeInvalidQuantity, CodePaymentMismatch, CodeInvalidWinner, CodeInvalidCaller:
		return http.StatusBadRequest
	case CodeNotAdmin:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeLotteryTerminated, CodeAlreadyTerminated, CodeOutsideWindow, CodeTicketLimit:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a ledger error with a code and optional context.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code, so that
// errors.Is(err, ErrNotAdmin) matches any not-admin error.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

func newError(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata}
}

// Sentinels for errors.Is.
var (
	ErrConfiguration     = &Error{Code: CodeConfiguration, Message: "invalid lottery configuration"}
	ErrNotAdmin          = &Error{Code: CodeNotAdmin, Message: "caller is not the lottery admin"}
	ErrLotteryTerminated = &Error{Code: CodeLotteryTerminated, Message: "lottery is terminated"}
	ErrOutsideWindow     = &Error{Code: CodeOutsideWindow, Message: "purchase is outside the purchase window"}
	ErrTicketLimit       = &Error{Code: CodeTicketLimit, Message: "ticket limit per user exceeded"}
	ErrAlreadyTerminated = &Error{Code: CodeAlreadyTerminated, Message: "lottery already terminated"}
	ErrInvalidQuantity   = &Error{Code: CodeInvalidQuantity, Message: "invalid ticket quantity"}
	ErrPaymentMismatch   = &Error{Code: CodePaymentMismatch, Message: "payment does not match ticket price"}
	ErrInvalidWinner     = &Error{Code: CodeInvalidWinner, Message: "selected winner is not a participant"}
	ErrNotFound          = &Error{Code: CodeNotFound, Message: "lottery not found"}
	ErrJournalCorrupt    = &Error{Code: CodeJournalCorrupt, Message: "journal is corrupt"}
	ErrInvalidCaller     = &Error{Code: CodeInvalidCaller, Message: "caller address is required"}
)
