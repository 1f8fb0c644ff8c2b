package domain

import (
	"errors"
	"fmt"
)

// Kind classifies failures for the transport layer.
type Kind string

const (
	// KindValidation is a recoverable input error; the flow re-prompts.
	KindValidation Kind = "validation"
	// KindNotFound means a referenced record no longer exists.
	KindNotFound Kind = "not_found"
	// KindDelivery means a third-party notification could not be delivered.
	// Committed state is kept.
	KindDelivery Kind = "delivery"
	// KindPersistence means a store write or read failed.
	KindPersistence Kind = "persistence"
)

// Error is the single error type propagated from validation and commit steps.
type Error struct {
	Kind Kind
	Op   string
	// Msg is safe to show to the user.
	Msg string
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Msg != "":
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Code feeds the err_code field of handler logs.
func (e *Error) Code() string { return string(e.Kind) }

// Validation reports invalid user input.
func Validation(op, msg string) error {
	return &Error{Kind: KindValidation, Op: op, Msg: msg}
}

// NotFound reports a missing record named by what.
func NotFound(op, what string) error {
	return &Error{Kind: KindNotFound, Op: op, Msg: what + " not found"}
}

// Persistence wraps a store failure.
func Persistence(op string, err error) error {
	return &Error{Kind: KindPersistence, Op: op, Msg: "storage error", Err: err}
}

// Delivery wraps a failed notification to recipient.
func Delivery(op string, recipient int64, err error) error {
	return &Error{Kind: KindDelivery, Op: op, Msg: fmt.Sprintf("could not notify %d", recipient), Err: err}
}

// KindOf returns the kind of the first *Error in the chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries kind k.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// Message returns the text shown to users. Store failures carry their cause.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		if e.Kind == KindPersistence && e.Err != nil {
			return e.Msg + ": " + e.Err.Error()
		}
		return e.Msg
	}
	if err == nil {
		return ""
	}
	return "something went wrong"
}
