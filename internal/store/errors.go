package store

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalid           = errors.New("invalid request")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("conflict")
)

// Error carries a message meant for direct display and unwraps to one of the
// sentinel kinds above.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func Invalid(msg string) error {
	return &Error{Kind: ErrInvalid, Message: msg}
}

func NotFound(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func Conflict(msg string) error {
	return &Error{Kind: ErrConflict, Message: msg}
}

func InsufficientStock(itemCode string) error {
	return &Error{Kind: ErrInsufficientStock, Message: fmt.Sprintf("Insufficient stock for item: %s", itemCode)}
}

func ItemNotFound(itemCode string) error {
	return NotFound(fmt.Sprintf("Item not found: %s", itemCode))
}

// Message returns the display message of a domain error, or "" for anything else.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
