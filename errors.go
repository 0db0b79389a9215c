package soloweb

import (
	"errors"
	"fmt"
)

var (
	ErrFrozen           = errors.New("application is running: registration is closed")
	ErrBlueprintExists  = errors.New("blueprint is already registered")
	ErrNilResponse      = errors.New("nil response")
	ErrNilHandler       = errors.New("handler cannot be nil")
	ErrNilMiddleware    = errors.New("middleware cannot be nil")
	ErrInvalidBlueprint = errors.New("invalid blueprint")
)

// PanicError is a recovered panic from user code. It keeps the stack captured
// at the recovery point so debug responses can show it.
type PanicError struct {
	Value any
	Stack []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
