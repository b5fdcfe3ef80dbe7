package gxbuzzer

import (
	"errors"
	"fmt"
)

var (
	// ErrConnection matches every *ConnectionError.
	ErrConnection = errors.New("buzzer connection failed")
	// ErrNoPort is returned when no serial port is selected.
	ErrNoPort = errors.New("no serial port selected")
	// ErrClosed is returned by commands issued after the session has stopped.
	ErrClosed = errors.New("buzzer session is closed")
	// ErrInterrupted is returned by a Transport read that was unblocked by Interrupt.
	ErrInterrupted = errors.New("serial read interrupted")
)

// ConnectionError is returned when the serial port cannot be opened or configured.
type ConnectionError struct {
	Port string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("open %s: %v", e.Port, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Is reports ErrConnection as a match.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}

// IOError is a read or write failure after the session was started.
// It stops the session.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("serial %s failed: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
