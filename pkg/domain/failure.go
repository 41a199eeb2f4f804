package domain

import "fmt"

// Failure is an expected, user-facing command failure.
// Handlers return it (or panic with it) to abort with a message for the caller
// and an optional follow-up action. It never reaches the error handler.
type Failure struct {
	// Message is delivered to the caller when non-empty.
	Message string
	// Then runs after the message is delivered.
	Then func()
}

// Error implements error.
func (f *Failure) Error() string {
	if f.Message == "" {
		return "command failure"
	}
	return "command failure: " + f.Message
}

// Fail returns a Failure carrying msg.
func Fail(msg string) *Failure {
	return &Failure{Message: msg}
}

// Failf returns a Failure with a formatted message.
func Failf(format string, args ...any) *Failure {
	return &Failure{Message: fmt.Sprintf(format, args...)}
}

// FailThen returns a Failure that runs then after delivering msg.
func FailThen(msg string, then func()) *Failure {
	return &Failure{Message: msg, Then: then}
}

// FailSilently aborts without a message, optionally running then.
func FailSilently(then func()) *Failure {
	return &Failure{Then: then}
}

// PanicError wraps a value recovered from a panicking handler.
type PanicError struct {
	Value any
	Stack []byte
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("handler panic: %v", p.Value)
}

// Unwrap exposes the recovered value when it is itself an error.
func (p *PanicError) Unwrap() error {
	if err, ok := p.Value.(error); ok {
		return err
	}
	return nil
}
