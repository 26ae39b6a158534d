package failfast

import (
	"fmt"
	"reflect"
	"runtime/debug"
)

// Violation is the panic payload raised by this package.
// Recover it with errors.As to inspect the broken precondition.
type Violation struct {
	Message string
	Cause   error
	Stack   []byte
}

func (v *Violation) Error() string {
	if v.Cause != nil {
		return "fail-fast: " + v.Message + ": " + v.Cause.Error()
	}
	return "fail-fast: " + v.Message
}

func (v *Violation) Unwrap() error {
	return v.Cause
}

// Err panics if err != nil (fail-fast principle)
// Includes stack trace for debugging
func Err(err error, message string) {
	if err != nil {
		panic(&Violation{Message: message, Cause: err, Stack: debug.Stack()})
	}
}

// If panics if condition is false
// Allows formatted messages with args
func If(condition bool, message string, args ...interface{}) {
	if !condition {
		panic(&Violation{Message: fmt.Sprintf(message, args...)})
	}
}

// NotNil panics if ptr is nil
// Handles untyped nil, typed nil pointers and nil funcs
func NotNil(ptr interface{}, name string) {
	if ptr == nil {
		panic(&Violation{Message: name + " is nil"})
	}
	v := reflect.ValueOf(ptr)
	switch v.Kind() {
	case reflect.Ptr, reflect.Func, reflect.Map, reflect.Chan, reflect.Slice, reflect.Interface:
		if v.IsNil() {
			panic(&Violation{Message: name + " is nil"})
		}
	}
}

// Recover converts a recovered panic value into a *Violation.
// It returns nil when r was not raised by this package.
func Recover(r interface{}) *Violation {
	v, _ := r.(*Violation)
	return v
}
