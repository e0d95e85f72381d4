// Package calc implements the four basic arithmetic operations.
package calc

import (
	"errors"
	"fmt"
)

var (
	ErrDivisionByZero   = errors.New("cannot divide by zero")
	ErrUnknownOperation = errors.New("unknown operation")
)

func Add(a, b float64) float64      { return a + b }
func Subtract(a, b float64) float64 { return a - b }
func Multiply(a, b float64) float64 { return a * b }

// Divide returns a / b, or ErrDivisionByZero when b is zero.
func Divide(a, b float64) (float64, error) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	return a / b, nil
}

// Apply runs the operation named op ("add", "subtract", "multiply" or
// "divide").
func Apply(op string, a, b float64) (float64, error) {
	switch op {
	case "add":
		return Add(a, b), nil
	case "subtract":
		return Subtract(a, b), nil
	case "multiply":
		return Multiply(a, b), nil
	case "divide":
		return Divide(a, b)
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}
}
