package safe

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrOverflow is returned when an int64 operation would wrap.
	ErrOverflow = errors.New("integer overflow")
	// ErrOutOfRange is returned when a value does not fit the target type.
	ErrOutOfRange = errors.New("value out of range")
)

// Add performs int64 addition and reports overflow/underflow instead of wrapping.
func Add(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, fmt.Errorf("SAFE_ADD %d+%d: %w", a, b, ErrOverflow)
	}
	return a + b, nil
}

// Sub performs int64 subtraction and reports overflow/underflow instead of wrapping.
func Sub(a, b int64) (int64, error) {
	if (b > 0 && a < math.MinInt64+b) || (b < 0 && a > math.MaxInt64+b) {
		return 0, fmt.Errorf("SAFE_SUB %d-%d: %w", a, b, ErrOverflow)
	}
	return a - b, nil
}

// ToUint32 narrows v to the server's unsigned 32-bit price type.
func ToUint32(v int64) (uint32, error) {
	if v < 0 || v > math.MaxUint32 {
		return 0, fmt.Errorf("%d: %w", v, ErrOutOfRange)
	}
	return uint32(v), nil
}
