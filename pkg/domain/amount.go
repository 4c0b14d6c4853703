package domain

import "fmt"

// Amount is a monetary value in the fixed base unit of the value-transfer
// network. The engine does no currency conversion.
type Amount int64

// ParseAmount validates a payload value as a positive amount.
func ParseAmount(n int64) (Amount, error) {
	if n <= 0 {
		return 0, fmt.Errorf("amount must be positive, got %d", n)
	}
	return Amount(n), nil
}

// IsPositive reports whether the amount is strictly greater than zero.
func (a Amount) IsPositive() bool {
	return a > 0
}

// Int64 returns the raw base-unit value.
func (a Amount) Int64() int64 {
	return int64(a)
}
