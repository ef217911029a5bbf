package entity

import (
	"errors"
	"math/bits"
)

// MaxAmount bounds every stored price and total, in minor currency units.
const MaxAmount int64 = 100_000_000_000_000

// ErrAmountOutOfRange is returned when money arithmetic leaves [0, MaxAmount].
var ErrAmountOutOfRange = errors.New("amount out of range")

// MulAmount returns price × n, failing instead of wrapping.
func MulAmount(price int64, n int) (int64, error) {
	if price < 0 || n < 0 {
		return 0, ErrAmountOutOfRange
	}
	hi, lo := bits.Mul64(uint64(price), uint64(n))
	if hi != 0 || lo > uint64(MaxAmount) {
		return 0, ErrAmountOutOfRange
	}
	return int64(lo), nil
}

// AddAmount returns a + b, failing instead of wrapping.
func AddAmount(a, b int64) (int64, error) {
	if a < 0 || b < 0 || a > MaxAmount-b {
		return 0, ErrAmountOutOfRange
	}
	return a + b, nil
}
