package models

import (
	"fmt"
	"math"
)

// Key is a pair of rounded viewing angles.
type Key struct {
	A int
	B int
}

func (k Key) String() string {
	return fmt.Sprintf("(%d,%d)", k.A, k.B)
}

// KeyFor rounds both angles with Round.
func KeyFor(alpha, beta float64) Key {
	return Key{A: Round(alpha), B: Round(beta)}
}

// Round rounds half up: Round(89.5) == 90, Round(-0.5) == 0.
func Round(v float64) int {
	return int(math.Floor(v + 0.5))
}
