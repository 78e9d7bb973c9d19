package cexpr

import (
	"math"
	"strconv"
)

// Number is an integer or floating point constant.
type Number struct {
	i     int64
	f     float64
	float bool
}

// Int returns an integer Number.
func Int(v int64) Number { return Number{i: v} }

// Float returns a floating point Number.
func Float(v float64) Number { return Number{f: v, float: true} }

// Bool returns 1 for true and 0 for false.
func Bool(b bool) Number {
	if b {
		return Int(1)
	}
	return Int(0)
}

// IsFloat reports whether n holds a floating point value.
func (n Number) IsFloat() bool { return n.float }

// Int64 returns n as an integer, truncating floats toward zero.
func (n Number) Int64() int64 {
	if n.float {
		return int64(n.f)
	}
	return n.i
}

// Float64 returns n as a float.
func (n Number) Float64() float64 {
	if n.float {
		return n.f
	}
	return float64(n.i)
}

// Truthy reports whether n is non-zero.
func (n Number) Truthy() bool {
	if n.float {
		return n.f != 0
	}
	return n.i != 0
}

// IsIntegral reports whether n holds an integer or a float without a
// fractional part.
func (n Number) IsIntegral() bool {
	return !n.float || n.f == math.Trunc(n.f)
}

func (n Number) String() string {
	if n.float {
		return strconv.FormatFloat(n.f, 'g', -1, 64)
	}
	return strconv.FormatInt(n.i, 10)
}
