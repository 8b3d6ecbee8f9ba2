package model

import "strconv"

// OptFloat is a numeric value that may be absent. Absence is distinct from zero.
type OptFloat struct {
	Value float64
	Valid bool
}

// Some returns a present value.
func Some(v float64) OptFloat {
	return OptFloat{Value: v, Valid: true}
}

// None returns an absent value.
func None() OptFloat {
	return OptFloat{}
}

// Get returns the value and whether it is present.
func (o OptFloat) Get() (float64, bool) {
	return o.Value, o.Valid
}

// String formats a present value with the shortest round-trip representation
// and an absent value as the empty string.
func (o OptFloat) String() string {
	if !o.Valid {
		return ""
	}
	return strconv.FormatFloat(o.Value, 'g', -1, 64)
}

// SumPresent adds all present values; absent values contribute nothing.
func SumPresent(values ...OptFloat) float64 {
	total := 0.0
	for _, v := range values {
		if v.Valid {
			total += v.Value
		}
	}
	return total
}
