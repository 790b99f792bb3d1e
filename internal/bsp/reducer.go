package bsp

import "math"

// Reducer is an associative(-commutative) combiner over scalar messages.
// The framework does not verify associativity or commutativity;
// algorithms rely on it holding.
type Reducer interface {
	// Identity returns e, the value an empty reduction starts from.
	Identity() float64
	// Combine folds m into acc and returns the new accumulated value.
	Combine(acc, m float64) float64
	// Name identifies the reducer for config/logging purposes.
	Name() string
}

type sumReducer struct{}

func (sumReducer) Identity() float64              { return 0 }
func (sumReducer) Combine(acc, m float64) float64 { return acc + m }
func (sumReducer) Name() string                   { return "sum" }

type minReducer struct{}

func (minReducer) Identity() float64 { return math.Inf(1) }
func (minReducer) Combine(acc, m float64) float64 {
	if m < acc {
		return m
	}
	return acc
}
func (minReducer) Name() string { return "min" }

type maxReducer struct{}

func (maxReducer) Identity() float64 { return math.Inf(-1) }
func (maxReducer) Combine(acc, m float64) float64 {
	if m > acc {
		return m
	}
	return acc
}
func (maxReducer) Name() string { return "max" }

type countReducer struct{}

func (countReducer) Identity() float64              { return 0 }
func (countReducer) Combine(acc, _ float64) float64 { return acc + 1 }
func (countReducer) Name() string                   { return "count" }

// Sum is the Sum reducer (identity 0, combine +).
func Sum() Reducer { return sumReducer{} }

// Min is the Min reducer (identity +Inf, combine min).
func Min() Reducer { return minReducer{} }

// Max is the Max reducer (identity -Inf, combine max).
func Max() Reducer { return maxReducer{} }

// Count is the Count reducer (identity 0, combine ignores m and adds 1).
func Count() Reducer { return countReducer{} }

// ReducerByName resolves a config string ("sum", "min", "max", "count")
// to a Reducer, mirroring pkg/config.DriverConfig.Reducer. An empty name
// returns (nil, false): no reducer configured, use queued messaging.
func ReducerByName(name string) (Reducer, bool) {
	switch name {
	case "sum":
		return Sum(), true
	case "min":
		return Min(), true
	case "max":
		return Max(), true
	case "count":
		return Count(), true
	default:
		return nil, false
	}
}
