// Package economy implements the progression rules of the game: the resource
// ledger, cost curves, purchases, multiplier composition and time-driven
// accrual.
//
// A State is an explicit value owned by its caller. It is not safe for
// concurrent use; the engine package serializes every mutation through a
// single goroutine. All operations are plain functions of the state and their
// arguments, including Advance, which takes the current time instead of
// reading a clock.
//
// Expected failures (unknown kinds, insufficient funds, duplicate research,
// capped upgrades) are returned as *Error values and never leave the state
// partially mutated.
//
// Derived values are rebuilt from scratch after every structural change:
//
//	resourceMultiplier(r) = product of upgrade and technology factors for r
//	global                = product of global factors
//	rate(r)               = sum over producers p targeting r of
//	                        owned(p) * output(p) * resourceMultiplier(r) * global
//
// Factors are applied in catalog declaration order, so the resulting
// multipliers do not depend on the order purchases were made in.
package economy
