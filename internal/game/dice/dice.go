// Package dice provides the core randomness abstraction and roll-result types
// for the Rolltable session server.
package dice

import (
	"fmt"
	"strings"
)

// Sizes is the fixed set of die sizes the resolver will ever roll, ascending.
var Sizes = []int{2, 4, 6, 8, 10, 12, 20}

// Formula is a dice-roll specification: a flat bonus plus a per-size die count.
//
// Counts keys outside Sizes are silently ignored; absent sizes default to zero.
// A zero-value Formula is valid and resolves to its bonus alone.
type Formula struct {
	// Bonus is the flat modifier added to the total (may be negative).
	Bonus int
	// Counts maps die size to the number of dice of that size to roll.
	Counts map[int]int
}

// String renders the formula with each nonzero-count size as "<count>d<size>"
// in ascending size order regardless of map order, space-joined, followed by
// a signed bonus token ("+3", "-2") when Bonus != 0.
//
// Postcondition: A formula with all-zero counts and zero bonus renders as "".
func (f Formula) String() string {
	var parts []string
	for _, size := range Sizes {
		if count := f.Counts[size]; count > 0 {
			parts = append(parts, fmt.Sprintf("%dd%d", count, size))
		}
	}
	if f.Bonus != 0 {
		parts = append(parts, fmt.Sprintf("%+d", f.Bonus))
	}
	return strings.Join(parts, " ")
}

// IsCoinFlip reports whether the formula is a single two-sided die with no
// bonus, which is announced as a coin flip rather than a dice roll.
func (f Formula) IsCoinFlip() bool {
	return f.String() == "1d2"
}

// RollResult holds the full audit trail for a single formula resolution.
//
// Postcondition: Total == Formula.Bonus + sum of all entries in Dice.
type RollResult struct {
	// Total is the bonus plus the sum of all individual draws.
	Total int
	// Dice maps every size in Sizes to its draws in draw order. Sizes that
	// were not rolled map to an empty, non-nil slice.
	Dice map[int][]int
}

// Source is the randomness provider for dice rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// Resolve rolls the formula using the given Source.
//
// For each size in Sizes with a positive count, count independent uniform
// draws in [1, size] are appended in draw order. There are no error
// conditions: negative counts and unknown sizes contribute nothing.
//
// Precondition: src must be non-nil.
// Postcondition: result.Dice has an entry for every size in Sizes, and
//
//	result.Total == f.Bonus + sum(all draws).
func Resolve(f Formula, src Source) RollResult {
	if src == nil {
		panic("dice: Resolve precondition violated: src must be non-nil")
	}

	total := f.Bonus
	results := make(map[int][]int, len(Sizes))
	for _, size := range Sizes {
		count := f.Counts[size]
		draws := make([]int, 0, max(count, 0))
		for i := 0; i < count; i++ {
			d := src.Intn(size) + 1
			draws = append(draws, d)
			total += d
		}
		results[size] = draws
	}

	return RollResult{Total: total, Dice: results}
}
