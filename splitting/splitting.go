// Package splitting implements liability splitting and padding: it turns a
// custodian's raw liability list into an obfuscated, power-of-two-sized
// leaf set suitable for a Merkle sum tree.
//
// The transform runs in three stages, in order:
//
//  1. Mandatory first split — every liability is split at least once (amount
//     1 passes through unchanged), then recursively split until every piece
//     is at most threshold.
//  2. Grow to a power of two — further splits of existing non-unit pieces
//     are used to reach the next power of two; if unit-amount liabilities
//     prevent that, zero-amount dummy liabilities pad the remainder.
//  3. Shuffle — a cryptographically random permutation hides which leaves
//     came from which original liability.
package splitting

import (
	"sort"

	"github.com/RiverFinancial/proof-of-reserves/pol"
)

// Split transforms liabilities into a leaf set of power-of-two size, every
// non-dummy item at most threshold, using the production SecureRNG.
func Split(liabilities []pol.Liability, threshold uint64) ([]pol.Liability, error) {
	return SplitWithRNG(liabilities, threshold, SecureRNG{})
}

// SplitWithRNG is Split with an injectable RNG, primarily for deterministic
// tests.
func SplitWithRNG(liabilities []pol.Liability, threshold uint64, rng RNG) ([]pol.Liability, error) {
	stage1, err := splitStage1(liabilities, threshold, rng)
	if err != nil {
		return nil, err
	}
	stage2, err := growToPowerOfTwo(stage1, rng)
	if err != nil {
		return nil, err
	}
	return shuffle(stage2, rng)
}

// splitOnce draws r uniformly from [1, L.Amount-1] and returns two
// liabilities with the same identity and amounts r and L.Amount-r. Amounts
// of 1 or 0 are not split further (§4.4.1).
func splitOnce(l pol.Liability, rng RNG) ([]pol.Liability, error) {
	if l.Amount <= 1 {
		return []pol.Liability{l}, nil
	}
	r, err := rng.Uniform(l.Amount - 1)
	if err != nil {
		return nil, err
	}
	left := pol.Liability{AccountID: l.AccountID, AccountSubkey: l.AccountSubkey, Amount: r}
	right := pol.Liability{AccountID: l.AccountID, AccountSubkey: l.AccountSubkey, Amount: l.Amount - r}
	return []pol.Liability{left, right}, nil
}

// splitBelow recursively splits l at random points until every resulting piece's amount is
// at most threshold. Termination is guaranteed because splitOnce never
// produces a zero-amount child, so each recursive call strictly decreases
// amount.
func splitBelow(l pol.Liability, threshold uint64, rng RNG) ([]pol.Liability, error) {
	if l.Amount <= threshold {
		return []pol.Liability{l}, nil
	}
	children, err := splitOnce(l, rng)
	if err != nil {
		return nil, err
	}
	if len(children) == 1 {
		// Amount was <= 1 so splitOnce declined; <=1 is always <= threshold
		// for any positive threshold, so this branch is unreachable in
		// practice, but return as-is rather than recursing forever.
		return children, nil
	}
	var out []pol.Liability
	for _, c := range children {
		sub, err := splitBelow(c, threshold, rng)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	return out, nil
}

// splitStage1 is the mandatory first split (§4.4.3): every input liability
// is split once, then each of its (at most two) children is recursively
// split below threshold independently.
func splitStage1(liabilities []pol.Liability, threshold uint64, rng RNG) ([]pol.Liability, error) {
	var out []pol.Liability
	for _, l := range liabilities {
		children, err := splitOnce(l, rng)
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			below, err := splitBelow(c, threshold, rng)
			if err != nil {
				return nil, err
			}
			out = append(out, below...)
		}
	}
	return out, nil
}

// nextPowerOfTwo returns the smallest power of two >= n, except that
// nextPowerOfTwo(0) == 0 (treated as a power of two), matching the
// original implementation's degenerate case so the empty-input path is
// preserved.
func nextPowerOfTwo(n int) int {
	if n == 0 {
		return 0
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// growToPowerOfTwo is stage 2 (§4.4.4): it attempts to reach the next
// power of two by splitting existing items, then pads with dummy
// liabilities if unit-amount liabilities prevented reaching the target
// through splitting alone.
func growToPowerOfTwo(list []pol.Liability, rng RNG) ([]pol.Liability, error) {
	n := len(list)
	target := nextPowerOfTwo(n)
	d := target - n
	grown, err := grow(list, d, rng)
	if err != nil {
		return nil, err
	}
	for len(grown) < target {
		grown = append(grown, pol.Dummy())
	}
	return grown, nil
}

// grow implements the recursive growth procedure of §4.4.4: split the first
// d items once each, then recurse into the remainder for whatever further
// growth is still owed after accounting for unit-amount items that
// declined to split.
func grow(list []pol.Liability, d int, rng RNG) ([]pol.Liability, error) {
	if d == 0 {
		return list, nil
	}
	head := list[:d]
	tail := list[d:]

	var splitHead []pol.Liability
	for _, item := range head {
		children, err := splitOnce(item, rng)
		if err != nil {
			return nil, err
		}
		splitHead = append(splitHead, children...)
	}

	deficit := 2*d - len(splitHead)
	nextD := deficit
	if nextD > len(tail) {
		nextD = len(tail)
	}
	if nextD < 0 {
		nextD = 0
	}
	tailGrown, err := grow(tail, nextD, rng)
	if err != nil {
		return nil, err
	}
	return append(splitHead, tailGrown...), nil
}

// shuffle applies a cryptographically random permutation (§4.4.5): each
// element is tagged with an independent 64-bit random value and the list is
// sorted by tag, with ties (vanishingly unlikely) broken by original
// position to keep the sort stable and deterministic given the tags.
func shuffle(list []pol.Liability, rng RNG) ([]pol.Liability, error) {
	type tagged struct {
		tag  uint64
		idx  int
		item pol.Liability
	}
	tags := make([]tagged, len(list))
	for i, item := range list {
		tag, err := rng.Uint64()
		if err != nil {
			return nil, err
		}
		tags[i] = tagged{tag: tag, idx: i, item: item}
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].tag != tags[j].tag {
			return tags[i].tag < tags[j].tag
		}
		return tags[i].idx < tags[j].idx
	})
	out := make([]pol.Liability, len(tags))
	for i, t := range tags {
		out[i] = t.item
	}
	return out, nil
}
