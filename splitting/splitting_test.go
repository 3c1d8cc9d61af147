package splitting

import (
	"sort"
	"testing"

	"github.com/RiverFinancial/proof-of-reserves/pol"
)

// sequenceRNG replays a fixed sequence of uniform draws and deterministic
// tags, so shuffle order and split points are reproducible in tests. It
// implements the RNG abstraction the package exposes specifically so tests
// don't need to depend on crypto/rand.
type sequenceRNG struct {
	uniforms []uint64
	ui       int
	tags     []uint64
	ti       int
}

func (s *sequenceRNG) Uniform(n uint64) (uint64, error) {
	if s.ui >= len(s.uniforms) {
		return 1, nil
	}
	v := s.uniforms[s.ui]
	s.ui++
	if v > n {
		v = n
	}
	if v < 1 {
		v = 1
	}
	return v, nil
}

func (s *sequenceRNG) Uint64() (uint64, error) {
	if s.ti >= len(s.tags) {
		s.tags = append(s.tags, uint64(s.ti))
	}
	v := s.tags[s.ti]
	s.ti++
	return v, nil
}

func liabilityAmounts(liabilities []pol.Liability) []uint64 {
	out := make([]uint64, len(liabilities))
	for i, l := range liabilities {
		out[i] = l.Amount
	}
	return out
}

func sumAmounts(liabilities []pol.Liability) uint64 {
	var total uint64
	for _, l := range liabilities {
		total += l.Amount
	}
	return total
}

func isPowerOfTwoOrZero(n int) bool {
	if n == 0 {
		return true
	}
	return n&(n-1) == 0
}

func TestSplitScenario3(t *testing.T) {
	// Spec §8 scenario 3: amounts [1,2,3], threshold 100000 -> exactly
	// eight leaves with amounts [1,1,1,1,1,1,0,0] up to ordering (the
	// shuffle stage permutes the result).
	liabilities := []pol.Liability{
		{AccountID: 1, Amount: 1},
		{AccountID: 2, Amount: 2},
		{AccountID: 3, Amount: 3},
	}
	out, err := Split(liabilities, 100000)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(out) != 8 {
		t.Fatalf("len(out) = %d, want 8", len(out))
	}
	amounts := liabilityAmounts(out)
	sort.Slice(amounts, func(i, j int) bool { return amounts[i] < amounts[j] })
	want := []uint64{0, 0, 1, 1, 1, 1, 1, 1}
	for i := range want {
		if amounts[i] != want[i] {
			t.Fatalf("sorted amounts = %v, want %v", amounts, want)
		}
	}
}

func TestSplitPreservesSum(t *testing.T) {
	liabilities := []pol.Liability{
		{AccountID: 1, Amount: 12344},
		{AccountID: 2, Amount: 62034},
		{AccountID: 3, Amount: 643566644},
		{AccountID: 4, Amount: 999999999999},
	}
	want := sumAmounts(liabilities)
	out, err := Split(liabilities, 5_000_000)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if got := sumAmounts(out); got != want {
		t.Errorf("sum after split = %d, want %d", got, want)
	}
	if !isPowerOfTwoOrZero(len(out)) {
		t.Errorf("len(out) = %d, not a power of two", len(out))
	}
	for _, l := range out {
		if l.Amount > 5_000_000 {
			t.Errorf("leaf amount %d exceeds threshold", l.Amount)
		}
	}
}

func TestSplitSingletonAboveThreshold(t *testing.T) {
	// Spec §8 scenario 4.
	liabilities := []pol.Liability{{AccountID: 1, Amount: 10_000_001}}
	out, err := Split(liabilities, 5_000_000)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(out) < 4 {
		t.Fatalf("len(out) = %d, want >= 4", len(out))
	}
	if got := sumAmounts(out); got != 10_000_001 {
		t.Errorf("sum = %d, want 10000001", got)
	}
	for _, l := range out {
		if l.Amount > 5_000_000 {
			t.Errorf("leaf amount %d exceeds threshold", l.Amount)
		}
	}
	if !isPowerOfTwoOrZero(len(out)) {
		t.Errorf("len(out) = %d, not a power of two", len(out))
	}
}

func TestSplitAllUnitsPadsWithDummies(t *testing.T) {
	// Every amount is 1: splitting cannot produce more pieces, so the
	// output must be padded with zero-amount dummies up to the next
	// power of two.
	liabilities := []pol.Liability{
		{AccountID: 1, Amount: 1},
		{AccountID: 2, Amount: 1},
		{AccountID: 3, Amount: 1},
	}
	out, err := Split(liabilities, 100)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(out) != 4 {
		t.Fatalf("len(out) = %d, want 4", len(out))
	}
	var dummies, units int
	for _, l := range out {
		switch l.Amount {
		case 0:
			dummies++
		case 1:
			units++
		default:
			t.Errorf("unexpected amount %d", l.Amount)
		}
	}
	if dummies != 1 || units != 3 {
		t.Errorf("dummies=%d units=%d, want dummies=1 units=3", dummies, units)
	}
}

func TestSplitEmptyInput(t *testing.T) {
	out, err := Split(nil, 100)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("len(out) = %d, want 0", len(out))
	}
}

func TestNextPowerOfTwoZeroDegenerate(t *testing.T) {
	if got := nextPowerOfTwo(0); got != 0 {
		t.Errorf("nextPowerOfTwo(0) = %d, want 0", got)
	}
	if got := nextPowerOfTwo(1); got != 1 {
		t.Errorf("nextPowerOfTwo(1) = %d, want 1", got)
	}
	if got := nextPowerOfTwo(5); got != 8 {
		t.Errorf("nextPowerOfTwo(5) = %d, want 8", got)
	}
}

func TestSplitWithRNGDeterministic(t *testing.T) {
	liabilities := []pol.Liability{{AccountID: 1, Amount: 4}}
	rng := &sequenceRNG{uniforms: []uint64{2, 1, 1}}
	out, err := SplitWithRNG(liabilities, 100, rng)
	if err != nil {
		t.Fatalf("SplitWithRNG: %v", err)
	}
	if got := sumAmounts(out); got != 4 {
		t.Errorf("sum = %d, want 4", got)
	}
	if !isPowerOfTwoOrZero(len(out)) {
		t.Errorf("len(out) = %d, not a power of two", len(out))
	}
}

func TestSplitEachInputContributesAtLeastTwoUnlessUnit(t *testing.T) {
	liabilities := []pol.Liability{
		{AccountID: 1, Amount: 1},
		{AccountID: 2, Amount: 9_000_000},
	}
	out, err := Split(liabilities, 5_000_000)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	var fromAccount2 int
	for _, l := range out {
		if l.AccountID == 2 {
			fromAccount2++
		}
	}
	if fromAccount2 < 2 {
		t.Errorf("account 2 (amount 9e6 > 1) contributed %d output items, want >= 2", fromAccount2)
	}
}
