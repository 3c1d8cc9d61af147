package attestation

import (
	"testing"

	"github.com/RiverFinancial/proof-of-reserves/pol"
)

func TestBuildPreservesTotalLiability(t *testing.T) {
	liabilities := []pol.Liability{
		{AccountID: 1, Amount: 1234},
		{AccountID: 2, Amount: 98765},
		{AccountID: 3, Amount: 42},
	}
	var want uint64
	for _, l := range liabilities {
		want += l.Amount
	}

	tree, err := Build(1000, liabilities, 5000)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	root, ok, err := tree.Root()
	if err != nil || !ok {
		t.Fatalf("Root(): ok=%v err=%v", ok, err)
	}
	if root.Value != want {
		t.Errorf("root.Value = %d, want %d (sum of input liabilities)", root.Value, want)
	}
}

func TestBuildLeafCountIsPowerOfTwo(t *testing.T) {
	liabilities := []pol.Liability{
		{AccountID: 1, Amount: 3},
		{AccountID: 2, Amount: 17},
		{AccountID: 3, Amount: 1000001},
	}
	tree, err := Build(1000, liabilities, 500000)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	n := len(tree.Leaves())
	if n == 0 || n&(n-1) != 0 {
		t.Errorf("leaf count = %d, not a power of two", n)
	}
}

func TestBuildTreeVerifies(t *testing.T) {
	liabilities := []pol.Liability{
		{AccountID: 1, Amount: 500},
		{AccountID: 2, Amount: 750},
	}
	tree, err := Build(2000, liabilities, 1000)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	ok, err := tree.Verify()
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Error("Verify() = false for a freshly built attestation")
	}
}

func TestBuildEmptyLiabilities(t *testing.T) {
	tree, err := Build(1000, nil, 500)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(tree.Leaves()) != 0 {
		t.Errorf("Leaves() = %d, want 0 for empty input", len(tree.Leaves()))
	}
}

func TestBuildEveryLeafBelowThreshold(t *testing.T) {
	liabilities := []pol.Liability{
		{AccountID: 1, Amount: 9_999_999},
	}
	const threshold = 1_000_000
	tree, err := Build(1000, liabilities, threshold)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, lf := range tree.Leaves() {
		if lf.Value > threshold {
			t.Errorf("leaf value %d exceeds threshold %d", lf.Value, threshold)
		}
	}
}
