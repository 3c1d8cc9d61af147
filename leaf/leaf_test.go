package leaf

import (
	"testing"

	"github.com/RiverFinancial/proof-of-reserves/crypto"
	"github.com/RiverFinancial/proof-of-reserves/keys"
	"github.com/RiverFinancial/proof-of-reserves/pol"
)

func TestFromLiabilityMatchesManualDerivation(t *testing.T) {
	l := pol.Liability{AccountID: 1234, Amount: 2}
	l.AccountSubkey[0] = 0xab

	got := FromLiability(1000, 3, l)

	ak := keys.AttestationKey(l.AccountSubkey, 1000, l.AccountID)
	leAmt := crypto.LE64(2)
	leIdx := crypto.LE64(3)
	msg := append(append([]byte{}, leAmt[:]...), leIdx[:]...)
	want := crypto.HMACSHA256(ak[:], msg)

	if got.Value != 2 {
		t.Errorf("Value = %d, want 2", got.Value)
	}
	if got.Hash != want {
		t.Errorf("Hash = %x, want %x", got.Hash, want)
	}
}

func TestFromLiabilitiesAssignsSequentialIndices(t *testing.T) {
	liabilities := []pol.Liability{
		{AccountID: 1, Amount: 10},
		{AccountID: 2, Amount: 20},
		{AccountID: 3, Amount: 30},
	}
	leaves := FromLiabilities(500, liabilities)
	if len(leaves) != 3 {
		t.Fatalf("len(leaves) = %d, want 3", len(leaves))
	}
	for i, l := range liabilities {
		want := FromLiability(500, uint64(i), l)
		if leaves[i] != want {
			t.Errorf("leaf %d = %+v, want %+v", i, leaves[i], want)
		}
	}
}

func TestFromLiabilityHashChangesWithIndex(t *testing.T) {
	l := pol.Liability{AccountID: 1, Amount: 10}
	a := FromLiability(1, 0, l)
	b := FromLiability(1, 1, l)
	if a.Hash == b.Hash {
		t.Error("leaf hash did not change with leaf_index")
	}
}
