// Package leaf constructs Merkle sum tree leaf nodes from liabilities. Each
// leaf's hash binds a per-attestation key to the liability's amount and its
// final position in the leaf level, so an account can later recognize its
// own leaves (see package recovery) without anyone else being able to.
package leaf

import (
	"github.com/RiverFinancial/proof-of-reserves/crypto"
	"github.com/RiverFinancial/proof-of-reserves/keys"
	"github.com/RiverFinancial/proof-of-reserves/pol"
)

// FromLiability maps (block_height, leaf_index, liability) to a leaf Node:
//
//  1. attestation_key = AttestationKey(liability.AccountSubkey, block_height, liability.AccountID)
//  2. hash = HMAC-SHA256(attestation_key, LE64(amount) || LE64(leaf_index))
//  3. Node{hash, value: amount}
func FromLiability(blockHeight uint64, leafIndex uint64, l pol.Liability) pol.Node {
	ak := keys.AttestationKey(l.AccountSubkey, blockHeight, l.AccountID)
	leAmt := crypto.LE64(l.Amount)
	leIdx := crypto.LE64(leafIndex)
	msg := make([]byte, 0, 16)
	msg = append(msg, leAmt[:]...)
	msg = append(msg, leIdx[:]...)
	h := crypto.HMACSHA256(ak[:], msg)
	return pol.Node{Hash: h, Value: l.Amount}
}

// FromLiabilities maps an entire ordered liability list to its leaf level,
// assigning leaf_index as each liability's position in the slice.
func FromLiabilities(blockHeight uint64, liabilities []pol.Liability) []pol.Node {
	out := make([]pol.Node, len(liabilities))
	for i, l := range liabilities {
		out[i] = FromLiability(blockHeight, uint64(i), l)
	}
	return out
}
