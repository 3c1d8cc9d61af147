// Package attestation wires the core's build pipeline together: liability
// splitting (package splitting), leaf construction (package leaf), and
// Merkle sum tree construction (package merkletree). It is the "build"
// data flow named in the specification's system overview; everything it
// calls is independently usable, and nothing here is configurable beyond
// the threshold and block_height the spec exposes.
package attestation

import (
	"github.com/RiverFinancial/proof-of-reserves/leaf"
	"github.com/RiverFinancial/proof-of-reserves/merkletree"
	"github.com/RiverFinancial/proof-of-reserves/pol"
	"github.com/RiverFinancial/proof-of-reserves/splitting"
)

// Build runs the full build pipeline: split liabilities to an obfuscated,
// power-of-two leaf set bounded by threshold, hash each into a leaf node
// under blockHeight, and Merkle-sum-tree them into a published attestation.
func Build(blockHeight uint64, liabilities []pol.Liability, threshold uint64) (*merkletree.Tree, error) {
	split, err := splitting.Split(liabilities, threshold)
	if err != nil {
		return nil, err
	}
	leaves := leaf.FromLiabilities(blockHeight, split)
	return merkletree.Build(leaves)
}
