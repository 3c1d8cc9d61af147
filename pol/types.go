// Package pol holds the domain types shared across the proof-of-liabilities
// core: liabilities, attestation identity, and Merkle sum tree nodes.
package pol

import "errors"

// Error kinds surfaced by the core. The outer driver maps these onto
// user-facing messages; the core itself never retries and never logs.
var (
	// ErrInvalidInput covers malformed hex, non-decimal integers, and
	// empty required fields.
	ErrInvalidInput = errors.New("pol: invalid input")

	// ErrShape covers a tree build given a non-power-of-two leaf count, or
	// a root request against a multi-node top level.
	ErrShape = errors.New("pol: shape error")

	// ErrInvariant covers a merge whose summed value overflows 64 bits.
	// Node values are unsigned, so a negative operand cannot occur.
	ErrInvariant = errors.New("pol: invariant violation")

	// ErrIncompleteTree covers a parse that ran out of lines before
	// finishing a level.
	ErrIncompleteTree = errors.New("pol: incomplete tree")
)

// AccountID identifies one custodial account. Non-negative by construction
// (it is an unsigned type); the zero value is reserved for dummy padding
// liabilities.
type AccountID = uint64

// Liability is one input record: a custodian's obligation to account_id for
// amount satoshis, keyed by the account's long-lived subkey.
//
// A Liability with Amount == 0 and a zeroed AccountSubkey is a dummy used
// only to pad the leaf set to a power of two.
type Liability struct {
	AccountID     AccountID
	AccountSubkey [32]byte
	Amount        uint64
}

// IsDummy reports whether l is a zero-amount padding entry.
func (l Liability) IsDummy() bool {
	return l.Amount == 0 && l.AccountSubkey == [32]byte{} && l.AccountID == 0
}

// Dummy returns a zero-amount padding liability.
func Dummy() Liability {
	return Liability{}
}

// Identity names one attestation: the epoch (block_height) at which the
// custodian is publishing its Merkle sum tree, together with the
// per-account secret material needed to derive keys.
type Identity struct {
	BlockHeight uint64
	AccountKey  [32]byte
	Email       string
}

// Node is one node of a Merkle sum tree: a 32-byte hash and the sum of the
// amounts of every leaf beneath it (or, for a leaf itself, its own amount).
type Node struct {
	Hash  [32]byte
	Value uint64
}
