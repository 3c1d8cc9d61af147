// Package keys implements the two deterministic key derivations that bind a
// custodial account to its leaves in a published attestation: the
// long-lived account_subkey and the per-attestation attestation_key.
//
// Both derivations are plain SHA-256 over a fixed-layout concatenation (see
// spec section 6.2); they must be byte-identical across implementations, so
// nothing here is configurable.
package keys

import (
	"github.com/RiverFinancial/proof-of-reserves/crypto"
)

// AccountSubkey derives the long-lived per-account subkey shared between a
// user and the custodian:
//
//	account_subkey = SHA256(account_key || email || LE64(account_id))
func AccountSubkey(accountKey [32]byte, email string, accountID uint64) [32]byte {
	le := crypto.LE64(accountID)
	buf := make([]byte, 0, 32+len(email)+8)
	buf = append(buf, accountKey[:]...)
	buf = append(buf, email...)
	buf = append(buf, le[:]...)
	return crypto.SHA256(buf)
}

// AttestationKey derives the per-(account, attestation) key used to bind a
// leaf to an account for one published tree:
//
//	attestation_key = SHA256(account_subkey || LE64(block_height) || LE64(account_id))
func AttestationKey(accountSubkey [32]byte, blockHeight, accountID uint64) [32]byte {
	leHeight := crypto.LE64(blockHeight)
	leID := crypto.LE64(accountID)
	buf := make([]byte, 0, 32+8+8)
	buf = append(buf, accountSubkey[:]...)
	buf = append(buf, leHeight[:]...)
	buf = append(buf, leID[:]...)
	return crypto.SHA256(buf)
}
