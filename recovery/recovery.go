// Package recovery implements account-balance recovery (§4.6): given a
// published tree's leaves, an attestation's block_height, and a set of
// (account_id, account_subkey) pairs, it recomputes each account's
// attestation_key and sums every leaf whose hash that key recognizes.
//
// Recovery is O(|leaves| * |accounts|) HMAC computations and is
// embarrassingly parallel across leaf ranges: each sub-range's starting
// leaf_index must be preserved so the HMAC message matches what the
// custodian computed in package leaf.
package recovery

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/RiverFinancial/proof-of-reserves/crypto"
	"github.com/RiverFinancial/proof-of-reserves/keys"
	"github.com/RiverFinancial/proof-of-reserves/pol"
)

// Account is one recovery request: the account identity whose leaves
// should be located within a published tree.
type Account struct {
	AccountID     pol.AccountID
	AccountSubkey [32]byte
}

// Result is one account's recovered balance: its total balance, the
// attestation_key used to recognize its leaves, and the indices of every
// leaf that matched.
type Result struct {
	AccountID      pol.AccountID
	Balance        uint64
	AttestationKey [32]byte
	LeafIndices    []int
}

// Recover computes a Result for every account in accounts, in the same
// order as the input, against the given leaf level and block_height. It
// parallelizes across leaf ranges when the leaf level is large enough to
// make that worthwhile.
func Recover(leaves []pol.Node, blockHeight uint64, accounts []Account) ([]Result, error) {
	results := make([]Result, len(accounts))
	attestationKeys := make([][32]byte, len(accounts))
	for i, a := range accounts {
		attestationKeys[i] = keys.AttestationKey(a.AccountSubkey, blockHeight, a.AccountID)
		results[i].AccountID = a.AccountID
		results[i].AttestationKey = attestationKeys[i]
	}
	if len(leaves) == 0 || len(accounts) == 0 {
		return results, nil
	}

	partials, err := recoverRange(leaves, 0, attestationKeys)
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].Balance = partials[i].balance
		results[i].LeafIndices = partials[i].indices
	}
	return results, nil
}

type partial struct {
	balance uint64
	indices []int
}

// recoverRange scans leaves[*] (whose absolute starting index in the
// overall leaf list is startIndex) against every attestation key, fanning
// out across a worker pool by splitting the range in half and merging
// partial sums on the way back up. The merge is a plain per-account
// addition, so the result is independent of how finely the range was
// partitioned.
func recoverRange(leaves []pol.Node, startIndex int, attestationKeys [][32]byte) ([]partial, error) {
	const minParallelChunk = 512

	if len(leaves) <= minParallelChunk || runtime.GOMAXPROCS(0) <= 1 {
		return scanRange(leaves, startIndex, attestationKeys), nil
	}

	mid := len(leaves) / 2
	var left, right []partial
	var g errgroup.Group
	g.Go(func() error {
		var err error
		left, err = recoverRange(leaves[:mid], startIndex, attestationKeys)
		return err
	})
	g.Go(func() error {
		var err error
		right, err = recoverRange(leaves[mid:], startIndex+mid, attestationKeys)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]partial, len(attestationKeys))
	for i := range attestationKeys {
		merged[i].balance = left[i].balance + right[i].balance
		merged[i].indices = append(append([]int(nil), left[i].indices...), right[i].indices...)
	}
	return merged, nil
}

func scanRange(leaves []pol.Node, startIndex int, attestationKeys [][32]byte) []partial {
	out := make([]partial, len(attestationKeys))
	for offset, lf := range leaves {
		index := startIndex + offset
		leIdx := crypto.LE64(uint64(index))
		leAmt := crypto.LE64(lf.Value)
		msg := make([]byte, 0, 16)
		msg = append(msg, leAmt[:]...)
		msg = append(msg, leIdx[:]...)
		for i, ak := range attestationKeys {
			h := crypto.HMACSHA256(ak[:], msg)
			if h == lf.Hash {
				out[i].balance += lf.Value
				out[i].indices = append(out[i].indices, index)
			}
		}
	}
	return out
}
