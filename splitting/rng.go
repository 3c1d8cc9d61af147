package splitting

import "github.com/RiverFinancial/proof-of-reserves/crypto"

// RNG abstracts the random source used by splitting and shuffling. The
// default, SecureRNG, is backed by crypto/rand and is what the core uses in
// production; tests that need a reproducible shuffle or split can supply a
// deterministic implementation instead of depending on process-global
// state.
type RNG interface {
	// Uint64 returns a uniformly random uint64.
	Uint64() (uint64, error)

	// Uniform returns a uniformly random integer in [1, n] for n >= 1.
	Uniform(n uint64) (uint64, error)
}

// SecureRNG is the production RNG, backed by a cryptographically secure
// source (crypto/rand via package crypto).
type SecureRNG struct{}

// Uint64 implements RNG.
func (SecureRNG) Uint64() (uint64, error) { return crypto.SecureRandomU64() }

// Uniform implements RNG.
func (SecureRNG) Uniform(n uint64) (uint64, error) { return crypto.SecureRandomUniform(n) }
