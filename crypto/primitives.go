// Package crypto provides the low-level primitives used throughout the
// proof-of-liabilities core: SHA-256 and HMAC-SHA-256 hashing, fixed-width
// little-endian integer encoding, strict-lowercase hex and unpadded base32
// codecs, and a cryptographically secure source of random integers.
//
// Every function here is pure and side-effect free except for the random
// number generators, which read from crypto/rand.
package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
)

// HashSize is the output size, in bytes, of every hash in this package.
const HashSize = 32

var (
	// ErrNegativeInt names a negative value given for an unsigned encoding.
	// No function in this package returns it: their integer inputs are
	// uint64 and cannot be negative.
	ErrNegativeInt = errors.New("crypto: value is negative")

	// ErrOddHexLength is returned when hex input has an odd number of
	// characters and therefore cannot decode to whole bytes.
	ErrOddHexLength = errors.New("crypto: hex string has odd length")

	// ErrUppercaseHex is returned when hex input contains uppercase
	// characters; decoding is lowercase-only by contract.
	ErrUppercaseHex = errors.New("crypto: hex string contains uppercase characters")

	// ErrInvalidHexChar is returned when hex input contains a byte outside
	// the lowercase hex alphabet.
	ErrInvalidHexChar = errors.New("crypto: invalid hex character")

	// ErrInvalidBase32 is returned when base32 input cannot be decoded.
	ErrInvalidBase32 = errors.New("crypto: invalid base32 string")

	// ErrNonPositiveN is returned by SecureRandomUniform when n < 1.
	ErrNonPositiveN = errors.New("crypto: n must be >= 1")
)

// SHA256 returns the 32-byte SHA-256 digest of data.
func SHA256(data []byte) [HashSize]byte {
	return sha256.Sum256(data)
}

// HMACSHA256 returns the 32-byte HMAC-SHA-256 of msg under key.
func HMACSHA256(key, msg []byte) [HashSize]byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(msg)
	var out [HashSize]byte
	copy(out[:], mac.Sum(nil))
	return out
}

// LE64 encodes x as 8 little-endian bytes. x is a uint64, so every value
// is representable and the function has no error result.
func LE64(x uint64) [8]byte {
	var out [8]byte
	binary.LittleEndian.PutUint64(out[:], x)
	return out
}

// HexEncodeLower returns the strict-lowercase hex encoding of b.
func HexEncodeLower(b []byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hexDigits[v>>4]
		out[i*2+1] = hexDigits[v&0x0f]
	}
	return string(out)
}

// HexDecodeLower decodes a strict-lowercase hex string. Uppercase characters
// are rejected outright rather than silently accepted, matching the
// specification's decode contract.
func HexDecodeLower(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, ErrOddHexLength
	}
	out := make([]byte, len(s)/2)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'F' {
			return nil, ErrUppercaseHex
		}
		var v byte
		switch {
		case c >= '0' && c <= '9':
			v = c - '0'
		case c >= 'a' && c <= 'f':
			v = c - 'a' + 10
		default:
			return nil, fmt.Errorf("%w: %q at offset %d", ErrInvalidHexChar, c, i)
		}
		if i%2 == 0 {
			out[i/2] = v << 4
		} else {
			out[i/2] |= v
		}
	}
	return out, nil
}

// Base32DecodeUnpadded decodes an RFC 4648 base32 string with no padding
// and returns the big-endian integer interpretation of the decoded bytes.
// Used by the external CLI to turn an account_uid string into an
// account_id.
func Base32DecodeUnpadded(s string) (uint64, error) {
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	raw, err := enc.DecodeString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidBase32, err)
	}
	i := new(big.Int).SetBytes(raw)
	if !i.IsUint64() {
		return 0, fmt.Errorf("%w: decoded value overflows uint64", ErrInvalidBase32)
	}
	return i.Uint64(), nil
}

// SecureRandomU64 returns a uniformly random uint64 from a cryptographically
// secure source.
func SecureRandomU64() (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("crypto: reading random bytes: %w", err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// SecureRandomUniform returns a uniformly random integer in [1, n] for
// n >= 1, drawn from a cryptographically secure source. It uses
// crypto/rand.Int, whose rejection-sampling implementation is unbiased even
// when n is not a power of two.
func SecureRandomUniform(n uint64) (uint64, error) {
	if n < 1 {
		return 0, ErrNonPositiveN
	}
	max := new(big.Int).SetUint64(n)
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return 0, fmt.Errorf("crypto: drawing uniform random value: %w", err)
	}
	return v.Uint64() + 1, nil
}
