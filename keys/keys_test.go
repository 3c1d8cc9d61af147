package keys

import "testing"

func TestAccountSubkeyDeterministic(t *testing.T) {
	var accountKey [32]byte
	for i := range accountKey {
		accountKey[i] = byte(i)
	}
	a := AccountSubkey(accountKey, "user@example.com", 42)
	b := AccountSubkey(accountKey, "user@example.com", 42)
	if a != b {
		t.Fatal("AccountSubkey is not deterministic for identical inputs")
	}
}

func TestAccountSubkeyVariesByInput(t *testing.T) {
	var accountKey [32]byte
	base := AccountSubkey(accountKey, "user@example.com", 42)

	if v := AccountSubkey(accountKey, "other@example.com", 42); v == base {
		t.Error("AccountSubkey did not vary with email")
	}
	if v := AccountSubkey(accountKey, "user@example.com", 43); v == base {
		t.Error("AccountSubkey did not vary with account_id")
	}
	var otherKey [32]byte
	otherKey[0] = 1
	if v := AccountSubkey(otherKey, "user@example.com", 42); v == base {
		t.Error("AccountSubkey did not vary with account_key")
	}
}

func TestAttestationKeyDeterministic(t *testing.T) {
	var subkey [32]byte
	subkey[0] = 7
	a := AttestationKey(subkey, 1000, 42)
	b := AttestationKey(subkey, 1000, 42)
	if a != b {
		t.Fatal("AttestationKey is not deterministic for identical inputs")
	}
}

func TestAttestationKeyVariesByBlockHeight(t *testing.T) {
	var subkey [32]byte
	subkey[0] = 7
	a := AttestationKey(subkey, 1000, 42)
	b := AttestationKey(subkey, 1001, 42)
	if a == b {
		t.Error("AttestationKey did not vary with block_height")
	}
}
