package main

import (
	"fmt"
	"os"

	"github.com/RiverFinancial/proof-of-reserves/crypto"
	"github.com/RiverFinancial/proof-of-reserves/keys"
	"github.com/RiverFinancial/proof-of-reserves/log"
	"github.com/RiverFinancial/proof-of-reserves/recovery"
)

// verifyConfig holds the flags accepted by the "verify" subcommand.
type verifyConfig struct {
	File       string
	AccountUID string
	AccountKey string
	Email      string
}

func runVerify(args []string) int {
	logger := log.Default().Module("verify")

	var cfg verifyConfig
	fs := newCustomFlagSet("polcore verify")
	fs.StringVar(&cfg.File, "file", "", "path to the per-account attestation file")
	fs.StringVar(&cfg.AccountUID, "account-uid", "", "unpadded base32 account UID")
	fs.StringVar(&cfg.AccountKey, "account-key", "", "64 lowercase-hex-character account key")
	fs.StringVar(&cfg.Email, "email", "", "account email, used verbatim in key derivation")

	if err := fs.Parse(args); err != nil {
		logger.Error("parsing flags", "err", err)
		return 2
	}
	if cfg.File == "" || cfg.AccountUID == "" || cfg.AccountKey == "" || cfg.Email == "" {
		logger.Error("-file, -account-uid, -account-key, and -email are all required")
		return 2
	}

	accountID, err := crypto.Base32DecodeUnpadded(cfg.AccountUID)
	if err != nil {
		logger.Error("decoding account UID", "err", err)
		return 1
	}
	accountKeyBytes, err := crypto.HexDecodeLower(cfg.AccountKey)
	if err != nil || len(accountKeyBytes) != 32 {
		logger.Error("decoding account key", "err", err)
		return 1
	}
	var accountKey [32]byte
	copy(accountKey[:], accountKeyBytes)

	f, err := os.Open(cfg.File)
	if err != nil {
		logger.Error("opening attestation file", "file", cfg.File, "err", err)
		return 1
	}
	defer f.Close()

	attFile, err := recovery.ParseAttestationFile(f)
	if err != nil {
		logger.Error("parsing attestation file", "err", err)
		return 1
	}

	ok, err := attFile.Tree.Verify()
	if err != nil {
		logger.Error("verifying tree", "err", err)
		return 1
	}
	if !ok {
		logger.Error("verification failed: tree does not rebuild to its published root")
		return 1
	}

	subkey := keys.AccountSubkey(accountKey, cfg.Email, accountID)
	results, err := recovery.Recover(attFile.Tree.Leaves(), attFile.BlockHeight, []recovery.Account{
		{AccountID: accountID, AccountSubkey: subkey},
	})
	if err != nil {
		logger.Error("recovering balance", "err", err)
		return 1
	}

	r := results[0]
	logger.Info("tree verified", "leaves", len(attFile.Tree.Leaves()))
	fmt.Printf("account %d balance: %d satoshis (across %d leaves)\n", r.AccountID, r.Balance, len(r.LeafIndices))
	return 0
}
