package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/RiverFinancial/proof-of-reserves/attestation"
	"github.com/RiverFinancial/proof-of-reserves/crypto"
	"github.com/RiverFinancial/proof-of-reserves/log"
	"github.com/RiverFinancial/proof-of-reserves/pol"
)

// buildConfig holds the flags accepted by the "build" subcommand.
type buildConfig struct {
	Input       string
	Output      string
	Threshold   uint64
	BlockHeight uint64
	MetricsAddr string
}

func defaultBuildConfig() buildConfig {
	return buildConfig{
		Threshold: 5_000_000,
	}
}

func runBuild(args []string) int {
	logger := log.Default().Module("build")

	cfg := defaultBuildConfig()
	fs := newCustomFlagSet("polcore build")
	fs.StringVar(&cfg.Input, "input", cfg.Input, "path to a CSV file of account_id,account_subkey_hex,amount triples")
	fs.StringVar(&cfg.Output, "output", cfg.Output, "path to write the serialized tree (default: stdout)")
	fs.Uint64Var(&cfg.Threshold, "threshold", cfg.Threshold, "maximum per-leaf amount after splitting, in satoshis")
	fs.Uint64Var(&cfg.BlockHeight, "block-height", cfg.BlockHeight, "attestation epoch identifier")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "address to serve Prometheus /metrics on (empty disables)")

	if err := fs.Parse(args); err != nil {
		logger.Error("parsing flags", "err", err)
		return 2
	}
	if cfg.Input == "" {
		logger.Error("-input is required")
		return 2
	}
	if cfg.Threshold == 0 {
		logger.Error("-threshold must be positive")
		return 2
	}

	serveMetrics(cfg.MetricsAddr)
	metrics := newBuildMetrics()

	liabilities, err := readLiabilities(cfg.Input)
	if err != nil {
		logger.Error("reading liabilities", "input", cfg.Input, "err", err)
		return 1
	}

	start := time.Now()
	tree, err := attestation.Build(cfg.BlockHeight, liabilities, cfg.Threshold)
	metrics.buildDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		logger.Error("building tree", "err", err)
		return 1
	}

	leaves := tree.Leaves()
	metrics.leafCount.Set(float64(len(leaves)))
	dummies := 0
	for _, l := range leaves {
		if l.Value == 0 {
			dummies++
		}
	}
	metrics.splitDummies.Set(float64(dummies))

	out := os.Stdout
	if cfg.Output != "" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			logger.Error("creating output file", "output", cfg.Output, "err", err)
			return 1
		}
		defer f.Close()
		out = f
	}
	if _, err := fmt.Fprintf(out, "block_height:%d\n", cfg.BlockHeight); err != nil {
		logger.Error("writing output", "err", err)
		return 1
	}
	if err := tree.Serialize(out); err != nil {
		logger.Error("serializing tree", "err", err)
		return 1
	}

	root, hasRoot, err := tree.Root()
	if err != nil {
		logger.Error("reading root", "err", err)
		return 1
	}
	if hasRoot {
		logger.Info("built tree", "leaves", len(leaves), "root_value", root.Value,
			"root_hash", crypto.HexEncodeLower(root.Hash[:]), "dummies", dummies)
	} else {
		logger.Info("built empty tree (no liabilities supplied)")
	}
	return 0
}

// readLiabilities reads a headerless CSV of account_id,account_subkey_hex,amount
// triples. This is the glue the specification calls out as external to the
// core: the core only ever consumes already-parsed Liability values.
func readLiabilities(path string) ([]pol.Liability, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 3
	r.TrimLeadingSpace = true

	var out []pol.Liability
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		accountID, err := strconv.ParseUint(rec[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: account_id %q: %v", pol.ErrInvalidInput, rec[0], err)
		}
		subkeyBytes, err := crypto.HexDecodeLower(rec[1])
		if err != nil {
			return nil, fmt.Errorf("%w: account_subkey %q: %v", pol.ErrInvalidInput, rec[1], err)
		}
		if len(subkeyBytes) != 32 {
			return nil, fmt.Errorf("%w: account_subkey must be 32 bytes, got %d", pol.ErrInvalidInput, len(subkeyBytes))
		}
		amount, err := strconv.ParseUint(rec[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: amount %q: %v", pol.ErrInvalidInput, rec[2], err)
		}
		var subkey [32]byte
		copy(subkey[:], subkeyBytes)
		out = append(out, pol.Liability{AccountID: accountID, AccountSubkey: subkey, Amount: amount})
	}
	return out, nil
}
