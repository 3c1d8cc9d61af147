package recovery

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/RiverFinancial/proof-of-reserves/merkletree"
	"github.com/RiverFinancial/proof-of-reserves/pol"
)

// AttestationFile is a per-user download: the attestation's block_height
// plus the full level-ordered tree, as published for one account to verify
// against.
type AttestationFile struct {
	BlockHeight uint64
	Tree        *merkletree.Tree
}

// ParseAttestationFile reads the per-user file format: a single leading
// line "block_height:<N>", followed by the level-ordered serialization
// from package merkletree.
func ParseAttestationFile(r io.Reader) (*AttestationFile, error) {
	br := bufio.NewReader(r)
	headerLine, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: reading block_height header: %v", pol.ErrInvalidInput, err)
	}
	headerLine = strings.TrimSuffix(headerLine, "\n")
	const prefix = "block_height:"
	if !strings.HasPrefix(headerLine, prefix) {
		return nil, fmt.Errorf("%w: missing %q header", pol.ErrInvalidInput, prefix)
	}
	bh, err := strconv.ParseUint(strings.TrimPrefix(headerLine, prefix), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid block_height: %v", pol.ErrInvalidInput, err)
	}

	tree, err := merkletree.Parse(br)
	if err != nil {
		return nil, err
	}
	return &AttestationFile{BlockHeight: bh, Tree: tree}, nil
}
