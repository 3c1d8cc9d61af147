// Package merkletree implements the Merkle sum tree at the heart of the
// proof-of-liabilities core: construction from a leaf level, root and leaf
// accessors, rebuild-and-compare verification, and the level-ordered text
// serialization published to users.
//
// A Tree is an ordered sequence of levels, root first. Level i has 2^i
// nodes for a complete tree of height h; the leaf level has 2^h nodes.
// Building is embarrassingly parallel per level (§5): the merges at one
// level are independent of one another, so Build fans them out across a
// worker pool while preserving left-to-right pairing.
package merkletree

import (
	"bufio"
	"fmt"
	"io"
	"math/bits"
	"runtime"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
	"golang.org/x/sync/errgroup"

	"github.com/RiverFinancial/proof-of-reserves/crypto"
	"github.com/RiverFinancial/proof-of-reserves/pol"
)

// Tree is an immutable Merkle sum tree: a slice of levels, level[0] being
// the root (a single node, or none for an empty tree) and the last level
// being the leaves.
type Tree struct {
	levels [][]pol.Node
}

// merge combines two sibling nodes into their parent: the parent's value is
// the sum of both children's values (computed via uint256 to make any
// overflow an explicit, caught condition rather than silent wraparound),
// and its hash binds both children's hashes and values together.
//
//	hash  = SHA256(A.hash || LE64(A.value) || B.hash || LE64(B.value))
//	value = A.value + B.value
func merge(a, b pol.Node) (pol.Node, error) {
	sum := new(uint256.Int).Add(uint256.NewInt(a.Value), uint256.NewInt(b.Value))
	if !sum.IsUint64() {
		return pol.Node{}, fmt.Errorf("%w: merged value overflows 64 bits", pol.ErrInvariant)
	}
	leA := crypto.LE64(a.Value)
	leB := crypto.LE64(b.Value)
	buf := make([]byte, 0, 32+8+32+8)
	buf = append(buf, a.Hash[:]...)
	buf = append(buf, leA[:]...)
	buf = append(buf, b.Hash[:]...)
	buf = append(buf, leB[:]...)
	h := crypto.SHA256(buf)
	return pol.Node{Hash: h, Value: sum.Uint64()}, nil
}

// Build constructs a tree from a leaf level. An empty leaf slice produces
// an empty tree. A leaf count that is not a power of two is a shape error.
func Build(leaves []pol.Node) (*Tree, error) {
	if len(leaves) == 0 {
		return &Tree{}, nil
	}
	if leaves == nil || !isPowerOfTwo(len(leaves)) {
		return nil, fmt.Errorf("%w: number of leaves is not a power of two", pol.ErrShape)
	}

	height := bits.Len(uint(len(leaves))) - 1
	levels := make([][]pol.Node, height+1)
	levels[height] = append([]pol.Node(nil), leaves...)

	for k := height; k > 0; k-- {
		parent, err := mergeLevel(levels[k])
		if err != nil {
			return nil, err
		}
		levels[k-1] = parent
	}

	// Reverse so levels[0] is the root.
	out := make([][]pol.Node, len(levels))
	for i, l := range levels {
		out[len(levels)-1-i] = l
	}
	return &Tree{levels: out}, nil
}

// mergeLevel merges pairs left-to-right, parallelizing across a worker pool
// while preserving pairing order: result[i] always comes from
// merge(level[2i], level[2i+1]) regardless of scheduling.
func mergeLevel(level []pol.Node) ([]pol.Node, error) {
	n := len(level) / 2
	out := make([]pol.Node, n)

	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers <= 1 || n < 64 {
		for i := 0; i < n; i++ {
			m, err := merge(level[2*i], level[2*i+1])
			if err != nil {
				return nil, err
			}
			out[i] = m
		}
		return out, nil
	}

	var g errgroup.Group
	chunk := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if start >= n {
			break
		}
		if end > n {
			end = n
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				m, err := merge(level[2*i], level[2*i+1])
				if err != nil {
					return err
				}
				out[i] = m
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Root returns the tree's single root node. It fails if the top level has
// more than one node (an incompletely merged tree) and returns ok=false,
// without error, for an empty tree (no root exists).
func (t *Tree) Root() (pol.Node, bool, error) {
	if len(t.levels) == 0 {
		return pol.Node{}, false, nil
	}
	top := t.levels[0]
	if len(top) != 1 {
		return pol.Node{}, false, fmt.Errorf("%w: top level has %d nodes, expected 1", pol.ErrShape, len(top))
	}
	return top[0], true, nil
}

// Leaves returns the tree's leaf level (the last level), or nil for an
// empty tree.
func (t *Tree) Leaves() []pol.Node {
	if len(t.levels) == 0 {
		return nil
	}
	return t.levels[len(t.levels)-1]
}

// Levels returns every level of the tree, root first.
func (t *Tree) Levels() [][]pol.Node {
	return t.levels
}

// Verify rebuilds the tree from its own leaf level and reports whether the
// rebuilt tree has the same number of levels and an equal root. An empty
// tree is trivially valid.
func (t *Tree) Verify() (bool, error) {
	leaves := t.Leaves()
	if len(leaves) == 0 && len(t.levels) == 0 {
		return true, nil
	}
	rebuilt, err := Build(leaves)
	if err != nil {
		return false, nil
	}
	if len(rebuilt.levels) != len(t.levels) {
		return false, nil
	}
	root, hasRoot, err := t.Root()
	if err != nil {
		return false, nil
	}
	rebuiltRoot, rebuiltHasRoot, err := rebuilt.Root()
	if err != nil {
		return false, nil
	}
	if hasRoot != rebuiltHasRoot {
		return false, nil
	}
	if !hasRoot {
		return true, nil
	}
	return root == rebuiltRoot, nil
}

// Serialize writes every level, top-to-bottom, one node per line as
// "<hex_hash>,<value>\n", with no header.
func (t *Tree) Serialize(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, level := range t.levels {
		for _, n := range level {
			if _, err := fmt.Fprintf(bw, "%s,%d\n", crypto.HexEncodeLower(n.Hash[:]), n.Value); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// Parse reads a level-ordered text serialization: 2^k consecutive lines
// form level k, starting at k=0 and doubling, until the input is
// exhausted. A parse error (malformed hex, unparseable integer, or fewer
// lines than a level requires) is fatal.
func Parse(r io.Reader) (*Tree, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var levels [][]pol.Node
	levelSize := 1
	for {
		level, eof, err := readLevel(sc, levelSize)
		if err != nil {
			return nil, err
		}
		if level == nil && eof {
			break
		}
		levels = append(levels, level)
		levelSize *= 2
	}
	return &Tree{levels: levels}, nil
}

// readLevel reads exactly n lines and parses them as nodes. If the stream
// is exhausted before any line of a new level is read, it returns
// (nil, true, nil) to signal clean end-of-input. Running out partway
// through a level is ErrIncompleteTree.
func readLevel(sc *bufio.Scanner, n int) ([]pol.Node, bool, error) {
	nodes := make([]pol.Node, 0, n)
	for i := 0; i < n; i++ {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return nil, false, err
			}
			if i == 0 {
				return nil, true, nil
			}
			return nil, false, fmt.Errorf("%w: expected %d lines, got %d", pol.ErrIncompleteTree, n, i)
		}
		node, err := parseLine(sc.Text())
		if err != nil {
			return nil, false, err
		}
		nodes = append(nodes, node)
	}
	return nodes, false, nil
}

func parseLine(line string) (pol.Node, error) {
	parts := strings.SplitN(line, ",", 2)
	if len(parts) != 2 {
		return pol.Node{}, fmt.Errorf("%w: malformed node line %q", pol.ErrInvalidInput, line)
	}
	hashBytes, err := crypto.HexDecodeLower(parts[0])
	if err != nil {
		return pol.Node{}, fmt.Errorf("%w: %v", pol.ErrInvalidInput, err)
	}
	if len(hashBytes) != crypto.HashSize {
		return pol.Node{}, fmt.Errorf("%w: hash must be %d bytes, got %d", pol.ErrInvalidInput, crypto.HashSize, len(hashBytes))
	}
	value, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return pol.Node{}, fmt.Errorf("%w: %v", pol.ErrInvalidInput, err)
	}
	var node pol.Node
	copy(node.Hash[:], hashBytes)
	node.Value = value
	return node, nil
}
