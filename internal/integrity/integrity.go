// Package integrity provides tamper-evident hashing and Merkle tree
// construction for evidence bundles. All functions are pure and
// deterministic.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"golang.org/x/crypto/blake2b"
)

// RootAlgorithm names the bundle root construction. It is recorded in every
// manifest so a verifier can refuse constructions it does not implement.
const RootAlgorithm = "sha256-merkle/v1"

// Supported per-file digest algorithms.
const (
	AlgSHA256  = "sha256"
	AlgBLAKE2b = "blake2b-256"
)

// Digest returns the hex digest of data under the named algorithm.
func Digest(alg string, data []byte) (string, error) {
	switch alg {
	case AlgSHA256:
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:]), nil
	case AlgBLAKE2b:
		sum := blake2b.Sum256(data)
		return hex.EncodeToString(sum[:]), nil
	}
	return "", fmt.Errorf("integrity: unsupported digest algorithm %q", alg)
}

// LeafHash produces the Merkle leaf for one bundle member. The leaf binds
// the member's path, size, digest algorithm, and digest; the newline keeps
// the variable-length path from colliding with the digest field.
func LeafHash(alg string, size int64, path, digest string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s %d %s\n%s", alg, size, path, digest)))
	return hex.EncodeToString(sum[:])
}

// hashPair produces SHA-256(0x01 || a || b) as a hex string. The 0x01
// prefix is a domain separator for internal nodes (per RFC 6962), so an
// internal node hash can never collide with a leaf hash.
func hashPair(a, b string) string {
	h := sha256.New()
	h.Write([]byte{0x01}) // internal node domain separator
	h.Write([]byte(a))
	h.Write([]byte(b))
	return hex.EncodeToString(h.Sum(nil))
}

// BuildMerkleRoot constructs a Merkle tree from leaf hashes and returns the
// root. Leaves must already be in canonical order; SortedLeaves exists for
// callers that hold an unordered set. An empty input yields an empty root,
// a single leaf is its own root, and an odd node at any level is hashed
// with itself for structural binding.
func BuildMerkleRoot(leaves []string) string {
	if len(leaves) == 0 {
		return ""
	}
	if len(leaves) == 1 {
		return leaves[0]
	}

	level := make([]string, len(leaves))
	copy(level, leaves)

	for len(level) > 1 {
		var next []string
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, hashPair(level[i], level[i+1]))
			} else {
				next = append(next, hashPair(level[i], level[i]))
			}
		}
		level = next
	}
	return level[0]
}

// SortedLeaves returns a lexicographically sorted copy of leaves.
func SortedLeaves(leaves []string) []string {
	out := make([]string, len(leaves))
	copy(out, leaves)
	sort.Strings(out)
	return out
}
