// Package evidence builds and verifies tamper-evident bundles: a zip
// archive carrying the raw input, every intermediate artifact, the decision,
// and a Merkle-rooted manifest over all of them. Two builds from the same
// inputs produce byte-identical archives, so a bundle's digest is itself a
// stable identifier.
package evidence

import (
	"time"

	"github.com/google/uuid"

	"github.com/curelog/curelog/internal/integrity"
)

// FormatVersion is recorded in every manifest. A verifier refuses formats
// it does not implement rather than guessing.
const FormatVersion = "curelog/1"

// Archive member paths, in canonical order. The manifest covers every
// member except itself.
const (
	MemberRaw      = "raw/input.csv"
	MemberSeries   = "normalized/series.json"
	MemberSpec     = "spec/specification.json"
	MemberMetrics  = "metrics/result.json"
	MemberDecision = "decision/decision.json"
	MemberManifest = "manifest.json"
)

var memberOrder = []string{
	MemberRaw, MemberSeries, MemberSpec, MemberMetrics, MemberDecision,
}

// ManifestEntry describes one archive member.
type ManifestEntry struct {
	Path      string `json:"path"`
	Algorithm string `json:"algorithm"`
	Digest    string `json:"digest"`
	Size      int64  `json:"size"`
}

// Manifest is the bundle's integrity record. Entries appear in canonical
// path order, and RootHash is the Merkle root over their leaf hashes in
// that same order.
type Manifest struct {
	FormatVersion string          `json:"format_version"`
	BundleID      uuid.UUID       `json:"bundle_id"`
	CreatedAt     time.Time       `json:"created_at"`
	RootAlgorithm string          `json:"root_algorithm"`
	RootHash      string          `json:"root_hash"`
	Entries       []ManifestEntry `json:"entries"`
}

// buildManifest digests each member in canonical order and computes the
// Merkle root over the resulting leaves.
func buildManifest(id uuid.UUID, createdAt time.Time, alg string, members map[string][]byte) (*Manifest, error) {
	m := &Manifest{
		FormatVersion: FormatVersion,
		BundleID:      id,
		CreatedAt:     createdAt.UTC(),
		RootAlgorithm: integrity.RootAlgorithm,
	}

	leaves := make([]string, 0, len(memberOrder))
	for _, path := range memberOrder {
		data := members[path]
		digest, err := integrity.Digest(alg, data)
		if err != nil {
			return nil, err
		}
		size := int64(len(data))
		m.Entries = append(m.Entries, ManifestEntry{
			Path: path, Algorithm: alg, Digest: digest, Size: size,
		})
		leaves = append(leaves, integrity.LeafHash(alg, size, path, digest))
	}
	m.RootHash = integrity.BuildMerkleRoot(leaves)
	return m, nil
}
