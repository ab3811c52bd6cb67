// Package hydration implements State Hydration (spec.md §4.1): pluggable
// sources (Archive/Live/BlobStore/LocalCache), a source policy, and the
// orchestration that assembles a complete ReplayState from a transaction
// digest. Grounded on the teacher's core/connection_pool.go for the
// retry/backoff idiom and core/ipfs.go for content-addressed storage.
package hydration

import (
	"context"

	"suireplay/types"
)

// Source is the capability set spec.md §4.1 requires of every hydration
// backend.
type Source interface {
	Name() string
	FetchTransaction(ctx context.Context, digest types.TransactionDigest) (types.FetchedTransaction, error)
	FetchObjectAtVersion(ctx context.Context, id types.ObjectID, version types.ObjectVersion) (types.VersionedObject, error)
	FetchPackageAtCheckpoint(ctx context.Context, addr types.AccountAddress, checkpoint uint64) (types.PackageData, error)
	FetchCheckpointBlob(ctx context.Context, checkpoint uint64) (CheckpointData, error)
}

// CheckpointData is a typed view of one checkpoint's contents, as
// delivered by a BlobStore source (spec.md §4.1 "Blob path").
type CheckpointData struct {
	Sequence    uint64
	EpochID     uint64
	TimestampMs uint64
	Transactions []CheckpointTransaction
}

// CheckpointTransaction is one transaction's footprint within a
// checkpoint: its effects, the input/output objects observed, and any
// package data embedded alongside it.
type CheckpointTransaction struct {
	Digest        types.TransactionDigest
	Transaction   types.FetchedTransaction
	InputObjects  []types.VersionedObject
	OutputObjects []types.VersionedObject
	Packages      []types.PackageData
}

// SourcePolicy selects which sources hydration consults and in what
// order (spec.md §4.1 "Source policy").
type SourcePolicy int

const (
	PolicyHybrid SourcePolicy = iota
	PolicyArchiveOnly
	PolicyLiveOnly
	PolicyBlobOnly
	PolicyLocalOnly
)

// SourceSet holds one instance of each backend kind; a policy selects
// which of these to try, and in which order.
type SourceSet struct {
	Archive   Source
	Live      Source
	BlobStore Source
	Local     Source
}

// Resolve returns the ordered list of sources policy should try.
func (s SourceSet) Resolve(policy SourcePolicy) []Source {
	var out []Source
	switch policy {
	case PolicyHybrid:
		out = append(out, s.Archive, s.Live)
	case PolicyArchiveOnly:
		out = append(out, s.Archive)
	case PolicyLiveOnly:
		out = append(out, s.Live)
	case PolicyBlobOnly:
		out = append(out, s.BlobStore)
	case PolicyLocalOnly:
		out = append(out, s.Local)
	}
	filtered := out[:0]
	for _, src := range out {
		if src != nil {
			filtered = append(filtered, src)
		}
	}
	return filtered
}
