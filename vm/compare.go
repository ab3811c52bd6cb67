package vm

import (
	"fmt"

	"suireplay/types"
)

// GasDiff is the field-by-field comparison of a local and a remote
// GasSummary (spec.md §4.5 "Effects comparison").
type GasDiff struct {
	ComputationMatches bool
	StorageMatches     bool
	RebateMatches      bool
	Discrepancies      []string
}

// ComparisonResult is the diff between locally produced effects and
// on-chain effects fetched during hydration.
type ComparisonResult struct {
	StatusParity   bool
	CreatedParity  bool
	MutatedParity  bool
	DeletedParity  bool
	Gas            GasDiff
	Discrepancies  []string
}

// Compare diffs local against remote per spec.md §4.5: status parity,
// created/mutated/deleted set equivalence (as multisets of ids), and
// gas-summary field-by-field equality subject to a tolerance policy
// (exact identifiers, bucketized computation, exact storage counters).
// Discrepancies are enumerated, never collapsed into a single boolean.
func Compare(local, remote types.TransactionEffects) ComparisonResult {
	var discrepancies []string

	statusParity := local.Success == remote.Success
	if !statusParity {
		discrepancies = append(discrepancies, fmt.Sprintf("status mismatch: local=%v remote=%v", local.Success, remote.Success))
	}

	createdParity, d := compareIDMultisets("created", local.CreatedIDs(), remote.CreatedIDs())
	discrepancies = append(discrepancies, d...)
	mutatedParity, d := compareIDMultisets("mutated", local.MutatedIDs(), remote.MutatedIDs())
	discrepancies = append(discrepancies, d...)
	deletedParity, d := compareIDMultisets("deleted", local.DeletedIDs(), remote.DeletedIDs())
	discrepancies = append(discrepancies, d...)

	gasDiff, d := compareGas(local.GasUsed, remote.GasUsed)
	discrepancies = append(discrepancies, d...)

	return ComparisonResult{
		StatusParity:  statusParity,
		CreatedParity: createdParity,
		MutatedParity: mutatedParity,
		DeletedParity: deletedParity,
		Gas:           gasDiff,
		Discrepancies: discrepancies,
	}
}

func compareIDMultisets(label string, local, remote []types.ObjectID) (bool, []string) {
	lc := counts(local)
	rc := counts(remote)
	var discrepancies []string
	for id, n := range lc {
		if rc[id] != n {
			discrepancies = append(discrepancies, fmt.Sprintf("%s set mismatch: id %s local_count=%d remote_count=%d", label, id.Hex(), n, rc[id]))
		}
	}
	for id, n := range rc {
		if lc[id] != n {
			if _, seen := lc[id]; seen {
				continue // already reported above
			}
			discrepancies = append(discrepancies, fmt.Sprintf("%s set mismatch: id %s local_count=0 remote_count=%d", label, id.Hex(), n))
		}
	}
	return len(discrepancies) == 0, discrepancies
}

func counts(ids []types.ObjectID) map[types.ObjectID]int {
	m := make(map[types.ObjectID]int, len(ids))
	for _, id := range ids {
		m[id]++
	}
	return m
}

func compareGas(local, remote types.GasSummary) (GasDiff, []string) {
	var discrepancies []string
	computationMatches := local.ComputationCostBucketized == remote.ComputationCostBucketized
	if !computationMatches {
		discrepancies = append(discrepancies, fmt.Sprintf("computation cost mismatch: local=%d remote=%d", local.ComputationCostBucketized, remote.ComputationCostBucketized))
	}
	storageMatches := local.StorageCost == remote.StorageCost
	if !storageMatches {
		discrepancies = append(discrepancies, fmt.Sprintf("storage cost mismatch: local=%d remote=%d", local.StorageCost, remote.StorageCost))
	}
	rebateMatches := local.StorageRebate == remote.StorageRebate
	if !rebateMatches {
		discrepancies = append(discrepancies, fmt.Sprintf("storage rebate mismatch: local=%d remote=%d", local.StorageRebate, remote.StorageRebate))
	}
	return GasDiff{
		ComputationMatches: computationMatches,
		StorageMatches:     storageMatches,
		RebateMatches:      rebateMatches,
		Discrepancies:      discrepancies,
	}, discrepancies
}
