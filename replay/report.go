package replay

import "suireplay/types"

// Stats accumulates the counters spec.md §6's ReplayReport.stats block
// requires.
type Stats struct {
	PatchedObjects      uint32
	PrefetchedChildren  uint32
	OnDemandChildren    uint32
	LinkageRedirects    uint32
	DetectedVersions    map[types.AccountAddress]uint64
}

// Comparison mirrors spec.md §6's ReplayReport.comparison block.
type Comparison struct {
	StatusParity    bool
	CreatedParity   bool
	MutatedParity   bool
	DeletedParity   bool
	GasDiff         GasDiff
	Discrepancies   []string
}

// GasDiff mirrors the vm package's comparison output; kept as a
// standalone type here so replay.Report does not force callers to
// import vm just to read a report.
type GasDiff struct {
	ComputationMatches bool
	StorageMatches     bool
	RebateMatches      bool
	Discrepancies      []string
}

// Report is the output of Replay, matching spec.md §6's ReplayReport
// data shape field-for-field.
type Report struct {
	LocalEffects types.TransactionEffects
	LocalSuccess bool
	LocalError   string
	Comparison   *Comparison
	Stats        Stats
}

// Summary condenses a Report into the handful of fields a caller
// actually prints, mirroring replay_support.rs's own summary type. It is
// a pure projection over Report, not a replacement for it.
type Summary struct {
	Success           bool
	GasUsed           uint64
	DiscrepancyCount  int
}

// Summarize projects r into a Summary.
func Summarize(r *Report) Summary {
	gas := r.LocalEffects.GasUsed
	s := Summary{
		Success: r.LocalSuccess,
		GasUsed: gas.ComputationCostBucketized + gas.StorageCost - gas.StorageRebate,
	}
	if r.Comparison != nil {
		s.DiscrepancyCount = len(r.Comparison.Discrepancies) + len(r.Comparison.GasDiff.Discrepancies)
	}
	return s
}
