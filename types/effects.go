package types

// Event is a Move event emitted during execution.
type Event struct {
	PackageID AccountAddress
	Module    string
	EventType string
	Sender    AccountAddress
	BcsBytes  []byte
}

// ObjectRef identifies one object at one version, as recorded in effects.
type ObjectRef struct {
	ID      ObjectID
	Version ObjectVersion
	Digest  ObjectDigest
}

// TransactionEffects is the result of executing (or replaying) a
// transaction: the object-level side effects, emitted events, gas used,
// and per-command return values.
type TransactionEffects struct {
	Success  bool
	Error    string
	GasUsed  GasSummary
	Created  []ObjectRef
	Mutated  []ObjectRef
	Deleted  []ObjectRef
	Wrapped  []ObjectRef
	Unwrapped []ObjectRef
	Events   []Event

	// ReturnValuesPerCommand holds, for each command in order, the raw
	// BCS-encoded return values it produced (empty slice for commands
	// that return nothing).
	ReturnValuesPerCommand [][][]byte
}

// GasSummary is the finalized gas report for one execution, produced by
// the gas charger at the end of a replay.
type GasSummary struct {
	ComputationCostRaw        uint64
	ComputationCostBucketized uint64
	StorageCost                uint64
	StorageRebate              uint64
	NonRefundableFee           uint64
	GasPrice                   uint64
	ReferenceGasPrice          uint64
	ModelVersion               uint32
}

// CreatedIDs, MutatedIDs and DeletedIDs return the ids of the created,
// mutated and deleted objects, used by effects comparison to build
// multiset equivalence checks.
func (e TransactionEffects) CreatedIDs() []ObjectID  { return idsOf(e.Created) }
func (e TransactionEffects) MutatedIDs() []ObjectID  { return idsOf(e.Mutated) }
func (e TransactionEffects) DeletedIDs() []ObjectID  { return idsOf(e.Deleted) }

func idsOf(refs []ObjectRef) []ObjectID {
	out := make([]ObjectID, len(refs))
	for i, r := range refs {
		out[i] = r.ID
	}
	return out
}
