package gas

// StorageRates are the per-byte costs the storage tracker applies,
// protocol-version-keyed in principle; a single rate set suffices for
// this core since the spec treats them as configuration, not an
// invariant (spec.md §4.5).
type StorageRates struct {
	ReadPerByte    uint64
	CreatePerByte  uint64
	MutatePerByte  uint64
	DeletePerByte  uint64
	RebateFraction float64 // fraction of a deleted object's prior storage cost refunded
}

func DefaultStorageRates() StorageRates {
	return StorageRates{
		ReadPerByte:    0,
		CreatePerByte:  76,
		MutatePerByte:  76,
		DeletePerByte:  0,
		RebateFraction: 0.99,
	}
}

// StorageSummary is the accumulated result of a StorageTracker's session.
type StorageSummary struct {
	ReadCost    uint64
	CreateCost  uint64
	MutateCost  uint64
	DeleteCost  uint64
	Rebate      uint64
}

func (s StorageSummary) TotalCost() uint64 {
	return s.ReadCost + s.CreateCost + s.MutateCost + s.DeleteCost
}

// StorageTracker accumulates per-operation storage costs during one
// transaction's execution (spec.md §4.5 "Storage tracker").
type StorageTracker struct {
	rates   StorageRates
	summary StorageSummary
}

func NewStorageTracker(rates StorageRates) *StorageTracker {
	return &StorageTracker{rates: rates}
}

func (t *StorageTracker) ChargeRead(bytes int) {
	t.summary.ReadCost += uint64(bytes) * t.rates.ReadPerByte
}

func (t *StorageTracker) ChargeCreate(bytes int) {
	t.summary.CreateCost += uint64(bytes) * t.rates.CreatePerByte
}

func (t *StorageTracker) ChargeMutate(oldBytes, newBytes int) {
	if newBytes > oldBytes {
		t.summary.MutateCost += uint64(newBytes-oldBytes) * t.rates.MutatePerByte
	}
}

// ChargeDelete records a deletion of an object of the given size. If
// previousStorageCost is non-nil, a rebate proportional to
// RebateFraction is credited against it (spec.md §4.5's "delete(size,
// previous_storage_cost?)").
func (t *StorageTracker) ChargeDelete(bytes int, previousStorageCost *uint64) {
	t.summary.DeleteCost += uint64(bytes) * t.rates.DeletePerByte
	if previousStorageCost != nil {
		t.summary.Rebate += uint64(float64(*previousStorageCost) * t.rates.RebateFraction)
	}
}

func (t *StorageTracker) Summary() StorageSummary { return t.summary }

func (t *StorageTracker) Reset() { t.summary = StorageSummary{} }
