package gas

import "suireplay/types"

// defaultMaxComputationBucket is the ceiling BucketizeComputation clamps
// to when a caller hasn't configured a protocol-specific one.
const defaultMaxComputationBucket uint64 = 5_000_000

// Charger orchestrates the computation meter and storage tracker and
// produces a final GasSummary, mirroring original_source's
// AccurateGasCharger.
type Charger struct {
	meter   *ComputationMeter
	storage *StorageTracker
	costs   *CostTables

	protocolVersion      uint64
	gasPrice             uint64
	referenceGasPrice    uint64
	maxComputationBucket uint64
	bucketize            bool
	modelVersion         uint64
}

// NewCharger creates a metered charger for one transaction.
func NewCharger(budget, gasPrice, referenceGasPrice, protocolVersion uint64, costs *CostTables) *Charger {
	return &Charger{
		meter:                NewComputationMeter(budget),
		storage:              NewStorageTracker(DefaultStorageRates()),
		costs:                costs,
		protocolVersion:      protocolVersion,
		gasPrice:             gasPrice,
		referenceGasPrice:    referenceGasPrice,
		maxComputationBucket: defaultMaxComputationBucket,
		bucketize:            true,
		modelVersion:         protocolVersion,
	}
}

// NewUnmeteredCharger creates a charger for system transactions: no
// computation charge ever fails, and bucketization is disabled (spec.md
// §4.5: "unmetered mode disables it").
func NewUnmeteredCharger(protocolVersion uint64, costs *CostTables) *Charger {
	return &Charger{
		meter:                NewUnmeteredComputationMeter(),
		storage:              NewStorageTracker(DefaultStorageRates()),
		costs:                costs,
		protocolVersion:      protocolVersion,
		gasPrice:             1,
		referenceGasPrice:    1,
		maxComputationBucket: defaultMaxComputationBucket,
		bucketize:            false,
		modelVersion:         protocolVersion,
	}
}

func (c *Charger) Meter() *ComputationMeter     { return c.meter }
func (c *Charger) Storage() *StorageTracker     { return c.storage }
func (c *Charger) DisableBucketization()        { c.bucketize = false }
func (c *Charger) EnableBucketization()         { c.bucketize = true }
func (c *Charger) IsOutOfGas() bool             { return c.meter.IsMetered() && c.meter.Remaining() == 0 }

// ChargeNative charges the cost of invoking a native function, looked up
// from the charger's cost table for its protocol version.
func (c *Charger) ChargeNative(native string, bytes, items uint64) error {
	return c.meter.Charge(c.costs.Charge(c.protocolVersion, native, bytes, items))
}

// Finalize produces the transaction's GasSummary. Bucketization is
// applied to the computation cost unless disabled or running unmetered.
func (c *Charger) Finalize() types.GasSummary {
	raw := c.meter.Consumed()
	bucketized := raw
	if c.bucketize {
		bucketized = BucketizeComputation(raw, c.maxComputationBucket)
	}
	storageSummary := c.storage.Summary()
	storageCost := storageSummary.TotalCost()
	rebate := storageSummary.Rebate
	var nonRefundable uint64
	if storageCost > rebate {
		nonRefundable = storageCost - rebate
	}
	return types.GasSummary{
		ComputationCostRaw:        raw,
		ComputationCostBucketized: bucketized,
		StorageCost:               storageCost,
		StorageRebate:             rebate,
		NonRefundableFee:          nonRefundable,
		GasPrice:                  c.gasPrice,
		ReferenceGasPrice:         c.referenceGasPrice,
		ModelVersion:              uint32(c.modelVersion),
	}
}
