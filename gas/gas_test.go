package gas

import "testing"

func TestBucketizeComputationZeroStaysZero(t *testing.T) {
	if got := BucketizeComputation(0, defaultMaxComputationBucket); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestBucketizeComputationRoundsUp(t *testing.T) {
	got := BucketizeComputation(1_200, defaultMaxComputationBucket)
	if got != 5_000 {
		t.Fatalf("expected rounding up to 5000, got %d", got)
	}
}

func TestBucketizeComputationClampsAtMax(t *testing.T) {
	got := BucketizeComputation(50_000_000, 1_000_000)
	if got != 1_000_000 {
		t.Fatalf("expected clamp at max bucket 1000000, got %d", got)
	}
}

func TestComputationMeterChargeAndOutOfGas(t *testing.T) {
	m := NewComputationMeter(100)
	if err := m.Charge(60); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Charge(60); err == nil {
		t.Fatal("expected out-of-gas error")
	}
}

func TestUnmeteredMeterNeverFails(t *testing.T) {
	m := NewUnmeteredComputationMeter()
	if err := m.Charge(1 << 40); err != nil {
		t.Fatalf("unmetered meter must never fail, got %v", err)
	}
	if m.IsMetered() {
		t.Fatal("expected unmetered meter to report IsMetered()==false")
	}
}

func TestStorageTrackerMutateOnlyChargesGrowth(t *testing.T) {
	st := NewStorageTracker(DefaultStorageRates())
	st.ChargeMutate(100, 50) // shrink: no charge
	if st.Summary().MutateCost != 0 {
		t.Fatalf("expected no mutate charge on shrink, got %+v", st.Summary())
	}
	st.ChargeMutate(50, 100) // growth of 50 bytes
	if st.Summary().MutateCost == 0 {
		t.Fatal("expected mutate charge on growth")
	}
}

func TestStorageTrackerDeleteRebate(t *testing.T) {
	st := NewStorageTracker(DefaultStorageRates())
	prior := uint64(1000)
	st.ChargeDelete(10, &prior)
	if st.Summary().Rebate == 0 {
		t.Fatal("expected non-zero rebate")
	}
}

func TestCostTablesFallsBackToDefaults(t *testing.T) {
	ct := NewCostTables()
	cost := ct.Lookup(999, "object::borrow_uid")
	if cost.Base != defaultAddressObjectBase {
		t.Fatalf("expected default base %d, got %+v", defaultAddressObjectBase, cost)
	}
}

func TestCostTablesVersionOverride(t *testing.T) {
	ct := NewCostTables()
	ct.RegisterVersion(68, NativeCostTable{"object::borrow_uid": {Base: 999}})
	if got := ct.Lookup(68, "object::borrow_uid").Base; got != 999 {
		t.Fatalf("expected version override 999, got %d", got)
	}
	if got := ct.Lookup(69, "object::borrow_uid").Base; got != defaultAddressObjectBase {
		t.Fatalf("expected default for a different version, got %d", got)
	}
}

func TestChargerSumOfCommandChargesEqualsPreBucketComputation(t *testing.T) {
	costs := NewCostTables()
	c := NewCharger(1_000_000, 1000, 1000, 68, costs)
	perCommand := []uint64{0, 0, 0}
	for i := range perCommand {
		before := c.Meter().Consumed()
		if err := c.ChargeNative("object::borrow_uid", 0, 0); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		perCommand[i] = c.Meter().Consumed() - before
	}
	var sum uint64
	for _, v := range perCommand {
		sum += v
	}
	summary := c.Finalize()
	if sum != summary.ComputationCostRaw {
		t.Fatalf("sum(%d) != pre-bucket computation cost(%d)", sum, summary.ComputationCostRaw)
	}
}

func TestUnmeteredChargerDisablesBucketization(t *testing.T) {
	costs := NewCostTables()
	c := NewUnmeteredCharger(68, costs)
	if err := c.ChargeNative("object::borrow_uid", 0, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	summary := c.Finalize()
	if summary.ComputationCostBucketized != summary.ComputationCostRaw {
		t.Fatalf("expected bucketization disabled under unmetered mode, got %+v", summary)
	}
}
