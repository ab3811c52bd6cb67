package vm

import (
	"context"
	"testing"

	"suireplay/gas"
	"suireplay/types"
)

func objID(b byte) types.ObjectID {
	var id types.ObjectID
	id[31] = b
	return id
}

func TestObjectRuntimeAddAndExists(t *testing.T) {
	rt := NewObjectRuntime()
	parent, child := objID(1), objID(2)
	if rt.ChildObjectExists(parent, child) {
		t.Fatal("expected no child before add")
	}
	if _, ok := rt.AddChildObject(parent, child, []byte{1, 2, 3}, "T"); !ok {
		t.Fatal("expected add to succeed")
	}
	if !rt.ChildObjectExistsWithType(parent, child, "T") {
		t.Fatal("expected type match")
	}
	if rt.ChildObjectExistsWithType(parent, child, "Other") {
		t.Fatal("expected type mismatch to report false")
	}
}

func TestObjectRuntimeAddDuplicateFails(t *testing.T) {
	rt := NewObjectRuntime()
	parent, child := objID(1), objID(2)
	rt.AddChildObject(parent, child, []byte{1}, "T")
	code, ok := rt.AddChildObject(parent, child, []byte{2}, "T")
	if ok || code != ErrFieldAlreadyExists {
		t.Fatalf("expected duplicate add to fail with code %d, got ok=%v code=%d", ErrFieldAlreadyExists, ok, code)
	}
}

func TestObjectRuntimeBorrowMissingAndTypeMismatch(t *testing.T) {
	rt := NewObjectRuntime()
	parent, child := objID(1), objID(2)
	if _, code, ok := rt.BorrowChildObject(parent, child, "T"); ok || code != ErrFieldDoesNotExist {
		t.Fatalf("expected missing borrow to fail with %d, got ok=%v code=%d", ErrFieldDoesNotExist, ok, code)
	}
	rt.AddChildObject(parent, child, []byte{9}, "T")
	if _, code, ok := rt.BorrowChildObject(parent, child, "Wrong"); ok || code != ErrFieldTypeMismatch {
		t.Fatalf("expected type mismatch, got ok=%v code=%d", ok, code)
	}
	value, _, ok := rt.BorrowChildObject(parent, child, "T")
	if !ok || value[0] != 9 {
		t.Fatalf("expected successful borrow, got value=%v ok=%v", value, ok)
	}
}

func TestObjectRuntimeRemoveThenMissing(t *testing.T) {
	rt := NewObjectRuntime()
	parent, child := objID(1), objID(2)
	rt.AddChildObject(parent, child, []byte{9}, "T")
	if _, _, ok := rt.RemoveChildObject(parent, child, "T"); !ok {
		t.Fatal("expected remove to succeed")
	}
	if rt.ChildObjectExists(parent, child) {
		t.Fatal("expected child gone after remove")
	}
	if _, code, ok := rt.RemoveChildObject(parent, child, "T"); ok || code != ErrFieldDoesNotExist {
		t.Fatal("expected second remove to fail")
	}
}

func TestValidateCommandGraphInputOutOfBounds(t *testing.T) {
	inputs := []types.TransactionInput{{Kind: types.InputPure, PureBytes: []byte{1}}}
	commands := []types.PtbCommand{{
		Kind:      types.CmdMoveCall,
		Arguments: []types.PtbArgument{{Kind: types.ArgInput, InputIndex: 5}},
	}}
	if err := ValidateCommandGraph(inputs, commands); err == nil {
		t.Fatal("expected out-of-bounds input index to fail validation")
	}
}

func TestValidateCommandGraphResultMustBeEarlier(t *testing.T) {
	inputs := []types.TransactionInput{}
	commands := []types.PtbCommand{
		{Kind: types.CmdMoveCall, Arguments: []types.PtbArgument{{Kind: types.ArgResult, ResultIndex: 0}}},
	}
	if err := ValidateCommandGraph(inputs, commands); err == nil {
		t.Fatal("expected command 0 referencing Result{0} (itself) to fail validation")
	}
}

func TestValidateCommandGraphValidChain(t *testing.T) {
	inputs := []types.TransactionInput{{Kind: types.InputPure, PureBytes: []byte{1}}}
	commands := []types.PtbCommand{
		{Kind: types.CmdMoveCall, Arguments: []types.PtbArgument{{Kind: types.ArgInput, InputIndex: 0}}},
		{Kind: types.CmdMoveCall, Arguments: []types.PtbArgument{{Kind: types.ArgResult, ResultIndex: 0}}},
	}
	if err := ValidateCommandGraph(inputs, commands); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

type fakeInvoker struct {
	rets [][]byte
	err  error
}

func (f *fakeInvoker) InvokeMoveCall(_ context.Context, _ types.AccountAddress, _, _ string, _ []string, _ [][]byte) ([][]byte, error) {
	return f.rets, f.err
}

func TestExecutorRunsMoveCallAndFinalizesGas(t *testing.T) {
	state := types.NewReplayState(types.FetchedTransaction{
		Inputs: []types.TransactionInput{{Kind: types.InputPure, PureBytes: []byte{1, 2}}},
		Commands: []types.PtbCommand{
			{Kind: types.CmdMoveCall, Module: "m", Function: "f", Arguments: []types.PtbArgument{{Kind: types.ArgInput, InputIndex: 0}}},
		},
	})
	charger := gas.NewCharger(1_000_000, 1000, 1000, 68, gas.NewCostTables())
	ec := &ExecutionContext{
		State:   state,
		Runtime: NewObjectRuntime(),
		Charger: charger,
		Invoker: &fakeInvoker{rets: [][]byte{{7}}},
		Sim:     DefaultSimulationConfig(),
	}
	effects, err := NewExecutor().Execute(context.Background(), ec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !effects.Success {
		t.Fatalf("expected success, got error: %s", effects.Error)
	}
	if len(effects.ReturnValuesPerCommand) != 1 || effects.ReturnValuesPerCommand[0][0][0] != 7 {
		t.Fatalf("unexpected return values: %+v", effects.ReturnValuesPerCommand)
	}
	if effects.GasUsed.ComputationCostRaw == 0 {
		t.Fatal("expected non-zero computation cost charged for the move call")
	}
}

func TestExecutorResolvesObjectInputFromHarnessStore(t *testing.T) {
	coinID := objID(9)
	state := types.NewReplayState(types.FetchedTransaction{
		Inputs: []types.TransactionInput{{Kind: types.InputObject, ObjectID: coinID, Version: 3}},
		Commands: []types.PtbCommand{
			{Kind: types.CmdMoveCall, Module: "transfer", Function: "public_transfer", Arguments: []types.PtbArgument{{Kind: types.ArgInput, InputIndex: 0}}},
		},
	})
	state.PutObject(types.VersionedObject{ID: coinID, Version: 3, TypeTag: "0x2::coin::Coin<0x2::sui::SUI>", BcsBytes: []byte{1, 2, 3, 4}})

	invoker := &capturingInvoker{}
	charger := gas.NewCharger(1_000_000, 1000, 1000, 68, gas.NewCostTables())
	ec := &ExecutionContext{
		State:   state,
		Runtime: NewObjectRuntime(),
		Charger: charger,
		Invoker: invoker,
		Sim:     DefaultSimulationConfig(),
	}
	effects, err := NewExecutor().Execute(context.Background(), ec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !effects.Success {
		t.Fatalf("expected success, got error: %s", effects.Error)
	}
	if len(invoker.gotArgs) != 1 || string(invoker.gotArgs[0]) != string([]byte{1, 2, 3, 4}) {
		t.Fatalf("expected object input resolved to its BcsBytes, got %v", invoker.gotArgs)
	}
}

type capturingInvoker struct {
	gotArgs [][]byte
}

func (c *capturingInvoker) InvokeMoveCall(_ context.Context, _ types.AccountAddress, _, _ string, _ []string, args [][]byte) ([][]byte, error) {
	c.gotArgs = args
	return nil, nil
}

func TestExecutorUnwindsOnFailure(t *testing.T) {
	state := types.NewReplayState(types.FetchedTransaction{
		Inputs: []types.TransactionInput{{Kind: types.InputPure, PureBytes: []byte{1}}},
		Commands: []types.PtbCommand{
			{Kind: types.CmdMoveCall, Arguments: []types.PtbArgument{{Kind: types.ArgInput, InputIndex: 0}}},
		},
	})
	charger := gas.NewCharger(1_000_000, 1000, 1000, 68, gas.NewCostTables())
	ec := &ExecutionContext{
		State:   state,
		Runtime: NewObjectRuntime(),
		Charger: charger,
		Invoker: &fakeInvoker{err: errBoom},
		Sim:     DefaultSimulationConfig(),
	}
	effects, err := NewExecutor().Execute(context.Background(), ec)
	if err != nil {
		t.Fatalf("Execute itself should not error, got %v", err)
	}
	if effects.Success {
		t.Fatal("expected failed effects on command error")
	}
	if effects.GasUsed.ComputationCostRaw == 0 {
		t.Fatal("expected gas charged up to the failure point to still be reported")
	}
}

var errBoom = fakeErr("boom")

type fakeErr string

func (e fakeErr) Error() string { return string(e) }

func TestCompareDetectsMismatches(t *testing.T) {
	local := types.TransactionEffects{
		Success: true,
		Created: []types.ObjectRef{{ID: objID(1)}},
		GasUsed: types.GasSummary{ComputationCostBucketized: 1000, StorageCost: 50},
	}
	remote := types.TransactionEffects{
		Success: true,
		Created: []types.ObjectRef{{ID: objID(2)}},
		GasUsed: types.GasSummary{ComputationCostBucketized: 2000, StorageCost: 50},
	}
	res := Compare(local, remote)
	if res.CreatedParity {
		t.Fatal("expected created set mismatch to be detected")
	}
	if res.Gas.ComputationMatches {
		t.Fatal("expected computation cost mismatch to be detected")
	}
	if res.Gas.StorageMatches != true {
		t.Fatal("expected storage cost to match")
	}
	if len(res.Discrepancies) == 0 {
		t.Fatal("expected enumerated discrepancies")
	}
}

func TestCompareExactMatch(t *testing.T) {
	eff := types.TransactionEffects{
		Success: true,
		Created: []types.ObjectRef{{ID: objID(1)}},
		GasUsed: types.GasSummary{ComputationCostBucketized: 1000, StorageCost: 50, StorageRebate: 10},
	}
	res := Compare(eff, eff)
	if !res.StatusParity || !res.CreatedParity || !res.Gas.ComputationMatches {
		t.Fatalf("expected full parity comparing effects against themselves: %+v", res)
	}
	if len(res.Discrepancies) != 0 {
		t.Fatalf("expected no discrepancies, got %v", res.Discrepancies)
	}
}
