package replay

import (
	"context"
	"testing"

	"suireplay/hydration"
	"suireplay/resolver"
	"suireplay/types"
)

func addr(b byte) types.AccountAddress {
	var a types.AccountAddress
	a[31] = b
	return a
}

func digestBytes(b byte) types.TransactionDigest {
	var d types.TransactionDigest
	d[31] = b
	return d
}

type stubSource struct {
	tx types.FetchedTransaction
}

func (s *stubSource) Name() string { return "stub" }
func (s *stubSource) FetchTransaction(_ context.Context, _ types.TransactionDigest) (types.FetchedTransaction, error) {
	return s.tx, nil
}
func (s *stubSource) FetchObjectAtVersion(_ context.Context, id types.ObjectID, v types.ObjectVersion) (types.VersionedObject, error) {
	return types.VersionedObject{ID: id, Version: v, TypeTag: "0x2::coin::Coin", BcsBytes: []byte{1}}, nil
}
func (s *stubSource) FetchPackageAtCheckpoint(_ context.Context, a types.AccountAddress, _ uint64) (types.PackageData, error) {
	return types.PackageData{StorageID: a, RuntimeID: a, Version: 1}, nil
}
func (s *stubSource) FetchCheckpointBlob(_ context.Context, _ uint64) (hydration.CheckpointData, error) {
	return hydration.CheckpointData{}, nil
}

type stubInvoker struct{}

func (stubInvoker) InvokeMoveCall(_ context.Context, _ types.AccountAddress, _, _ string, _ []string, _ [][]byte) ([][]byte, error) {
	return [][]byte{{1}}, nil
}

func testTransaction(d types.TransactionDigest, pkg types.AccountAddress) types.FetchedTransaction {
	return types.FetchedTransaction{
		Digest:    d,
		Sender:    addr(99),
		GasBudget: 1_000_000,
		GasPrice:  1000,
		Inputs:    []types.TransactionInput{{Kind: types.InputPure, PureBytes: []byte{1}}},
		Commands: []types.PtbCommand{
			{Kind: types.CmdMoveCall, Package: pkg, Module: "m", Function: "f", Arguments: []types.PtbArgument{{Kind: types.ArgInput, InputIndex: 0}}},
		},
	}
}

func TestReplayProducesSuccessfulReport(t *testing.T) {
	d := digestBytes(1)
	pkg := addr(5)
	src := &stubSource{tx: testTransaction(d, pkg)}
	orch := NewOrchestrator(hydration.SourceSet{Archive: src}, resolver.New(16), stubInvoker{})

	req := DefaultRequest(d.String())
	req.SourcePolicy = hydration.PolicyArchiveOnly
	req.Prefetch.Enabled = false

	report, err := orch.Replay(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.LocalSuccess {
		t.Fatalf("expected success, got error: %s", report.LocalError)
	}
	if report.Stats.LinkageRedirects != 0 {
		t.Fatalf("expected no linkage redirects, got %d", report.Stats.LinkageRedirects)
	}
}

func TestSummarizeProjectsReport(t *testing.T) {
	d := digestBytes(1)
	pkg := addr(5)
	src := &stubSource{tx: testTransaction(d, pkg)}
	orch := NewOrchestrator(hydration.SourceSet{Archive: src}, resolver.New(16), stubInvoker{})

	req := DefaultRequest(d.String())
	req.SourcePolicy = hydration.PolicyArchiveOnly
	req.Prefetch.Enabled = false
	req.CompareEffects = false

	report, err := orch.Replay(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	summary := Summarize(report)
	if summary.Success != report.LocalSuccess {
		t.Fatalf("expected summary success to match report")
	}
	if summary.DiscrepancyCount != 0 {
		t.Fatalf("expected no discrepancies without a comparison, got %d", summary.DiscrepancyCount)
	}
}

func TestReplayRejectsMalformedDigest(t *testing.T) {
	orch := NewOrchestrator(hydration.SourceSet{}, resolver.New(16), stubInvoker{})
	_, err := orch.Replay(context.Background(), DefaultRequest("not-valid-base64!!"))
	if err == nil {
		t.Fatal("expected error for malformed digest")
	}
}

func TestRunBatchReplaysEveryDigest(t *testing.T) {
	pkg := addr(5)
	d1, d2 := digestBytes(1), digestBytes(2)
	src := &multiTxSource{
		byDigest: map[types.TransactionDigest]types.FetchedTransaction{
			d1: testTransaction(d1, pkg),
			d2: testTransaction(d2, pkg),
		},
	}
	orch := NewOrchestrator(hydration.SourceSet{Archive: src}, resolver.New(16), stubInvoker{})

	cfg := BatchConfig{
		Digests:     []string{d1.String(), d2.String()},
		Concurrency: 2,
	}
	cfg.RequestTemplate = DefaultRequest("")
	cfg.RequestTemplate.SourcePolicy = hydration.PolicyArchiveOnly
	cfg.RequestTemplate.Prefetch.Enabled = false

	results, err := orch.RunBatch(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Err != nil || r.Report == nil || !r.Report.LocalSuccess {
			t.Fatalf("expected successful replay for %s, got %+v", r.Digest, r)
		}
	}
}

type multiTxSource struct {
	byDigest map[types.TransactionDigest]types.FetchedTransaction
}

func (s *multiTxSource) Name() string { return "multi" }
func (s *multiTxSource) FetchTransaction(_ context.Context, d types.TransactionDigest) (types.FetchedTransaction, error) {
	return s.byDigest[d], nil
}
func (s *multiTxSource) FetchObjectAtVersion(_ context.Context, id types.ObjectID, v types.ObjectVersion) (types.VersionedObject, error) {
	return types.VersionedObject{ID: id, Version: v, TypeTag: "0x2::coin::Coin", BcsBytes: []byte{1}}, nil
}
func (s *multiTxSource) FetchPackageAtCheckpoint(_ context.Context, a types.AccountAddress, _ uint64) (types.PackageData, error) {
	return types.PackageData{StorageID: a, RuntimeID: a, Version: 1}, nil
}
func (s *multiTxSource) FetchCheckpointBlob(_ context.Context, _ uint64) (hydration.CheckpointData, error) {
	return hydration.CheckpointData{}, nil
}
