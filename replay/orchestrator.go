package replay

import (
	"context"
	"fmt"

	"suireplay/dynfield"
	"suireplay/gas"
	"suireplay/historical"
	"suireplay/hydration"
	"suireplay/resolver"
	"suireplay/types"
	"suireplay/vm"
)

// Orchestrator wires the six replay stages spec.md describes end to end:
// hydrate, resolve, patch, prefetch, execute, compare. Each stage's
// output feeds the next; failures short-circuit per spec.md §7.
type Orchestrator struct {
	Sources    hydration.SourceSet
	Resolver   *resolver.Resolver
	Patcher    *historical.Patcher
	Cache      *hydration.LocalCache
	Lister     dynfield.FieldLister
	Upstreams  []dynfield.UpstreamSource
	Invoker    vm.MoveInvoker
	CostTables *gas.CostTables
}

func NewOrchestrator(sources hydration.SourceSet, res *resolver.Resolver, invoker vm.MoveInvoker) *Orchestrator {
	return &Orchestrator{
		Sources:    sources,
		Resolver:   res,
		Invoker:    invoker,
		CostTables: gas.NewCostTables(),
	}
}

// Replay runs one transaction end to end, per the request's options.
func (o *Orchestrator) Replay(ctx context.Context, req Request) (*Report, error) {
	digest, err := types.ParseTransactionDigest(req.Digest)
	if err != nil {
		return nil, err
	}

	// Stage 1: hydrate.
	hydrator := hydration.NewHydrator(o.Sources, req.SourcePolicy, o.Resolver)
	hydrator.Patcher = o.Patcher
	hydrator.Cache = o.Cache
	state, hstats, err := hydrator.Hydrate(ctx, digest)
	if err != nil {
		return nil, fmt.Errorf("replay: hydrate: %w", err)
	}

	// Stage 2: resolve is folded into hydration's package closure above;
	// the resolver is now primed with every package this transaction's
	// MoveCall/Publish/Upgrade commands reach.

	// Stage 3: patch already ran per-object inside hydrateInputObjects
	// when o.Patcher is configured; hstats.PatchedObjects reflects it.

	// Stage 4: prefetch dynamic fields rooted at every hydrated object,
	// when a field lister is configured and the request opts in.
	fetcher := dynfield.NewChildFetcher(o.Resolver, dynfield.NewPhantomSynthesizer())
	fetcher.Upstreams = o.Upstreams
	var prefetchedChildren int
	// FetchMinimal skips the eager walk entirely, relying solely on the
	// on-demand fetcher during execution; FetchFull and FetchPrefetchOnly
	// both run it.
	if req.Prefetch.Enabled && o.Lister != nil && req.FetchStrategy != FetchMinimal {
		prefetcher := dynfield.NewPrefetcher(o.Lister, func(ctx context.Context, id types.ObjectID) (dynfield.ChildEntry, error) {
			return fetchChildByID(ctx, o.Upstreams, id)
		})
		for id := range state.Objects {
			result, err := prefetcher.Walk(ctx, id, int(req.Prefetch.Depth), int(req.Prefetch.PerParentLimit))
			if err != nil {
				continue
			}
			fetcher.SeedFromPrefetch(result)
			prefetchedChildren += result.FetchedCount
		}
	}

	if req.FetchStrategy == FetchPrefetchOnly {
		return &Report{
			Stats: Stats{
				PatchedObjects:     uint32(hstats.PatchedObjects),
				PrefetchedChildren: uint32(prefetchedChildren),
				LinkageRedirects:   uint32(hstats.LinkageRedirects),
				DetectedVersions:   map[types.AccountAddress]uint64{},
			},
		}, nil
	}

	// Stage 5: execute.
	protocolVersion := state.EffectiveProtocolVersion()
	referenceGasPrice := state.Transaction.GasPrice
	if state.ReferenceGasPrice != nil {
		referenceGasPrice = *state.ReferenceGasPrice
	}
	charger := gas.NewCharger(state.Transaction.GasBudget, state.Transaction.GasPrice, referenceGasPrice, protocolVersion, o.CostTables)
	ec := &vm.ExecutionContext{
		State:   state,
		Runtime: vm.NewObjectRuntime(),
		Charger: charger,
		Invoker: o.Invoker,
		Sim:     vm.DefaultSimulationConfig(),
	}
	effects, err := vm.NewExecutor().Execute(ctx, ec)
	if err != nil {
		return nil, fmt.Errorf("replay: execute: %w", err)
	}

	report := &Report{
		LocalEffects: effects,
		LocalSuccess: effects.Success,
		LocalError:   effects.Error,
		Stats: Stats{
			PatchedObjects:     uint32(hstats.PatchedObjects),
			PrefetchedChildren: uint32(prefetchedChildren),
			OnDemandChildren:   uint32(fetcher.Stats().UpstreamHits + fetcher.Stats().DerivedHits + fetcher.Stats().SelfHealed),
			LinkageRedirects: uint32(hstats.LinkageRedirects),
			// DetectedVersions is left empty here: populating it requires
			// running historical.DetectVersionConstants over each hydrated
			// package's bytecode, which is a separate, optional step a
			// caller wires in before Replay when it wants per-package
			// detected-version reporting.
			DetectedVersions: map[types.AccountAddress]uint64{},
		},
	}

	// Stage 6: compare against the remote effects fetched alongside the
	// transaction, when requested and available.
	if req.CompareEffects && state.Transaction.Effects != nil {
		cmp := vm.Compare(effects, *state.Transaction.Effects)
		report.Comparison = &Comparison{
			StatusParity:  cmp.StatusParity,
			CreatedParity: cmp.CreatedParity,
			MutatedParity: cmp.MutatedParity,
			DeletedParity: cmp.DeletedParity,
			GasDiff: GasDiff{
				ComputationMatches: cmp.Gas.ComputationMatches,
				StorageMatches:     cmp.Gas.StorageMatches,
				RebateMatches:      cmp.Gas.RebateMatches,
				Discrepancies:      cmp.Gas.Discrepancies,
			},
			Discrepancies: cmp.Discrepancies,
		}
	}

	return report, nil
}

// fetchChildByID tries each configured upstream in order for one
// prefetch candidate and returns the first success, as the on-demand
// fetcher's upstream fallback step does (spec.md §4.4.2 step 4), but
// without a maxLamportVersion constraint since the eager walk
// has no prior version expectation to validate against.
func fetchChildByID(ctx context.Context, upstreams []dynfield.UpstreamSource, id types.ObjectID) (dynfield.ChildEntry, error) {
	var lastErr error
	for _, up := range upstreams {
		entry, err := up.FetchChild(ctx, id, nil)
		if err == nil {
			return entry, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("replay: no upstream configured to fetch child %s", id.Hex())
	}
	return dynfield.ChildEntry{}, lastErr
}
