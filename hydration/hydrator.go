package hydration

import (
	"context"
	"math"
	"time"

	"suireplay/historical"
	"suireplay/replayerr"
	"suireplay/resolver"
	"suireplay/types"
)

// maxDependencyRounds bounds the package dependency-closure loop
// (spec.md §4.1 "Dependency closure"): the resolver is asked for
// missing addresses, each is attempted, and the loop stops once the
// missing set stabilizes or this many rounds have run.
const maxDependencyRounds = 8

const maxTransportRetries = 3

// frameworkAddresses are seeded into the resolver before the dependency
// closure loop runs, per spec.md line 73's population order ("framework
// modules first, then packages from ReplayState, then linkage-upgrade
// redirections, then on-demand missing-dependency fetches"). A framework
// address that fails to fetch is never marked missing (spec.md §3.1:
// framework addresses never count as missing dependencies).
var frameworkAddresses = []types.AccountAddress{
	types.FrameworkStd, types.FrameworkSui, types.FrameworkSystem,
}

// Stats accumulates the counters spec.md §6 requires in a ReplayReport.
type Stats struct {
	PatchedObjects     int
	LinkageRedirects   int
	MissingDependencies int
}

// Hydrator assembles a ReplayState for one transaction digest by
// consulting SourceSet in the order Policy prescribes, resolving the
// package dependency closure via Resolver, and optionally patching
// stale-layout objects via Patcher. Grounded on the teacher's
// core/connection_pool.go retry/backoff idiom.
type Hydrator struct {
	Sources  SourceSet
	Policy   SourcePolicy
	Resolver *resolver.Resolver
	Patcher  *historical.Patcher
	Cache    *LocalCache
}

func NewHydrator(sources SourceSet, policy SourcePolicy, res *resolver.Resolver) *Hydrator {
	return &Hydrator{Sources: sources, Policy: policy, Resolver: res}
}

// Hydrate builds a complete ReplayState for digest: the transaction
// itself, every object its inputs reference, every package its MoveCall
// commands target (transitively closed over Linkage/Dependencies), and
// patches any object whose on-disk layout predates its declared version.
func (h *Hydrator) Hydrate(ctx context.Context, digest types.TransactionDigest) (*types.ReplayState, Stats, error) {
	var stats Stats

	tx, err := h.fetchTransaction(ctx, digest)
	if err != nil {
		return nil, stats, err
	}
	state := types.NewReplayState(tx)
	if tx.Checkpoint != nil {
		state.Checkpoint = tx.Checkpoint
	}

	if err := h.hydrateInputObjects(ctx, state, &stats); err != nil {
		return nil, stats, err
	}
	if err := h.hydratePackages(ctx, state, &stats); err != nil {
		return nil, stats, err
	}

	stats.LinkageRedirects = h.Resolver.LinkageRedirectCount()
	stats.MissingDependencies = len(h.Resolver.MissingDependencies())
	return state, stats, nil
}

func (h *Hydrator) fetchTransaction(ctx context.Context, digest types.TransactionDigest) (types.FetchedTransaction, error) {
	sources := h.Sources.Resolve(h.Policy)
	var lastErr error
	for _, src := range sources {
		tx, err := withRetry(ctx, func() (types.FetchedTransaction, error) {
			return src.FetchTransaction(ctx, digest)
		})
		if err == nil {
			return tx, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = &replayerr.NotFoundError{
			Ctx:    replayerr.Context{Component: "hydration", Operation: "fetch_transaction"},
			Digest: digest.String(),
		}
	}
	return types.FetchedTransaction{}, lastErr
}

func (h *Hydrator) hydrateInputObjects(ctx context.Context, state *types.ReplayState, stats *Stats) error {
	sources := h.Sources.Resolve(h.Policy)
	for _, in := range state.Transaction.Inputs {
		id, ok := in.ReferencedObjectID()
		if !ok {
			continue
		}
		version := in.Version
		if in.Kind == types.InputSharedObject {
			version = in.InitialSharedVersion
		}
		obj, err := h.fetchObject(ctx, sources, id, version)
		if err != nil {
			return &replayerr.HydrationIncompleteError{
				Ctx:     replayerr.Context{Component: "hydration", Operation: "fetch_object_at_version", Digest: state.Transaction.Digest.String()},
				ID:      id.Hex(),
				Version: uint64(version),
			}
		}
		if h.Patcher != nil {
			outcome, perr := h.Patcher.Patch(id.Hex(), obj.TypeTag, obj.BcsBytes, nil, uint64(version))
			if perr != nil {
				return perr
			}
			if !outcome.Skipped {
				obj.BcsBytes = outcome.Bytes
				stats.PatchedObjects++
			}
		}
		state.PutObject(obj)
		if h.Cache != nil {
			h.Cache.PutObject(id, version, obj)
		}
	}
	return nil
}

func (h *Hydrator) fetchObject(ctx context.Context, sources []Source, id types.ObjectID, version types.ObjectVersion) (types.VersionedObject, error) {
	if h.Cache != nil {
		if obj, err := h.Cache.FetchObjectAtVersion(ctx, id, version); err == nil {
			return obj, nil
		}
	}
	var lastErr error
	for _, src := range sources {
		obj, err := withRetry(ctx, func() (types.VersionedObject, error) {
			return src.FetchObjectAtVersion(ctx, id, version)
		})
		if err == nil {
			return obj, nil
		}
		lastErr = err
	}
	return types.VersionedObject{}, lastErr
}

// hydratePackages resolves every MoveCall/Publish/Upgrade package
// reference and closes over its dependency graph up to
// maxDependencyRounds, per spec.md §4.1 "Dependency closure".
func (h *Hydrator) hydratePackages(ctx context.Context, state *types.ReplayState, stats *Stats) error {
	sources := h.Sources.Resolve(h.Policy)
	checkpoint := uint64(0)
	if state.Checkpoint != nil {
		checkpoint = *state.Checkpoint
	}

	seen := map[types.AccountAddress]bool{}
	h.seedFrameworkPackages(ctx, state, sources, checkpoint, seen)

	frontier := directPackageReferences(state.Transaction)

	for round := 0; round < maxDependencyRounds && len(frontier) > 0; round++ {
		var next []types.AccountAddress
		for _, addr := range frontier {
			if seen[addr] {
				continue
			}
			seen[addr] = true
			pkg, err := h.fetchPackage(ctx, sources, addr, checkpoint)
			if err != nil {
				// Framework addresses are always pre-seeded above and so
				// never reach this branch via the seen-map check; this
				// guard is the same spec.md §3.1 rule applied defensively
				// to any framework address a caller's Source might still
				// surface through an unexpected path.
				if !addr.IsFramework() {
					h.Resolver.MarkMissing(addr)
				}
				continue
			}
			state.PutPackage(pkg)
			h.Resolver.RegisterPackage(pkg)
			if h.Cache != nil {
				h.Cache.PutPackage(addr, checkpoint, pkg)
			}
			for dep := range pkg.Linkage {
				if !seen[dep] {
					next = append(next, dep)
				}
			}
		}
		frontier = next
	}
	return nil
}

// seedFrameworkPackages loads the well-known framework addresses into
// state/the resolver ahead of the dependency closure loop, and marks them
// seen so the loop never re-fetches or marks-missing them regardless of
// whether this fetch succeeds.
func (h *Hydrator) seedFrameworkPackages(ctx context.Context, state *types.ReplayState, sources []Source, checkpoint uint64, seen map[types.AccountAddress]bool) {
	for _, addr := range frameworkAddresses {
		seen[addr] = true
		pkg, err := h.fetchPackage(ctx, sources, addr, checkpoint)
		if err != nil {
			continue
		}
		state.PutPackage(pkg)
		h.Resolver.RegisterPackage(pkg)
		if h.Cache != nil {
			h.Cache.PutPackage(addr, checkpoint, pkg)
		}
	}
}

func (h *Hydrator) fetchPackage(ctx context.Context, sources []Source, addr types.AccountAddress, checkpoint uint64) (types.PackageData, error) {
	if h.Cache != nil {
		if pkg, err := h.Cache.FetchPackageAtCheckpoint(ctx, addr, checkpoint); err == nil {
			return pkg, nil
		}
	}
	var lastErr error
	for _, src := range sources {
		pkg, err := withRetry(ctx, func() (types.PackageData, error) {
			return src.FetchPackageAtCheckpoint(ctx, addr, checkpoint)
		})
		if err == nil {
			return pkg, nil
		}
		lastErr = err
	}
	return types.PackageData{}, lastErr
}

func directPackageReferences(tx types.FetchedTransaction) []types.AccountAddress {
	var out []types.AccountAddress
	for _, cmd := range tx.Commands {
		switch cmd.Kind {
		case types.CmdMoveCall:
			out = append(out, cmd.Package)
		case types.CmdUpgrade:
			out = append(out, cmd.UpgradePkg)
			out = append(out, cmd.Dependencies...)
		case types.CmdPublish:
			out = append(out, cmd.Dependencies...)
		}
	}
	return out
}

// withRetry makes up to maxTransportRetries attempts at a transport call
// in total, with exponential backoff between them, retrying only when the
// returned error is
// Retryable; logical errors (NotFound, version mismatch) fail fast.
func withRetry[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt < maxTransportRetries; attempt++ {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		lastErr = err
		if !replayerr.IsRetryable(err) {
			return zero, err
		}
		backoff := time.Duration(math.Pow(2, float64(attempt))) * 50 * time.Millisecond
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return zero, lastErr
}
