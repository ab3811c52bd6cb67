package dynfield

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"suireplay/replayerr"
	"suireplay/resolver"
	"suireplay/types"
)

// UpstreamSource is one of the fetcher's last-resort backends (spec.md
// §4.4.2 step 4: "gRPC, then GraphQL; whichever returns first wins").
type UpstreamSource interface {
	Name() string
	FetchChild(ctx context.Context, id types.ObjectID, maxLamportVersion *uint64) (ChildEntry, error)
}

// SelfHealFunc synthesizes a placeholder child when every other strategy
// misses (spec.md §4.4.2 step 5), shaped to match the expected type.
type SelfHealFunc func(id types.ObjectID, keyTypeTag string) (ChildEntry, bool)

// FetcherStats counts which strategy resolved each request, useful for
// replay.Report's prefetched_children/on_demand_children projections.
type FetcherStats struct {
	PrefetchedCacheHits int
	KeyCacheHits        int
	DerivedHits         int
	UpstreamHits        int
	SelfHealed          int
	Misses              int
}

// ChildFetcher implements the on-demand child fetcher capability
// registered on the VM harness (spec.md §4.4.2).
type ChildFetcher struct {
	Resolver   *resolver.Resolver
	Synth      *PhantomSynthesizer
	Upstreams  []UpstreamSource
	SelfHeal   SelfHealFunc

	prefetched map[types.ObjectID]ChildEntry
	keyCache   map[DiscoveryKey]types.ObjectID

	stats FetcherStats
}

func NewChildFetcher(res *resolver.Resolver, synth *PhantomSynthesizer) *ChildFetcher {
	return &ChildFetcher{
		Resolver:   res,
		Synth:      synth,
		prefetched: make(map[types.ObjectID]ChildEntry),
		keyCache:   make(map[DiscoveryKey]types.ObjectID),
	}
}

// SeedFromPrefetch loads a Prefetcher's result into the fetcher's caches.
func (f *ChildFetcher) SeedFromPrefetch(res PrefetchResult) {
	for id, entry := range res.Children {
		f.prefetched[id] = entry
	}
	for key, id := range res.KeyToChild {
		f.keyCache[key] = id
	}
}

func (f *ChildFetcher) Stats() FetcherStats { return f.stats }

// Fetch resolves the child of parent addressed by keyTypeTag/keyBytes,
// trying each strategy of spec.md §4.4.2 in order.
func (f *ChildFetcher) Fetch(ctx context.Context, parent types.ObjectID, keyTypeTag string, keyBytes []byte, maxLamportVersion *uint64) (ChildEntry, error) {
	rewrittenType := keyTypeTag
	if f.Resolver != nil {
		rewrittenType = f.Resolver.RewriteStructTag(keyTypeTag)
	}

	derivedID, canDerive := f.tryDerive(parent, rewrittenType)
	if canDerive {
		if entry, ok := f.prefetched[derivedID]; ok {
			f.stats.PrefetchedCacheHits++
			return entry, nil
		}
	}

	dk := DiscoveryKey{Parent: parent, KeyTypeTag: rewrittenType, KeyBCSBytes: string(keyBytes)}
	if id, ok := f.keyCache[dk]; ok {
		if entry, ok := f.prefetched[id]; ok {
			f.stats.KeyCacheHits++
			return entry, nil
		}
	}

	if canDerive {
		if entry, err := f.fetchUpstream(ctx, derivedID, maxLamportVersion); err == nil {
			f.stats.DerivedHits++
			return entry, nil
		}
	}

	if entry, err := f.fetchAnyUpstream(ctx, parent, maxLamportVersion); err == nil {
		f.stats.UpstreamHits++
		return entry, nil
	}

	if f.SelfHeal != nil {
		if entry, ok := f.SelfHeal(parent, rewrittenType); ok {
			f.stats.SelfHealed++
			return entry, nil
		}
	}

	f.stats.Misses++
	return ChildEntry{}, &replayerr.ChildNotFoundError{
		Ctx:     replayerr.Context{Component: "dynfield", Operation: "fetch"},
		Parent:  parent.Hex(),
		KeyType: rewrittenType,
	}
}

func (f *ChildFetcher) tryDerive(parent types.ObjectID, keyType string) (types.ObjectID, bool) {
	if f.Synth == nil || !f.Synth.IsPhantomKey(keyType) {
		return types.ObjectID{}, false
	}
	tt, err := ParseTypeTag(keyType)
	if err != nil {
		return types.ObjectID{}, false
	}
	return DeriveChildID(parent, tt, nil), true
}

// fetchUpstream queries every registered upstream concurrently for a
// specific child id and waits for all of them to return; the first
// success to arrive is used and the others are discarded (spec.md §4.4.2
// step 4). Responses whose version exceeds maxLamportVersion are rejected.
func (f *ChildFetcher) fetchUpstream(ctx context.Context, id types.ObjectID, maxLamportVersion *uint64) (ChildEntry, error) {
	if len(f.Upstreams) == 0 {
		return ChildEntry{}, errNoUpstream
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan ChildEntry, len(f.Upstreams))
	g, gctx := errgroup.WithContext(ctx)
	for _, up := range f.Upstreams {
		up := up
		g.Go(func() error {
			entry, err := up.FetchChild(gctx, id, maxLamportVersion)
			if err != nil {
				return nil // a miss from one upstream isn't fatal to the race
			}
			if maxLamportVersion != nil && uint64(entry.Version) > *maxLamportVersion {
				return nil
			}
			select {
			case results <- entry:
			default:
			}
			return nil
		})
	}
	_ = g.Wait()
	select {
	case entry := <-results:
		return entry, nil
	default:
		return ChildEntry{}, errNoUpstream
	}
}

// fetchAnyUpstream is used when derivation isn't possible but the caller
// still wants the best-effort upstream race against the raw parent id
// (covers the case where the requested child id is already known, e.g.
// the VM asked for a concrete id rather than a key).
func (f *ChildFetcher) fetchAnyUpstream(ctx context.Context, id types.ObjectID, maxLamportVersion *uint64) (ChildEntry, error) {
	return f.fetchUpstream(ctx, id, maxLamportVersion)
}

var errNoUpstream = noUpstreamError{}

type noUpstreamError struct{}

func (noUpstreamError) Error() string { return "dynfield: no upstream source configured or all missed" }

// trimTypeArgs strips generic parameters for callers that only need the
// base struct name. Nothing in this package calls it.
func trimTypeArgs(typeTag string) string {
	if idx := strings.Index(typeTag, "<"); idx >= 0 {
		return typeTag[:idx]
	}
	return typeTag
}
