package dynfield

import (
	"context"

	"suireplay/types"
)

// ChildEntry is one discovered dynamic-field child.
type ChildEntry struct {
	Version  types.ObjectVersion
	TypeTag  string
	BcsBytes []byte
}

// DiscoveryKey identifies a dynamic field by its logical address rather
// than its derived child id, letting the on-demand fetcher recover from
// package-upgrade address drift (spec.md §4.4.2 step 2).
type DiscoveryKey struct {
	Parent      types.ObjectID
	KeyTypeTag  string
	KeyBCSBytes string // string-keyed map requires comparable; raw bytes converted at insert time
}

// FieldLister is delegated the actual listing of a parent's dynamic
// fields; the engine itself is agnostic to the transport (spec.md §4.4:
// "Field enumeration is delegated to the hydration source").
type FieldLister interface {
	ListDynamicFields(ctx context.Context, parent types.ObjectID) ([]DynamicFieldRef, error)
}

// DynamicFieldRef is one entry a FieldLister reports under a parent,
// prior to the engine fetching its full object contents.
type DynamicFieldRef struct {
	ChildID    types.ObjectID
	KeyTypeTag string
	KeyBytes   []byte
}

// ChildFetchFunc fetches one child object's full contents once its id is
// known.
type ChildFetchFunc func(ctx context.Context, id types.ObjectID) (ChildEntry, error)

// PrefetchResult is the output of a single eager prefetch walk.
type PrefetchResult struct {
	Children         map[types.ObjectID]ChildEntry
	KeyToChild       map[DiscoveryKey]types.ObjectID
	TotalDiscovered  int
	FetchedCount     int
}

// Prefetcher performs the breadth-first eager walk of spec.md §4.4.1.
type Prefetcher struct {
	Lister FieldLister
	Fetch  ChildFetchFunc
}

func NewPrefetcher(lister FieldLister, fetch ChildFetchFunc) *Prefetcher {
	return &Prefetcher{Lister: lister, Fetch: fetch}
}

// Walk discovers and fetches children of parent, breadth-first, up to
// depth levels, fetching at most perParentLimit children per parent.
func (p *Prefetcher) Walk(ctx context.Context, parent types.ObjectID, depth, perParentLimit int) (PrefetchResult, error) {
	result := PrefetchResult{
		Children:   make(map[types.ObjectID]ChildEntry),
		KeyToChild: make(map[DiscoveryKey]types.ObjectID),
	}
	frontier := []types.ObjectID{parent}
	for level := 0; level < depth && len(frontier) > 0; level++ {
		var next []types.ObjectID
		for _, p0 := range frontier {
			refs, err := p.Lister.ListDynamicFields(ctx, p0)
			if err != nil {
				return result, err
			}
			result.TotalDiscovered += len(refs)
			fetched := 0
			for _, ref := range refs {
				if fetched >= perParentLimit {
					break
				}
				entry, err := p.Fetch(ctx, ref.ChildID)
				if err != nil {
					continue
				}
				result.Children[ref.ChildID] = entry
				result.KeyToChild[DiscoveryKey{
					Parent:      p0,
					KeyTypeTag:  ref.KeyTypeTag,
					KeyBCSBytes: string(ref.KeyBytes),
				}] = ref.ChildID
				result.FetchedCount++
				fetched++
				next = append(next, ref.ChildID)
			}
		}
		frontier = next
	}
	return result, nil
}
