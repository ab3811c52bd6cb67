package types

import "fmt"

// ReplayState is a complete, immutable-for-the-duration-of-replay bundle
// of everything the PTB executor needs: the transaction, every input
// object, every package the transaction (transitively) depends on, and
// epoch-level protocol parameters.
type ReplayState struct {
	Transaction       FetchedTransaction
	Objects           map[ObjectID]VersionedObject
	Packages          map[AccountAddress]PackageData // keyed by RuntimeID
	ProtocolVersion   uint64
	Epoch             uint64
	ReferenceGasPrice *uint64
	Checkpoint        *uint64
}

// NewReplayState builds an empty ReplayState for the given transaction,
// ready for hydration to populate.
func NewReplayState(tx FetchedTransaction) *ReplayState {
	return &ReplayState{
		Transaction: tx,
		Objects:     make(map[ObjectID]VersionedObject),
		Packages:    make(map[AccountAddress]PackageData),
	}
}

// DefaultProtocolVersion is used when a ReplayState's ProtocolVersion is
// zero or was never populated by hydration. See DESIGN.md's Open
// Questions: deriving this from epoch metadata instead is unresolved
// upstream, so this constant is the documented fallback.
const DefaultProtocolVersion = 107

// EffectiveProtocolVersion returns ProtocolVersion, or
// DefaultProtocolVersion if it was never set.
func (s *ReplayState) EffectiveProtocolVersion() uint64 {
	if s.ProtocolVersion == 0 {
		return DefaultProtocolVersion
	}
	return s.ProtocolVersion
}

// Validate checks the input-object invariant from spec.md §3.1: every
// non-Pure input references an object present in Objects. It does not
// check MoveCall target packages against Packages.
func (s *ReplayState) Validate() error {
	for i, in := range s.Transaction.Inputs {
		id, ok := in.ReferencedObjectID()
		if !ok {
			continue
		}
		if _, present := s.Objects[id]; !present {
			return fmt.Errorf("types: input %d references object %s not present in ReplayState", i, id.Hex())
		}
	}
	return nil
}

// PutObject inserts or overwrites a VersionedObject, keyed by its id. A
// caller that needs every version of an id concurrently live (spec.md's
// "the same id may have many versions cached concurrently") should use a
// version-indexed cache instead; ReplayState.Objects holds exactly the
// versions this one transaction's inputs and effects reference.
func (s *ReplayState) PutObject(obj VersionedObject) {
	s.Objects[obj.ID] = obj
}

// PutPackage registers package data, keyed by RuntimeID. Per the
// resolver's monotonic-registration invariant (spec.md §4.2), an
// incoming version only overwrites a resident one if it is >=.
func (s *ReplayState) PutPackage(pkg PackageData) {
	if existing, ok := s.Packages[pkg.RuntimeID]; ok && pkg.Version < existing.Version {
		return
	}
	s.Packages[pkg.RuntimeID] = pkg
}
