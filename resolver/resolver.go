// Package resolver implements the Module Resolver & Linkage Engine
// (spec.md §4.2): address aliasing, upgrade-chain linkage, and module
// bytecode serving to the VM. It follows the same many-reader/
// single-writer discipline the teacher repo uses for its registries
// (core/contract_management.go's ContractManager), generalized to the
// resolver's three translation tables.
package resolver

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	log "github.com/sirupsen/logrus"

	"suireplay/types"
)

// ModuleKey identifies one loaded module by its address and name.
type ModuleKey struct {
	Address types.AccountAddress
	Name    string
}

// Resolver addresses packages across upgrade chains and serves module
// bytecode to the VM. Lookups are read-only and may run concurrently;
// registrations (RegisterPackage, RegisterAlias, RegisterUpgrade) take
// the exclusive lock, matching spec.md §5's "many-reader/single-writer"
// resource policy.
type Resolver struct {
	mu sync.RWMutex

	// registry: runtime_id -> bytecode set (PackageData keeps modules
	// under its own RuntimeID addressing; this is the canonical store).
	packages map[types.AccountAddress]types.PackageData

	// alias: storage_id -> runtime_id
	alias map[types.AccountAddress]types.AccountAddress

	// linkage: original_id -> latest upgraded storage_id
	linkage map[types.AccountAddress]types.AccountAddress

	// missing tracks addresses a lookup reported as not-present, so the
	// hydrator's dependency closure (spec.md §4.1) can ask "what's still
	// missing" without re-deriving it.
	missing map[types.AccountAddress]bool

	// moduleCache bounds repeated ModuleKey -> bytecode lookups; it is
	// a pure performance cache, never a source of truth by itself.
	moduleCache *lru.Cache[ModuleKey, []byte]

	linkageRedirects int
}

// New constructs an empty Resolver. cacheSize bounds the module bytecode
// LRU; 0 disables the cache.
func New(cacheSize int) *Resolver {
	r := &Resolver{
		packages: make(map[types.AccountAddress]types.PackageData),
		alias:    make(map[types.AccountAddress]types.AccountAddress),
		linkage:  make(map[types.AccountAddress]types.AccountAddress),
		missing:  make(map[types.AccountAddress]bool),
	}
	if cacheSize > 0 {
		c, err := lru.New[ModuleKey, []byte](cacheSize)
		if err == nil {
			r.moduleCache = c
		}
	}
	return r
}

// RegisterPackage adds or updates a package in the canonical registry.
// Per spec.md §4.2's invariant, an incoming version only overwrites a
// resident entry if it is >= the resident version (ties are permitted:
// equal bytecode).
func (r *Resolver) RegisterPackage(pkg types.PackageData) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.packages[pkg.RuntimeID]; ok {
		if pkg.Version < existing.Version {
			log.WithFields(log.Fields{
				"component": "resolver", "operation": "RegisterPackage",
				"runtime_id": pkg.RuntimeID.Hex(),
			}).Debug("ignoring stale package registration")
			return
		}
	}
	r.packages[pkg.RuntimeID] = pkg
	delete(r.missing, pkg.RuntimeID)
	delete(r.missing, pkg.StorageID)
	if r.moduleCache != nil {
		for _, m := range pkg.Modules {
			r.moduleCache.Remove(ModuleKey{Address: pkg.RuntimeID, Name: m.Name})
		}
	}
	// Merge this package's own linkage table: every (original, upgraded)
	// pair it was compiled against is a candidate redirect for lookups
	// the resolver hasn't otherwise been told about, growing the
	// linkage table monotonically within a replay (spec.md §4.2).
	for orig, upgraded := range pkg.Linkage {
		r.linkage[orig] = upgraded
	}
}

// RegisterAlias records that storageID should be redirected to runtimeID
// for all future lookups.
func (r *Resolver) RegisterAlias(storageID, runtimeID types.AccountAddress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alias[storageID] = runtimeID
}

// RegisterUpgrade records that originalID's latest physical bytecode now
// lives at upgradedStorageID.
func (r *Resolver) RegisterUpgrade(originalID, upgradedStorageID types.AccountAddress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.linkage[originalID] = upgradedStorageID
}

// LookupResult is returned by Lookup; Missing is true when bytecode was
// not found, and EffectiveAddress is the address the hydrator should
// fetch next (spec.md §4.2 step 3).
type LookupResult struct {
	Bytecode         []byte
	Missing          bool
	EffectiveAddress types.AccountAddress
	Redirected       bool
}

// Lookup implements the resolver's three-step algorithm (spec.md §4.2):
//  1. if addr is a known alias, redirect to its target.
//  2. if addr has a linkage upgrade, consult the target first; on miss,
//     fall back to addr.
//  3. return bytecode if present; else report missing with the
//     effective address queried.
func (r *Resolver) Lookup(addr types.AccountAddress, module string) LookupResult {
	r.mu.RLock()
	defer r.mu.RUnlock()

	effective := addr
	redirected := false
	if target, ok := r.alias[addr]; ok {
		effective = target
		redirected = true
	}

	if upgraded, ok := r.linkage[effective]; ok {
		if bc, found := r.lookupModule(upgraded, module); found {
			return LookupResult{Bytecode: bc, EffectiveAddress: upgraded, Redirected: true}
		}
		// fall back to effective (pre-upgrade) address on miss
	}

	if bc, found := r.lookupModule(effective, module); found {
		return LookupResult{Bytecode: bc, EffectiveAddress: effective, Redirected: redirected}
	}

	return LookupResult{Missing: true, EffectiveAddress: effective, Redirected: redirected}
}

func (r *Resolver) lookupModule(addr types.AccountAddress, module string) ([]byte, bool) {
	key := ModuleKey{Address: addr, Name: module}
	if r.moduleCache != nil {
		if bc, ok := r.moduleCache.Get(key); ok {
			return bc, true
		}
	}
	pkg, ok := r.packages[addr]
	if !ok {
		return nil, false
	}
	m, ok := pkg.Module(module)
	if !ok {
		return nil, false
	}
	if r.moduleCache != nil {
		r.moduleCache.Add(key, m.Bytecode)
	}
	return m.Bytecode, true
}

// MarkMissing records that addr was requested and not found, for the
// hydrator's dependency closure (spec.md §4.1) to drive further fetches.
func (r *Resolver) MarkMissing(addr types.AccountAddress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.missing[addr] = true
}

// MissingDependencies returns every address currently marked missing.
func (r *Resolver) MissingDependencies() []types.AccountAddress {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.AccountAddress, 0, len(r.missing))
	for a := range r.missing {
		out = append(out, a)
	}
	return out
}

// RecordLinkageRedirect increments the stats counter the orchestrator
// reports in ReplayReport.stats.linkage_redirects.
func (r *Resolver) RecordLinkageRedirect() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.linkageRedirects++
}

// LinkageRedirectCount returns the number of redirects recorded so far.
func (r *Resolver) LinkageRedirectCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.linkageRedirects
}

// DetectLinkageCycle walks the linkage table starting at start and
// returns the cycle if one exists within maxHops steps (spec.md §8: "A
// linkage cycle... must be detected within one closure round").
func (r *Resolver) DetectLinkageCycle(start types.AccountAddress, maxHops int) ([]types.AccountAddress, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	path := []types.AccountAddress{start}
	seen := map[types.AccountAddress]bool{start: true}
	cur := start
	for i := 0; i < maxHops; i++ {
		next, ok := r.linkage[cur]
		if !ok || next == cur {
			return nil, false
		}
		if seen[next] {
			path = append(path, next)
			return path, true
		}
		seen[next] = true
		path = append(path, next)
		cur = next
	}
	return nil, false
}
