package resolver

import (
	"testing"

	"suireplay/types"
)

func addr(b byte) types.AccountAddress {
	var a types.AccountAddress
	a[31] = b
	return a
}

func TestLookupAliasRedirect(t *testing.T) {
	r := New(16)
	runtime := addr(1)
	storage := addr(2)
	r.RegisterPackage(types.PackageData{
		RuntimeID: runtime,
		Version:   1,
		Modules:   []types.ModuleEntry{{Name: "coin", Bytecode: []byte("bc")}},
	})
	r.RegisterAlias(storage, runtime)

	direct := r.Lookup(runtime, "coin")
	aliased := r.Lookup(storage, "coin")

	if direct.Missing || aliased.Missing {
		t.Fatalf("expected both lookups to hit: direct=%v aliased=%v", direct, aliased)
	}
	if string(direct.Bytecode) != string(aliased.Bytecode) {
		t.Fatalf("alias_of(x) lookup must equal lookup(x): %v vs %v", direct.Bytecode, aliased.Bytecode)
	}
}

func TestLookupLinkageUpgradeThenFallback(t *testing.T) {
	r := New(16)
	orig := addr(1)
	upgraded := addr(2)
	r.RegisterPackage(types.PackageData{RuntimeID: orig, Version: 1, Modules: []types.ModuleEntry{{Name: "m", Bytecode: []byte("v1")}}})
	r.RegisterUpgrade(orig, upgraded)

	// upgraded package not registered yet -> falls back to orig
	res := r.Lookup(orig, "m")
	if res.Missing {
		t.Fatal("expected fallback to resolve orig's own bytecode")
	}
	if string(res.Bytecode) != "v1" {
		t.Fatalf("expected v1 fallback, got %s", res.Bytecode)
	}

	r.RegisterPackage(types.PackageData{RuntimeID: upgraded, Version: 2, Modules: []types.ModuleEntry{{Name: "m", Bytecode: []byte("v2")}}})
	res = r.Lookup(orig, "m")
	if res.Missing || string(res.Bytecode) != "v2" {
		t.Fatalf("expected upgraded v2 bytecode, got %+v", res)
	}
}

func TestPackageRegistrationMonotonic(t *testing.T) {
	r := New(0)
	id := addr(9)
	r.RegisterPackage(types.PackageData{RuntimeID: id, Version: 5, Modules: []types.ModuleEntry{{Name: "m", Bytecode: []byte("new")}}})
	r.RegisterPackage(types.PackageData{RuntimeID: id, Version: 3, Modules: []types.ModuleEntry{{Name: "m", Bytecode: []byte("stale")}}})
	res := r.Lookup(id, "m")
	if string(res.Bytecode) != "new" {
		t.Fatalf("stale registration must not overwrite newer version, got %s", res.Bytecode)
	}
}

func TestRewriteStructTagIdentityOnEmptyAliasTable(t *testing.T) {
	r := New(0)
	in := "0x2::coin::Coin<0xabc::token::TOKEN>"
	if got := r.RewriteStructTag(in); got != in {
		t.Fatalf("expected identity, got %s", got)
	}
}

func TestRewriteStructTagIdempotent(t *testing.T) {
	r := New(0)
	storage := addr(0xAA)
	runtime := addr(0xBB)
	r.RegisterAlias(storage, runtime)
	in := storage.Hex() + "::coin::Coin<" + runtime.Hex() + "::token::TOKEN>"
	once := r.RewriteStructTag(in)
	twice := r.RewriteStructTag(once)
	if once != twice {
		t.Fatalf("rewrite not idempotent: %q -> %q", once, twice)
	}
}

func TestDetectLinkageCycle(t *testing.T) {
	r := New(0)
	a, b := addr(1), addr(2)
	r.RegisterUpgrade(a, b)
	r.RegisterUpgrade(b, a)
	cycle, found := r.DetectLinkageCycle(a, 8)
	if !found {
		t.Fatal("expected cycle to be detected")
	}
	if len(cycle) == 0 {
		t.Fatal("expected non-empty cycle path")
	}
}

func TestMissingDependencyTracking(t *testing.T) {
	r := New(0)
	want := addr(42)
	r.MarkMissing(want)
	missing := r.MissingDependencies()
	if len(missing) != 1 || missing[0] != want {
		t.Fatalf("expected [%v], got %v", want, missing)
	}
	r.RegisterPackage(types.PackageData{RuntimeID: want, Version: 1})
	if len(r.MissingDependencies()) != 0 {
		t.Fatal("registering the package should clear it from missing")
	}
}
