package hydration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"suireplay/replayerr"
	"suireplay/types"
)

// LocalCache is the disk-backed, memory-bounded cache source (spec.md
// §4.1 "LocalCache" and §6 "Persisted state layout"). It keeps
// objects.json and packages.json index files under dir, each holding a
// newline-delimited stream of JSON records; later records for a given
// key win on load, matching the teacher's append-then-reconcile
// persistence idiom.
type LocalCache struct {
	dir string

	mu       sync.RWMutex
	objects  *lru.Cache[objectKey, types.VersionedObject]
	packages *lru.Cache[packageKey, types.PackageData]
}

type objectKey struct {
	ID      types.ObjectID
	Version types.ObjectVersion
}

type packageKey struct {
	Addr       types.AccountAddress
	Checkpoint uint64
}

const defaultCacheCapacity = 4096

func NewLocalCache(dir string) (*LocalCache, error) {
	objects, err := lru.New[objectKey, types.VersionedObject](defaultCacheCapacity)
	if err != nil {
		return nil, fmt.Errorf("hydration: new object cache: %w", err)
	}
	packages, err := lru.New[packageKey, types.PackageData](defaultCacheCapacity)
	if err != nil {
		return nil, fmt.Errorf("hydration: new package cache: %w", err)
	}
	c := &LocalCache{dir: dir, objects: objects, packages: packages}
	if dir != "" {
		if err := c.load(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *LocalCache) Name() string { return "local_cache" }

type objectRecord struct {
	ID      types.ObjectID       `json:"id"`
	Version types.ObjectVersion  `json:"version"`
	Object  types.VersionedObject `json:"object"`
}

type packageRecord struct {
	Addr       types.AccountAddress `json:"addr"`
	Checkpoint uint64               `json:"checkpoint"`
	Package    types.PackageData    `json:"package"`
}

func (c *LocalCache) load() error {
	if err := loadJSONLines(filepath.Join(c.dir, "objects.json"), func(rec objectRecord) {
		c.objects.Add(objectKey{ID: rec.ID, Version: rec.Version}, rec.Object)
	}); err != nil {
		return err
	}
	return loadJSONLines(filepath.Join(c.dir, "packages.json"), func(rec packageRecord) {
		c.packages.Add(packageKey{Addr: rec.Addr, Checkpoint: rec.Checkpoint}, rec.Package)
	})
}

// loadJSONLines tolerates duplicate keys by construction: later lines
// overwrite earlier ones in the LRU, so last-wins without any explicit
// dedup pass.
func loadJSONLines[T any](path string, onEach func(T)) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("hydration: read %s: %w", path, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	for {
		var rec T
		if err := dec.Decode(&rec); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("hydration: decode record from %s: %w", path, err)
		}
		onEach(rec)
	}
	return nil
}

func (c *LocalCache) FetchObjectAtVersion(ctx context.Context, id types.ObjectID, version types.ObjectVersion) (types.VersionedObject, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	obj, ok := c.objects.Get(objectKey{ID: id, Version: version})
	if !ok {
		return types.VersionedObject{}, &replayerr.NotFoundError{
			Ctx:    replayerr.Context{Component: "local_cache", Operation: "fetch_object_at_version"},
			Digest: id.Hex(),
		}
	}
	return obj, nil
}

func (c *LocalCache) FetchPackageAtCheckpoint(ctx context.Context, addr types.AccountAddress, checkpoint uint64) (types.PackageData, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pkg, ok := c.packages.Get(packageKey{Addr: addr, Checkpoint: checkpoint})
	if !ok {
		return types.PackageData{}, &replayerr.NotFoundError{
			Ctx:    replayerr.Context{Component: "local_cache", Operation: "fetch_package_at_checkpoint"},
			Digest: addr.Hex(),
		}
	}
	return pkg, nil
}

// FetchTransaction and FetchCheckpointBlob are not cached locally;
// LocalCache only serves the object/package shortcuts spec.md §4.1
// describes, deferring everything else to Archive/Live/BlobStore.
func (c *LocalCache) FetchTransaction(ctx context.Context, digest types.TransactionDigest) (types.FetchedTransaction, error) {
	return types.FetchedTransaction{}, &replayerr.NotFoundError{
		Ctx:    replayerr.Context{Component: "local_cache", Operation: "fetch_transaction"},
		Digest: digest.String(),
	}
}

func (c *LocalCache) FetchCheckpointBlob(ctx context.Context, checkpoint uint64) (CheckpointData, error) {
	return CheckpointData{}, &replayerr.NotFoundError{
		Ctx:    replayerr.Context{Component: "local_cache", Operation: "fetch_checkpoint_blob"},
		Digest: fmt.Sprintf("checkpoint:%d", checkpoint),
	}
}

// PutObject records a hydrated object so future replays of nearby
// transactions skip the network round trip.
func (c *LocalCache) PutObject(id types.ObjectID, version types.ObjectVersion, obj types.VersionedObject) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects.Add(objectKey{ID: id, Version: version}, obj)
}

// PutPackage records a hydrated package the same way PutObject does.
func (c *LocalCache) PutPackage(addr types.AccountAddress, checkpoint uint64, pkg types.PackageData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.packages.Add(packageKey{Addr: addr, Checkpoint: checkpoint}, pkg)
}

// Flush appends the current cache contents to the index files under
// dir. Existing readers tolerate duplicates (load keeps the last
// record per key), so Flush never needs to rewrite history.
func (c *LocalCache) Flush() error {
	if c.dir == "" {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("hydration: mkdir %s: %w", c.dir, err)
	}
	if err := appendJSONLines(filepath.Join(c.dir, "objects.json"), objectRecordsOf(c.objects)); err != nil {
		return err
	}
	return appendJSONLines(filepath.Join(c.dir, "packages.json"), packageRecordsOf(c.packages))
}

func objectRecordsOf(cache *lru.Cache[objectKey, types.VersionedObject]) []objectRecord {
	var out []objectRecord
	for _, k := range cache.Keys() {
		v, ok := cache.Peek(k)
		if !ok {
			continue
		}
		out = append(out, objectRecord{ID: k.ID, Version: k.Version, Object: v})
	}
	return out
}

func packageRecordsOf(cache *lru.Cache[packageKey, types.PackageData]) []packageRecord {
	var out []packageRecord
	for _, k := range cache.Keys() {
		v, ok := cache.Peek(k)
		if !ok {
			continue
		}
		out = append(out, packageRecord{Addr: k.Addr, Checkpoint: k.Checkpoint, Package: v})
	}
	return out
}

func appendJSONLines[T any](path string, records []T) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("hydration: open %s: %w", path, err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("hydration: encode record into %s: %w", path, err)
		}
	}
	return nil
}
