package hydration

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/klauspost/compress/zstd"
	"github.com/multiformats/go-multihash"

	"suireplay/replayerr"
	"suireplay/types"
)

// BlobReader loads a compressed checkpoint blob by its content-addressed
// id. The engine is agnostic to where blobs physically live (local disk,
// object storage); only the addressing scheme is fixed.
type BlobReader interface {
	ReadBlob(ctx context.Context, c cid.Cid) ([]byte, error)
}

// CheckpointCID derives the content address for a checkpoint's raw
// (uncompressed) bytes, using a Blake2b-256 multihash, mirroring the
// teacher's use of content-addressed storage for ledger blobs
// (core/ipfs.go) adapted to a local cid.Cid rather than a gateway CID
// string.
func CheckpointCID(raw []byte) (cid.Cid, error) {
	mh, err := multihash.Sum(raw, multihash.BLAKE2B_MIN+31, -1)
	if err != nil {
		return cid.Undef, fmt.Errorf("hydration: multihash: %w", err)
	}
	return cid.NewCidV1(cid.Raw, mh), nil
}

// BlobStoreSource is the content-addressed checkpoint archive backend
// (spec.md §4.1 "BlobStore"). Blob bytes are zstd-compressed on disk and
// decoded into a CheckpointData by the caller-supplied decoder.
type BlobStoreSource struct {
	reader  BlobReader
	index   map[uint64]cid.Cid // checkpoint sequence -> blob id
	decoder func([]byte) (CheckpointData, error)
}

func NewBlobStoreSource(reader BlobReader, index map[uint64]cid.Cid, decoder func([]byte) (CheckpointData, error)) *BlobStoreSource {
	return &BlobStoreSource{reader: reader, index: index, decoder: decoder}
}

func (b *BlobStoreSource) Name() string { return "blob_store" }

func (b *BlobStoreSource) FetchCheckpointBlob(ctx context.Context, checkpoint uint64) (CheckpointData, error) {
	id, ok := b.index[checkpoint]
	if !ok {
		return CheckpointData{}, &replayerr.NotFoundError{
			Ctx:    replayerr.Context{Component: "blob_store", Operation: "fetch_checkpoint_blob"},
			Digest: fmt.Sprintf("checkpoint:%d", checkpoint),
		}
	}
	compressed, err := b.reader.ReadBlob(ctx, id)
	if err != nil {
		return CheckpointData{}, wrapTransportErr("blob_store", "fetch_checkpoint_blob", err)
	}
	raw, err := decompressZstd(compressed)
	if err != nil {
		return CheckpointData{}, fmt.Errorf("hydration: decompress checkpoint blob: %w", err)
	}
	return b.decoder(raw)
}

// FetchTransaction locates digest within whichever checkpoint blob the
// caller has already loaded via FetchCheckpointBlob; the BlobStore
// backend alone cannot answer by digest, so this always reports missing
// and defers to the hydrator's blob-walking path (spec.md §4.1 "Blob
// path").
func (b *BlobStoreSource) FetchTransaction(ctx context.Context, digest types.TransactionDigest) (types.FetchedTransaction, error) {
	return types.FetchedTransaction{}, &replayerr.NotFoundError{
		Ctx:    replayerr.Context{Component: "blob_store", Operation: "fetch_transaction"},
		Digest: digest.String(),
	}
}

func (b *BlobStoreSource) FetchObjectAtVersion(ctx context.Context, id types.ObjectID, version types.ObjectVersion) (types.VersionedObject, error) {
	return types.VersionedObject{}, &replayerr.NotFoundError{
		Ctx:    replayerr.Context{Component: "blob_store", Operation: "fetch_object_at_version"},
		Digest: id.Hex(),
	}
}

func (b *BlobStoreSource) FetchPackageAtCheckpoint(ctx context.Context, addr types.AccountAddress, checkpoint uint64) (types.PackageData, error) {
	return types.PackageData{}, &replayerr.NotFoundError{
		Ctx:    replayerr.Context{Component: "blob_store", Operation: "fetch_package_at_checkpoint"},
		Digest: addr.Hex(),
	}
}

func compressZstd(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(raw); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressZstd(compressed []byte) ([]byte, error) {
	r, err := zstd.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	var out bytes.Buffer
	if _, err := out.ReadFrom(r); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
