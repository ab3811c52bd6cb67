package hydration

import (
	"context"

	"google.golang.org/grpc"

	"suireplay/pkg/utils"
	"suireplay/replayerr"
	"suireplay/types"
)

// ArchiveClient is the minimal RPC surface the Archive source needs,
// manually defined the way the teacher's AIStubClient wraps a
// grpc.ClientConn without depending on generated protobuf stubs (see
// DESIGN.md).
type ArchiveClient interface {
	GetTransaction(ctx context.Context, digest types.TransactionDigest) (types.FetchedTransaction, error)
	GetObject(ctx context.Context, id types.ObjectID, version types.ObjectVersion) (types.VersionedObject, error)
	GetPackage(ctx context.Context, addr types.AccountAddress, checkpoint uint64) (types.PackageData, error)
	GetCheckpoint(ctx context.Context, checkpoint uint64) (CheckpointData, error)
}

// ArchiveSource is the authoritative historical-query backend (spec.md
// §4.1 "Archive"), backed by a gRPC connection.
type ArchiveSource struct {
	conn   *grpc.ClientConn
	client ArchiveClient
}

func NewArchiveSource(conn *grpc.ClientConn, client ArchiveClient) *ArchiveSource {
	return &ArchiveSource{conn: conn, client: client}
}

func (a *ArchiveSource) Name() string { return "archive" }

func (a *ArchiveSource) FetchTransaction(ctx context.Context, digest types.TransactionDigest) (types.FetchedTransaction, error) {
	tx, err := a.client.GetTransaction(ctx, digest)
	if err != nil {
		return types.FetchedTransaction{}, wrapTransportErr("archive", "fetch_transaction", err)
	}
	return tx, nil
}

func (a *ArchiveSource) FetchObjectAtVersion(ctx context.Context, id types.ObjectID, version types.ObjectVersion) (types.VersionedObject, error) {
	obj, err := a.client.GetObject(ctx, id, version)
	if err != nil {
		return types.VersionedObject{}, wrapTransportErr("archive", "fetch_object_at_version", err)
	}
	return obj, nil
}

func (a *ArchiveSource) FetchPackageAtCheckpoint(ctx context.Context, addr types.AccountAddress, checkpoint uint64) (types.PackageData, error) {
	pkg, err := a.client.GetPackage(ctx, addr, checkpoint)
	if err != nil {
		return types.PackageData{}, wrapTransportErr("archive", "fetch_package_at_checkpoint", err)
	}
	return pkg, nil
}

func (a *ArchiveSource) FetchCheckpointBlob(ctx context.Context, checkpoint uint64) (CheckpointData, error) {
	cp, err := a.client.GetCheckpoint(ctx, checkpoint)
	if err != nil {
		return CheckpointData{}, wrapTransportErr("archive", "fetch_checkpoint_blob", err)
	}
	return cp, nil
}

func wrapTransportErr(component, op string, cause error) error {
	return &replayerr.TransportError{
		Ctx:   replayerr.Context{Component: component, Operation: op},
		Cause: utils.Wrap(cause, "grpc "+op),
	}
}
