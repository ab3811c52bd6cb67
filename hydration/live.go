package hydration

import (
	"context"

	"google.golang.org/grpc"

	"suireplay/types"
)

// LiveSource queries current chain state rather than a historical
// snapshot, used for fork/what-if scenarios (spec.md §4.1 "Live").
// It shares ArchiveClient's RPC surface since both speak the same
// protocol against different endpoints.
type LiveSource struct {
	conn   *grpc.ClientConn
	client ArchiveClient
}

func NewLiveSource(conn *grpc.ClientConn, client ArchiveClient) *LiveSource {
	return &LiveSource{conn: conn, client: client}
}

func (l *LiveSource) Name() string { return "live" }

func (l *LiveSource) FetchTransaction(ctx context.Context, digest types.TransactionDigest) (types.FetchedTransaction, error) {
	tx, err := l.client.GetTransaction(ctx, digest)
	if err != nil {
		return types.FetchedTransaction{}, wrapTransportErr("live", "fetch_transaction", err)
	}
	return tx, nil
}

func (l *LiveSource) FetchObjectAtVersion(ctx context.Context, id types.ObjectID, version types.ObjectVersion) (types.VersionedObject, error) {
	obj, err := l.client.GetObject(ctx, id, version)
	if err != nil {
		return types.VersionedObject{}, wrapTransportErr("live", "fetch_object_at_version", err)
	}
	return obj, nil
}

func (l *LiveSource) FetchPackageAtCheckpoint(ctx context.Context, addr types.AccountAddress, checkpoint uint64) (types.PackageData, error) {
	pkg, err := l.client.GetPackage(ctx, addr, checkpoint)
	if err != nil {
		return types.PackageData{}, wrapTransportErr("live", "fetch_package_at_checkpoint", err)
	}
	return pkg, nil
}

func (l *LiveSource) FetchCheckpointBlob(ctx context.Context, checkpoint uint64) (CheckpointData, error) {
	cp, err := l.client.GetCheckpoint(ctx, checkpoint)
	if err != nil {
		return CheckpointData{}, wrapTransportErr("live", "fetch_checkpoint_blob", err)
	}
	return cp, nil
}
