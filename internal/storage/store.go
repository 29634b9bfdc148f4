package storage

import (
	"context"
	"io"
	"time"
)

// PutOptions describes upload options for object storage.
type PutOptions struct {
	ContentType string
}

// PutResult reports what the store observed for a finished upload. Size
// comes from the store, not from the client.
type PutResult struct {
	Size        int64
	ContentType string
}

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	ObjectName  string
	Size        int64
	ContentType string
}

// Store abstracts the blob side of the coordinator: put, get, head,
// copy, delete, presigned read URLs and bucket enumeration.
type Store interface {
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts PutOptions) (PutResult, error)
	GetObject(ctx context.Context, bucket, object string) (io.ReadCloser, ObjectInfo, error)
	StatObject(ctx context.Context, bucket, object string) (bool, error)
	CopyObject(ctx context.Context, bucket, srcObject, dstObject string) error
	RemoveObject(ctx context.Context, bucket, object string) error
	PresignedGetObject(ctx context.Context, bucket, object string, expiry time.Duration) (string, error)
	ListObjects(ctx context.Context, bucket string) ([]ObjectInfo, error)
}
