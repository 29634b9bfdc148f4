package storage

import (
	"CourseForge/config"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore implements Store with a MinIO client.
type MinioStore struct {
	client *minio.Client
}

// NewMinioStore builds a Store from a MinIO client.
func NewMinioStore(client *minio.Client) *MinioStore {
	return &MinioStore{client: client}
}

// Connect dials MinIO and makes sure the configured bucket exists.
func Connect(ctx context.Context, cfg *config.Config) (*MinioStore, error) {
	client, err := minio.New(fmt.Sprintf("%s:%s", cfg.MinioHost, cfg.MinioPort), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioUsername, cfg.MinioPassword, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}
	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}
	return NewMinioStore(client), nil
}

// MustConnect connects or exits, for process bootstrap.
func MustConnect(ctx context.Context, cfg *config.Config) *MinioStore {
	store, err := Connect(ctx, cfg)
	if err != nil {
		log.Fatalln("minio error:", err)
	}
	log.Println("init minio success")
	return store
}

// PutObject uploads an object and reports the size MinIO observed.
func (s *MinioStore) PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts PutOptions) (PutResult, error) {
	info, err := s.client.PutObject(ctx, bucket, object, reader, size, minio.PutObjectOptions{
		ContentType: opts.ContentType,
	})
	if err != nil {
		return PutResult{}, err
	}
	return PutResult{Size: info.Size, ContentType: opts.ContentType}, nil
}

// GetObject fetches an object and its stat from MinIO.
func (s *MinioStore) GetObject(ctx context.Context, bucket, object string) (io.ReadCloser, ObjectInfo, error) {
	obj, err := s.client.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	stat, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, ObjectInfo{}, err
	}
	info := ObjectInfo{
		ObjectName:  object,
		Size:        stat.Size,
		ContentType: stat.ContentType,
	}
	return obj, info, nil
}

// StatObject reports whether the object exists.
func (s *MinioStore) StatObject(ctx context.Context, bucket, object string) (bool, error) {
	_, err := s.client.StatObject(ctx, bucket, object, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	var resp minio.ErrorResponse
	if errors.As(err, &resp) && resp.StatusCode == 404 {
		return false, nil
	}
	return false, err
}

// CopyObject server-side copies srcObject to dstObject in the bucket.
func (s *MinioStore) CopyObject(ctx context.Context, bucket, srcObject, dstObject string) error {
	src := minio.CopySrcOptions{
		Bucket: bucket,
		Object: srcObject,
	}
	dst := minio.CopyDestOptions{
		Bucket: bucket,
		Object: dstObject,
	}
	_, err := s.client.CopyObject(ctx, dst, src)
	return err
}

// RemoveObject deletes an object from MinIO.
func (s *MinioStore) RemoveObject(ctx context.Context, bucket, object string) error {
	return s.client.RemoveObject(ctx, bucket, object, minio.RemoveObjectOptions{})
}

// PresignedGetObject returns a time-limited download URL.
func (s *MinioStore) PresignedGetObject(ctx context.Context, bucket, object string, expiry time.Duration) (string, error) {
	url, err := s.client.PresignedGetObject(ctx, bucket, object, expiry, nil)
	if err != nil {
		return "", err
	}
	return url.String(), nil
}

// ListObjects enumerates every object in the bucket. Enumeration order is
// whatever the store returns; callers must not rely on it.
func (s *MinioStore) ListObjects(ctx context.Context, bucket string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	for obj := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		out = append(out, ObjectInfo{
			ObjectName:  obj.Key,
			Size:        obj.Size,
			ContentType: obj.ContentType,
		})
	}
	return out, nil
}
