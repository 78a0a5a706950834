// Package storage abstracts the object store uploads land in. Two drivers are
// provided: S3Store over aws-sdk-go-v2 and MinioStore over minio-go.
package storage

import (
	"context"
	"io"
	"time"

	"github.com/dmitrijs2005/lessonvault/internal/common"
)

// ObjectInfo describes one stored object as seen by List.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStore is the set of storage operations the upload pipeline needs.
type ObjectStore interface {
	Bucket() string
	// PresignPut returns a URL that accepts exactly one PUT of key until ttl
	// elapses. It performs no request against the backend.
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
	// PutBuffered uploads data in a single request.
	PutBuffered(ctx context.Context, key string, data []byte, contentType string) error
	// PutStream uploads r without materialising it. size may be -1 when unknown.
	PutStream(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	// List calls fn for every object under prefix. A non-nil error from fn stops
	// the walk and is returned.
	List(ctx context.Context, prefix string, fn func(ObjectInfo) error) error
}

// Options configures either driver.
type Options struct {
	AccessKey   string
	SecretKey   string
	Bucket      string
	Region      string
	Endpoint    string
	PartSize    int64
	Concurrency int
}

// Unconfigured is used when credentials are missing. Every operation fails
// with common.ErrStorageNotConfigured so the problem surfaces per request.
type Unconfigured struct {
	BucketName string
}

func (u Unconfigured) Bucket() string { return u.BucketName }

func (Unconfigured) PresignPut(context.Context, string, string, time.Duration) (string, error) {
	return "", common.ErrStorageNotConfigured
}

func (Unconfigured) PutBuffered(context.Context, string, []byte, string) error {
	return common.ErrStorageNotConfigured
}

func (Unconfigured) PutStream(context.Context, string, io.Reader, int64, string) error {
	return common.ErrStorageNotConfigured
}

func (Unconfigured) Delete(context.Context, string) error {
	return common.ErrStorageNotConfigured
}

func (Unconfigured) List(context.Context, string, func(ObjectInfo) error) error {
	return common.ErrStorageNotConfigured
}
