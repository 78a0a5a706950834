package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMinio struct {
	putSize       int64
	putOpts       minio.PutObjectOptions
	putBody       []byte
	passedThrough bool
	removed       []string
	objects       []minio.ObjectInfo
	err           error
}

func (f *fakeMinio) PresignedPutObject(_ context.Context, bucket, key string, expires time.Duration) (*url.URL, error) {
	if f.err != nil {
		return nil, f.err
	}
	return url.Parse("http://minio:9000/" + bucket + "/" + key + "?X-Amz-Expires=" + expires.String())
}

func (f *fakeMinio) PutObject(_ context.Context, _, _ string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	_, f.passedThrough = r.(*strings.Reader)
	f.putSize = size
	f.putOpts = opts
	f.putBody, _ = io.ReadAll(r)
	return minio.UploadInfo{Size: int64(len(f.putBody))}, f.err
}

func (f *fakeMinio) RemoveObject(_ context.Context, _, key string, _ minio.RemoveObjectOptions) error {
	f.removed = append(f.removed, key)
	return f.err
}

func (f *fakeMinio) ListObjects(_ context.Context, _ string, _ minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(f.objects))
	for _, o := range f.objects {
		ch <- o
	}
	close(ch)
	return ch
}

func TestNewMinioStore_InvalidEndpoint(t *testing.T) {
	_, err := NewMinioStore(Options{Endpoint: "not a url"})
	assert.Error(t, err)
}

func TestNewMinioStore_OK(t *testing.T) {
	s, err := NewMinioStore(Options{Endpoint: "https://minio.example:9000", AccessKey: "a", SecretKey: "b", Bucket: "media"})
	require.NoError(t, err)
	assert.Equal(t, "media", s.Bucket())
	assert.Equal(t, uint64(minioMinPartSize), s.partSize)
}

func TestMinioStore_PresignPut(t *testing.T) {
	f := &fakeMinio{}
	s := newMinioStore(f, Options{Bucket: "media"})

	got, err := s.PresignPut(context.Background(), "uploads/a.png", "image/png", time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "http://minio:9000/media/uploads/a.png"))

	f.err = errors.New("denied")
	_, err = s.PresignPut(context.Background(), "k", "", time.Minute)
	assert.EqualError(t, err, "denied")
}

func TestMinioStore_PutBufferedAndStream(t *testing.T) {
	f := &fakeMinio{}
	s := newMinioStore(f, Options{Bucket: "media", PartSize: 16 << 20, Concurrency: 3})

	require.NoError(t, s.PutBuffered(context.Background(), "k", []byte("abc"), "text/plain"))
	assert.Equal(t, int64(3), f.putSize)
	assert.Equal(t, "text/plain", f.putOpts.ContentType)

	require.NoError(t, s.PutStream(context.Background(), "k", strings.NewReader("streamed"), -1, "video/mp4"))
	assert.True(t, f.passedThrough, "reader is passed through untouched")
	assert.Equal(t, int64(-1), f.putSize)
	assert.Equal(t, uint64(16<<20), f.putOpts.PartSize)
	assert.Equal(t, uint(3), f.putOpts.NumThreads)
	assert.Equal(t, []byte("streamed"), f.putBody)
}

func TestMinioStore_DeleteAndList(t *testing.T) {
	now := time.Now()
	f := &fakeMinio{objects: []minio.ObjectInfo{
		{Key: "uploads/a", Size: 1, LastModified: now},
		{Key: "uploads/b", Size: 2, LastModified: now},
	}}
	s := newMinioStore(f, Options{Bucket: "media"})

	require.NoError(t, s.Delete(context.Background(), "uploads/a"))
	assert.Equal(t, []string{"uploads/a"}, f.removed)

	var got []ObjectInfo
	require.NoError(t, s.List(context.Background(), "uploads/", func(o ObjectInfo) error {
		got = append(got, o)
		return nil
	}))
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[1].Size)

	f.objects = []minio.ObjectInfo{{Err: errors.New("list failed")}}
	assert.EqualError(t, s.List(context.Background(), "", func(ObjectInfo) error { return nil }), "list failed")
}
