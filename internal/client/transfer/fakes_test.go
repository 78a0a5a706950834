package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dmitrijs2005/lessonvault/internal/client/api"
	"github.com/dmitrijs2005/lessonvault/internal/client/history"
	"github.com/stretchr/testify/require"
)

type fakeServer struct {
	mu sync.Mutex

	storageURL string
	credErr    error
	creds      []api.CredentialRequest

	fallbackCalls int
	fallbackBytes int64
	fallbackErr   error

	saveErr error
	saved   []api.RecordInput
}

func (s *fakeServer) RequestCredential(_ context.Context, req api.CredentialRequest) (*api.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.credErr != nil {
		return nil, s.credErr
	}
	s.creds = append(s.creds, req)
	key := fmt.Sprintf("%s/%d-direct-%s", req.Folder, len(s.creds), req.FileName)
	return &api.Credential{
		UploadURL:   s.storageURL + "/lessons/" + key + "?X-Amz-Signature=abc",
		URL:         "https://storage.example/lessons/" + key,
		Key:         key,
		FileName:    req.FileName,
		ContentType: req.ContentType,
	}, nil
}

func (s *fakeServer) UploadViaServer(_ context.Context, up api.ServerUpload) (*api.ServerUploadResult, error) {
	n, err := io.Copy(io.Discard, up.Body)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallbackCalls++
	s.fallbackBytes = n
	if s.fallbackErr != nil {
		return nil, s.fallbackErr
	}
	key := fmt.Sprintf("%s/%d-fallback-%s", up.Folder, s.fallbackCalls, up.FileName)
	return &api.ServerUploadResult{
		URL:      "https://storage.example/lessons/" + key,
		Key:      key,
		FileName: up.FileName,
		FileSize: n,
		FileType: up.ContentType,
		Mode:     "buffered",
	}, nil
}

func (s *fakeServer) SaveRecord(_ context.Context, in api.RecordInput) (*api.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	s.saved = append(s.saved, in)
	return &api.Record{
		ID:           fmt.Sprintf("rec-%d", len(s.saved)),
		FileName:     in.FileName,
		OriginalName: in.OriginalName,
		FileSize:     in.FileSize,
		FileType:     in.FileType,
		S3Key:        in.S3Key,
		S3URL:        in.S3URL,
		LessonID:     in.LessonID,
		Status:       "completed",
	}, nil
}

type fakeHistory struct {
	mu      sync.Mutex
	entries []*history.Entry
}

func (h *fakeHistory) Add(_ context.Context, e *history.Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, e)
	return nil
}

// storageStub answers every PUT with status after draining the body.
type storageStub struct {
	mu       sync.Mutex
	status   int
	puts     int
	received int64
}

func (s *storageStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n, _ := io.Copy(io.Discard, r.Body)
	s.mu.Lock()
	s.puts++
	s.received = n
	status := s.status
	s.mu.Unlock()
	w.WriteHeader(status)
}

func newStorage(t *testing.T, status int) (*storageStub, *httptest.Server) {
	t.Helper()
	stub := &storageStub{status: status}
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)
	return stub, srv
}

func writeFile(t *testing.T, dir, name string, size int64) string {
	t.Helper()
	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(size))
	require.NoError(t, f.Close())
	return p
}
