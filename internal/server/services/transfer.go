package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/lessonvault/internal/common"
	"github.com/dmitrijs2005/lessonvault/internal/logging"
	"github.com/dmitrijs2005/lessonvault/internal/server/memory"
	"github.com/dmitrijs2005/lessonvault/internal/server/storage"
)

// Mode is how a server-mediated transfer moves bytes to storage.
type Mode string

const (
	ModeBuffered  Mode = "buffered"
	ModeStreaming Mode = "streaming"
)

// SelectMode buffers sizes up to and including threshold and streams
// everything larger. A negative size means unknown and always streams.
func SelectMode(size, threshold int64) Mode {
	if size < 0 || size > threshold {
		return ModeStreaming
	}
	return ModeBuffered
}

type TransferInput struct {
	UserID      string
	FileName    string
	ContentType string
	Folder      string
	// Size is the declared body length, -1 when unknown.
	Size int64
	Body io.Reader
}

type TransferResult struct {
	URL      string
	Key      string
	FileName string
	FileSize int64
	FileType string
	Mode     Mode
}

type TransferService struct {
	store          storage.ObjectStore
	monitor        *memory.Monitor
	pool           *memory.BufferPool
	threshold      int64
	publicEndpoint string
	keyRoot        string
	now            func() time.Time
	log            logging.Logger
}

func NewTransferService(store storage.ObjectStore, monitor *memory.Monitor, threshold int64, publicEndpoint, keyRoot string, log logging.Logger) *TransferService {
	return &TransferService{
		store:          store,
		monitor:        monitor,
		pool:           memory.NewBufferPool(threshold),
		threshold:      threshold,
		publicEndpoint: publicEndpoint,
		keyRoot:        keyRoot,
		now:            time.Now,
		log:            log.With("module", "transfer"),
	}
}

// Transfer forwards in.Body to storage under a new key. Failures are
// classified into the storage error sentinels and never retried here.
func (s *TransferService) Transfer(ctx context.Context, in TransferInput) (*TransferResult, error) {
	if in.UserID == "" {
		return nil, fmt.Errorf("%w: caller is unknown", common.ErrorUnauthorized)
	}
	name := strings.TrimSpace(in.FileName)
	if name == "" {
		return nil, fmt.Errorf("%w: file name is required", common.ErrorValidation)
	}
	if in.Body == nil {
		return nil, fmt.Errorf("%w: file is required", common.ErrorValidation)
	}
	contentType, err := normalizeContentType(in.ContentType, name)
	if err != nil {
		return nil, err
	}

	key := storage.NewOwnedKey(s.keyRoot, in.UserID, in.Folder, name, s.now())
	declared := SelectMode(in.Size, s.threshold)
	mode := declared

	var written int64
	err = s.monitor.Track(ctx, "transfer", func(ctx context.Context) error {
		var err error
		if mode == ModeBuffered {
			written, mode, err = s.putBuffered(ctx, key, in.Body, contentType)
		} else {
			written, err = s.putStream(ctx, key, in.Body, in.Size, contentType)
		}
		return err
	})

	if mode != declared {
		s.log.Info(ctx, "body exceeded declared size, streamed instead", "key", key, "declared_size", in.Size)
	}
	transfersTotal.WithLabelValues(string(mode), resultLabel(err)).Inc()
	if err != nil {
		err = storage.ClassifyError(err)
		s.log.Error(ctx, "transfer failed", "key", key, "mode", string(mode), "error", err)
		return nil, err
	}
	transferBytesTotal.WithLabelValues(string(mode)).Add(float64(written))

	s.log.Info(ctx, "transfer complete", "key", key, "mode", string(mode), "bytes", written)
	return &TransferResult{
		URL:      storage.PublicURL(s.publicEndpoint, s.store.Bucket(), key),
		Key:      key,
		FileName: name,
		FileSize: written,
		FileType: contentType,
		Mode:     mode,
	}, nil
}

// putBuffered reads at most threshold+1 bytes into a pooled buffer. A body
// that turns out longer than declared is streamed instead, with the bytes
// already read replayed in front of the remainder.
func (s *TransferService) putBuffered(ctx context.Context, key string, body io.Reader, contentType string) (int64, Mode, error) {
	buf := s.pool.Get()
	defer s.pool.Put(buf)

	if _, err := buf.ReadFrom(io.LimitReader(body, s.threshold+1)); err != nil {
		return 0, ModeBuffered, fmt.Errorf("read body: %w", err)
	}
	if int64(buf.Len()) > s.threshold {
		n, err := s.putStream(ctx, key, io.MultiReader(bytes.NewReader(buf.Bytes()), body), -1, contentType)
		return n, ModeStreaming, err
	}
	if err := s.store.PutBuffered(ctx, key, buf.Bytes(), contentType); err != nil {
		return 0, ModeBuffered, err
	}
	return int64(buf.Len()), ModeBuffered, nil
}

func (s *TransferService) putStream(ctx context.Context, key string, body io.Reader, size int64, contentType string) (int64, error) {
	cr := &countingReader{r: body}
	if err := s.store.PutStream(ctx, key, cr, size, contentType); err != nil {
		return cr.n, err
	}
	return cr.n, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
