package transfer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"sync"
	"time"

	"github.com/dmitrijs2005/lessonvault/internal/client/api"
	"github.com/dmitrijs2005/lessonvault/internal/client/history"
	"github.com/dmitrijs2005/lessonvault/internal/logging"
	"github.com/dmitrijs2005/lessonvault/internal/netx"
)

var ErrMetadata = errors.New("upload stored but metadata was not saved")

// Server is the part of the API client the orchestrator needs.
type Server interface {
	RequestCredential(ctx context.Context, req api.CredentialRequest) (*api.Credential, error)
	UploadViaServer(ctx context.Context, up api.ServerUpload) (*api.ServerUploadResult, error)
	SaveRecord(ctx context.Context, in api.RecordInput) (*api.Record, error)
}

// History receives every finished upload. It may be nil.
type History interface {
	Add(ctx context.Context, e *history.Entry) error
}

// Destination is where a batch goes.
type Destination struct {
	Folder   string
	LessonID string
}

// Uploaded is one finished file.
type Uploaded struct {
	File    File
	Outcome TransferOutcome
	Record  *api.Record
}

type Options struct {
	Server     Server
	HTTPClient *http.Client
	// Timeout picks the direct-PUT deadline for a file of the given size.
	Timeout    func(size int64) time.Duration
	History    History
	Logger     logging.Logger
	OnProgress func(Progress)
}

type Orchestrator struct {
	server     Server
	httpClient *http.Client
	timeout    func(int64) time.Duration
	history    History
	log        logging.Logger
	onProgress func(Progress)
	now        func() time.Time

	mu       sync.Mutex
	pending  []File
	uploaded []Uploaded
}

func NewOrchestrator(o Options) *Orchestrator {
	if o.HTTPClient == nil {
		o.HTTPClient = http.DefaultClient
	}
	if o.Timeout == nil {
		o.Timeout = func(int64) time.Duration { return 5 * time.Minute }
	}
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
	return &Orchestrator{
		server:     o.Server,
		httpClient: o.HTTPClient,
		timeout:    o.Timeout,
		history:    o.History,
		log:        o.Logger.With("module", "transfer"),
		onProgress: o.OnProgress,
		now:        time.Now,
	}
}

// SelectFiles replaces the pending selection with paths.
func (o *Orchestrator) SelectFiles(paths []string) ([]File, error) {
	files, err := SelectFiles(paths)
	if err != nil {
		return nil, err
	}
	o.mu.Lock()
	o.pending = files
	o.mu.Unlock()
	return files, nil
}

// Pending returns the current selection.
func (o *Orchestrator) Pending() []File {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]File(nil), o.pending...)
}

// Uploaded returns every file finished by this orchestrator, oldest first.
func (o *Orchestrator) Uploaded() []Uploaded {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Uploaded(nil), o.uploaded...)
}

// UploadPending uploads the current selection and clears it on success.
func (o *Orchestrator) UploadPending(ctx context.Context, dst Destination) ([]Uploaded, error) {
	done, err := o.Upload(ctx, o.Pending(), dst)
	if err == nil {
		o.mu.Lock()
		o.pending = nil
		o.mu.Unlock()
	}
	return done, err
}

// Upload transfers files sequentially. It returns the files finished before
// the first failure along with that failure.
func (o *Orchestrator) Upload(ctx context.Context, files []File, dst Destination) ([]Uploaded, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	tr := newTracker(files, o.now, o.onProgress)
	var done []Uploaded

	for i, f := range files {
		tr.begin(i, f)

		u, err := o.uploadOne(ctx, tr, f, dst)
		if err != nil {
			o.log.Error(ctx, "upload failed", "file", f.Name, "error", err)
			return done, fmt.Errorf("%s: %w", f.Name, err)
		}
		tr.finish()

		o.mu.Lock()
		o.uploaded = append(o.uploaded, *u)
		o.mu.Unlock()
		done = append(done, *u)
	}

	return done, nil
}

func (o *Orchestrator) uploadOne(ctx context.Context, tr *tracker, f File, dst Destination) (*Uploaded, error) {
	cred, err := o.server.RequestCredential(ctx, api.CredentialRequest{
		FileName:    f.Name,
		ContentType: f.ContentType,
		Folder:      dst.Folder,
	})
	if err != nil {
		return nil, &FatalFailure{Err: fmt.Errorf("request credential: %w", err)}
	}

	var res Result
	res, err = o.attemptDirect(ctx, tr, f, cred)
	var rec *RecoverableFailure
	if errors.As(err, &rec) {
		o.log.Warn(ctx, "direct upload failed, sending through server", "file", f.Name, "status", rec.Status, "error", rec.Err)
		tr.switchTo(ViaFallback)
		res, err = o.attemptServerMediated(ctx, tr, f, dst)
	}
	if err != nil {
		return nil, err
	}

	out := res.Outcome()
	record, err := o.persist(ctx, f, out, dst)
	if err != nil {
		return nil, err
	}

	o.log.Info(ctx, "upload finished", "file", f.Name, "key", out.Key, "via", string(out.Via), "bytes", f.Size)
	o.remember(ctx, f, out, record)

	return &Uploaded{File: f, Outcome: out, Record: record}, nil
}

// attemptDirect PUTs the raw file to the presigned URL. A non-nil error is a
// *RecoverableFailure or a *FatalFailure.
func (o *Orchestrator) attemptDirect(ctx context.Context, tr *tracker, f File, cred *api.Credential) (Result, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, &FatalFailure{Err: err}
	}
	defer fh.Close()

	ctx, cancel := context.WithTimeout(ctx, o.timeout(f.Size))
	defer cancel()

	err = netx.UploadToPresignedURL(ctx, o.httpClient, netx.PutRequest{
		URL:         cred.UploadURL,
		Body:        fh,
		Size:        f.Size,
		ContentType: cred.ContentType,
		OnProgress:  tr.sent,
	})
	if err := classifyDirect(err); err != nil {
		return nil, err
	}
	return DirectResult{Credential: cred, File: f}, nil
}

// attemptServerMediated sends the file through the server once. Any error is
// a *FatalFailure.
func (o *Orchestrator) attemptServerMediated(ctx context.Context, tr *tracker, f File, dst Destination) (Result, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, &FatalFailure{Err: err}
	}
	defer fh.Close()

	up, err := o.server.UploadViaServer(ctx, api.ServerUpload{
		FileName:    f.Name,
		ContentType: f.ContentType,
		Folder:      dst.Folder,
		Body:        &netx.ProgressReader{R: fh, OnRead: tr.sent},
	})
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			return nil, &FatalFailure{Status: apiErr.Status, Err: err}
		}
		return nil, &FatalFailure{Err: err}
	}
	return FallbackResult{Upload: up}, nil
}

func (o *Orchestrator) persist(ctx context.Context, f File, out TransferOutcome, dst Destination) (*api.Record, error) {
	in := api.RecordInput{
		FileName:     path.Base(out.Key),
		OriginalName: f.Name,
		FileSize:     out.FileSize,
		FileType:     out.FileType,
		S3Key:        out.Key,
		S3URL:        out.URL,
	}
	if dst.LessonID != "" {
		lesson := dst.LessonID
		in.LessonID = &lesson
	}

	record, err := o.server.SaveRecord(ctx, in)
	if err != nil {
		// the object stays in storage until the server's orphan sweep removes it
		return nil, &FatalFailure{Err: fmt.Errorf("%w (key %s): %w", ErrMetadata, out.Key, err)}
	}
	return record, nil
}

func (o *Orchestrator) remember(ctx context.Context, f File, out TransferOutcome, record *api.Record) {
	if o.history == nil {
		return
	}
	e := &history.Entry{
		ID:           record.ID,
		FileName:     record.FileName,
		OriginalName: f.Name,
		LocalPath:    f.Path,
		S3Key:        out.Key,
		S3URL:        out.URL,
		FileSize:     out.FileSize,
		FileType:     out.FileType,
		LessonID:     record.LessonID,
		Mode:         string(out.Via),
		UploadedAt:   o.now(),
	}
	if err := o.history.Add(ctx, e); err != nil {
		o.log.Warn(ctx, "failed to record upload history", "file", f.Name, "error", err)
	}
}
