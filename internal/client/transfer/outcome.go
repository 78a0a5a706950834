package transfer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/dmitrijs2005/lessonvault/internal/client/api"
	"github.com/dmitrijs2005/lessonvault/internal/netx"
)

// Via names the path that stored an object.
type Via string

const (
	ViaDirect   Via = "direct"
	ViaFallback Via = "fallback"
)

// TransferOutcome is the shape persistence works with, whichever path won.
type TransferOutcome struct {
	Key      string
	URL      string
	FileName string
	FileSize int64
	FileType string
	Via      Via
}

// Result is either a DirectResult or a FallbackResult.
type Result interface {
	Outcome() TransferOutcome
}

// DirectResult is a successful PUT to a presigned URL.
type DirectResult struct {
	Credential *api.Credential
	File       File
}

func (r DirectResult) Outcome() TransferOutcome {
	return TransferOutcome{
		Key:      r.Credential.Key,
		URL:      r.Credential.URL,
		FileName: r.File.Name,
		FileSize: r.File.Size,
		FileType: r.Credential.ContentType,
		Via:      ViaDirect,
	}
}

// FallbackResult is a successful server-mediated upload.
type FallbackResult struct {
	Upload *api.ServerUploadResult
}

func (r FallbackResult) Outcome() TransferOutcome {
	return TransferOutcome{
		Key:      r.Upload.Key,
		URL:      r.Upload.URL,
		FileName: r.Upload.FileName,
		FileSize: r.Upload.FileSize,
		FileType: r.Upload.FileType,
		Via:      ViaFallback,
	}
}

// RecoverableFailure is a direct-transfer failure that the server-mediated
// path may fix.
type RecoverableFailure struct {
	Status int
	Err    error
}

func (f *RecoverableFailure) Error() string {
	if f.Status != 0 {
		return fmt.Sprintf("direct upload rejected with status %d: %v", f.Status, f.Err)
	}
	return fmt.Sprintf("direct upload failed without a response: %v", f.Err)
}

func (f *RecoverableFailure) Unwrap() error { return f.Err }

// FatalFailure ends the batch.
type FatalFailure struct {
	Status int
	Err    error
}

func (f *FatalFailure) Error() string {
	if f.Status != 0 {
		return fmt.Sprintf("upload failed with status %d: %v", f.Status, f.Err)
	}
	return fmt.Sprintf("upload failed: %v", f.Err)
}

func (f *FatalFailure) Unwrap() error { return f.Err }

// classifyDirect sorts a direct-PUT error. 403 and errors without an HTTP
// status are recoverable unless they are timeouts or cancellations.
func classifyDirect(err error) error {
	if err == nil {
		return nil
	}

	if status := netx.StatusCode(err); status != 0 {
		if status == http.StatusForbidden {
			return &RecoverableFailure{Status: status, Err: err}
		}
		return &FatalFailure{Status: status, Err: err}
	}

	if isTimeout(err) || errors.Is(err, context.Canceled) {
		return &FatalFailure{Err: err}
	}
	return &RecoverableFailure{Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
