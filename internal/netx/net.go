// Package netx performs raw HTTP PUTs against presigned storage URLs.
package netx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// StatusError is returned when the storage endpoint answers with a status
// other than 200 or 204.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upload failed: %s; body: %s", e.Status, e.Body)
}

// StatusCode extracts the HTTP status from err, or 0 when err carries none.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// ProgressReader reports the running number of bytes read through it.
type ProgressReader struct {
	R      io.Reader
	OnRead func(total int64)

	total int64
}

func (p *ProgressReader) Read(b []byte) (int, error) {
	n, err := p.R.Read(b)
	if n > 0 {
		p.total += int64(n)
		if p.OnRead != nil {
			p.OnRead(p.total)
		}
	}
	return n, err
}

// PutRequest describes one upload to a presigned URL.
type PutRequest struct {
	URL         string
	Body        io.Reader
	Size        int64
	ContentType string
	OnProgress  func(sent int64)
}

// UploadToPresignedURL streams req.Body to req.URL with PUT. Size is sent as
// Content-Length so signed S3 URLs accept the request.
func UploadToPresignedURL(ctx context.Context, client *http.Client, req PutRequest) error {
	if client == nil {
		client = http.DefaultClient
	}

	var body io.Reader = req.Body
	if req.OnProgress != nil {
		body = &ProgressReader{R: req.Body, OnRead: req.OnProgress}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, req.URL, body)
	if err != nil {
		return err
	}
	httpReq.ContentLength = req.Size
	ct := req.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	httpReq.Header.Set("Content-Type", ct)

	resp, err := client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &StatusError{Code: resp.StatusCode, Status: resp.Status, Body: string(b)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
