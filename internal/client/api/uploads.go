package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/dmitrijs2005/lessonvault/internal/common"
)

// CredentialRequest asks for a presigned PUT URL for one file.
type CredentialRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Folder      string `json:"folder,omitempty"`
}

// Credential is a single-use, time-limited permission to PUT one object.
// URL is the object's address once stored.
type Credential struct {
	UploadURL   string    `json:"uploadUrl"`
	URL         string    `json:"url"`
	Key         string    `json:"key"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// RequestCredential obtains a presigned upload URL.
func (c *Client) RequestCredential(ctx context.Context, req CredentialRequest) (*Credential, error) {
	var out Credential
	if err := c.doJSON(ctx, http.MethodPost, "/api/uploads/credentials", req, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// ServerUpload describes a file sent through the server.
type ServerUpload struct {
	FileName    string
	ContentType string
	Folder      string
	Body        io.Reader
}

// ServerUploadResult is what the server reports after storing the object.
type ServerUploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	FileType string `json:"fileType"`
	Mode     string `json:"mode"`
}

// UploadViaServer posts the file as multipart/form-data to /api/uploads.
// The body is written by a goroutine into an io.Pipe while the request is in
// flight. The request is not retried, since the body cannot be replayed.
func (c *Client) UploadViaServer(ctx context.Context, up ServerUpload) (*ServerUploadResult, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeMultipart(mw, up))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/uploads", pr)
	if err != nil {
		_ = pr.CloseWithError(err)
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.send(req, true)
	if err != nil {
		_ = pr.CloseWithError(err)
		return nil, err
	}
	// unblocks the writer if the server answered before reading everything
	defer pr.Close()

	var out ServerUploadResult
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func writeMultipart(mw *multipart.Writer, up ServerUpload) error {
	if up.Folder != "" {
		if err := mw.WriteField("folder", up.Folder); err != nil {
			return err
		}
	}

	ct := up.ContentType
	if ct == "" {
		ct = common.DefaultContentType
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, up.FileName))
	h.Set("Content-Type", ct)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, up.Body); err != nil {
		return fmt.Errorf("read %s: %w", up.FileName, err)
	}
	return mw.Close()
}
