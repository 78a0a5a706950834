package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/lessonvault/internal/common"
	"github.com/dmitrijs2005/lessonvault/internal/server/services"
)

type credentialRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Folder      string `json:"folder"`
}

type credentialResponse struct {
	Success     bool      `json:"success"`
	UploadURL   string    `json:"uploadUrl"`
	URL         string    `json:"url"`
	Key         string    `json:"key"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type transferResponse struct {
	Success  bool   `json:"success"`
	URL      string `json:"url"`
	Key      string `json:"key"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	FileType string `json:"fileType"`
	Mode     string `json:"mode"`
}

func newTransferResponse(res *services.TransferResult) transferResponse {
	return transferResponse{
		Success:  true,
		URL:      res.URL,
		Key:      res.Key,
		FileName: res.FileName,
		FileSize: res.FileSize,
		FileType: res.FileType,
		Mode:     string(res.Mode),
	}
}

func (h *Handler) issueCredential(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	userID, _ := UserIDFromContext(r.Context())
	cred, err := h.credentials.Issue(r.Context(), services.CredentialRequest{
		UserID:      userID,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		Folder:      req.Folder,
	})
	if err != nil {
		h.logFailure(r, "credential request failed", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, credentialResponse{
		Success:     true,
		UploadURL:   cred.UploadURL,
		URL:         cred.URL,
		Key:         cred.Key,
		FileName:    cred.FileName,
		ContentType: cred.ContentType,
		ExpiresAt:   cred.ExpiresAt,
	})
}

// uploadMultipart accepts a form with one "file" part and an optional
// "folder" field. Parts beyond the in-memory limit are spooled to temporary
// files by net/http, so the declared size is known before forwarding.
func (h *Handler) uploadMultipart(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			writeError(w, err)
			return
		}
		writeError(w, fmt.Errorf("%w: expected multipart form data", common.ErrorValidation))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, fmt.Errorf("%w: no file uploaded", common.ErrorValidation))
		return
	}
	defer file.Close()

	userID, _ := UserIDFromContext(r.Context())
	res, err := h.transfers.Transfer(r.Context(), services.TransferInput{
		UserID:      userID,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Folder:      r.FormValue("folder"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		h.logFailure(r, "server-mediated upload failed", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransferResponse(res))
}

// uploadRaw forwards the request body itself. Without a Content-Length the
// size is unknown and the transfer streams.
func (h *Handler) uploadRaw(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID, _ := UserIDFromContext(r.Context())
	res, err := h.transfers.Transfer(r.Context(), services.TransferInput{
		UserID:      userID,
		FileName:    q.Get("fileName"),
		ContentType: r.Header.Get("Content-Type"),
		Folder:      q.Get("folder"),
		Size:        r.ContentLength,
		Body:        r.Body,
	})
	if err != nil {
		h.logFailure(r, "raw upload failed", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransferResponse(res))
}

func (h *Handler) logFailure(r *http.Request, msg string, err error) {
	if e := classify(err); e.status >= 500 {
		h.log.Error(r.Context(), msg, "error", err, "code", e.code)
	}
}
