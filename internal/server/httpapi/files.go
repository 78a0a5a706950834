package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/lessonvault/internal/common"
	"github.com/dmitrijs2005/lessonvault/internal/server/models"
	"github.com/dmitrijs2005/lessonvault/internal/server/services"
	"github.com/go-chi/chi/v5"
)

// saveRecordRequest is the metadata a client posts after a transfer. A
// user_id in the body is ignored; the owner is the authenticated caller.
type saveRecordRequest struct {
	FileName     string  `json:"filename"`
	OriginalName string  `json:"original_name"`
	FileSize     int64   `json:"file_size"`
	FileType     string  `json:"file_type"`
	S3Key        string  `json:"s3_key"`
	S3URL        string  `json:"s3_url"`
	UserID       string  `json:"user_id,omitempty"`
	LessonID     *string `json:"lesson_id"`
}

// updateRecordRequest keeps lesson_id raw so that an explicit null can be
// told apart from an absent field.
type updateRecordRequest struct {
	OriginalName *string         `json:"original_name"`
	LessonID     json.RawMessage `json:"lesson_id"`
	Status       *string         `json:"status"`
}

type recordJSON struct {
	ID           string    `json:"id"`
	FileName     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	FileSize     int64     `json:"file_size"`
	FileType     string    `json:"file_type"`
	S3Key        string    `json:"s3_key"`
	S3URL        string    `json:"s3_url"`
	UserID       string    `json:"user_id"`
	LessonID     *string   `json:"lesson_id"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type recordResponse struct {
	Success bool       `json:"success"`
	File    recordJSON `json:"file"`
}

type listResponse struct {
	Success bool         `json:"success"`
	Files   []recordJSON `json:"files"`
}

func toRecordJSON(u *models.Upload) recordJSON {
	return recordJSON{
		ID:           u.ID,
		FileName:     u.FileName,
		OriginalName: u.OriginalName,
		FileSize:     u.FileSize,
		FileType:     u.FileType,
		S3Key:        u.S3Key,
		S3URL:        u.S3URL,
		UserID:       u.UserID,
		LessonID:     u.LessonID,
		Status:       u.Status,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (h *Handler) saveRecord(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req saveRecordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.UserID != "" && req.UserID != userID {
		h.log.Warn(r.Context(), "ignoring user_id from request body", "user_id", userID)
	}

	u, err := h.uploads.Save(r.Context(), userID, services.SaveUploadInput{
		FileName:     req.FileName,
		OriginalName: req.OriginalName,
		FileSize:     req.FileSize,
		FileType:     req.FileType,
		S3Key:        req.S3Key,
		S3URL:        req.S3URL,
		LessonID:     req.LessonID,
	})
	if err != nil {
		h.logFailure(r, "saving upload record failed", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, recordResponse{Success: true, File: toRecordJSON(u)})
}

func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var lessonID *string
	if v := strings.TrimSpace(r.URL.Query().Get("lesson_id")); v != "" {
		lessonID = &v
	}
	items, err := h.uploads.List(r.Context(), userID, lessonID)
	if err != nil {
		h.logFailure(r, "listing upload records failed", err)
		writeError(w, err)
		return
	}
	out := make([]recordJSON, 0, len(items))
	for _, u := range items {
		out = append(out, toRecordJSON(u))
	}
	writeJSON(w, http.StatusOK, listResponse{Success: true, Files: out})
}

func (h *Handler) getRecord(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	u, err := h.uploads.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recordResponse{Success: true, File: toRecordJSON(u)})
}

func (h *Handler) updateRecord(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req updateRecordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	patch := models.UploadPatch{OriginalName: req.OriginalName, Status: req.Status}
	if len(req.LessonID) > 0 {
		if bytes.Equal(bytes.TrimSpace(req.LessonID), []byte("null")) {
			patch.ClearLesson = true
		} else {
			var lesson string
			if err := json.Unmarshal(req.LessonID, &lesson); err != nil {
				writeError(w, fmt.Errorf("%w: lesson_id must be a string or null", common.ErrorValidation))
				return
			}
			patch.LessonID = &lesson
		}
	}

	u, err := h.uploads.Update(r.Context(), userID, chi.URLParam(r, "id"), patch)
	if err != nil {
		h.logFailure(r, "updating upload record failed", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recordResponse{Success: true, File: toRecordJSON(u)})
}

func (h *Handler) deleteRecord(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	if err := h.uploads.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		h.logFailure(r, "deleting upload record failed", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
