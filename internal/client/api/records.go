package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// RecordInput is the metadata persisted after a successful transfer.
type RecordInput struct {
	FileName     string  `json:"filename,omitempty"`
	OriginalName string  `json:"original_name,omitempty"`
	FileSize     int64   `json:"file_size"`
	FileType     string  `json:"file_type,omitempty"`
	S3Key        string  `json:"s3_key"`
	S3URL        string  `json:"s3_url"`
	LessonID     *string `json:"lesson_id,omitempty"`
}

// Record is an upload record as stored by the server.
type Record struct {
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

// RecordPatch changes selected fields of a record. ClearLesson detaches the
// record from its lesson and wins over LessonID.
type RecordPatch struct {
	OriginalName *string
	LessonID     *string
	ClearLesson  bool
}

func (p RecordPatch) MarshalJSON() ([]byte, error) {
	m := map[string]any{}
	if p.OriginalName != nil {
		m["original_name"] = *p.OriginalName
	}
	switch {
	case p.ClearLesson:
		m["lesson_id"] = nil
	case p.LessonID != nil:
		m["lesson_id"] = *p.LessonID
	}
	return json.Marshal(m)
}

type recordEnvelope struct {
	File Record `json:"file"`
}

type listEnvelope struct {
	Files []Record `json:"files"`
}

func (c *Client) SaveRecord(ctx context.Context, in RecordInput) (*Record, error) {
	var out recordEnvelope
	if err := c.doJSON(ctx, http.MethodPost, "/api/files", in, &out, true); err != nil {
		return nil, err
	}
	return &out.File, nil
}

func (c *Client) ListRecords(ctx context.Context) ([]Record, error) {
	var out listEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/api/files", nil, &out, true); err != nil {
		return nil, err
	}
	return out.Files, nil
}

func (c *Client) GetRecord(ctx context.Context, id string) (*Record, error) {
	var out recordEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/api/files/"+pathEscape(id), nil, &out, true); err != nil {
		return nil, err
	}
	return &out.File, nil
}

func (c *Client) UpdateRecord(ctx context.Context, id string, patch RecordPatch) (*Record, error) {
	var out recordEnvelope
	if err := c.doJSON(ctx, http.MethodPut, "/api/files/"+pathEscape(id), patch, &out, true); err != nil {
		return nil, err
	}
	return &out.File, nil
}

func (c *Client) DeleteRecord(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/files/"+pathEscape(id), nil, nil, true)
}
