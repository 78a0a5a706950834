package models

import "time"

// Upload statuses. A row is only written once the object exists in storage,
// so completed is the only state a persisted row normally holds.
const (
	UploadStatusCompleted = "completed"
	UploadStatusArchived  = "archived"
)

// Upload is the durable metadata of one stored object.
type Upload struct {
	ID           string
	UserID       string
	LessonID     *string
	FileName     string
	OriginalName string
	FileSize     int64
	FileType     string
	S3Key        string
	S3URL        string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UploadPatch holds the mutable fields of an Upload. Nil fields are left as-is.
// ClearLesson detaches the upload from any lesson.
type UploadPatch struct {
	OriginalName *string
	LessonID     *string
	ClearLesson  bool
	Status       *string
}
