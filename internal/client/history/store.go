package history

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/lessonvault/internal/client/history/migrations"
	"github.com/dmitrijs2005/lessonvault/internal/dbx"
	"github.com/dmitrijs2005/lessonvault/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

const dbFileName = "history.db"

// Entry is one completed upload as remembered by the CLI.
type Entry struct {
	ID           string
	FileName     string
	OriginalName string
	LocalPath    string
	S3Key        string
	S3URL        string
	FileSize     int64
	FileType     string
	LessonID     *string
	Mode         string
	UploadedAt   time.Time
}

// Store persists Entry values.
type Store struct {
	db     dbx.DBTX
	closer func() error
}

// NewStore wraps an already-migrated handle.
func NewStore(db dbx.DBTX) *Store {
	return &Store{db: db}
}

// RunMigrations applies the embedded schema to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open creates dir if needed, opens the history database inside it and runs
// migrations. The dir ":memory:" opens a throwaway in-memory database.
func Open(ctx context.Context, dir string) (*Store, error) {
	dsn := ":memory:"
	if dir != ":memory:" {
		abs, err := filex.EnsureSubdDir(dir)
		if err != nil {
			return nil, err
		}
		dsn = filepath.Join(abs, dbFileName)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// a single connection keeps :memory: databases shared between calls
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, closer: db.Close}, nil
}

// Close releases the underlying database when Store owns it.
func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

func (s *Store) Add(ctx context.Context, e *Entry) error {
	query := `INSERT INTO uploads (id, file_name, original_name, local_path, s3_key, s3_url, file_size, file_type, lesson_id, mode, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET file_name = excluded.file_name,
			lesson_id = excluded.lesson_id`

	uploadedAt := e.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, query, e.ID, e.FileName, e.OriginalName, e.LocalPath, e.S3Key, e.S3URL,
		e.FileSize, e.FileType, e.LessonID, e.Mode, uploadedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert upload: %w", err)
	}
	return nil
}

// List returns the most recent entries first. limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = -1
	}

	query := `SELECT id, file_name, original_name, local_path, s3_key, s3_url, file_size, file_type, lesson_id, mode, uploaded_at
		FROM uploads ORDER BY uploaded_at DESC, id LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error selecting uploads: %w", err)
	}
	defer rows.Close()

	var result []*Entry
	for rows.Next() {
		e := &Entry{}
		var lesson sql.NullString
		if err := rows.Scan(&e.ID, &e.FileName, &e.OriginalName, &e.LocalPath, &e.S3Key, &e.S3URL,
			&e.FileSize, &e.FileType, &lesson, &e.Mode, &e.UploadedAt); err != nil {
			return nil, err
		}
		if lesson.Valid {
			v := lesson.String
			e.LessonID = &v
		}
		result = append(result, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Remove deletes the entry with id. Unknown ids yield common.ErrorNotFound.
func (s *Store) Remove(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM uploads WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete upload: %w", err)
	}
	return dbx.ExpectOneRow(res)
}
