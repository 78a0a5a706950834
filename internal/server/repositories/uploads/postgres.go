package uploads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/lessonvault/internal/common"
	"github.com/dmitrijs2005/lessonvault/internal/dbx"
	"github.com/dmitrijs2005/lessonvault/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation = "23505"

	columns = `id, user_id, lesson_id, filename, original_name, file_size, file_type, s3_key, s3_url, status, created_at, updated_at`
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUpload(row scanner) (*models.Upload, error) {
	var (
		u      models.Upload
		lesson sql.NullString
	)
	err := row.Scan(&u.ID, &u.UserID, &lesson, &u.FileName, &u.OriginalName, &u.FileSize,
		&u.FileType, &u.S3Key, &u.S3URL, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if lesson.Valid {
		u.LessonID = &lesson.String
	}
	return &u, nil
}

func nullable(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func (r *PostgresRepository) Create(ctx context.Context, u *models.Upload) error {
	query := `
		INSERT INTO uploads (id, user_id, lesson_id, filename, original_name, file_size, file_type, s3_key, s3_url, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`
	if u.Status == "" {
		u.Status = models.UploadStatusCompleted
	}
	err := r.db.QueryRowContext(ctx, query,
		u.ID, u.UserID, nullable(u.LessonID), u.FileName, u.OriginalName, u.FileSize,
		u.FileType, u.S3Key, u.S3URL, u.Status,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, id string) (*models.Upload, error) {
	query := `SELECT ` + columns + ` FROM uploads WHERE id = $1 AND user_id = $2`

	u, err := scanUpload(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, lessonID *string) ([]*models.Upload, error) {
	query := `SELECT ` + columns + ` FROM uploads WHERE user_id = $1`
	args := []any{userID}
	if lessonID != nil {
		query += ` AND lesson_id = $2`
		args = append(args, *lessonID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select uploads: %w", err)
	}
	defer rows.Close()

	var result []*models.Upload
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, userID, id string, patch models.UploadPatch) (*models.Upload, error) {
	query := `
		UPDATE uploads SET
			original_name = COALESCE($3, original_name),
			lesson_id = CASE WHEN $4 THEN NULL ELSE COALESCE($5, lesson_id) END,
			status = COALESCE($6, status),
			updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + columns

	u, err := scanUpload(r.db.QueryRowContext(ctx, query,
		id, userID, nullable(patch.OriginalName), patch.ClearLesson, nullable(patch.LessonID), nullable(patch.Status)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) (*models.Upload, error) {
	query := `DELETE FROM uploads WHERE id = $1 AND user_id = $2 RETURNING ` + columns

	u, err := scanUpload(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to delete upload: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) ExistingKeys(ctx context.Context, keys []string) (map[string]struct{}, error) {
	found := make(map[string]struct{}, len(keys))
	if len(keys) == 0 {
		return found, nil
	}

	placeholders := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = k
	}
	query := `SELECT s3_key FROM uploads WHERE s3_key IN (` + strings.Join(placeholders, ", ") + `)`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		found[k] = struct{}{}
	}
	return found, rows.Err()
}
