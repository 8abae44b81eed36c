package resource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrResourceNotFound = errors.New("resource not found")

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool}
}

// CreateResource records resource metadata
func (s *PostgresStore) CreateResource(ctx context.Context, res *Resource) error {
	query := `
		INSERT INTO resources (id, name, level, s3_key, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	res.CreatedAt = time.Now()

	_, err := s.pool.Exec(ctx, query,
		res.ID,
		res.Name,
		res.Level,
		res.S3Key,
		res.UploadedBy,
		res.CreatedAt,
	)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("operation cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("failed to create resource: %w", err)
	}

	return nil
}

// ListResources returns resources, optionally filtered by level
func (s *PostgresStore) ListResources(ctx context.Context, level string) ([]*Resource, error) {
	query := `
		SELECT id, name, level, s3_key, uploaded_by, created_at
		FROM resources
		WHERE ($1 = '' OR level = $1)
		ORDER BY created_at DESC
	`

	rows, err := s.pool.Query(ctx, query, level)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	defer rows.Close()

	resources := []*Resource{}
	for rows.Next() {
		res := &Resource{}
		err := rows.Scan(&res.ID, &res.Name, &res.Level, &res.S3Key, &res.UploadedBy, &res.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		resources = append(resources, res)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating resources: %w", err)
	}

	return resources, nil
}

// GetResourceByID retrieves one resource's metadata
func (s *PostgresStore) GetResourceByID(ctx context.Context, id uuid.UUID) (*Resource, error) {
	query := `
		SELECT id, name, level, s3_key, uploaded_by, created_at
		FROM resources
		WHERE id = $1
	`

	res := &Resource{}
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&res.ID,
		&res.Name,
		&res.Level,
		&res.S3Key,
		&res.UploadedBy,
		&res.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResourceNotFound
		}
		return nil, fmt.Errorf("failed to get resource: %w", err)
	}

	return res, nil
}

// DeleteResource removes resource metadata
func (s *PostgresStore) DeleteResource(ctx context.Context, id uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM resources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete resource: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrResourceNotFound
	}

	return nil
}
