// internal/repository/postgres/contract_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"helloaca-service/internal/domain/contract"
	xerrors "helloaca-service/internal/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const contractColumns = `
	id, user_id, title, description, contract_type,
	file_name, file_size, file_type, storage_path, file_url, content_preview,
	status, created_at, updated_at
`

type ContractRepository struct {
	db *pgxpool.Pool
}

func NewContractRepository(db *pgxpool.Pool) *ContractRepository {
	return &ContractRepository{db: db}
}

func scanContract(row pgx.Row) (*contract.Contract, error) {
	var c contract.Contract
	err := row.Scan(
		&c.ID, &c.UserID, &c.Title, &c.Description, &c.ContractType,
		&c.FileName, &c.FileSize, &c.FileType, &c.StoragePath, &c.FileURL, &c.ContentPreview,
		&c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan contract: %w", err)
	}
	return &c, nil
}

// Create inserts an uploaded contract row. The caller assigns the id up
// front because the blob path embeds it before the row exists.
func (r *ContractRepository) Create(ctx context.Context, c *contract.Contract) error {
	query := `
		INSERT INTO contracts (
			id, user_id, title, description, contract_type,
			file_name, file_size, file_type, storage_path, file_url, content_preview,
			status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		c.ID, c.UserID, c.Title, c.Description, c.ContractType,
		c.FileName, c.FileSize, c.FileType, c.StoragePath, c.FileURL, c.ContentPreview,
		c.Status,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create contract: %w", err)
	}

	return nil
}

// FindByID retrieves a contract owned by the given user. Ownership is
// enforced in the query itself; a foreign row reads as not found.
func (r *ContractRepository) FindByID(ctx context.Context, userID, id uuid.UUID) (*contract.Contract, error) {
	query := `
		SELECT ` + contractColumns + `
		FROM contracts
		WHERE id = $1 AND user_id = $2
	`
	return scanContract(r.db.QueryRow(ctx, query, id, userID))
}

// List retrieves a page of the user's contracts, newest first.
func (r *ContractRepository) List(ctx context.Context, userID uuid.UUID, filters *contract.ListFilters) ([]contract.Contract, int64, error) {
	where := "WHERE user_id = $1"
	args := []interface{}{userID}
	if filters.Status != "" {
		where += " AND status = $2"
		args = append(args, filters.Status)
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM contracts " + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count contracts: %w", err)
	}

	offset := (filters.Page - 1) * filters.PageSize
	listQuery := fmt.Sprintf(
		"SELECT %s FROM contracts %s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		contractColumns, where, filters.PageSize, offset,
	)

	rows, err := r.db.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list contracts: %w", err)
	}
	defer rows.Close()

	var contracts []contract.Contract
	for rows.Next() {
		var c contract.Contract
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.Title, &c.Description, &c.ContractType,
			&c.FileName, &c.FileSize, &c.FileType, &c.StoragePath, &c.FileURL, &c.ContentPreview,
			&c.Status, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan contract row: %w", err)
		}
		contracts = append(contracts, c)
	}

	return contracts, total, rows.Err()
}

// Update updates a contract's mutable metadata.
func (r *ContractRepository) Update(ctx context.Context, userID, id uuid.UUID, title, description *string) (*contract.Contract, error) {
	query := `
		UPDATE contracts
		SET title = COALESCE($3, title),
		    description = COALESCE($4, description),
		    updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + contractColumns

	return scanContract(r.db.QueryRow(ctx, query, id, userID, title, description))
}

// UpdateStatus transitions a contract's lifecycle status.
func (r *ContractRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status contract.Status) error {
	query := `UPDATE contracts SET status = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update contract status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// TransitionStatus moves a contract from one status to another only if it
// currently holds the expected status. Used to claim a contract for
// analysis: the second of two concurrent claims affects zero rows.
func (r *ContractRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to contract.Status) (bool, error) {
	query := `
		UPDATE contracts SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`
	tag, err := r.db.Exec(ctx, query, id, from, to)
	if err != nil {
		return false, fmt.Errorf("failed to transition contract status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Delete removes a contract row; dependent analysis and chat rows cascade
// at the database level.
func (r *ContractRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM contracts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete contract: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// CountCreatedSince counts the user's contracts created at or after the
// given instant. Used for the monthly paid-tier cap.
func (r *ContractRepository) CountCreatedSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM contracts WHERE user_id = $1 AND created_at >= $2`
	if err := r.db.QueryRow(ctx, query, userID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count contracts: %w", err)
	}
	return count, nil
}
