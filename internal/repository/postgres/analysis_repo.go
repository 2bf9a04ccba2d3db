// internal/repository/postgres/analysis_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"helloaca-service/internal/domain/analysis"
	xerrors "helloaca-service/internal/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

type AnalysisRepository struct {
	db *pgxpool.Pool
}

func NewAnalysisRepository(db *pgxpool.Pool) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// CreateWithClauses inserts a completed analysis and its clause rows in
// one transaction. The unique index on contract_id rejects a duplicate
// analysis for the same contract; that surfaces as ErrConflict.
func (r *AnalysisRepository) CreateWithClauses(ctx context.Context, a *analysis.Analysis, risks []analysis.RiskClause, missing []analysis.MissingClause) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insertAnalysis := `
		INSERT INTO analyses (
			contract_id, user_id, status, overall_risk_score, summary,
			key_findings, recommendations, model_used, analysis_duration_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err = tx.QueryRow(
		ctx, insertAnalysis,
		a.ContractID, a.UserID, a.Status, a.OverallRiskScore, a.Summary,
		pq.Array(a.KeyFindings), pq.Array(a.Recommendations), a.ModelUsed, a.DurationMS,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return xerrors.ErrConflict
		}
		return fmt.Errorf("failed to create analysis: %w", err)
	}

	insertRisk := `
		INSERT INTO risk_clauses (
			analysis_id, clause_text, risk_level, risk_category,
			explanation, recommendation, location
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for i := range risks {
		risks[i].AnalysisID = a.ID
		if _, err := tx.Exec(ctx, insertRisk,
			a.ID, risks[i].ClauseText, risks[i].RiskLevel, risks[i].RiskCategory,
			risks[i].Explanation, risks[i].Recommendation, risks[i].Location,
		); err != nil {
			return fmt.Errorf("failed to insert risk clause: %w", err)
		}
	}

	insertMissing := `
		INSERT INTO missing_clauses (
			analysis_id, clause_type, importance, description,
			suggested_text, legal_impact
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i := range missing {
		missing[i].AnalysisID = a.ID
		if _, err := tx.Exec(ctx, insertMissing,
			a.ID, missing[i].ClauseType, missing[i].Importance, missing[i].Description,
			missing[i].SuggestedText, missing[i].LegalImpact,
		); err != nil {
			return fmt.Errorf("failed to insert missing clause: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func scanAnalysis(row pgx.Row) (*analysis.Analysis, error) {
	var a analysis.Analysis
	err := row.Scan(
		&a.ID, &a.ContractID, &a.UserID, &a.Status,
		&a.OverallRiskScore, &a.Summary,
		pq.Array(&a.KeyFindings), pq.Array(&a.Recommendations),
		&a.ModelUsed, &a.DurationMS, &a.ErrorMessage,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan analysis: %w", err)
	}
	return &a, nil
}

const analysisColumns = `
	id, contract_id, user_id, status, overall_risk_score, summary,
	key_findings, recommendations, model_used, analysis_duration_ms,
	error_message, created_at, updated_at
`

// FindByID retrieves an analysis owned by the given user.
func (r *AnalysisRepository) FindByID(ctx context.Context, userID, id uuid.UUID) (*analysis.Analysis, error) {
	query := `
		SELECT ` + analysisColumns + `
		FROM analyses
		WHERE id = $1 AND user_id = $2
	`
	return scanAnalysis(r.db.QueryRow(ctx, query, id, userID))
}

// FindByContract retrieves the analysis for a contract, if one exists.
func (r *AnalysisRepository) FindByContract(ctx context.Context, userID, contractID uuid.UUID) (*analysis.Analysis, error) {
	query := `
		SELECT ` + analysisColumns + `
		FROM analyses
		WHERE contract_id = $1 AND user_id = $2
	`
	return scanAnalysis(r.db.QueryRow(ctx, query, contractID, userID))
}

// ListRiskClauses returns the risk clauses of an analysis in insertion order.
func (r *AnalysisRepository) ListRiskClauses(ctx context.Context, analysisID uuid.UUID) ([]analysis.RiskClause, error) {
	query := `
		SELECT id, analysis_id, clause_text, risk_level, risk_category,
		       explanation, recommendation, location, created_at
		FROM risk_clauses
		WHERE analysis_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, analysisID)
	if err != nil {
		return nil, fmt.Errorf("failed to list risk clauses: %w", err)
	}
	defer rows.Close()

	var clauses []analysis.RiskClause
	for rows.Next() {
		var rc analysis.RiskClause
		if err := rows.Scan(
			&rc.ID, &rc.AnalysisID, &rc.ClauseText, &rc.RiskLevel, &rc.RiskCategory,
			&rc.Explanation, &rc.Recommendation, &rc.Location, &rc.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan risk clause: %w", err)
		}
		clauses = append(clauses, rc)
	}

	return clauses, rows.Err()
}

// ListMissingClauses returns the missing clauses of an analysis.
func (r *AnalysisRepository) ListMissingClauses(ctx context.Context, analysisID uuid.UUID) ([]analysis.MissingClause, error) {
	query := `
		SELECT id, analysis_id, clause_type, importance, description,
		       suggested_text, legal_impact, created_at
		FROM missing_clauses
		WHERE analysis_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, analysisID)
	if err != nil {
		return nil, fmt.Errorf("failed to list missing clauses: %w", err)
	}
	defer rows.Close()

	var clauses []analysis.MissingClause
	for rows.Next() {
		var mc analysis.MissingClause
		if err := rows.Scan(
			&mc.ID, &mc.AnalysisID, &mc.ClauseType, &mc.Importance, &mc.Description,
			&mc.SuggestedText, &mc.LegalImpact, &mc.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan missing clause: %w", err)
		}
		clauses = append(clauses, mc)
	}

	return clauses, rows.Err()
}

// CountCreatedSince counts the user's analyses created at or after the
// given instant. Used for the monthly paid-tier cap.
func (r *AnalysisRepository) CountCreatedSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM analyses WHERE user_id = $1 AND created_at >= $2`
	if err := r.db.QueryRow(ctx, query, userID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return count, nil
}
