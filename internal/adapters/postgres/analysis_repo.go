package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/italygeo/explorer/internal/core/domain"
)

// AnalysisRepo implements ports.AnalysisRepository on the analysis_results table.
type AnalysisRepo struct {
	db *DB
}

// NewAnalysisRepo creates a new AnalysisRepo.
func NewAnalysisRepo(db *DB) *AnalysisRepo {
	return &AnalysisRepo{db: db}
}

// Save inserts a run and sets its ID and creation time.
func (r *AnalysisRepo) Save(ctx context.Context, res *domain.AnalysisResult) error {
	results, err := json.Marshal(res.Results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO analysis_results (analysis_type, parameters, results)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, res.Type, props(res.Parameters), results).Scan(&res.ID, &res.CreatedAt)
}

// History returns up to limit runs, newest first.
func (r *AnalysisRepo) History(ctx context.Context, limit int) ([]domain.AnalysisResult, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, analysis_type, COALESCE(parameters, '{}'), results, created_at
		FROM analysis_results
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.AnalysisResult{}
	for rows.Next() {
		var (
			res     domain.AnalysisResult
			results []byte
		)
		if err := rows.Scan(&res.ID, &res.Type, &res.Parameters, &results, &res.CreatedAt); err != nil {
			return nil, err
		}
		if len(results) > 0 {
			if err := json.Unmarshal(results, &res.Results); err != nil {
				return nil, fmt.Errorf("decode results of analysis %d: %w", res.ID, err)
			}
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
