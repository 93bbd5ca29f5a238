package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// ResearchRepository stores research results saved against tickets.
type ResearchRepository interface {
	// CreateBatch inserts all results in one transaction; either every row is
	// written or none is.
	CreateBatch(ctx context.Context, results []domain.ResearchResult) error
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.ResearchResult, error)
}

type researchRepository struct {
	pool *pgxpool.Pool
}

// NewResearchRepository builds repository.
func NewResearchRepository(pool *pgxpool.Pool) ResearchRepository {
	return &researchRepository{pool: pool}
}

func (r *researchRepository) CreateBatch(ctx context.Context, results []domain.ResearchResult) error {
	if len(results) == 0 {
		return nil
	}
	const query = `
        INSERT INTO research_results (ticket_id, query, title, url, snippet, provider, stub, saved_by, retrieved_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id`

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for i := range results {
			res := &results[i]
			if err := tx.QueryRow(ctx, query,
				res.TicketID,
				res.Query,
				res.Title,
				res.URL,
				res.Snippet,
				res.Provider,
				res.Stub,
				res.SavedBy,
				res.RetrievedAt,
			).Scan(&res.ID); err != nil {
				return mapErr(err)
			}
		}
		return nil
	})
}

func (r *researchRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.ResearchResult, error) {
	const query = `
        SELECT id, ticket_id, query, title, url, snippet, provider, stub, saved_by, retrieved_at
        FROM research_results WHERE ticket_id=$1 ORDER BY retrieved_at DESC, id DESC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ResearchResult
	for rows.Next() {
		var res domain.ResearchResult
		if err := rows.Scan(
			&res.ID,
			&res.TicketID,
			&res.Query,
			&res.Title,
			&res.URL,
			&res.Snippet,
			&res.Provider,
			&res.Stub,
			&res.SavedBy,
			&res.RetrievedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, res)
	}
	return result, rows.Err()
}
