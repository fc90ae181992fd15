package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/l2pledge/internal/game/crest"
)

// CrestRepository stores crest images in PostgreSQL.
type CrestRepository struct {
	pool *pgxpool.Pool
}

var _ crest.Store = (*CrestRepository)(nil)

func NewCrestRepository(pool *pgxpool.Pool) *CrestRepository {
	return &CrestRepository{pool: pool}
}

// LoadCrests returns every crest ordered by id.
func (r *CrestRepository) LoadCrests(ctx context.Context) ([]crest.CrestRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT crest_id, data, type FROM crests ORDER BY crest_id`)
	if err != nil {
		return nil, fmt.Errorf("query crests: %w", err)
	}
	result, err := pgx.CollectRows(rows, pgx.RowToStructByPos[crest.CrestRow])
	if err != nil {
		return nil, fmt.Errorf("collect crests: %w", err)
	}
	return result, nil
}

// SaveCrest inserts or replaces a crest image.
func (r *CrestRepository) SaveCrest(ctx context.Context, row crest.CrestRow) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO crests (crest_id, data, type) VALUES ($1, $2, $3)
		ON CONFLICT (crest_id) DO UPDATE SET data = EXCLUDED.data, type = EXCLUDED.type`,
		row.CrestID, row.Data, row.Type)
	if err != nil {
		return fmt.Errorf("save crest %d: %w", row.CrestID, err)
	}
	return nil
}

// DeleteCrests removes the given crests in one statement.
func (r *CrestRepository) DeleteCrests(ctx context.Context, ids []int32) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM crests WHERE crest_id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("delete crests %v: %w", ids, err)
	}
	return tag.RowsAffected(), nil
}
