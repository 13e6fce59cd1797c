package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/andreluis2005/cognira/internal/catalog"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// CatalogSeeder replaces the stored reference data of one certification.
type CatalogSeeder struct {
	pool *pgxpool.Pool
}

func NewCatalogSeeder(pool *pgxpool.Pool) *CatalogSeeder {
	return &CatalogSeeder{pool: pool}
}

// Seed validates ds and writes it in a single transaction, so readers never see
// a half-written catalog.
func (s *CatalogSeeder) Seed(ctx context.Context, ds catalog.Dataset) error {
	cat, err := catalog.New(ds)
	if err != nil {
		return err
	}
	ds = cat.Dataset()
	cert := cat.Certification()

	return s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE certification=$1`, cert); err != nil {
			return fmt.Errorf("clear questions: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM topics WHERE certification=$1`, cert); err != nil {
			return fmt.Errorf("clear topics: %w", err)
		}
		for i, t := range ds.Topics {
			_, err := tx.Exec(ctx,
				`INSERT INTO topics (certification, id, label, macro_domain, exam_weight, position) VALUES ($1, $2, $3, $4, $5, $6)`,
				cert, t.ID, t.Label, string(t.MacroDomain), string(t.ExamWeight), i)
			if err != nil {
				return fmt.Errorf("insert topic %s: %w", t.ID, err)
			}
		}
		for i, q := range ds.Questions {
			data, err := json.Marshal(q)
			if err != nil {
				return fmt.Errorf("marshal question %s: %w", q.ID, err)
			}
			_, err = tx.Exec(ctx,
				`INSERT INTO questions (certification, id, topic_id, position, data) VALUES ($1, $2, $3, $4, $5)`,
				cert, q.ID, q.TopicID, i, data)
			if err != nil {
				return fmt.Errorf("insert question %s: %w", q.ID, err)
			}
		}
		return nil
	})
}
