package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/andreluis2005/cognira/internal/catalog"
	"github.com/andreluis2005/cognira/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// CatalogLoader loads topics and question JSONB from Postgres.
type CatalogLoader struct {
	pool *pgxpool.Pool
}

func NewCatalogLoader(pool *pgxpool.Pool) *CatalogLoader {
	return &CatalogLoader{pool: pool}
}

func (l *CatalogLoader) LoadDataset(ctx context.Context, certification string) (catalog.Dataset, error) {
	ds := catalog.Dataset{Certification: certification}

	rows, err := l.pool.Query(ctx,
		`SELECT id, label, macro_domain, exam_weight FROM topics WHERE certification=$1 ORDER BY position, id`,
		certification)
	if err != nil {
		return catalog.Dataset{}, fmt.Errorf("load topics: %w", err)
	}
	for rows.Next() {
		var t domain.Topic
		var macro, weight string
		if err := rows.Scan(&t.ID, &t.Label, &macro, &weight); err != nil {
			rows.Close()
			return catalog.Dataset{}, fmt.Errorf("scan topic: %w", err)
		}
		t.MacroDomain, t.ExamWeight = domain.MacroDomain(macro), domain.ExamWeight(weight)
		ds.Topics = append(ds.Topics, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return catalog.Dataset{}, fmt.Errorf("load topics: %w", err)
	}

	rows, err = l.pool.Query(ctx,
		`SELECT data FROM questions WHERE certification=$1 ORDER BY position, id`,
		certification)
	if err != nil {
		return catalog.Dataset{}, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return catalog.Dataset{}, fmt.Errorf("scan question: %w", err)
		}
		var q domain.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			return catalog.Dataset{}, fmt.Errorf("unmarshal question: %w", err)
		}
		ds.Questions = append(ds.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return catalog.Dataset{}, fmt.Errorf("load questions: %w", err)
	}

	if len(ds.Topics) == 0 && len(ds.Questions) == 0 {
		return catalog.Dataset{}, fmt.Errorf("%w: %s", domain.ErrCatalogNotFound, certification)
	}
	return ds, nil
}
