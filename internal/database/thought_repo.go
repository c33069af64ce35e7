package database

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/shubh-37/minddump/internal/models"
)

// ThoughtRepository is the postgres-backed store.ThoughtStore.
type ThoughtRepository struct {
	db *DB
}

func NewThoughtRepository(db *DB) *ThoughtRepository {
	return &ThoughtRepository{db: db}
}

// Save inserts a processed thought. Saving the same id twice is a no-op.
func (r *ThoughtRepository) Save(ctx context.Context, t *models.Thought) error {
	query := `
		INSERT INTO thoughts (id, raw_text, category, legacy_type, subcategory, priority,
			title, summary, expanded_text, actions, urgency, sentiment, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.db.Pool.Exec(ctx, query,
		t.ID,
		t.RawText,
		string(t.Category),
		string(t.LegacyType),
		t.Subcategory,
		string(t.Priority),
		t.Title,
		t.Summary,
		t.ExpandedText,
		t.Actions,
		t.Urgency,
		t.Sentiment,
		t.Source,
		t.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "failed to save thought")
	}

	return nil
}

// List returns one page of thoughts, newest first, and the total count.
func (r *ThoughtRepository) List(ctx context.Context, limit, offset int) ([]*models.Thought, int, error) {
	var total int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM thoughts`).Scan(&total); err != nil {
		return nil, 0, eris.Wrap(err, "failed to count thoughts")
	}

	query := `
		SELECT id, raw_text, category, legacy_type, COALESCE(subcategory, ''), priority,
			COALESCE(title, ''), COALESCE(summary, ''), COALESCE(expanded_text, ''), actions,
			COALESCE(urgency, ''), COALESCE(sentiment, ''), source, created_at
		FROM thoughts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, eris.Wrap(err, "failed to query thoughts")
	}
	defer rows.Close()

	thoughts := []*models.Thought{}
	for rows.Next() {
		t := &models.Thought{}
		err := rows.Scan(
			&t.ID,
			&t.RawText,
			&t.Category,
			&t.LegacyType,
			&t.Subcategory,
			&t.Priority,
			&t.Title,
			&t.Summary,
			&t.ExpandedText,
			&t.Actions,
			&t.Urgency,
			&t.Sentiment,
			&t.Source,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, 0, eris.Wrap(err, "failed to scan thought")
		}
		thoughts = append(thoughts, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, eris.Wrap(err, "failed to read thoughts")
	}

	return thoughts, total, nil
}
