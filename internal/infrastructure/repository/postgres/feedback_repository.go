package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/chartsense/rule-engine/internal/core/domain"
)

// FeedbackRepository is the append-only feedback store. No update or delete
// is exposed; retention is owned by the persistence layer.
type FeedbackRepository struct {
	db *sql.DB
}

func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) Append(ctx context.Context, sample domain.FeedbackSample) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO feedback_samples (finding_id, raw_confidence, correct, discipline, document_type, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, sample.FindingID, sample.RawConfidence, sample.Correct, sample.Discipline, sample.DocumentType, sample.CreatedAt)
	if err != nil {
		return fmt.Errorf("append feedback sample: %w", err)
	}
	return nil
}

func (r *FeedbackRepository) All(ctx context.Context) ([]domain.FeedbackSample, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT finding_id, raw_confidence, correct, discipline, document_type, created_at
FROM feedback_samples
ORDER BY created_at, id
`)
	if err != nil {
		return nil, fmt.Errorf("list feedback samples: %w", err)
	}
	defer rows.Close()

	out := make([]domain.FeedbackSample, 0)
	for rows.Next() {
		var sample domain.FeedbackSample
		if err := rows.Scan(
			&sample.FindingID,
			&sample.RawConfidence,
			&sample.Correct,
			&sample.Discipline,
			&sample.DocumentType,
			&sample.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan feedback sample: %w", err)
		}
		out = append(out, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback samples: %w", err)
	}
	return out, nil
}

func (r *FeedbackRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM feedback_samples WHERE created_at > $1
`, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count feedback samples: %w", err)
	}
	return count, nil
}

func (r *FeedbackRepository) Stats(ctx context.Context) (domain.FeedbackStats, error) {
	stats := domain.FeedbackStats{ByDiscipline: make(map[string]int)}

	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE correct),
       COUNT(*) FILTER (WHERE NOT correct)
FROM feedback_samples
`).Scan(&stats.TotalSamples, &stats.CorrectCount, &stats.IncorrectCount)
	if err != nil {
		return stats, fmt.Errorf("aggregate feedback stats: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT discipline, COUNT(*)
FROM feedback_samples
WHERE discipline <> ''
GROUP BY discipline
`)
	if err != nil {
		return stats, fmt.Errorf("aggregate feedback by discipline: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var discipline string
		var count int
		if err := rows.Scan(&discipline, &count); err != nil {
			return stats, fmt.Errorf("scan discipline stats: %w", err)
		}
		stats.ByDiscipline[discipline] = count
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("iterate discipline stats: %w", err)
	}
	return stats, nil
}
