// Package checklog persists the audit history of daily circulation checks.
package checklog

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/circulabot/internal/domain/advisor"
	"github.com/yanqian/circulabot/internal/domain/circulation"
)

// PostgresRepository implements advisor.CheckRepository using pgx.
//
// Expected schema:
//
//	CREATE TABLE checks (
//	    id           UUID PRIMARY KEY,
//	    checked_at   TIMESTAMPTZ NOT NULL,
//	    check_date   TEXT NOT NULL,
//	    last_digit   INT NOT NULL,
//	    sticker      TEXT NOT NULL,
//	    level        TEXT NOT NULL,
//	    may_drive    BOOLEAN NOT NULL,
//	    reason       TEXT NOT NULL,
//	    message      TEXT NOT NULL,
//	    notified     BOOLEAN NOT NULL,
//	    notify_error TEXT NOT NULL DEFAULT ''
//	);
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Save inserts one check record.
func (r *PostgresRepository) Save(ctx context.Context, record advisor.CheckRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO checks (id, checked_at, check_date, last_digit, sticker, level, may_drive, reason, message, notified, notify_error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		record.ID, record.CheckedAt, record.Date, record.LastDigit,
		string(record.Sticker), string(record.Level), record.MayDrive,
		record.Reason, record.Message, record.Notified, record.NotifyError,
	)
	return err
}

// Recent fetches the latest records, newest first.
func (r *PostgresRepository) Recent(ctx context.Context, limit int) ([]advisor.CheckRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, checked_at, check_date, last_digit, sticker, level, may_drive, reason, message, notified, notify_error
		FROM checks
		ORDER BY checked_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []advisor.CheckRecord
	for rows.Next() {
		var (
			record  advisor.CheckRecord
			sticker string
			level   string
		)
		if err := rows.Scan(
			&record.ID, &record.CheckedAt, &record.Date, &record.LastDigit,
			&sticker, &level, &record.MayDrive, &record.Reason,
			&record.Message, &record.Notified, &record.NotifyError,
		); err != nil {
			return nil, err
		}
		record.Sticker = circulation.StickerCategory(sticker)
		record.Level = circulation.ContingencyLevel(level)
		records = append(records, record)
	}
	return records, rows.Err()
}

var _ advisor.CheckRepository = (*PostgresRepository)(nil)
