package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/doc-responder/internal/core/domain"
)

type ReplyJournal struct {
	db *sql.DB
}

func NewReplyJournal(db *sql.DB) *ReplyJournal {
	return &ReplyJournal{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *ReplyJournal) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS reply_journal (
	id TEXT PRIMARY KEY,
	message_id TEXT NOT NULL UNIQUE,
	artifact_id TEXT NOT NULL,
	recipient TEXT NOT NULL,
	subject TEXT NOT NULL,
	relevance_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	sent_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reply_journal_sent_at ON reply_journal(sent_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *ReplyJournal) AlreadyReplied(ctx context.Context, messageID string) (bool, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT EXISTS (SELECT 1 FROM reply_journal WHERE message_id = $1)
`, messageID)

	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("lookup reply: %w", err)
	}
	return exists, nil
}

// Record is idempotent per message so overlapping scan windows cannot
// double-journal a reply.
func (r *ReplyJournal) Record(ctx context.Context, record domain.ReplyRecord) error {
	if record.SentAt.IsZero() {
		record.SentAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO reply_journal (id, message_id, artifact_id, recipient, subject, relevance_score, sent_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (message_id) DO NOTHING
`,
		record.ID, record.MessageID, record.ArtifactID, record.Recipient, record.Subject,
		record.RelevanceScore, record.SentAt,
	)
	if err != nil {
		return fmt.Errorf("insert reply record: %w", err)
	}
	return nil
}

func (r *ReplyJournal) ListRecent(ctx context.Context, limit int) ([]domain.ReplyRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, message_id, artifact_id, recipient, subject, relevance_score, sent_at
FROM reply_journal
ORDER BY sent_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}
	defer rows.Close()

	var records []domain.ReplyRecord
	for rows.Next() {
		var rec domain.ReplyRecord
		if err := rows.Scan(
			&rec.ID, &rec.MessageID, &rec.ArtifactID, &rec.Recipient, &rec.Subject,
			&rec.RelevanceScore, &rec.SentAt,
		); err != nil {
			return nil, fmt.Errorf("scan reply record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reply records: %w", err)
	}
	return records, nil
}
