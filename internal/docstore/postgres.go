package docstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS chat_messages (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	code       TEXT,
	language   TEXT,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chat_messages_user_time ON chat_messages (user_id, created_at);`

// Postgres is the pgx-backed Store.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) Insert(ctx context.Context, rec Record) error {
	// NULL, not empty string, for absent optional fields.
	var code, language *string
	if rec.Code != "" {
		code = &rec.Code
	}
	if rec.Language != "" {
		language = &rec.Language
	}
	_, err := p.pool.Exec(ctx, `
		INSERT INTO chat_messages (id, user_id, role, content, code, language, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.UserID, rec.Role, rec.Content, code, language, rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (p *Postgres) Query(ctx context.Context, q Query) ([]Record, error) {
	sql := `
		SELECT id, user_id, role, content, code, language, created_at
		FROM chat_messages
		WHERE user_id = $1`
	if q.OrderByTimestamp {
		sql += ` ORDER BY created_at ASC`
	}
	args := []any{q.UserID}
	if q.Limit > 0 {
		sql += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, q.Limit)
	}

	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var rec Record
		var code, language *string
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Role, &rec.Content, &code, &language, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if code != nil {
			rec.Code = *code
		}
		if language != nil {
			rec.Language = *language
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read messages: %w", err)
	}
	return recs, nil
}

func (p *Postgres) Delete(ctx context.Context, id string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM chat_messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete message %s: %w", id, err)
	}
	return nil
}
