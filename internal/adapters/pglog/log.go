// Package pglog stores the message log in Postgres via pgx.
package pglog

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dkeye/Parley/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	room_id     TEXT        NOT NULL,
	message_id  BIGINT      NOT NULL,
	author_id   TEXT        NOT NULL,
	author_name TEXT        NOT NULL,
	body        TEXT        NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (room_id, message_id)
)`

type Log struct {
	pool *pgxpool.Pool
}

// Connect opens a pool, verifies the database is reachable and applies
// the schema.
func Connect(ctx context.Context, url string) (*Log, error) {
	poolCfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Log{pool: pool}, nil
}

func (l *Log) Close() {
	l.pool.Close()
}

// Append assigns the next message id within the room. The broadcast
// router serializes appends per room, so the max+1 read cannot race
// with another append for the same room id.
func (l *Log) Append(ctx context.Context, roomID domain.RoomID, author domain.User, body string) (domain.Message, error) {
	now := time.Now().UTC()
	var id int64
	err := l.pool.QueryRow(ctx, `
		INSERT INTO messages (room_id, message_id, author_id, author_name, body, created_at)
		SELECT $1, COALESCE(MAX(message_id), 0) + 1, $2, $3, $4, $5
		FROM messages WHERE room_id = $1
		RETURNING message_id`,
		string(roomID), string(author.ID), author.DisplayName, body, now,
	).Scan(&id)
	if err != nil {
		return domain.Message{}, fmt.Errorf("append message: %w", err)
	}
	return domain.Message{
		ID:        domain.MessageID(id),
		RoomID:    roomID,
		Author:    author,
		Body:      body,
		CreatedAt: now,
	}, nil
}

// History returns the room's messages ascending by message id. A
// positive limit caps the result to the most recent entries, still
// ascending.
func (l *Log) History(ctx context.Context, roomID domain.RoomID, limit int) ([]domain.Message, error) {
	query := `
		SELECT message_id, author_id, author_name, body, created_at
		FROM messages WHERE room_id = $1
		ORDER BY message_id`
	args := []any{string(roomID)}
	if limit > 0 {
		query = `
			SELECT message_id, author_id, author_name, body, created_at
			FROM (
				SELECT message_id, author_id, author_name, body, created_at
				FROM messages WHERE room_id = $1
				ORDER BY message_id DESC LIMIT $2
			) recent
			ORDER BY message_id`
		args = append(args, limit)
	}

	rows, err := l.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var (
			id        int64
			authorID  string
			name      string
			body      string
			createdAt time.Time
		)
		if err := rows.Scan(&id, &authorID, &name, &body, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, domain.Message{
			ID:        domain.MessageID(id),
			RoomID:    roomID,
			Author:    domain.User{ID: domain.UserID(authorID), DisplayName: name},
			Body:      body,
			CreatedAt: createdAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return out, nil
}
