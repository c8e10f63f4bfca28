package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"

	"teamchat/internal/domain/message"
)

const messageColumns = `id, room_id, sequence, sender_id, client_msg_id, body, created_at, edited_at, deleted`

type PostgresMessageRepository struct {
	db DBTX
}

func NewPostgresMessageRepository(db DBTX) MessageRepository {
	return &PostgresMessageRepository{db: db}
}

func scanMessage(row pgx.Row) (message.Message, error) {
	var m message.Message
	var clientMsgID *string
	err := row.Scan(&m.ID, &m.RoomID, &m.Sequence, &m.SenderID, &clientMsgID, &m.Body, &m.CreatedAt, &m.EditedAt, &m.Deleted)
	m.ClientMsgID = lo.FromPtr(clientMsgID)
	return m, err
}

func collectMessages(rows pgx.Rows, err error) ([]message.Message, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []message.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *PostgresMessageRepository) findByClientID(ctx context.Context, db DBTX, m *message.Message) (message.Message, error) {
	return scanMessage(db.QueryRow(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE room_id = $1 AND sender_id = $2 AND client_msg_id = $3`,
		m.RoomID, m.SenderID, m.ClientMsgID))
}

// Append increments rooms.last_sequence and inserts the message in one
// transaction; the row lock on the room orders concurrent appends.
func (r *PostgresMessageRepository) Append(ctx context.Context, m *message.Message) (bool, error) {
	if m.ClientMsgID != "" {
		existing, err := r.findByClientID(ctx, r.db, m)
		if err == nil {
			*m = existing
			return false, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return false, translateError(err)
		}
	}

	stored := *m
	err := WithTx(ctx, r.db, func(tx DBTX) error {
		if err := tx.QueryRow(ctx, `
			UPDATE rooms
			SET last_sequence = last_sequence + 1,
			    last_message_at = GREATEST(COALESCE(last_message_at, $2), $2)
			WHERE id = $1
			RETURNING last_sequence`, stored.RoomID, stored.CreatedAt).Scan(&stored.Sequence); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO messages (id, room_id, sequence, sender_id, client_msg_id, body, created_at, deleted)
			VALUES ($1, $2, $3, $4, $5, $6, $7, false)`,
			stored.ID, stored.RoomID, stored.Sequence, stored.SenderID,
			lo.EmptyableToPtr(stored.ClientMsgID), stored.Body, stored.CreatedAt)
		return err
	})
	if err != nil {
		// A concurrent retry with the same client id won the insert.
		if isUniqueViolation(err) && m.ClientMsgID != "" {
			existing, findErr := r.findByClientID(ctx, r.db, m)
			if findErr == nil {
				*m = existing
				return false, nil
			}
		}
		return false, translateError(err)
	}
	*m = stored
	return true, nil
}

func (r *PostgresMessageRepository) GetByID(ctx context.Context, roomID, id uuid.UUID) (message.Message, error) {
	m, err := scanMessage(r.db.QueryRow(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE room_id = $1 AND id = $2`, roomID, id))
	return m, translateError(err)
}

func (r *PostgresMessageRepository) Update(ctx context.Context, m message.Message) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE messages SET body = $3, edited_at = $4, deleted = $5
		WHERE room_id = $1 AND id = $2`,
		m.RoomID, m.ID, m.Body, m.EditedAt, m.Deleted)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return translateError(pgx.ErrNoRows)
	}
	return nil
}

func (r *PostgresMessageRepository) GetRange(ctx context.Context, roomID uuid.UUID, after, until int64) ([]message.Message, error) {
	if until <= after {
		return []message.Message{}, nil
	}
	messages, err := collectMessages(r.db.Query(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE room_id = $1 AND sequence > $2 AND sequence <= $3
		ORDER BY sequence ASC`, roomID, after, until))
	return messages, translateError(err)
}

func (r *PostgresMessageRepository) Latest(ctx context.Context, roomID uuid.UUID, limit int) ([]message.Message, error) {
	if limit <= 0 {
		return []message.Message{}, nil
	}
	messages, err := collectMessages(r.db.Query(ctx, `
		SELECT * FROM (
			SELECT `+messageColumns+` FROM messages
			WHERE room_id = $1
			ORDER BY sequence DESC
			LIMIT $2
		) newest ORDER BY sequence ASC`, roomID, limit))
	return messages, translateError(err)
}

func (r *PostgresMessageRepository) LastSequence(ctx context.Context, roomID uuid.UUID) (int64, error) {
	var seq int64
	err := r.db.QueryRow(ctx, `SELECT last_sequence FROM rooms WHERE id = $1`, roomID).Scan(&seq)
	return seq, translateError(err)
}

func (r *PostgresMessageRepository) CountVisibleAfter(ctx context.Context, roomID uuid.UUID, after int64) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM messages
		WHERE room_id = $1 AND sequence > $2 AND NOT deleted`, roomID, after).Scan(&count)
	return count, translateError(err)
}
