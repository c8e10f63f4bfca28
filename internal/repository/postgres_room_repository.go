package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"teamchat/internal/domain/room"
	teamchat_errors "teamchat/pkg/errors"
)

const roomColumns = `r.id, r.kind, r.project_id, r.name, r.created_by, r.created_at, r.last_sequence, r.last_message_at`

const participantColumns = `room_id, user_id, role, joined_at, last_read_sequence`

type PostgresRoomRepository struct {
	db DBTX
}

func NewPostgresRoomRepository(db DBTX) RoomRepository {
	return &PostgresRoomRepository{db: db}
}

func scanRoom(row pgx.Row) (room.Room, error) {
	var rm room.Room
	var kind string
	err := row.Scan(&rm.ID, &kind, &rm.ProjectID, &rm.Name, &rm.CreatedBy, &rm.CreatedAt, &rm.LastSequence, &rm.LastMessageAt)
	rm.Kind = room.Kind(kind)
	return rm, err
}

func scanParticipant(row pgx.Row) (room.Participant, error) {
	var p room.Participant
	var role string
	err := row.Scan(&p.RoomID, &p.UserID, &role, &p.JoinedAt, &p.LastReadSequence)
	p.Role = room.Role(role)
	return p, err
}

func collectParticipants(rows pgx.Rows, err error) ([]room.Participant, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []room.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func directPairKey(userID1, userID2 uuid.UUID) string {
	a, b := userID1.String(), userID2.String()
	if a > b {
		a, b = b, a
	}
	return strings.Join([]string{a, b}, ":")
}

func (r *PostgresRoomRepository) CreateRoom(ctx context.Context, rm *room.Room, participants []room.Participant) error {
	var directKey *string
	if rm.Kind == room.KindDirect && len(participants) == 2 {
		key := directPairKey(participants[0].UserID, participants[1].UserID)
		directKey = &key
	}
	err := WithTx(ctx, r.db, func(tx DBTX) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO rooms (id, kind, project_id, name, created_by, created_at, last_sequence, direct_key)
			VALUES ($1, $2, $3, $4, $5, $6, 0, $7)`,
			rm.ID, string(rm.Kind), rm.ProjectID, rm.Name, rm.CreatedBy, rm.CreatedAt, directKey)
		if err != nil {
			return err
		}
		for _, p := range participants {
			if err := insertParticipant(ctx, tx, p); err != nil {
				return err
			}
		}
		return nil
	})
	return translateError(err)
}

func insertParticipant(ctx context.Context, db DBTX, p room.Participant) error {
	_, err := db.Exec(ctx, `
		INSERT INTO participants (room_id, user_id, role, joined_at, last_read_sequence)
		VALUES ($1, $2, $3, $4, $5)`,
		p.RoomID, p.UserID, string(p.Role), p.JoinedAt, p.LastReadSequence)
	return err
}

func (r *PostgresRoomRepository) GetRoom(ctx context.Context, id uuid.UUID) (room.Room, error) {
	rm, err := scanRoom(r.db.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms r WHERE r.id = $1`, id))
	return rm, translateError(err)
}

func (r *PostgresRoomRepository) ListUserRooms(ctx context.Context, userID uuid.UUID) ([]room.Room, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+roomColumns+`
		FROM rooms r
		JOIN participants p ON p.room_id = r.id
		WHERE p.user_id = $1
		ORDER BY r.last_message_at DESC NULLS LAST, r.created_at DESC`, userID)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var rooms []room.Room
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, rm)
	}
	return rooms, rows.Err()
}

func (r *PostgresRoomRepository) FindDirectRoom(ctx context.Context, userID1, userID2 uuid.UUID) (room.Room, error) {
	rm, err := scanRoom(r.db.QueryRow(ctx,
		`SELECT `+roomColumns+` FROM rooms r WHERE r.direct_key = $1`, directPairKey(userID1, userID2)))
	return rm, translateError(err)
}

func (r *PostgresRoomRepository) AddParticipant(ctx context.Context, p *room.Participant) error {
	return translateError(insertParticipant(ctx, r.db, *p))
}

// lockRoom serializes membership changes of one room.
func lockRoom(ctx context.Context, tx DBTX, roomID uuid.UUID) error {
	var id uuid.UUID
	return tx.QueryRow(ctx, `SELECT id FROM rooms WHERE id = $1 FOR UPDATE`, roomID).Scan(&id)
}

func (r *PostgresRoomRepository) RemoveParticipant(ctx context.Context, roomID, userID uuid.UUID, promote bool) (*room.Participant, error) {
	var promoted *room.Participant
	err := WithTx(ctx, r.db, func(tx DBTX) error {
		if err := lockRoom(ctx, tx, roomID); err != nil {
			return err
		}
		participants, err := collectParticipants(tx.Query(ctx,
			`SELECT `+participantColumns+` FROM participants WHERE room_id = $1`, roomID))
		if err != nil {
			return err
		}
		target, others := splitParticipant(participants, userID)
		if target == nil {
			return teamchat_errors.ErrNotFound
		}
		if target.IsAdmin() && len(others) > 0 && countAdmins(others) == 0 {
			if !promote {
				return teamchat_errors.ErrLastAdmin
			}
			successor := longestTenured(others)
			successor.Role = room.RoleAdmin
			if _, err := tx.Exec(ctx, `UPDATE participants SET role = $3 WHERE room_id = $1 AND user_id = $2`,
				roomID, successor.UserID, string(room.RoleAdmin)); err != nil {
				return err
			}
			promoted = &successor
		}
		_, err = tx.Exec(ctx, `DELETE FROM participants WHERE room_id = $1 AND user_id = $2`, roomID, userID)
		return err
	})
	if err != nil {
		return nil, translateError(err)
	}
	return promoted, nil
}

func (r *PostgresRoomRepository) GetParticipant(ctx context.Context, roomID, userID uuid.UUID) (room.Participant, error) {
	p, err := scanParticipant(r.db.QueryRow(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE room_id = $1 AND user_id = $2`, roomID, userID))
	return p, translateError(err)
}

func (r *PostgresRoomRepository) GetParticipants(ctx context.Context, roomID uuid.UUID) ([]room.Participant, error) {
	participants, err := collectParticipants(r.db.Query(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE room_id = $1 ORDER BY joined_at, user_id`, roomID))
	return participants, translateError(err)
}

func (r *PostgresRoomRepository) ListUserParticipations(ctx context.Context, userID uuid.UUID) ([]room.Participant, error) {
	participants, err := collectParticipants(r.db.Query(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE user_id = $1`, userID))
	return participants, translateError(err)
}

func (r *PostgresRoomRepository) UpdateParticipantRole(ctx context.Context, roomID, userID uuid.UUID, role room.Role) error {
	err := WithTx(ctx, r.db, func(tx DBTX) error {
		if err := lockRoom(ctx, tx, roomID); err != nil {
			return err
		}
		participants, err := collectParticipants(tx.Query(ctx,
			`SELECT `+participantColumns+` FROM participants WHERE room_id = $1`, roomID))
		if err != nil {
			return err
		}
		target, others := splitParticipant(participants, userID)
		if target == nil {
			return teamchat_errors.ErrNotFound
		}
		if target.Role == role {
			return nil
		}
		if target.IsAdmin() && countAdmins(others) == 0 {
			return teamchat_errors.ErrLastAdmin
		}
		_, err = tx.Exec(ctx, `UPDATE participants SET role = $3 WHERE room_id = $1 AND user_id = $2`,
			roomID, userID, string(role))
		return err
	})
	return translateError(err)
}

func (r *PostgresRoomRepository) AdvanceReadSequence(ctx context.Context, roomID, userID uuid.UUID, seq int64) (int64, error) {
	var stored int64
	err := r.db.QueryRow(ctx, `
		UPDATE participants
		SET last_read_sequence = GREATEST(last_read_sequence, $3)
		WHERE room_id = $1 AND user_id = $2
		RETURNING last_read_sequence`, roomID, userID, seq).Scan(&stored)
	return stored, translateError(err)
}
