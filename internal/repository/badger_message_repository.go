package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"teamchat/internal/domain/message"
	"teamchat/internal/domain/room"
	teamchat_errors "teamchat/pkg/errors"
)

type BadgerMessageRepository struct {
	db *badger.DB
}

func NewBadgerMessageRepository(db *badger.DB) MessageRepository {
	return &BadgerMessageRepository{db: db}
}

// Append bumps room.last_sequence and writes the message in the same
// transaction. A concurrent append to the same room conflicts on the room key
// and is replayed with the next sequence.
func (r *BadgerMessageRepository) Append(ctx context.Context, m *message.Message) (bool, error) {
	draft := *m
	var stored message.Message
	var created bool
	err := updateWithRetry(ctx, r.db, func(txn *badger.Txn) error {
		created = false
		var rm room.Room
		if err := getJSON(txn, roomKey(draft.RoomID), &rm); err != nil {
			return err
		}

		var clientKey []byte
		if draft.ClientMsgID != "" {
			clientKey = clientMessageKey(draft.RoomID, draft.SenderID, draft.ClientMsgID)
			seq, err := getSequence(txn, clientKey)
			switch {
			case err == nil:
				stored = message.Message{}
				return getJSON(txn, messageKey(draft.RoomID, seq), &stored)
			case !errors.Is(err, teamchat_errors.ErrNotFound):
				return err
			}
		}

		stored = draft
		stored.Sequence = rm.LastSequence + 1
		rm.LastSequence = stored.Sequence
		// Activity never moves backwards, even across skewed writer clocks.
		if rm.LastMessageAt == nil || stored.CreatedAt.After(*rm.LastMessageAt) {
			at := stored.CreatedAt
			rm.LastMessageAt = &at
		}

		if err := setJSON(txn, roomKey(rm.ID), &rm); err != nil {
			return err
		}
		if err := setJSON(txn, messageKey(stored.RoomID, stored.Sequence), &stored); err != nil {
			return err
		}
		seqValue := []byte(strconv.FormatInt(stored.Sequence, 10))
		if err := txn.Set(messageIDKey(stored.RoomID, stored.ID), seqValue); err != nil {
			return err
		}
		if clientKey != nil {
			if err := txn.Set(clientKey, seqValue); err != nil {
				return err
			}
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	*m = stored
	return created, nil
}

func (r *BadgerMessageRepository) GetByID(ctx context.Context, roomID, id uuid.UUID) (message.Message, error) {
	var m message.Message
	err := r.db.View(func(txn *badger.Txn) error {
		seq, err := getSequence(txn, messageIDKey(roomID, id))
		if err != nil {
			return err
		}
		return getJSON(txn, messageKey(roomID, seq), &m)
	})
	return m, err
}

// Update rewrites message content in place. The sequence slot never moves.
func (r *BadgerMessageRepository) Update(ctx context.Context, m message.Message) error {
	return updateWithRetry(ctx, r.db, func(txn *badger.Txn) error {
		var current message.Message
		if err := getJSON(txn, messageKey(m.RoomID, m.Sequence), &current); err != nil {
			return err
		}
		if current.ID != m.ID {
			return teamchat_errors.ErrNotFound
		}
		return setJSON(txn, messageKey(m.RoomID, m.Sequence), &m)
	})
}

func (r *BadgerMessageRepository) GetRange(ctx context.Context, roomID uuid.UUID, after, until int64) ([]message.Message, error) {
	messages := []message.Message{}
	if until <= after {
		return messages, nil
	}
	err := r.db.View(func(txn *badger.Txn) error {
		return iteratePrefix(txn, messagePrefix(roomID), messageKey(roomID, after+1), func(item *badger.Item) (bool, error) {
			var m message.Message
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &m)
			}); err != nil {
				return false, err
			}
			if m.Sequence > until {
				return false, nil
			}
			messages = append(messages, m)
			return true, nil
		})
	})
	return messages, err
}

func (r *BadgerMessageRepository) Latest(ctx context.Context, roomID uuid.UUID, limit int) ([]message.Message, error) {
	messages := []message.Message{}
	if limit <= 0 {
		return messages, nil
	}
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := messagePrefix(roomID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// '~' sorts after every digit, so this lands on the highest sequence.
		for it.Seek(append(prefix, '~')); it.ValidForPrefix(prefix) && len(messages) < limit; it.Next() {
			var m message.Message
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &m)
			}); err != nil {
				return err
			}
			messages = append(messages, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *BadgerMessageRepository) LastSequence(ctx context.Context, roomID uuid.UUID) (int64, error) {
	var rm room.Room
	err := r.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, roomKey(roomID), &rm)
	})
	return rm.LastSequence, err
}

func (r *BadgerMessageRepository) CountVisibleAfter(ctx context.Context, roomID uuid.UUID, after int64) (int64, error) {
	var count int64
	err := r.db.View(func(txn *badger.Txn) error {
		return iteratePrefix(txn, messagePrefix(roomID), messageKey(roomID, after+1), func(item *badger.Item) (bool, error) {
			var m message.Message
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &m)
			}); err != nil {
				return false, err
			}
			if !m.Deleted {
				count++
			}
			return true, nil
		})
	})
	return count, err
}
