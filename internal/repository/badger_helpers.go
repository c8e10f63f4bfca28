package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	teamchat_errors "teamchat/pkg/errors"
)

const maxTxnRetries = 10

func roomKey(roomID uuid.UUID) []byte {
	return []byte("room:" + roomID.String())
}

func participantPrefix(roomID uuid.UUID) []byte {
	return []byte("participant:" + roomID.String() + ":")
}

func participantKey(roomID, userID uuid.UUID) []byte {
	return append(participantPrefix(roomID), userID.String()...)
}

func memberPrefix(userID uuid.UUID) []byte {
	return []byte("member:" + userID.String() + ":")
}

func memberKey(userID, roomID uuid.UUID) []byte {
	return append(memberPrefix(userID), roomID.String()...)
}

// directKey is symmetric in its two users.
func directKey(userID1, userID2 uuid.UUID) []byte {
	a, b := userID1.String(), userID2.String()
	if a > b {
		a, b = b, a
	}
	return []byte("direct:" + a + ":" + b)
}

func messagePrefix(roomID uuid.UUID) []byte {
	return []byte("msg:" + roomID.String() + ":")
}

// messageKey zero-pads the sequence so lexical key order is sequence order.
func messageKey(roomID uuid.UUID, seq int64) []byte {
	return append(messagePrefix(roomID), fmt.Sprintf("%020d", seq)...)
}

func messageIDKey(roomID, messageID uuid.UUID) []byte {
	return []byte("msgid:" + roomID.String() + ":" + messageID.String())
}

func clientMessageKey(roomID, senderID uuid.UUID, clientMsgID string) []byte {
	return []byte("clientmsg:" + roomID.String() + ":" + senderID.String() + ":" + clientMsgID)
}

func lastKeySegment(key []byte) string {
	s := string(key)
	return s[strings.LastIndexByte(s, ':')+1:]
}

func getJSON(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return teamchat_errors.ErrNotFound
		}
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set(key, data)
}

func exists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return false, err
}

func getSequence(txn *badger.Txn, key []byte) (int64, error) {
	item, err := txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, teamchat_errors.ErrNotFound
		}
		return 0, err
	}
	var seq int64
	err = item.Value(func(val []byte) error {
		seq, err = strconv.ParseInt(string(val), 10, 64)
		return err
	})
	return seq, err
}

// updateWithRetry runs fn in a read-write transaction, replaying it when
// badger reports a write conflict with a concurrent transaction.
func updateWithRetry(ctx context.Context, db *badger.DB, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxTxnRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", teamchat_errors.ErrStoreUnavailable, err)
}

// iteratePrefix calls fn for every value under prefix in key order,
// starting at seek when it is non-nil.
func iteratePrefix(txn *badger.Txn, prefix, seek []byte, fn func(item *badger.Item) (bool, error)) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	if seek == nil {
		seek = prefix
	}
	for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
		more, err := fn(it.Item())
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}
