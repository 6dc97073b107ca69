package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"lms_backend/internal/model"
	"lms_backend/internal/util"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const guestProgressKeyPrefix = "guest:progress:"

// SessionProgressRepository is the ephemeral progress cache for guests.
// One Redis hash per session, field = item ID, value = JSON entry. Expiry
// is a plain TTL refreshed on write; nothing here outlives the session.
type SessionProgressRepository struct {
	RDB *redis.Client
	TTL time.Duration
}

func NewSessionProgressRepository(rdb *redis.Client, ttl time.Duration) *SessionProgressRepository {
	return &SessionProgressRepository{RDB: rdb, TTL: ttl}
}

func sessionKey(sessionID string) string {
	return guestProgressKeyPrefix + sessionID
}

func itemField(itemID uint) string {
	return strconv.FormatUint(uint64(itemID), 10)
}

func (r *SessionProgressRepository) Get(ctx context.Context, sessionID string, itemID uint) (*model.SessionProgressEntry, error) {
	raw, err := r.RDB.HGet(ctx, sessionKey(sessionID), itemField(itemID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrStorage, err)
	}

	var entry model.SessionProgressEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrStorage, err)
	}
	return &entry, nil
}

// Upsert mirrors the durable store's contract: CompletedAt is written on
// the false→true transition only, repeat completions are no-ops.
func (r *SessionProgressRepository) Upsert(ctx context.Context, sessionID string, itemID uint, completed bool, now time.Time) (*model.SessionProgressEntry, error) {
	entry, err := r.Get(ctx, sessionID, itemID)
	if err != nil {
		return nil, err
	}

	if entry == nil {
		entry = &model.SessionProgressEntry{StartedAt: now}
		if completed {
			entry.Completed = true
			entry.CompletedAt = &now
		}
	} else if completed && !entry.Completed {
		entry.Completed = true
		entry.CompletedAt = &now
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrStorage, err)
	}

	key := sessionKey(sessionID)
	pipe := r.RDB.TxPipeline()
	pipe.HSet(ctx, key, itemField(itemID), raw)
	pipe.Expire(ctx, key, r.TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrStorage, err)
	}
	return entry, nil
}

// Entries returns everything the session has recorded, for evaluation and
// for the login migration.
func (r *SessionProgressRepository) Entries(ctx context.Context, sessionID string) (map[uint]model.SessionProgressEntry, error) {
	raw, err := r.RDB.HGetAll(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrStorage, err)
	}

	entries := make(map[uint]model.SessionProgressEntry, len(raw))
	for field, value := range raw {
		itemID, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			continue
		}
		var entry model.SessionProgressEntry
		if err := json.Unmarshal([]byte(value), &entry); err != nil {
			continue
		}
		entries[uint(itemID)] = entry
	}
	return entries, nil
}

func (r *SessionProgressRepository) Remove(ctx context.Context, sessionID string, itemIDs ...uint) error {
	if len(itemIDs) == 0 {
		return nil
	}
	fields := make([]string, len(itemIDs))
	for i, id := range itemIDs {
		fields[i] = itemField(id)
	}
	if err := r.RDB.HDel(ctx, sessionKey(sessionID), fields...).Err(); err != nil {
		return fmt.Errorf("%w: %v", util.ErrStorage, err)
	}
	return nil
}

func (r *SessionProgressRepository) Clear(ctx context.Context, sessionID string) error {
	if err := r.RDB.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", util.ErrStorage, err)
	}
	return nil
}
