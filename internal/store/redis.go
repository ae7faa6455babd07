package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// RedisOptions proxies the redis client options the store needs.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore keeps the latest snapshot under a namespaced key, plus a hash of
// summary fields that can be read without decoding the snapshot.
type RedisStore struct {
	namespace string
	Client    *redis.Client
}

func NewRedisStore(opts RedisOptions, namespace string) *RedisStore {
	return &RedisStore{
		namespace: namespace,
		Client: redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		}),
	}
}

func (s *RedisStore) snapshotKey() string {
	return fmt.Sprintf("%s:SNAPSHOT", s.namespace)
}

func (s *RedisStore) metaKey() string {
	return fmt.Sprintf("%s:SNAPSHOT_META", s.namespace)
}

func (s *RedisStore) Load(ctx context.Context) (*Snapshot, error) {
	data, err := s.Client.Get(ctx, s.snapshotKey()).Bytes()
	if err != nil {
		if eris.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "get snapshot")
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, eris.Wrap(err, "decode snapshot")
	}
	return &snap, nil
}

// Save writes the snapshot and its summary in one transaction.
func (s *RedisStore) Save(ctx context.Context, snap *Snapshot) error {
	snap.SavedAt = time.Now()
	data, err := json.Marshal(snap)
	if err != nil {
		return eris.Wrap(err, "encode snapshot")
	}
	_, err = s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.snapshotKey(), data, 0)
		pipe.HSet(ctx, s.metaKey(),
			"saved_at", snap.SavedAt.Unix(),
			"height", snap.Height,
			"epoch", len(snap.Ledger.PointHistory)-1,
			"supply", snap.Ledger.Supply.String(),
		)
		return nil
	})
	return eris.Wrap(err, "save snapshot")
}

// SavedAt reads the time of the last save from the summary hash.
func (s *RedisStore) SavedAt(ctx context.Context) (time.Time, error) {
	v, err := s.Client.HGet(ctx, s.metaKey(), "saved_at").Result()
	if err != nil {
		if eris.Is(err, redis.Nil) {
			return time.Time{}, nil
		}
		return time.Time{}, eris.Wrap(err, "get saved_at")
	}
	sec, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, eris.Wrap(err, "parse saved_at")
	}
	return time.Unix(sec, 0), nil
}

func (s *RedisStore) Close() error {
	return eris.Wrap(s.Client.Close(), "close redis")
}
