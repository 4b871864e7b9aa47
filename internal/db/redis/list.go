package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/storefront/internal/db"
)

// LRange returns list elements between start and stop (inclusive, negative from the tail).
// A missing key yields an empty slice.
func (s *Store) LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	cmd := s.b().Lrange().Key(key).Start(start).Stop(stop).Build()
	vals, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return [][]byte{}, nil
		}
		return nil, &db.Error{Op: db.OpLRange, Err: err}
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		out[i] = []byte(v)
	}
	return out, nil
}

// LPushCapped pipelines LREM for each element of remove, then LPUSH and LTRIM.
func (s *Store) LPushCapped(ctx context.Context, key string, value []byte, limit int64, remove ...[]byte) error {
	if limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", limit)
	}

	cmds := make(rueidis.Commands, 0, len(remove)+2)
	for _, r := range remove {
		cmds = append(cmds, s.b().Lrem().Key(key).Count(0).Element(rueidis.BinaryString(r)).Build())
	}
	cmds = append(cmds,
		s.b().Lpush().Key(key).Element(rueidis.BinaryString(value)).Build(),
		s.b().Ltrim().Key(key).Start(0).Stop(limit-1).Build(),
	)

	ops := make([]string, 0, len(cmds))
	for range remove {
		ops = append(ops, db.OpLRem)
	}
	ops = append(ops, db.OpLPush, db.OpLTrim)

	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return &db.Error{Op: ops[i], Err: fmt.Errorf("key %s: %w", key, err)}
		}
	}
	return nil
}
