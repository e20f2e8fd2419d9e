// README: Technician positions backed by Redis GEO.
package location

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"

	"homeserve/internal/types"
)

const (
	techGeoKey = "location:technicians"
	techSeqKey = "location:technicians:seq"
)

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

// LastSeq returns the last accepted sequence number for a technician, 0 if none.
func (s *Store) LastSeq(ctx context.Context, id types.ID) (int64, error) {
	v, err := s.redis.HGet(ctx, techSeqKey, string(id)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(v, 10, 64)
}

func (s *Store) SetPosition(ctx context.Context, id types.ID, p types.Point, seq int64) error {
	pipe := s.redis.TxPipeline()
	pipe.GeoAdd(ctx, techGeoKey, &redis.GeoLocation{
		Name:      string(id),
		Longitude: p.Lng,
		Latitude:  p.Lat,
	})
	pipe.HSet(ctx, techSeqKey, string(id), seq)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) RemovePosition(ctx context.Context, id types.ID) error {
	pipe := s.redis.TxPipeline()
	pipe.ZRem(ctx, techGeoKey, string(id))
	pipe.HDel(ctx, techSeqKey, string(id))
	_, err := pipe.Exec(ctx)
	return err
}

// Positions returns the last known point of each technician that has one.
func (s *Store) Positions(ctx context.Context, ids []types.ID) (map[types.ID]types.Point, error) {
	out := make(map[types.ID]types.Point, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	members := make([]string, len(ids))
	for i, id := range ids {
		members[i] = string(id)
	}
	pos, err := s.redis.GeoPos(ctx, techGeoKey, members...).Result()
	if err != nil {
		return nil, err
	}
	for i, p := range pos {
		if p == nil {
			continue
		}
		out[ids[i]] = types.Point{Lat: p.Latitude, Lng: p.Longitude}
	}
	return out, nil
}
