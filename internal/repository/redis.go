package repository

import (
	"context"
	"strconv"
	"time"

	"clustering-api/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// upsertScript assigns an id on first write only, then refreshes coordinates in place.
var upsertScript = redis.NewScript(`
local id = redis.call('HGET', KEYS[1], 'id')
if not id then
	id = tostring(redis.call('INCR', KEYS[2]))
	redis.call('HSET', KEYS[1], 'id', id, 'number', ARGV[1], 'cardinal', ARGV[2], 'street', ARGV[3], 'suffix', ARGV[4])
end
redis.call('HSET', KEYS[1], 'latitude', ARGV[5], 'longitude', ARGV[6], 'place_id', ARGV[7], 'updated_at', ARGV[8])
return id
`)

// RedisRepository implements the address cache on Redis hashes, one per structured address.
type RedisRepository struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisRepository creates a Redis-backed address cache. Keys are namespaced by prefix.
func NewRedisRepository(client redis.UniversalClient, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = "addrcache"
	}
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) addressKey(addr models.StructuredAddress) string {
	return r.prefix + ":addr:" + addr.Key()
}

func (r *RedisRepository) sequenceKey() string {
	return r.prefix + ":seq"
}

// Lookup returns the cached location for an exact match on all four address fields.
func (r *RedisRepository) Lookup(ctx context.Context, addr models.StructuredAddress) (*models.Location, error) {
	fields, err := r.client.HGetAll(ctx, r.addressKey(addr)).Result()
	if err != nil {
		return nil, eris.Wrap(err, "repository: redis lookup")
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}

	loc := models.Location{
		Address: models.StructuredAddress{
			Number:   fields["number"],
			Cardinal: models.Cardinal(fields["cardinal"]),
			Street:   fields["street"],
			Suffix:   fields["suffix"],
		},
		PlaceID: fields["place_id"],
	}
	if loc.ID, err = strconv.ParseInt(fields["id"], 10, 64); err != nil {
		return nil, eris.Wrapf(err, "repository: corrupt id for %s", addr.Key())
	}
	if loc.Latitude, err = strconv.ParseFloat(fields["latitude"], 64); err != nil {
		return nil, eris.Wrapf(err, "repository: corrupt latitude for %s", addr.Key())
	}
	if loc.Longitude, err = strconv.ParseFloat(fields["longitude"], 64); err != nil {
		return nil, eris.Wrapf(err, "repository: corrupt longitude for %s", addr.Key())
	}
	if ts := fields["updated_at"]; ts != "" {
		if loc.UpdatedAt, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, eris.Wrapf(err, "repository: corrupt updated_at for %s", addr.Key())
		}
	}

	return &loc, nil
}

// Upsert stores coordinates for an address atomically. The first writer fixes the id.
func (r *RedisRepository) Upsert(ctx context.Context, addr models.StructuredAddress, lat, lng float64, placeID string) (*models.Location, error) {
	now := time.Now().UTC()
	res, err := upsertScript.Run(ctx, r.client,
		[]string{r.addressKey(addr), r.sequenceKey()},
		addr.Number,
		string(addr.Cardinal),
		addr.Street,
		addr.Suffix,
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(lng, 'f', -1, 64),
		placeID,
		now.Format(time.RFC3339Nano),
	).Text()
	if err != nil {
		return nil, eris.Wrap(err, "repository: redis upsert")
	}

	id, err := strconv.ParseInt(res, 10, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "repository: redis upsert returned id %q", res)
	}

	return &models.Location{
		ID:        id,
		Address:   addr,
		Latitude:  lat,
		Longitude: lng,
		PlaceID:   placeID,
		UpdatedAt: now,
	}, nil
}
