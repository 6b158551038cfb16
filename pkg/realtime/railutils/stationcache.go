package railutils

import (
	"context"
	"fmt"
	"time"

	"github.com/Cybercom1973/taglaget/pkg/redis_client"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const stationCacheMiss = "N/A"

// StationCache keeps station display names in redis. Stations upstream does
// not know about are remembered too so they are not asked for again.
type StationCache struct {
	Cache *cache.Cache[string]
}

func (s *StationCache) Setup() {
	s.SetupWithClient(redis_client.Client, 24*time.Hour)
}

func (s *StationCache) SetupWithClient(client *redis.Client, expiration time.Duration) {
	redisStore := redisstore.NewRedis(client, store.WithExpiration(expiration))

	s.Cache = cache.New[string](redisStore)
}

func (s *StationCache) Get(ctx context.Context, signature string) (string, bool) {
	name, err := s.Cache.Get(ctx, stationCacheKey(signature))
	if err != nil {
		return "", false
	}

	if name == stationCacheMiss {
		return "", true
	}

	return name, true
}

func (s *StationCache) Set(ctx context.Context, signature string, name string) {
	if name == "" {
		name = stationCacheMiss
	}

	if err := s.Cache.Set(ctx, stationCacheKey(signature), name); err != nil {
		log.Error().Err(err).Str("signature", signature).Msg("Failed to cache station name")
	}
}

func stationCacheKey(signature string) string {
	return fmt.Sprintf("SE:TRAFIKVERKET:STATION:%s", signature)
}
