package credentials

import (
	"context"
	"fmt"
	"strings"

	"github.com/Sternrassler/wb-api-client/pkg/logging"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisKeyPrefix prefixes the hash holding a profile's credentials.
const RedisKeyPrefix = "wb:credentials:"

// Redis hash fields.
const (
	FieldAPIKey = "api_key"
	FieldScopes = "scopes"
)

// RedisSource loads a connector from a Redis hash shared by several workers:
//
//	HSET wb:credentials:<profile> api_key <key> scopes "marketplace,statistics"
type RedisSource struct {
	redis   *redis.Client
	profile string
	logger  zerolog.Logger
}

// NewRedisSource creates a source for the given profile.
func NewRedisSource(redisClient *redis.Client, profile string) *RedisSource {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if profile == "" {
		profile = "default"
	}
	return &RedisSource{
		redis:   redisClient,
		profile: profile,
		logger:  logging.NewLogger("credentials").With().Str("profile", profile).Logger(),
	}
}

// Key returns the Redis key of the profile hash.
func (s *RedisSource) Key() string {
	return RedisKeyPrefix + s.profile
}

// Connector implements Source.
func (s *RedisSource) Connector(ctx context.Context) (Connector, error) {
	fields, err := s.redis.HGetAll(ctx, s.Key()).Result()
	if err != nil {
		return Connector{}, fmt.Errorf("redis hgetall %s: %w", s.Key(), err)
	}

	key := fields[FieldAPIKey]
	if key == "" {
		return Connector{}, fmt.Errorf("%w: profile %q", ErrNoCredentials, s.profile)
	}

	conn := Connector{
		APIKey: key,
		Scopes: ParseScopes(fields[FieldScopes]),
	}

	s.logger.Debug().
		Strs("scopes", conn.Scopes).
		Msg("Loaded credentials from redis")

	return conn, nil
}

// Store writes the connector into the profile hash, replacing previous values.
func (s *RedisSource) Store(ctx context.Context, conn Connector) error {
	if conn.APIKey == "" {
		return ErrNoCredentials
	}

	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, s.Key())
	pipe.HSet(ctx, s.Key(),
		FieldAPIKey, conn.APIKey,
		FieldScopes, strings.Join(conn.Scopes, ","),
	)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store credentials in redis: %w", err)
	}

	s.logger.Info().Msg("Stored credentials in redis")
	return nil
}

// Delete removes the profile hash.
func (s *RedisSource) Delete(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.Key()).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
