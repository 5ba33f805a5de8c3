package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	game_constants "Turnato/constants/game"
	redis_models "Turnato/models/redis"
	redis_utils "Turnato/services/redis/utils"

	"github.com/redis/go-redis/v9"
)

// RedisClient keeps the live party and match state.
type RedisClient struct {
	client *redis.Client
	ctx    context.Context
	ttl    time.Duration
}

// NewRedisClient accepts either a host:port address or a redis:// URL.
func NewRedisClient(Addr string, DB int, ttl time.Duration) (*RedisClient, error) {
	var opt *redis.Options
	if strings.Contains(Addr, "://") {
		log.Println("Connecting to remote Redis...")
		parsed, err := redis.ParseURL(Addr)
		if err != nil {
			return nil, fmt.Errorf("error parsing Redis URL: %v", err)
		}
		opt = parsed
	} else {
		opt = &redis.Options{Addr: Addr, DB: DB}
	}
	return NewFromClient(redis.NewClient(opt), ttl), nil
}

// NewFromClient wraps an existing go-redis client.
func NewFromClient(client *redis.Client, ttl time.Duration) *RedisClient {
	if ttl <= 0 {
		ttl = game_constants.DefaultSnapshotTTL
	}
	return &RedisClient{client: client, ctx: context.Background(), ttl: ttl}
}

func (rc *RedisClient) set(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("error marshaling %s: %v", key, err)
	}
	return rc.client.Set(rc.ctx, key, data, rc.ttl).Err()
}

// get returns false when the key does not exist.
func (rc *RedisClient) get(key string, v interface{}) (bool, error) {
	data, err := rc.client.Get(rc.ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error getting %s: %v", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("error unmarshaling %s: %v", key, err)
	}
	return true, nil
}

// SaveParty stores a party state in Redis
// Key format: "party:{id}"
func (rc *RedisClient) SaveParty(party *redis_models.PartyState) error {
	return rc.set(redis_utils.FormatPartyKey(party.Id), party)
}

// GetParty retrieves a party state, or nil if it does not exist
// Key format: "party:{id}"
func (rc *RedisClient) GetParty(partyId string) (*redis_models.PartyState, error) {
	var party redis_models.PartyState
	found, err := rc.get(redis_utils.FormatPartyKey(partyId), &party)
	if err != nil || !found {
		return nil, err
	}
	return &party, nil
}

// DeleteParty removes a party and all of its matches in one pipeline.
func (rc *RedisClient) DeleteParty(partyId string) error {
	party, err := rc.GetParty(partyId)
	if err != nil {
		return err
	}

	pipe := rc.client.TxPipeline()
	pipe.Del(rc.ctx, redis_utils.FormatPartyKey(partyId))
	if party != nil {
		for _, id := range party.MatchIds {
			pipe.Del(rc.ctx, redis_utils.FormatMatchKey(id))
		}
	}
	if _, err := pipe.Exec(rc.ctx); err != nil {
		return fmt.Errorf("error deleting party data: %v", err)
	}
	return nil
}

// SaveMatch stores a match state in Redis
// Key format: "match:{id}"
func (rc *RedisClient) SaveMatch(match *redis_models.MatchState) error {
	return rc.set(redis_utils.FormatMatchKey(match.Id), match)
}

// GetMatch retrieves a match state, or nil if it does not exist
// Key format: "match:{id}"
func (rc *RedisClient) GetMatch(matchId string) (*redis_models.MatchState, error) {
	var match redis_models.MatchState
	found, err := rc.get(redis_utils.FormatMatchKey(matchId), &match)
	if err != nil || !found {
		return nil, err
	}
	return &match, nil
}

// GetPartyMatches loads every stored match of a party, skipping expired ones.
func (rc *RedisClient) GetPartyMatches(partyId string) ([]*redis_models.MatchState, error) {
	party, err := rc.GetParty(partyId)
	if err != nil || party == nil {
		return nil, err
	}
	var out []*redis_models.MatchState
	for _, id := range party.MatchIds {
		m, err := rc.GetMatch(id)
		if err != nil {
			return nil, err
		}
		if m != nil {
			out = append(out, m)
		}
	}
	return out, nil
}

// CleanupKeys removes the specified keys from Redis
func (rc *RedisClient) CleanupKeys(keys []string) error {
	for _, key := range keys {
		if err := rc.client.Del(rc.ctx, key).Err(); err != nil {
			return fmt.Errorf("failed to cleanup Redis key %s: %v", key, err)
		}
	}
	return nil
}
