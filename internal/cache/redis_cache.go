package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/WilsonKusmayady/mini-POS-sub000/internal/domain"
)

const memberKeyPrefix = "minipos:member:"

type RedisMemberCache struct {
	client *redis.Client
}

func NewRedisMemberCache(addr string, password string, db int) *RedisMemberCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisMemberCache{client: client}
}

func memberKey(code string) string {
	return memberKeyPrefix + code
}

func (c *RedisMemberCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisMemberCache) Close() error {
	return c.client.Close()
}

func (c *RedisMemberCache) Get(ctx context.Context, code string) (*domain.Member, bool, error) {
	val, err := c.client.Get(ctx, memberKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var member domain.Member
	if err := json.Unmarshal(val, &member); err != nil {
		return nil, false, err
	}
	return &member, true, nil
}

func (c *RedisMemberCache) Set(ctx context.Context, member *domain.Member, ttl time.Duration) error {
	if member == nil {
		return nil
	}
	payload, err := json.Marshal(member)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, memberKey(member.Code), payload, ttl).Err()
}

func (c *RedisMemberCache) Delete(ctx context.Context, code string) error {
	return c.client.Del(ctx, memberKey(code)).Err()
}
