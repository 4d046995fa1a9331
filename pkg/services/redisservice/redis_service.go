package redisservice

import (
	"context"

	"github.com/redis/go-redis/v9"
)

type RedisService struct {
	rc  *redis.Client
	ctx context.Context
}

func New(rc *redis.Client) *RedisService {
	return &RedisService{
		rc:  rc,
		ctx: context.Background(),
	}
}

func (s *RedisService) Ping() error {
	return s.rc.Ping(s.ctx).Err()
}
