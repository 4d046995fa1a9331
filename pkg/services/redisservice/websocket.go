package redisservice

import (
	"github.com/redis/go-redis/v9"
)

func (s *RedisService) PublishToWebsocketChannel(channel string, msg []byte) error {
	_, err := s.rc.Publish(s.ctx, channel, msg).Result()
	if err != nil {
		return err
	}
	return nil
}

func (s *RedisService) SubscribeToWebsocketChannel(channel string) (*redis.PubSub, error) {
	pubSub := s.rc.Subscribe(s.ctx, channel)
	_, err := pubSub.Receive(s.ctx)
	if err != nil {
		return nil, err
	}
	return pubSub, nil
}
