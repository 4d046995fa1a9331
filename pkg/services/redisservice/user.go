package redisservice

const userPresencePrefix = "tasktrial:presence:user:"

// MarkUserOnline records a connection for the user and reports whether
// this is the user's first live connection.
func (s *RedisService) MarkUserOnline(userId, connId string) (bool, error) {
	key := userPresencePrefix + userId
	added, err := s.rc.SAdd(s.ctx, key, connId).Result()
	if err != nil {
		return false, err
	}
	count, err := s.rc.SCard(s.ctx, key).Result()
	if err != nil {
		return false, err
	}

	return added > 0 && count == 1, nil
}

// MarkUserOffline removes one connection and reports whether the user has
// no live connections left.
func (s *RedisService) MarkUserOffline(userId, connId string) (bool, error) {
	key := userPresencePrefix + userId
	_, err := s.rc.SRem(s.ctx, key, connId).Result()
	if err != nil {
		return false, err
	}
	count, err := s.rc.SCard(s.ctx, key).Result()
	if err != nil {
		return false, err
	}

	return count == 0, nil
}

func (s *RedisService) IsUserOnline(userId string) (bool, error) {
	count, err := s.rc.SCard(s.ctx, userPresencePrefix+userId).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
