package redisservice

const waitingNoticePrefix = "tasktrial:video:waiting:"

// AddWaitingNotice registers a pending waiting-room notification for the
// session host so it can be cleared exactly on admit/deny.
func (s *RedisService) AddWaitingNotice(sessionId, userId string) error {
	return s.rc.SAdd(s.ctx, waitingNoticePrefix+sessionId, userId).Err()
}

func (s *RedisService) RemoveWaitingNotice(sessionId, userId string) error {
	return s.rc.SRem(s.ctx, waitingNoticePrefix+sessionId, userId).Err()
}

func (s *RedisService) GetWaitingNotices(sessionId string) ([]string, error) {
	return s.rc.SMembers(s.ctx, waitingNoticePrefix+sessionId).Result()
}

// ClearWaitingNotices drops all pending notices, used when a session ends.
func (s *RedisService) ClearWaitingNotices(sessionId string) error {
	return s.rc.Del(s.ctx, waitingNoticePrefix+sessionId).Err()
}
