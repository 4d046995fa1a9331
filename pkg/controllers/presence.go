package controllers

import (
	"github.com/TaskTrial/realtime-server/pkg/models"
	"github.com/gofiber/fiber/v2"
)

// PresenceController answers online-status lookups from Redis.
type PresenceController struct {
	RS models.Presence
}

func NewPresenceController(rs models.Presence) *PresenceController {
	return &PresenceController{RS: rs}
}

func (pc *PresenceController) HandleUserOnlineStatus(c *fiber.Ctx) error {
	userId := c.Query("userId")
	if userId == "" {
		return SendCommonResponse(c, false, "userId required")
	}

	online, err := pc.RS.IsUserOnline(userId)
	if err != nil {
		return sendModelError(c, err)
	}

	return SendCommonResponseWithResult(c, "success", fiber.Map{
		"userId": userId,
		"online": online,
	})
}
