package controllers

import (
	"github.com/TaskTrial/realtime-server/pkg/models"
	"github.com/gofiber/fiber/v2"
)

// CommonRes is the envelope every REST endpoint answers with.
type CommonRes struct {
	Status bool        `json:"status"`
	Msg    string      `json:"msg"`
	Result interface{} `json:"result,omitempty"`
}

func SendCommonResponse(c *fiber.Ctx, status bool, msg string) error {
	return c.JSON(&CommonRes{
		Status: status,
		Msg:    msg,
	})
}

func SendCommonResponseWithResult(c *fiber.Ctx, msg string, result interface{}) error {
	return c.JSON(&CommonRes{
		Status: true,
		Msg:    msg,
		Result: result,
	})
}

// sendModelError maps the model error taxonomy onto HTTP statuses.
func sendModelError(c *fiber.Ctx, err error) error {
	ev := models.AsEventError(err)
	switch ev.Code {
	case models.CodeUnauthorized:
		c.Status(fiber.StatusForbidden)
	case models.CodeNotFound:
		c.Status(fiber.StatusNotFound)
	case models.CodeConflict:
		c.Status(fiber.StatusConflict)
	default:
		c.Status(fiber.StatusInternalServerError)
	}
	return SendCommonResponse(c, false, ev.Message)
}
