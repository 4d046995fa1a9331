package controllers

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/TaskTrial/realtime-server/pkg/config"
	"github.com/TaskTrial/realtime-server/pkg/models"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/gofiber/fiber/v2"
)

// AuthController holds dependencies for auth-related handlers.
type AuthController struct {
	AppConfig      *config.AppConfig
	AuthTokenModel *models.AuthTokenModel
	DS             models.Datastore
}

func NewAuthController(app *config.AppConfig, authTokenModel *models.AuthTokenModel, ds models.Datastore) *AuthController {
	return &AuthController{
		AppConfig:      app,
		AuthTokenModel: authTokenModel,
		DS:             ds,
	}
}

// HandleAuthHeaderCheck is a middleware for server-to-server endpoints.
// It checks API-KEY & HASH-SIGNATURE headers.
func (ac *AuthController) HandleAuthHeaderCheck(c *fiber.Ctx) error {
	apiKey := c.Get("API-KEY", "")
	signature := c.Get("HASH-SIGNATURE", "")
	body := c.Body()

	if apiKey != ac.AppConfig.Client.ApiKey {
		c.Status(fiber.StatusUnauthorized)
		return SendCommonResponse(c, false, "invalid API key")
	}
	if signature == "" {
		c.Status(fiber.StatusUnauthorized)
		return SendCommonResponse(c, false, "hash signature value required")
	}

	mac := hmac.New(sha256.New, []byte(ac.AppConfig.Client.Secret))
	mac.Write(body)
	expectedSignature := hex.EncodeToString(mac.Sum(nil))
	if subtle.ConstantTimeCompare([]byte(expectedSignature), []byte(signature)) != 1 {
		c.Status(fiber.StatusUnauthorized)
		return SendCommonResponse(c, false, "can't verify provided information")
	}

	return c.Next()
}

// HandleVerifyHeaderToken is a middleware to verify the Authorization
// header token and load the calling user.
func (ac *AuthController) HandleVerifyHeaderToken(c *fiber.Ctx) error {
	authToken := strings.TrimPrefix(c.Get("Authorization"), "Bearer ")

	if authToken == "" {
		c.Status(fiber.StatusUnauthorized)
		return SendCommonResponse(c, false, config.AuthHeaderMissing)
	}

	userId, name, err := ac.AuthTokenModel.VerifyAccessToken(authToken)
	if err != nil {
		c.Status(fiber.StatusUnauthorized)
		errMsg := config.InvalidToken
		if errors.Is(err, jwt.ErrExpired) {
			errMsg = config.TokenExpired
		}
		return SendCommonResponse(c, false, errMsg)
	}

	user, err := ac.DS.GetUserByID(userId)
	if err != nil {
		c.Status(fiber.StatusInternalServerError)
		return SendCommonResponse(c, false, err.Error())
	}
	if user == nil || !user.IsActive || user.DeletedAt != nil {
		c.Status(fiber.StatusUnauthorized)
		return SendCommonResponse(c, false, config.UserNotActive)
	}
	if name == "" {
		name = user.FullName()
	}

	c.Locals("requestedUserId", userId)
	c.Locals("requestedUserName", name)
	c.Locals("organizationId", user.OrganizationID)

	return c.Next()
}

type generateTokenReq struct {
	UserID string `json:"userId"`
	Name   string `json:"name,omitempty"`
}

// HandleGenerateToken mints an access token for a user. The endpoint is
// guarded by HandleAuthHeaderCheck so only trusted backends can call it.
func (ac *AuthController) HandleGenerateToken(c *fiber.Ctx) error {
	req := new(generateTokenReq)
	if err := c.BodyParser(req); err != nil {
		return SendCommonResponse(c, false, err.Error())
	}
	if req.UserID == "" {
		return SendCommonResponse(c, false, "userId required")
	}

	user, err := ac.DS.GetUserByID(req.UserID)
	if err != nil {
		return SendCommonResponse(c, false, err.Error())
	}
	if user == nil || !user.IsActive || user.DeletedAt != nil {
		return SendCommonResponse(c, false, config.UserNotActive)
	}

	name := req.Name
	if name == "" {
		name = user.FullName()
	}
	token, err := ac.AuthTokenModel.GenerateAccessToken(user.ID, name)
	if err != nil {
		return SendCommonResponse(c, false, err.Error())
	}

	return SendCommonResponseWithResult(c, "success", fiber.Map{
		"token": token,
	})
}

// socketUserFromLocals rebuilds the caller identity set by
// HandleVerifyHeaderToken. REST callers have no socket connection.
func socketUserFromLocals(c *fiber.Ctx) *models.SocketUser {
	su := &models.SocketUser{}
	if v, ok := c.Locals("requestedUserId").(string); ok {
		su.UserID = v
	}
	if v, ok := c.Locals("requestedUserName").(string); ok {
		su.Name = v
	}
	return su
}
