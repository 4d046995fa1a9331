package models

import (
	"errors"
	"time"

	"github.com/TaskTrial/realtime-server/pkg/config"
	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

type AuthTokenModel struct {
	app *config.AppConfig
}

func NewAuthTokenModel(app *config.AppConfig) *AuthTokenModel {
	if app == nil {
		app = config.GetConfig()
	}
	return &AuthTokenModel{
		app: app,
	}
}

// AccessTokenClaims rides alongside the registered JWT claims.
type AccessTokenClaims struct {
	Name string `json:"name,omitempty"`
}

// GenerateAccessToken mints the same token shape the account service
// issues, so operators and tests can create credentials directly.
func (a *AuthTokenModel) GenerateAccessToken(userId, name string) (string, error) {
	sig, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.HS256, Key: []byte(a.app.Client.Secret)},
		(&jose.SignerOptions{}).WithType("JWT"))
	if err != nil {
		return "", err
	}

	cl := &jwt.Claims{
		Issuer:    a.app.Client.ApiKey,
		NotBefore: jwt.NewNumericDate(time.Now()),
		Expiry:    jwt.NewNumericDate(time.Now().Add(*a.app.Client.TokenValidity)),
		Subject:   userId,
	}
	custom := &AccessTokenClaims{
		Name: name,
	}

	return jwt.Signed(sig).Claims(cl).Claims(custom).Serialize()
}

// VerifyAccessToken validates signature and expiry and returns the
// subject user id with the display name claim.
func (a *AuthTokenModel) VerifyAccessToken(token string) (string, string, error) {
	if token == "" {
		return "", "", errors.New("empty token")
	}

	tok, err := jwt.ParseSigned(token, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return "", "", err
	}

	cl := new(jwt.Claims)
	custom := new(AccessTokenClaims)
	if err = tok.Claims([]byte(a.app.Client.Secret), cl, custom); err != nil {
		return "", "", err
	}

	if err = cl.Validate(jwt.Expected{
		Issuer: a.app.Client.ApiKey,
		Time:   time.Now(),
	}); err != nil {
		return "", "", err
	}

	return cl.Subject, custom.Name, nil
}
