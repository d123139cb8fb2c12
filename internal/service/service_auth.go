package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MKhiriev/go-habit-tracker/internal/config"
	"github.com/MKhiriev/go-habit-tracker/internal/logger"
	"github.com/MKhiriev/go-habit-tracker/internal/utils"
	"github.com/MKhiriev/go-habit-tracker/models"
)

// authService signs and checks bearer tokens. The document server keeps no
// accounts, so a token's subject is the only notion of a user it has.
type authService struct {
	cfg    config.App
	logger *logger.Logger
}

func NewAuthService(cfg config.App, logger *logger.Logger) AuthService {
	return &authService{cfg: cfg, logger: logger}
}

func (a *authService) CreateToken(ctx context.Context, userID int64) (models.Token, error) {
	if userID <= 0 {
		return models.Token{}, ErrNoUserID
	}

	token, err := utils.GenerateJWTToken(a.cfg.TokenIssuer, userID, a.cfg.TokenDuration, a.cfg.TokenSignKey)
	if err != nil {
		return models.Token{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return token, nil
}

// ParseToken returns ErrTokenIsExpired for an expired but otherwise valid
// token and ErrInvalidToken for every other failure.
func (a *authService) ParseToken(ctx context.Context, tokenString string) (models.Token, error) {
	token, err := utils.ValidateAndParseJWTToken(tokenString, a.cfg.TokenSignKey, a.cfg.TokenIssuer)
	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return models.Token{}, ErrTokenIsExpired
	default:
		logger.FromContext(ctx).Debug().Err(err).Msg("rejected bearer token")
		return models.Token{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
}
