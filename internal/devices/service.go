package devices

import (
	"context"
	"strings"

	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
)

// Service manages push token registration for a user's devices.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.DeviceToken, error)
	Unregister(ctx context.Context, userID, token string) error
	ListByUser(ctx context.Context, userID string) ([]models.DeviceToken, error)
}

// RegisterInput binds a gateway token to a user.
type RegisterInput struct {
	UserID   string `json:"user_id" validate:"required"`
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform"`
}

type service struct {
	repo Repository
}

// NewService wires the device token service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "device token repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.DeviceToken, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if strings.TrimSpace(input.Token) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "device token is required")
	}

	token := &models.DeviceToken{
		UserID:   input.UserID,
		Token:    strings.TrimSpace(input.Token),
		Platform: input.Platform,
	}
	if err := s.repo.Upsert(ctx, token); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register device token")
	}
	return token, nil
}

func (s *service) Unregister(ctx context.Context, userID, token string) error {
	if strings.TrimSpace(userID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if strings.TrimSpace(token) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "device token is required")
	}
	removed, err := s.repo.DeleteByToken(ctx, userID, strings.TrimSpace(token))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unregister device token")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "device token not found")
	}
	return nil
}

func (s *service) ListByUser(ctx context.Context, userID string) ([]models.DeviceToken, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	tokens, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list device tokens")
	}
	return tokens, nil
}
