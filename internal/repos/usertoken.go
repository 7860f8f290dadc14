package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jobhackerbot/backend/internal/logger"
	"github.com/jobhackerbot/backend/internal/types"
)

type UserTokenRepo interface {
	Create(ctx context.Context, tx *gorm.DB, token *types.UserToken) (*types.UserToken, error)
	GetByRefreshToken(ctx context.Context, tx *gorm.DB, refreshToken string) (*types.UserToken, error)
	FullDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	FullDeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type userTokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	return &userTokenRepo{db: db, log: baseLog.With("repo", "UserTokenRepo")}
}

func (utr *userTokenRepo) Create(ctx context.Context, tx *gorm.DB, token *types.UserToken) (*types.UserToken, error) {
	if tx == nil {
		tx = utr.db
	}
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	if err := tx.WithContext(ctx).Create(token).Error; err != nil {
		utr.log.Error("failed to create user token", "error", err)
		return nil, err
	}
	return token, nil
}

func (utr *userTokenRepo) GetByRefreshToken(ctx context.Context, tx *gorm.DB, refreshToken string) (*types.UserToken, error) {
	if tx == nil {
		tx = utr.db
	}
	var t types.UserToken
	if err := tx.WithContext(ctx).Where("refresh_token = ?", refreshToken).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (utr *userTokenRepo) FullDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	if tx == nil {
		tx = utr.db
	}
	return tx.WithContext(ctx).Where("id = ?", id).Delete(&types.UserToken{}).Error
}

func (utr *userTokenRepo) FullDeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	if tx == nil {
		tx = utr.db
	}
	return tx.WithContext(ctx).Where("user_id = ?", userID).Delete(&types.UserToken{}).Error
}
