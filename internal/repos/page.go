package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jobhackerbot/backend/internal/logger"
	"github.com/jobhackerbot/backend/internal/types"
)

type PageRepo interface {
	Create(ctx context.Context, tx *gorm.DB, page *types.Page) (*types.Page, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Page, error)
	GetUserPages(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Page, error)
	TouchLastOpened(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	UpdateTitle(ctx context.Context, tx *gorm.DB, id uuid.UUID, title string) error
	FullDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	FullDeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type pageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPageRepo(db *gorm.DB, baseLog *logger.Logger) PageRepo {
	return &pageRepo{db: db, log: baseLog.With("repo", "PageRepo")}
}

func (pr *pageRepo) Create(ctx context.Context, tx *gorm.DB, page *types.Page) (*types.Page, error) {
	if tx == nil {
		tx = pr.db
	}
	if page.ID == uuid.Nil {
		page.ID = uuid.New()
	}
	if err := tx.WithContext(ctx).Create(page).Error; err != nil {
		pr.log.Error("failed to create page", "error", err)
		return nil, err
	}
	return page, nil
}

func (pr *pageRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Page, error) {
	if tx == nil {
		tx = pr.db
	}
	var p types.Page
	if err := tx.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetUserPages returns the user's pages, most recently opened first; pages
// never opened fall back to their creation time.
func (pr *pageRepo) GetUserPages(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Page, error) {
	if tx == nil {
		tx = pr.db
	}
	var pages []*types.Page
	if err := tx.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("COALESCE(last_opened_at, created_at) DESC").
		Find(&pages).Error; err != nil {
		pr.log.Error("failed to get user pages", "error", err, "userID", userID)
		return nil, err
	}
	return pages, nil
}

func (pr *pageRepo) TouchLastOpened(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	if tx == nil {
		tx = pr.db
	}
	now := time.Now()
	return tx.WithContext(ctx).
		Model(&types.Page{}).
		Where("id = ?", id).
		Update("last_opened_at", &now).Error
}

func (pr *pageRepo) UpdateTitle(ctx context.Context, tx *gorm.DB, id uuid.UUID, title string) error {
	if tx == nil {
		tx = pr.db
	}
	return tx.WithContext(ctx).
		Model(&types.Page{}).
		Where("id = ?", id).
		Update("title", title).Error
}

func (pr *pageRepo) FullDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	if tx == nil {
		tx = pr.db
	}
	if err := tx.WithContext(ctx).Where("id = ?", id).Delete(&types.Page{}).Error; err != nil {
		pr.log.Error("failed to delete page", "error", err, "pageID", id)
		return err
	}
	return nil
}

func (pr *pageRepo) FullDeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	if tx == nil {
		tx = pr.db
	}
	if err := tx.WithContext(ctx).Where("user_id = ?", userID).Delete(&types.Page{}).Error; err != nil {
		pr.log.Error("failed to delete user pages", "error", err, "userID", userID)
		return err
	}
	return nil
}
