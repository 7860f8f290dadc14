package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jobhackerbot/backend/internal/errs"
	"github.com/jobhackerbot/backend/internal/logger"
	"github.com/jobhackerbot/backend/internal/repos"
	"github.com/jobhackerbot/backend/internal/types"
)

// PageService manages conversation-thread containers. Pages are hard-deleted
// together with their messages; only messages carry soft-delete semantics.
type PageService interface {
	Create(ctx context.Context, id *uuid.UUID, title string) (*types.Page, error)
	List(ctx context.Context) ([]*types.Page, error)
	Open(ctx context.Context, pageID uuid.UUID) error
	Rename(ctx context.Context, pageID uuid.UUID, title string) error
	Delete(ctx context.Context, pageID uuid.UUID) error
}

type pageService struct {
	db       *gorm.DB
	log      *logger.Logger
	pageRepo repos.PageRepo
	msgRepo  repos.ChatMessageRepo
}

func NewPageService(db *gorm.DB, log *logger.Logger, pageRepo repos.PageRepo, msgRepo repos.ChatMessageRepo) PageService {
	return &pageService{
		db:       db,
		log:      log.With("service", "PageService"),
		pageRepo: pageRepo,
		msgRepo:  msgRepo,
	}
}

// Create makes a new page for the authenticated user. Clients may supply
// their own id (they generate page ids before the first message); a nil id
// gets a fresh one.
func (ps *pageService) Create(ctx context.Context, id *uuid.UUID, title string) (*types.Page, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(title) == "" {
		return nil, errs.Validationf("page title must not be empty")
	}
	page := &types.Page{UserID: userID, Title: title}
	if id != nil {
		page.ID = *id
	}
	if _, err := ps.pageRepo.Create(ctx, nil, page); err != nil {
		return nil, errs.Storage(err)
	}
	ps.log.Debug("created page", "pageID", page.ID, "userID", userID)
	return page, nil
}

func (ps *pageService) List(ctx context.Context) ([]*types.Page, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	pages, err := ps.pageRepo.GetUserPages(ctx, nil, userID)
	if err != nil {
		return nil, errs.Storage(err)
	}
	return pages, nil
}

// getOwned loads a page and enforces ownership.
func (ps *pageService) getOwned(ctx context.Context, pageID uuid.UUID) (*types.Page, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	page, err := ps.pageRepo.GetByID(ctx, nil, pageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFoundf("page %s", pageID)
		}
		return nil, errs.Storage(err)
	}
	if page.UserID != userID {
		return nil, errs.Forbiddenf("page %s is not owned by user %s", pageID, userID)
	}
	return page, nil
}

// Open records that the client has (re)activated the page.
func (ps *pageService) Open(ctx context.Context, pageID uuid.UUID) error {
	if _, err := ps.getOwned(ctx, pageID); err != nil {
		return err
	}
	if err := ps.pageRepo.TouchLastOpened(ctx, nil, pageID); err != nil {
		return errs.Storage(err)
	}
	return nil
}

func (ps *pageService) Rename(ctx context.Context, pageID uuid.UUID, title string) error {
	if strings.TrimSpace(title) == "" {
		return errs.Validationf("page title must not be empty")
	}
	if _, err := ps.getOwned(ctx, pageID); err != nil {
		return err
	}
	if err := ps.pageRepo.UpdateTitle(ctx, nil, pageID, title); err != nil {
		return errs.Storage(err)
	}
	return nil
}

// Delete hard-deletes the page and all of its messages atomically.
func (ps *pageService) Delete(ctx context.Context, pageID uuid.UUID) error {
	if _, err := ps.getOwned(ctx, pageID); err != nil {
		return err
	}
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ps.msgRepo.FullDeleteByPageID(ctx, tx, pageID); err != nil {
			return err
		}
		return ps.pageRepo.FullDeleteByID(ctx, tx, pageID)
	})
	if err != nil {
		return errs.Storage(err)
	}
	ps.log.Info("deleted page with its messages", "pageID", pageID)
	return nil
}
