package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jobhackerbot/backend/internal/errs"
	"github.com/jobhackerbot/backend/internal/logger"
	"github.com/jobhackerbot/backend/internal/repos"
	"github.com/jobhackerbot/backend/internal/requestdata"
	"github.com/jobhackerbot/backend/internal/types"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// MessageService is the chat-message store: append-only writes, soft deletes
// with optional cascade, ordered paginated reads, and the hard clear-history
// wipe. Ownership comes from the authenticated request context.
type MessageService interface {
	Append(ctx context.Context, pageID *uuid.UUID, content types.MessageContent, isUserMessage bool) (*types.ChatMessage, error)
	List(ctx context.Context, pageID *uuid.UUID, limit, offset int) ([]types.MessageView, error)
	Recent(ctx context.Context, pageID *uuid.UUID, limit int) ([]types.MessageView, error)
	Delete(ctx context.Context, messageID uuid.UUID, cascade, above bool) error
	Update(ctx context.Context, messageID uuid.UUID, content types.MessageContent) (types.MessageView, error)
	ClearHistory(ctx context.Context) error

	// Debug/introspection reads, not part of the steady-state contract.
	Orphaned(ctx context.Context) ([]types.MessageView, error)
	Deleted(ctx context.Context) ([]types.MessageView, error)
	ByPage(ctx context.Context) ([]repos.PageGroup, error)
}

type messageService struct {
	db       *gorm.DB
	log      *logger.Logger
	msgRepo  repos.ChatMessageRepo
	pageRepo repos.PageRepo
	userRepo repos.UserRepo
}

func NewMessageService(db *gorm.DB, log *logger.Logger, msgRepo repos.ChatMessageRepo, pageRepo repos.PageRepo, userRepo repos.UserRepo) MessageService {
	return &messageService{
		db:       db,
		log:      log.With("service", "MessageService"),
		msgRepo:  msgRepo,
		pageRepo: pageRepo,
		userRepo: userRepo,
	}
}

// currentUserID pulls the authenticated user from the request context.
func currentUserID(ctx context.Context) (uuid.UUID, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, errs.Forbiddenf("no authenticated user in context")
	}
	return rd.UserID, nil
}

func (ms *messageService) Append(ctx context.Context, pageID *uuid.UUID, content types.MessageContent, isUserMessage bool) (*types.ChatMessage, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	exists, err := ms.userRepo.ExistsByID(ctx, nil, userID)
	if err != nil {
		return nil, errs.Storage(err)
	}
	if !exists {
		return nil, errs.NotFoundf("user %s", userID)
	}
	if pageID != nil {
		page, err := ms.pageRepo.GetByID(ctx, nil, *pageID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errs.NotFoundf("page %s", *pageID)
			}
			return nil, errs.Storage(err)
		}
		if page.UserID != userID {
			return nil, errs.Forbiddenf("page %s is not owned by user %s", *pageID, userID)
		}
	}

	msg := &types.ChatMessage{
		UserID:        userID,
		PageID:        pageID,
		IsUserMessage: isUserMessage,
	}
	msg.SetContent(content)

	err = ms.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := ms.msgRepo.Create(ctx, tx, msg)
		return err
	})
	if err != nil {
		return nil, errs.Storage(err)
	}
	ms.log.Debug("appended chat message", "messageID", msg.ID, "userID", userID, "isUserMessage", isUserMessage)
	return msg, nil
}

// List returns the user's non-deleted messages in created_at ascending
// order. A nil pageID selects only the legacy/unscoped messages.
func (ms *messageService) List(ctx context.Context, pageID *uuid.UUID, limit, offset int) ([]types.MessageView, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	if limit < 1 || limit > MaxListLimit {
		return nil, errs.Validationf("limit %d out of range [1, %d]", limit, MaxListLimit)
	}
	if offset < 0 {
		return nil, errs.Validationf("offset %d must be >= 0", offset)
	}
	msgs, err := ms.msgRepo.ListForUser(ctx, nil, userID, pageID, limit, offset)
	if err != nil {
		return nil, errs.Storage(err)
	}
	views, err := types.Views(msgs)
	if err != nil {
		return nil, errs.Storage(err)
	}
	return views, nil
}

// Recent returns the tail of the conversation: the newest non-deleted
// messages in the scope, reversed into chronological order. On a page longer
// than the limit this keeps the latest turns, where List would window the
// oldest ones.
func (ms *messageService) Recent(ctx context.Context, pageID *uuid.UUID, limit int) ([]types.MessageView, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	if limit < 1 || limit > MaxListLimit {
		return nil, errs.Validationf("limit %d out of range [1, %d]", limit, MaxListLimit)
	}
	msgs, err := ms.msgRepo.ListRecentForUser(ctx, nil, userID, pageID, limit)
	if err != nil {
		return nil, errs.Storage(err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	views, err := types.Views(msgs)
	if err != nil {
		return nil, errs.Storage(err)
	}
	return views, nil
}

// Delete soft-deletes a message. With cascade it also takes every later
// message in the same (user, page) scope; above spares the target itself
// (the "regenerate response" shape). Deleting an already-deleted message is
// a no-op success so client retries stay safe.
func (ms *messageService) Delete(ctx context.Context, messageID uuid.UUID, cascade, above bool) error {
	userID, err := currentUserID(ctx)
	if err != nil {
		return err
	}
	msg, err := ms.msgRepo.GetByIDUnscoped(ctx, nil, messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFoundf("message %s", messageID)
		}
		return errs.Storage(err)
	}
	if msg.UserID != userID {
		return errs.Forbiddenf("message %s is not owned by user %s", messageID, userID)
	}
	if msg.DeletedAt.Valid {
		return nil
	}

	err = ms.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if !cascade {
			return ms.msgRepo.SoftDeleteByID(ctx, tx, messageID)
		}
		// inclusive cascade takes the target (>=); above spares it (>).
		deleted, err := ms.msgRepo.SoftDeleteFrom(ctx, tx, userID, msg.PageID, msg.CreatedAt, !above)
		if err != nil {
			return err
		}
		ms.log.Debug("cascade soft-deleted messages", "messageID", messageID, "above", above, "count", deleted)
		return nil
	})
	if err != nil {
		return errs.Storage(err)
	}
	return nil
}

// Update overwrites the content of a live message owned by the requester.
// Soft-deleted messages count as missing.
func (ms *messageService) Update(ctx context.Context, messageID uuid.UUID, content types.MessageContent) (types.MessageView, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return types.MessageView{}, err
	}
	msg, err := ms.msgRepo.GetByIDUnscoped(ctx, nil, messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.MessageView{}, errs.NotFoundf("message %s", messageID)
		}
		return types.MessageView{}, errs.Storage(err)
	}
	if msg.UserID != userID {
		return types.MessageView{}, errs.Forbiddenf("message %s is not owned by user %s", messageID, userID)
	}
	if msg.DeletedAt.Valid {
		return types.MessageView{}, errs.NotFoundf("message %s is deleted", messageID)
	}

	msg.SetContent(content)
	err = ms.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updated, err := ms.msgRepo.UpdateContent(ctx, tx, messageID, msg.ContentType, msg.Content, msg.Payload)
		if err != nil {
			return err
		}
		if updated == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.MessageView{}, errs.NotFoundf("message %s", messageID)
		}
		return types.MessageView{}, errs.Storage(err)
	}
	return msg.View()
}

// ClearHistory hard-deletes every message and every page the user owns in
// one transaction. Deleting nothing is success.
func (ms *messageService) ClearHistory(ctx context.Context) error {
	userID, err := currentUserID(ctx)
	if err != nil {
		return err
	}
	err = ms.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ms.msgRepo.FullDeleteByUserID(ctx, tx, userID); err != nil {
			return err
		}
		return ms.pageRepo.FullDeleteByUserID(ctx, tx, userID)
	})
	if err != nil {
		return errs.Storage(err)
	}
	ms.log.Info("cleared chat history", "userID", userID)
	return nil
}

func (ms *messageService) Orphaned(ctx context.Context) ([]types.MessageView, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	msgs, err := ms.msgRepo.GetOrphanedForUser(ctx, nil, userID)
	if err != nil {
		return nil, errs.Storage(err)
	}
	views, err := types.Views(msgs)
	if err != nil {
		return nil, errs.Storage(err)
	}
	return views, nil
}

func (ms *messageService) Deleted(ctx context.Context) ([]types.MessageView, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	msgs, err := ms.msgRepo.GetDeletedForUser(ctx, nil, userID)
	if err != nil {
		return nil, errs.Storage(err)
	}
	views, err := types.Views(msgs)
	if err != nil {
		return nil, errs.Storage(err)
	}
	return views, nil
}

func (ms *messageService) ByPage(ctx context.Context) ([]repos.PageGroup, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := ms.msgRepo.GroupByPage(ctx, nil, userID)
	if err != nil {
		return nil, errs.Storage(err)
	}
	return groups, nil
}
