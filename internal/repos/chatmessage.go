package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/jobhackerbot/backend/internal/logger"
	"github.com/jobhackerbot/backend/internal/types"
)

// PageGroup is one bucket of the by-page diagnostic grouping. A nil PageID
// is the legacy/unscoped bucket.
type PageGroup struct {
	PageID *uuid.UUID `gorm:"column:page_id" json:"page_id"`
	Count  int64      `gorm:"column:count" json:"count"`
	First  time.Time  `gorm:"column:first_created_at" json:"first_created_at"`
	Last   time.Time  `gorm:"column:last_created_at" json:"last_created_at"`
}

type ChatMessageRepo interface {
	Create(ctx context.Context, tx *gorm.DB, msg *types.ChatMessage) (*types.ChatMessage, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ChatMessage, error)
	GetByIDUnscoped(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ChatMessage, error)
	ListForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, pageID *uuid.UUID, limit, offset int) ([]*types.ChatMessage, error)
	ListRecentForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, pageID *uuid.UUID, limit int) ([]*types.ChatMessage, error)
	SoftDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	SoftDeleteFrom(ctx context.Context, tx *gorm.DB, userID uuid.UUID, pageID *uuid.UUID, cutoff time.Time, inclusive bool) (int64, error)
	UpdateContent(ctx context.Context, tx *gorm.DB, id uuid.UUID, contentType, content string, payload datatypes.JSON) (int64, error)
	FullDeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
	FullDeleteByPageID(ctx context.Context, tx *gorm.DB, pageID uuid.UUID) error
	GetOrphanedForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ChatMessage, error)
	GetDeletedForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ChatMessage, error)
	GroupByPage(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]PageGroup, error)
}

type chatMessageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatMessageRepo(db *gorm.DB, baseLog *logger.Logger) ChatMessageRepo {
	return &chatMessageRepo{db: db, log: baseLog.With("repo", "ChatMessageRepo")}
}

// pageScope narrows a query to one (nullable) page: a nil pageID selects the
// legacy/unscoped messages, not all pages.
func pageScope(q *gorm.DB, pageID *uuid.UUID) *gorm.DB {
	if pageID == nil {
		return q.Where("page_id IS NULL")
	}
	return q.Where("page_id = ?", *pageID)
}

func (cmr *chatMessageRepo) Create(ctx context.Context, tx *gorm.DB, msg *types.ChatMessage) (*types.ChatMessage, error) {
	if tx == nil {
		tx = cmr.db
	}
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if err := tx.WithContext(ctx).Create(msg).Error; err != nil {
		cmr.log.Error("failed to create chat message", "error", err)
		return nil, err
	}
	return msg, nil
}

func (cmr *chatMessageRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ChatMessage, error) {
	if tx == nil {
		tx = cmr.db
	}
	var m types.ChatMessage
	if err := tx.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByIDUnscoped also finds soft-deleted rows, so callers can tell a
// missing message apart from an already-deleted one.
func (cmr *chatMessageRepo) GetByIDUnscoped(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ChatMessage, error) {
	if tx == nil {
		tx = cmr.db
	}
	var m types.ChatMessage
	if err := tx.WithContext(ctx).Unscoped().Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (cmr *chatMessageRepo) ListForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, pageID *uuid.UUID, limit, offset int) ([]*types.ChatMessage, error) {
	if tx == nil {
		tx = cmr.db
	}
	var msgs []*types.ChatMessage
	q := tx.WithContext(ctx).Where("user_id = ?", userID)
	q = pageScope(q, pageID)
	if err := q.Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&msgs).Error; err != nil {
		cmr.log.Error("failed to list chat messages", "error", err, "userID", userID)
		return nil, err
	}
	return msgs, nil
}

// ListRecentForUser returns the newest live messages in the (user, page)
// scope, newest first. Callers wanting chronological order reverse the slice.
func (cmr *chatMessageRepo) ListRecentForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, pageID *uuid.UUID, limit int) ([]*types.ChatMessage, error) {
	if tx == nil {
		tx = cmr.db
	}
	var msgs []*types.ChatMessage
	q := tx.WithContext(ctx).Where("user_id = ?", userID)
	q = pageScope(q, pageID)
	if err := q.Order("created_at DESC").
		Limit(limit).
		Find(&msgs).Error; err != nil {
		cmr.log.Error("failed to list recent chat messages", "error", err, "userID", userID)
		return nil, err
	}
	return msgs, nil
}

// SoftDeleteByID marks one message deleted. The default soft-delete scope
// skips rows that are already deleted, so a retry leaves the original
// deleted_at untouched.
func (cmr *chatMessageRepo) SoftDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	if tx == nil {
		tx = cmr.db
	}
	return tx.WithContext(ctx).Where("id = ?", id).Delete(&types.ChatMessage{}).Error
}

// SoftDeleteFrom marks deleted every live message in the (user, page) scope
// at or after the cutoff; inclusive controls whether rows exactly at the
// cutoff are taken (created_at >= cutoff) or spared (created_at > cutoff).
func (cmr *chatMessageRepo) SoftDeleteFrom(ctx context.Context, tx *gorm.DB, userID uuid.UUID, pageID *uuid.UUID, cutoff time.Time, inclusive bool) (int64, error) {
	if tx == nil {
		tx = cmr.db
	}
	op := "created_at > ?"
	if inclusive {
		op = "created_at >= ?"
	}
	q := tx.WithContext(ctx).Where("user_id = ?", userID)
	q = pageScope(q, pageID)
	res := q.Where(op, cutoff).Delete(&types.ChatMessage{})
	if res.Error != nil {
		cmr.log.Error("failed to cascade soft-delete chat messages", "error", res.Error, "userID", userID)
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// UpdateContent overwrites the content union in place on a live row and
// reports how many rows matched (0 when the message is missing or deleted).
func (cmr *chatMessageRepo) UpdateContent(ctx context.Context, tx *gorm.DB, id uuid.UUID, contentType, content string, payload datatypes.JSON) (int64, error) {
	if tx == nil {
		tx = cmr.db
	}
	res := tx.WithContext(ctx).
		Model(&types.ChatMessage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"content_type": contentType,
			"content":      content,
			"payload":      payload,
		})
	if res.Error != nil {
		cmr.log.Error("failed to update chat message content", "error", res.Error, "messageID", id)
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// FullDeleteByUserID physically removes every message the user owns,
// soft-deleted rows included.
func (cmr *chatMessageRepo) FullDeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	if tx == nil {
		tx = cmr.db
	}
	if err := tx.WithContext(ctx).Unscoped().Where("user_id = ?", userID).Delete(&types.ChatMessage{}).Error; err != nil {
		cmr.log.Error("failed to hard-delete user chat messages", "error", err, "userID", userID)
		return err
	}
	return nil
}

func (cmr *chatMessageRepo) FullDeleteByPageID(ctx context.Context, tx *gorm.DB, pageID uuid.UUID) error {
	if tx == nil {
		tx = cmr.db
	}
	if err := tx.WithContext(ctx).Unscoped().Where("page_id = ?", pageID).Delete(&types.ChatMessage{}).Error; err != nil {
		cmr.log.Error("failed to hard-delete page chat messages", "error", err, "pageID", pageID)
		return err
	}
	return nil
}

// GetOrphanedForUser returns live messages with no page, newest first.
func (cmr *chatMessageRepo) GetOrphanedForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ChatMessage, error) {
	if tx == nil {
		tx = cmr.db
	}
	var msgs []*types.ChatMessage
	if err := tx.WithContext(ctx).
		Where("user_id = ? AND page_id IS NULL", userID).
		Order("created_at DESC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// GetDeletedForUser returns the user's soft-deleted rows for audit reads.
func (cmr *chatMessageRepo) GetDeletedForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ChatMessage, error) {
	if tx == nil {
		tx = cmr.db
	}
	var msgs []*types.ChatMessage
	if err := tx.WithContext(ctx).
		Unscoped().
		Where("user_id = ? AND deleted_at IS NOT NULL", userID).
		Order("deleted_at DESC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// GroupByPage buckets the user's live messages per page with count and
// first/last timestamps, the null-page bucket included.
func (cmr *chatMessageRepo) GroupByPage(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]PageGroup, error) {
	if tx == nil {
		tx = cmr.db
	}
	var groups []PageGroup
	if err := tx.WithContext(ctx).
		Model(&types.ChatMessage{}).
		Select("page_id, COUNT(*) AS count, MIN(created_at) AS first_created_at, MAX(created_at) AS last_created_at").
		Where("user_id = ?", userID).
		Group("page_id").
		Order("last_created_at DESC").
		Scan(&groups).Error; err != nil {
		cmr.log.Error("failed to group chat messages by page", "error", err, "userID", userID)
		return nil, err
	}
	return groups, nil
}
