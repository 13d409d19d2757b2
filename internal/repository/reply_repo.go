package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-forum-api/internal/models"
)

// ReplyRepository persists thread replies.
type ReplyRepository interface {
	Get(ctx context.Context, id uint) (models.Reply, error)
	Create(ctx context.Context, reply *models.Reply) error
	ListByThread(ctx context.Context, threadID uint, page Page) ([]models.Reply, int64, error)
	Position(ctx context.Context, reply models.Reply) (int64, error)
}

type replyRepository struct {
	db *gorm.DB
}

// NewReplyRepository constructs a GORM-backed reply repository.
func NewReplyRepository(db *gorm.DB) ReplyRepository {
	return &replyRepository{db: db}
}

func (r *replyRepository) Get(ctx context.Context, id uint) (models.Reply, error) {
	var reply models.Reply
	if err := r.db.WithContext(ctx).First(&reply, id).Error; err != nil {
		return models.Reply{}, err
	}
	return reply, nil
}

// Create inserts the reply and bumps the parent thread's updated_at in one transaction.
// A thread locked by the time the row lock is taken yields ErrThreadLocked.
func (r *replyRepository) Create(ctx context.Context, reply *models.Reply) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOpenThread(tx, reply.ThreadID); err != nil {
			return err
		}
		if err := tx.Create(reply).Error; err != nil {
			return err
		}

		return tx.Model(&models.Thread{}).
			Where("id = ?", reply.ThreadID).
			UpdateColumn("updated_at", reply.CreatedAt).
			Error
	})
}

// ListByThread returns replies oldest first, including soft-deleted ones.
func (r *replyRepository) ListByThread(ctx context.Context, threadID uint, page Page) ([]models.Reply, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Reply{}).Where("thread_id = ?", threadID)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var replies []models.Reply
	if err := paginate(query, page).
		Order("created_at ASC, id ASC").
		Find(&replies).Error; err != nil {
		return nil, 0, err
	}

	return replies, total, nil
}

// Position returns the 1-based index of the reply within its thread's reply ordering.
func (r *replyRepository) Position(ctx context.Context, reply models.Reply) (int64, error) {
	var position int64
	err := r.db.WithContext(ctx).
		Model(&models.Reply{}).
		Where("thread_id = ?", reply.ThreadID).
		Where("created_at < ? OR (created_at = ? AND id <= ?)", reply.CreatedAt, reply.CreatedAt, reply.ID).
		Count(&position).Error
	return position, err
}
