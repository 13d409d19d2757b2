package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-forum-api/internal/models"
)

// ModerationLogFilter narrows moderation log queries.
type ModerationLogFilter struct {
	Page
	ActorID    *uint
	Action     string
	EntityType string
}

// ModerationRepository applies one-way moderation transitions and keeps their audit trail.
// Each transition reports whether the row actually changed; repeats are no-ops and write no log.
type ModerationRepository interface {
	LockThread(ctx context.Context, threadID uint, entry *models.ModerationLog) (bool, error)
	SoftDeleteReply(ctx context.Context, replyID uint, entry *models.ModerationLog) (bool, error)
	DeactivateUser(ctx context.Context, userID uint, entry *models.ModerationLog) (bool, error)
	ResolveReport(ctx context.Context, reportID, resolverID uint, at time.Time, entry *models.ModerationLog) (bool, error)
	ListLog(ctx context.Context, filter ModerationLogFilter) ([]models.ModerationLog, int64, error)
}

type moderationRepository struct {
	db *gorm.DB
}

// NewModerationRepository constructs the moderation repository.
func NewModerationRepository(db *gorm.DB) ModerationRepository {
	return &moderationRepository{db: db}
}

func (r *moderationRepository) LockThread(ctx context.Context, threadID uint, entry *models.ModerationLog) (bool, error) {
	return r.transition(ctx, &models.Thread{}, threadID,
		map[string]interface{}{"is_locked": false},
		map[string]interface{}{"is_locked": true},
		entry)
}

func (r *moderationRepository) SoftDeleteReply(ctx context.Context, replyID uint, entry *models.ModerationLog) (bool, error) {
	return r.transition(ctx, &models.Reply{}, replyID,
		map[string]interface{}{"is_deleted": false},
		map[string]interface{}{"is_deleted": true},
		entry)
}

func (r *moderationRepository) DeactivateUser(ctx context.Context, userID uint, entry *models.ModerationLog) (bool, error) {
	return r.transition(ctx, &models.User{}, userID,
		map[string]interface{}{"is_active": true},
		map[string]interface{}{"is_active": false},
		entry)
}

func (r *moderationRepository) ResolveReport(ctx context.Context, reportID, resolverID uint, at time.Time, entry *models.ModerationLog) (bool, error) {
	return r.transition(ctx, &models.Report{}, reportID,
		map[string]interface{}{"status": models.ReportPending},
		map[string]interface{}{
			"status":         models.ReportResolved,
			"resolved_by_id": resolverID,
			"resolved_at":    at,
		},
		entry)
}

func (r *moderationRepository) transition(ctx context.Context, model interface{}, id uint, from, to map[string]interface{}, entry *models.ModerationLog) (bool, error) {
	changed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(model).Where("id = ?", id).Where(from).Updates(to)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		changed = true
		if entry == nil {
			return nil
		}
		return tx.Create(entry).Error
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

func (r *moderationRepository) ListLog(ctx context.Context, filter ModerationLogFilter) ([]models.ModerationLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ModerationLog{})

	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}

	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}

	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.ModerationLog
	if err := paginate(query, filter.Page).Order("created_at DESC, id DESC").Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
