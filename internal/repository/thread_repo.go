package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-forum-api/internal/models"
)

// ThreadFilter narrows thread listings.
type ThreadFilter struct {
	Page
	CategorySlug string
	TagSlug      string
}

// ThreadRepository persists discussion threads.
type ThreadRepository interface {
	List(ctx context.Context, filter ThreadFilter) ([]models.Thread, int64, error)
	Get(ctx context.Context, id uint) (models.Thread, error)
	GetWithRelations(ctx context.Context, id uint) (models.Thread, error)
	Create(ctx context.Context, thread *models.Thread) error
	CountReplies(ctx context.Context, threadIDs []uint) (map[uint]int64, error)
}

type threadRepository struct {
	db *gorm.DB
}

// NewThreadRepository constructs a GORM-backed repository.
func NewThreadRepository(db *gorm.DB) ThreadRepository {
	return &threadRepository{db: db}
}

func (r *threadRepository) List(ctx context.Context, filter ThreadFilter) ([]models.Thread, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Thread{})

	if filter.CategorySlug != "" {
		query = query.Where("threads.category_id IN (?)", r.db.Model(&models.Category{}).
			Select("id").
			Where("slug = ?", filter.CategorySlug))
	}

	if filter.TagSlug != "" {
		query = query.Where("threads.id IN (?)", r.db.Table("thread_tags").
			Select("thread_tags.thread_id").
			Joins("JOIN tags ON tags.id = thread_tags.tag_id").
			Where("tags.slug = ?", filter.TagSlug))
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var threads []models.Thread
	if err := paginate(query, filter.Page).
		Preload("Category").
		Preload("Tags").
		Order("threads.created_at DESC, threads.id DESC").
		Find(&threads).Error; err != nil {
		return nil, 0, err
	}

	return threads, total, nil
}

func (r *threadRepository) Get(ctx context.Context, id uint) (models.Thread, error) {
	var thread models.Thread
	if err := r.db.WithContext(ctx).First(&thread, id).Error; err != nil {
		return models.Thread{}, err
	}
	return thread, nil
}

func (r *threadRepository) GetWithRelations(ctx context.Context, id uint) (models.Thread, error) {
	var thread models.Thread
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Tags").
		Preload("Resources").
		First(&thread, id).Error; err != nil {
		return models.Thread{}, err
	}
	return thread, nil
}

// Create inserts the thread along with its tag and resource associations.
// Resources without an id are created as ad hoc resources.
func (r *threadRepository) Create(ctx context.Context, thread *models.Thread) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit("Category").Create(thread).Error
	})
}

func (r *threadRepository) CountReplies(ctx context.Context, threadIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(threadIDs))
	if len(threadIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		ThreadID uint
		Total    int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Reply{}).
		Select("thread_id, COUNT(*) AS total").
		Where("thread_id IN ? AND is_deleted = ?", threadIDs, false).
		Group("thread_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.ThreadID] = row.Total
	}
	return counts, nil
}
