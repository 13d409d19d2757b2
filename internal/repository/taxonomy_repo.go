package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-forum-api/internal/models"
)

// TaxonomyRepository persists categories, tags, courses and their resources.
type TaxonomyRepository interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id uint) (models.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	CountThreadsInCategory(ctx context.Context, categoryID uint) (int64, error)
	DeleteCategory(ctx context.Context, id uint) error

	ListTags(ctx context.Context) ([]models.Tag, error)
	FindTags(ctx context.Context, ids []uint) ([]models.Tag, error)
	CreateTag(ctx context.Context, tag *models.Tag) error

	ListCourses(ctx context.Context) ([]models.Course, error)
	GetCourse(ctx context.Context, id uint) (models.Course, error)
	CreateCourse(ctx context.Context, course *models.Course) error
	CreateResource(ctx context.Context, resource *models.Resource) error
	FindResources(ctx context.Context, ids []uint) ([]models.Resource, error)
}

type taxonomyRepository struct {
	db *gorm.DB
}

// NewTaxonomyRepository constructs the taxonomy repository.
func NewTaxonomyRepository(db *gorm.DB) TaxonomyRepository {
	return &taxonomyRepository{db: db}
}

func (r *taxonomyRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *taxonomyRepository) GetCategory(ctx context.Context, id uint) (models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return models.Category{}, err
	}
	return category, nil
}

func (r *taxonomyRepository) GetCategoryBySlug(ctx context.Context, slug string) (models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		return models.Category{}, err
	}
	return category, nil
}

func (r *taxonomyRepository) CreateCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *taxonomyRepository) CountThreadsInCategory(ctx context.Context, categoryID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Thread{}).Where("category_id = ?", categoryID).Count(&total).Error
	return total, err
}

func (r *taxonomyRepository) DeleteCategory(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Category{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *taxonomyRepository) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *taxonomyRepository) FindTags(ctx context.Context, ids []uint) ([]models.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var tags []models.Tag
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *taxonomyRepository) CreateTag(ctx context.Context, tag *models.Tag) error {
	return r.db.WithContext(ctx).Create(tag).Error
}

func (r *taxonomyRepository) ListCourses(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	if err := r.db.WithContext(ctx).
		Preload("Resources", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Order("code ASC").
		Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *taxonomyRepository) GetCourse(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).Preload("Resources").First(&course, id).Error; err != nil {
		return models.Course{}, err
	}
	return course, nil
}

func (r *taxonomyRepository) CreateCourse(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *taxonomyRepository) CreateResource(ctx context.Context, resource *models.Resource) error {
	return r.db.WithContext(ctx).Create(resource).Error
}

func (r *taxonomyRepository) FindResources(ctx context.Context, ids []uint) ([]models.Resource, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var resources []models.Resource
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&resources).Error; err != nil {
		return nil, err
	}
	return resources, nil
}
