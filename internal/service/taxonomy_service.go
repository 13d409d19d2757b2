package service

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-forum-api/internal/dto"
	"github.com/noah-isme/campus-forum-api/internal/models"
	"github.com/noah-isme/campus-forum-api/internal/repository"
)

// TaxonomyService manages categories, tags, courses and course resources.
type TaxonomyService interface {
	ListCategories(ctx context.Context) ([]dto.CategoryResponse, error)
	CreateCategory(ctx context.Context, actor Actor, payload dto.CategoryCreateRequest) (dto.CategoryResponse, error)
	DeleteCategory(ctx context.Context, actor Actor, slug string) error
	ListTags(ctx context.Context) ([]dto.TagResponse, error)
	CreateTag(ctx context.Context, actor Actor, payload dto.TagCreateRequest) (dto.TagResponse, error)
	ListCourses(ctx context.Context) ([]dto.CourseResponse, error)
	CreateCourse(ctx context.Context, actor Actor, payload dto.CourseCreateRequest) (dto.CourseResponse, error)
	AddResource(ctx context.Context, actor Actor, courseID uint, payload dto.ResourceCreateRequest) (dto.ResourceResponse, error)
}

type taxonomyService struct {
	repo      repository.TaxonomyRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewTaxonomyService constructs the taxonomy service.
func NewTaxonomyService(repo repository.TaxonomyRepository, validate *validator.Validate, logger zerolog.Logger) TaxonomyService {
	return &taxonomyService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "taxonomy_service").Logger(),
	}
}

func (s *taxonomyService) ListCategories(ctx context.Context) ([]dto.CategoryResponse, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CategoryResponse, 0, len(categories))
	for _, category := range categories {
		out = append(out, dto.NewCategoryResponse(category))
	}
	return out, nil
}

func (s *taxonomyService) CreateCategory(ctx context.Context, actor Actor, payload dto.CategoryCreateRequest) (dto.CategoryResponse, error) {
	if err := requirePermission(actor, models.PermSuperuser); err != nil {
		return dto.CategoryResponse{}, err
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.CategoryResponse{}, err
	}

	name := strings.TrimSpace(payload.Name)
	slug := slugify(payload.Slug)
	if slug == "" {
		slug = slugify(name)
	}
	if slug == "" {
		return dto.CategoryResponse{}, invalidArgument("category slug is empty")
	}

	category := models.Category{Name: name, Slug: slug, Description: strings.TrimSpace(payload.Description)}
	if err := s.repo.CreateCategory(ctx, &category); err != nil {
		return dto.CategoryResponse{}, translateDuplicate(err, "category")
	}

	s.logger.Info().Uint("category_id", category.ID).Str("slug", slug).Msg("category created")
	return dto.NewCategoryResponse(category), nil
}

// DeleteCategory removes an unused category. Categories referenced by threads are protected.
func (s *taxonomyService) DeleteCategory(ctx context.Context, actor Actor, slug string) error {
	if err := requirePermission(actor, models.PermSuperuser); err != nil {
		return err
	}

	category, err := s.repo.GetCategoryBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return translateNotFound(err, "category")
	}

	inUse, err := s.repo.CountThreadsInCategory(ctx, category.ID)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return ErrCategoryInUse
	}

	if err := s.repo.DeleteCategory(ctx, category.ID); err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return ErrCategoryInUse
		}
		return translateNotFound(err, "category")
	}

	s.logger.Info().Uint("category_id", category.ID).Str("slug", category.Slug).Msg("category deleted")
	return nil
}

func (s *taxonomyService) ListTags(ctx context.Context) ([]dto.TagResponse, error) {
	tags, err := s.repo.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewTagResponseSlice(tags), nil
}

func (s *taxonomyService) CreateTag(ctx context.Context, actor Actor, payload dto.TagCreateRequest) (dto.TagResponse, error) {
	if err := requirePermission(actor, models.PermSuperuser); err != nil {
		return dto.TagResponse{}, err
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.TagResponse{}, err
	}

	name := strings.TrimSpace(payload.Name)
	slug := slugify(payload.Slug)
	if slug == "" {
		slug = slugify(name)
	}
	if slug == "" {
		return dto.TagResponse{}, invalidArgument("tag slug is empty")
	}

	tag := models.Tag{Name: name, Slug: slug}
	if err := s.repo.CreateTag(ctx, &tag); err != nil {
		return dto.TagResponse{}, translateDuplicate(err, "tag")
	}
	return dto.TagResponse{ID: tag.ID, Name: tag.Name, Slug: tag.Slug}, nil
}

func (s *taxonomyService) ListCourses(ctx context.Context) ([]dto.CourseResponse, error) {
	courses, err := s.repo.ListCourses(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CourseResponse, 0, len(courses))
	for _, course := range courses {
		out = append(out, dto.NewCourseResponse(course))
	}
	return out, nil
}

func (s *taxonomyService) CreateCourse(ctx context.Context, actor Actor, payload dto.CourseCreateRequest) (dto.CourseResponse, error) {
	if err := requirePermission(actor, models.PermSuperuser); err != nil {
		return dto.CourseResponse{}, err
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course := models.Course{
		Code:       strings.ToUpper(strings.TrimSpace(payload.Code)),
		Title:      strings.TrimSpace(payload.Title),
		Department: strings.TrimSpace(payload.Department),
	}
	if err := s.repo.CreateCourse(ctx, &course); err != nil {
		return dto.CourseResponse{}, translateDuplicate(err, "course")
	}
	return dto.NewCourseResponse(course), nil
}

func (s *taxonomyService) AddResource(ctx context.Context, actor Actor, courseID uint, payload dto.ResourceCreateRequest) (dto.ResourceResponse, error) {
	if err := requirePermission(actor, models.PermSuperuser); err != nil {
		return dto.ResourceResponse{}, err
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.ResourceResponse{}, err
	}

	course, err := s.repo.GetCourse(ctx, courseID)
	if err != nil {
		return dto.ResourceResponse{}, translateNotFound(err, "course")
	}

	resource := models.Resource{
		CourseID: &course.ID,
		Title:    strings.TrimSpace(payload.Title),
		Kind:     models.ResourceKind(payload.Kind),
		Link:     strings.TrimSpace(payload.Link),
	}
	if err := s.repo.CreateResource(ctx, &resource); err != nil {
		return dto.ResourceResponse{}, err
	}

	return dto.NewResourceResponseSlice([]models.Resource{resource})[0], nil
}

// slugify lowercases the input and collapses every run of non-alphanumerics into a single hyphen.
func slugify(value string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}
