package dto

import (
	"time"

	"github.com/noah-isme/campus-forum-api/internal/models"
)

// CategoryCreateRequest is the payload to create a category.
type CategoryCreateRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Slug        string `json:"slug" validate:"omitempty,max=100"`
	Description string `json:"description" validate:"omitempty,max=2000"`
}

// CategoryResponse describes a category.
type CategoryResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
}

// NewCategoryResponse converts a category model.
func NewCategoryResponse(model models.Category) CategoryResponse {
	return CategoryResponse{ID: model.ID, Name: model.Name, Slug: model.Slug, Description: model.Description}
}

// TagCreateRequest is the payload to create a tag.
type TagCreateRequest struct {
	Name string `json:"name" validate:"required,min=1,max=50"`
	Slug string `json:"slug" validate:"omitempty,max=50"`
}

// TagResponse describes a tag.
type TagResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// NewTagResponseSlice converts tags to DTOs.
func NewTagResponseSlice(items []models.Tag) []TagResponse {
	out := make([]TagResponse, 0, len(items))
	for _, item := range items {
		out = append(out, TagResponse{ID: item.ID, Name: item.Name, Slug: item.Slug})
	}
	return out
}

// CourseCreateRequest is the payload to create a course.
type CourseCreateRequest struct {
	Code       string `json:"code" validate:"required,min=2,max=32"`
	Title      string `json:"title" validate:"required,min=2,max=255"`
	Department string `json:"department" validate:"omitempty,max=128"`
}

// ResourceCreateRequest attaches a resource to a course.
type ResourceCreateRequest struct {
	Title string `json:"title" validate:"required,min=1,max=255"`
	Kind  string `json:"kind" validate:"required,oneof=pdf video link"`
	Link  string `json:"link" validate:"required,url,max=2048"`
}

// ResourceResponse describes a resource.
type ResourceResponse struct {
	ID       uint   `json:"id"`
	CourseID *uint  `json:"course_id,omitempty"`
	Title    string `json:"title"`
	Kind     string `json:"kind"`
	Link     string `json:"link"`
}

// NewResourceResponseSlice converts resources to DTOs.
func NewResourceResponseSlice(items []models.Resource) []ResourceResponse {
	out := make([]ResourceResponse, 0, len(items))
	for _, item := range items {
		out = append(out, ResourceResponse{
			ID:       item.ID,
			CourseID: item.CourseID,
			Title:    item.Title,
			Kind:     string(item.Kind),
			Link:     item.Link,
		})
	}
	return out
}

// CourseResponse describes a course and its resources.
type CourseResponse struct {
	ID         uint               `json:"id"`
	Code       string             `json:"code"`
	Title      string             `json:"title"`
	Department string             `json:"department"`
	Resources  []ResourceResponse `json:"resources"`
}

// NewCourseResponse converts a course model.
func NewCourseResponse(model models.Course) CourseResponse {
	return CourseResponse{
		ID:         model.ID,
		Code:       model.Code,
		Title:      model.Title,
		Department: model.Department,
		Resources:  NewResourceResponseSlice(model.Resources),
	}
}

// ThreadCreateRequest is the payload to start a thread.
type ThreadCreateRequest struct {
	Title         string `json:"title" validate:"required,min=3,max=200"`
	Content       string `json:"content" validate:"required,min=1,max=20000"`
	CategoryID    uint   `json:"category_id" validate:"required"`
	TagIDs        []uint `json:"tag_ids" validate:"omitempty,max=10"`
	ResourceIDs   []uint `json:"resource_ids" validate:"omitempty,max=10"`
	ResourceTitle string `json:"resource_title" validate:"omitempty,max=255"`
	ResourceLink  string `json:"resource_link" validate:"omitempty,url,max=2048"`
}

// ThreadSummaryResponse is a thread row in listings.
type ThreadSummaryResponse struct {
	ID         uint             `json:"id"`
	Title      string           `json:"title"`
	AuthorID   uint             `json:"author_id"`
	Category   CategoryResponse `json:"category"`
	Tags       []TagResponse    `json:"tags"`
	IsLocked   bool             `json:"is_locked"`
	Score      int64            `json:"score"`
	ReplyCount int64            `json:"reply_count"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// ThreadListResponse wraps a page of threads.
type ThreadListResponse struct {
	Items        []ThreadSummaryResponse `json:"items"`
	Pagination   PaginationMeta          `json:"pagination"`
	CategorySlug string                  `json:"category,omitempty"`
	TagSlug      string                  `json:"tag,omitempty"`
}

// ThreadResponse describes a thread with its body.
type ThreadResponse struct {
	ID        uint               `json:"id"`
	Title     string             `json:"title"`
	Content   string             `json:"content"`
	AuthorID  uint               `json:"author_id"`
	Category  CategoryResponse   `json:"category"`
	Tags      []TagResponse      `json:"tags"`
	Resources []ResourceResponse `json:"resources"`
	IsLocked  bool               `json:"is_locked"`
	Score     int64              `json:"score"`
	UserVote  int                `json:"user_vote"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// NewThreadResponse converts a thread with preloaded relations.
func NewThreadResponse(model models.Thread, score int64, userVote int) ThreadResponse {
	return ThreadResponse{
		ID:        model.ID,
		Title:     model.Title,
		Content:   model.Content,
		AuthorID:  model.AuthorID,
		Category:  NewCategoryResponse(model.Category),
		Tags:      NewTagResponseSlice(model.Tags),
		Resources: NewResourceResponseSlice(model.Resources),
		IsLocked:  model.IsLocked,
		Score:     score,
		UserVote:  userVote,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// ReplyCreateRequest creates a reply on a thread.
type ReplyCreateRequest struct {
	Content string `json:"content" validate:"required,min=1,max=10000"`
}

// ReplyResponse describes a reply. Deleted replies carry no content and no score.
type ReplyResponse struct {
	ID        uint      `json:"id"`
	ThreadID  uint      `json:"thread_id"`
	AuthorID  uint      `json:"author_id"`
	Content   string    `json:"content"`
	IsDeleted bool      `json:"is_deleted"`
	Score     *int64    `json:"score,omitempty"`
	UserVote  int       `json:"user_vote"`
	CreatedAt time.Time `json:"created_at"`
}

// NewReplyResponse converts a reply, hiding the body of deleted replies.
func NewReplyResponse(model models.Reply, score int64, userVote int) ReplyResponse {
	response := ReplyResponse{
		ID:        model.ID,
		ThreadID:  model.ThreadID,
		AuthorID:  model.AuthorID,
		IsDeleted: model.IsDeleted,
		CreatedAt: model.CreatedAt,
	}
	if model.IsDeleted {
		return response
	}
	response.Content = model.Content
	response.Score = &score
	response.UserVote = userVote
	return response
}

// ThreadDetailResponse is a thread together with one page of its replies.
type ThreadDetailResponse struct {
	Thread     ThreadResponse  `json:"thread"`
	Replies    []ReplyResponse `json:"replies"`
	Pagination PaginationMeta  `json:"pagination"`
}

// ReplyCreatedResponse returns the new reply and where it landed.
type ReplyCreatedResponse struct {
	Reply      ReplyResponse `json:"reply"`
	Page       int           `json:"page"`
	RedirectTo string        `json:"redirect_to"`
}
