package models

import "time"

// Category groups threads. Threads protect their category from deletion.
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Slug        string    `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Tag labels threads.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Slug      string    `gorm:"size:50;uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// Course is an academic course owning study resources.
type Course struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Code       string     `gorm:"size:32;uniqueIndex;not null" json:"code"`
	Title      string     `gorm:"size:255;not null" json:"title"`
	Department string     `gorm:"size:128" json:"department"`
	Resources  []Resource `gorm:"constraint:OnDelete:CASCADE" json:"resources,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// ResourceKind enumerates supported resource formats.
type ResourceKind string

const (
	ResourcePDF   ResourceKind = "pdf"
	ResourceVideo ResourceKind = "video"
	ResourceLink  ResourceKind = "link"
)

// Resource is a course material. Ad hoc resources attached to a thread have no course.
type Resource struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	CourseID  *uint        `gorm:"index" json:"course_id"`
	Title     string       `gorm:"size:255;not null" json:"title"`
	Kind      ResourceKind `gorm:"size:16;not null;default:link" json:"kind"`
	Link      string       `gorm:"size:2048" json:"link"`
	CreatedAt time.Time    `json:"created_at"`
}

// Thread is a top-level discussion post.
type Thread struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Title      string     `gorm:"size:200;not null" json:"title"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	AuthorID   uint       `gorm:"index;not null" json:"author_id"`
	CategoryID uint       `gorm:"index;not null" json:"category_id"`
	Category   Category   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"category"`
	Tags       []Tag      `gorm:"many2many:thread_tags" json:"tags,omitempty"`
	Resources  []Resource `gorm:"many2many:thread_resources" json:"resources,omitempty"`
	IsLocked   bool       `gorm:"not null;default:false" json:"is_locked"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Replies    []Reply    `gorm:"constraint:OnDelete:CASCADE" json:"replies,omitempty"`
}

// Reply is a response within a thread. Deleted replies keep their row.
type Reply struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ThreadID  uint      `gorm:"index;not null" json:"thread_id"`
	AuthorID  uint      `gorm:"index;not null" json:"author_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	IsDeleted bool      `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
