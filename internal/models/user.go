package models

import "time"

// Permission names mirrored from the identity provider's grants.
const (
	PermLockThread     = "lock_thread"
	PermDeleteAnyReply = "delete_any_reply"
	PermChangeUser     = "change_user"
	PermSuperuser      = "superuser"
)

// User mirrors an account known to the identity provider.
type User struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Username          string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email             string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	IsActive          bool      `gorm:"not null;default:true" json:"is_active"`
	IsSuperuser       bool      `gorm:"not null;default:false" json:"is_superuser"`
	CanLockThread     bool      `gorm:"not null;default:false" json:"can_lock_thread"`
	CanDeleteAnyReply bool      `gorm:"not null;default:false" json:"can_delete_any_reply"`
	CanChangeUser     bool      `gorm:"not null;default:false" json:"can_change_user"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
