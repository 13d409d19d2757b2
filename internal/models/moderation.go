package models

import (
	"time"

	"gorm.io/datatypes"
)

// Moderation actions recorded in the audit log.
const (
	ActionLockThread    = "lock_thread"
	ActionDeleteReply   = "delete_reply"
	ActionBanUser       = "ban_user"
	ActionResolveReport = "resolve_report"
)

// ModerationLog captures state transitions applied by moderators and authors.
type ModerationLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActorID    uint              `gorm:"index;not null" json:"actor_id"`
	Action     string            `gorm:"size:64;not null;index" json:"action"`
	EntityType string            `gorm:"size:64;not null" json:"entity_type"`
	EntityID   uint              `gorm:"not null" json:"entity_id"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `gorm:"index" json:"created_at"`
}

// All returns every model managed by the schema migration, in dependency order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Tag{},
		&Course{},
		&Resource{},
		&Thread{},
		&Reply{},
		&Vote{},
		&Report{},
		&ModerationLog{},
	}
}
