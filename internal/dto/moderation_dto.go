package dto

import (
	"time"

	"github.com/noah-isme/campus-forum-api/internal/models"
)

// ModerationResultResponse reports the outcome of a moderation action.
// Changed is false when the target was already in the requested state.
type ModerationResultResponse struct {
	Action     string `json:"action"`
	EntityType string `json:"entity_type"`
	EntityID   uint   `json:"entity_id"`
	Changed    bool   `json:"changed"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

// ModerationLogListRequest defines filters for the moderation log.
type ModerationLogListRequest struct {
	Page       int    `query:"page" validate:"omitempty,min=1"`
	PageSize   int    `query:"page_size" validate:"omitempty,min=1,max=100"`
	ActorID    uint   `query:"actor_id"`
	Action     string `query:"action" validate:"omitempty,oneof=lock_thread delete_reply ban_user resolve_report"`
	EntityType string `query:"entity_type" validate:"omitempty,max=64"`
}

// ModerationLogResponse serialises an audit entry.
type ModerationLogResponse struct {
	ID         uint                   `json:"id"`
	ActorID    uint                   `json:"actor_id"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   uint                   `json:"entity_id"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// NewModerationLogResponse converts an audit entry.
func NewModerationLogResponse(model models.ModerationLog) ModerationLogResponse {
	response := ModerationLogResponse{
		ID:         model.ID,
		ActorID:    model.ActorID,
		Action:     model.Action,
		EntityType: model.EntityType,
		EntityID:   model.EntityID,
		CreatedAt:  model.CreatedAt,
	}
	if len(model.Metadata) > 0 {
		response.Metadata = map[string]interface{}(model.Metadata)
	}
	return response
}

// ModerationLogListResponse wraps a page of audit entries.
type ModerationLogListResponse struct {
	Items      []ModerationLogResponse `json:"items"`
	Pagination PaginationMeta          `json:"pagination"`
}

// CapabilitiesResponse lists the moderation grants of the current user.
type CapabilitiesResponse struct {
	LockThread     bool `json:"lock_thread"`
	DeleteAnyReply bool `json:"delete_any_reply"`
	ChangeUser     bool `json:"change_user"`
	Superuser      bool `json:"superuser"`
}

// MeResponse describes the authenticated user.
type MeResponse struct {
	ID           uint                 `json:"id"`
	Username     string               `json:"username"`
	Email        string               `json:"email"`
	Capabilities CapabilitiesResponse `json:"capabilities"`
}
