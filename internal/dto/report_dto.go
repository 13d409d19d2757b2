package dto

import (
	"time"

	"github.com/noah-isme/campus-forum-api/internal/models"
)

// ReportCreateRequest files a report against any content kind.
type ReportCreateRequest struct {
	TargetKind string `json:"target_kind" validate:"required"`
	TargetID   uint   `json:"target_id" validate:"required"`
	Reason     string `json:"reason" validate:"omitempty,max=2000"`
}

// ReportReasonRequest carries only the reason when the target is in the path.
type ReportReasonRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=2000"`
}

// TargetLink points at reported content. Available is false when no link can be built.
type TargetLink struct {
	Available bool   `json:"available"`
	URL       string `json:"url"`
}

// ReportResponse describes a report.
type ReportResponse struct {
	ID           uint        `json:"id"`
	ReporterID   uint        `json:"reporter_id"`
	TargetKind   string      `json:"target_kind"`
	TargetID     uint        `json:"target_id"`
	Reason       string      `json:"reason"`
	Status       string      `json:"status"`
	ResolvedByID *uint       `json:"resolved_by_id,omitempty"`
	ResolvedAt   *time.Time  `json:"resolved_at,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	Link         *TargetLink `json:"link,omitempty"`
}

// NewReportResponse converts a report model.
func NewReportResponse(model models.Report) ReportResponse {
	return ReportResponse{
		ID:           model.ID,
		ReporterID:   model.ReporterID,
		TargetKind:   string(model.TargetKind),
		TargetID:     model.TargetID,
		Reason:       model.Reason,
		Status:       string(model.Status),
		ResolvedByID: model.ResolvedByID,
		ResolvedAt:   model.ResolvedAt,
		CreatedAt:    model.CreatedAt,
	}
}

// ReportQueueResponse splits reports by status, each newest first.
type ReportQueueResponse struct {
	Pending  []ReportResponse `json:"pending"`
	Resolved []ReportResponse `json:"resolved"`
}
