package models

import "time"

// ReportStatus tracks the moderation lifecycle of a report.
type ReportStatus string

const (
	ReportPending  ReportStatus = "pending"
	ReportResolved ReportStatus = "resolved"
)

// DefaultReportReason is stored when a reporter gives no reason.
const DefaultReportReason = "No reason provided"

// Report flags a piece of content. The target is a weak reference and may no longer exist.
type Report struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	ReporterID   uint         `gorm:"index;not null" json:"reporter_id"`
	TargetKind   TargetKind   `gorm:"size:16;not null;index:idx_reports_target" json:"target_kind"`
	TargetID     uint         `gorm:"not null;index:idx_reports_target" json:"target_id"`
	Reason       string       `gorm:"type:text;not null" json:"reason"`
	Status       ReportStatus `gorm:"size:16;not null;default:pending;index" json:"status"`
	ResolvedByID *uint        `json:"resolved_by_id,omitempty"`
	ResolvedAt   *time.Time   `json:"resolved_at,omitempty"`
	CreatedAt    time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Target returns the reported target.
func (r Report) Target() Target {
	return Target{Kind: r.TargetKind, ID: r.TargetID}
}
