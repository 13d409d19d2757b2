package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-forum-api/internal/models"
)

// ReportRepository persists abuse reports.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	Get(ctx context.Context, id uint) (models.Report, error)
	ListByStatus(ctx context.Context, status models.ReportStatus) ([]models.Report, error)
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository constructs a GORM-backed report repository.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *reportRepository) Get(ctx context.Context, id uint) (models.Report, error) {
	var report models.Report
	if err := r.db.WithContext(ctx).First(&report, id).Error; err != nil {
		return models.Report{}, err
	}
	return report, nil
}

// ListByStatus returns reports with the given status, most recent first.
func (r *reportRepository) ListByStatus(ctx context.Context, status models.ReportStatus) ([]models.Report, error) {
	var reports []models.Report
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC, id DESC").
		Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}
