package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/campus-forum-api/internal/dto"
	"github.com/noah-isme/campus-forum-api/internal/events"
	"github.com/noah-isme/campus-forum-api/internal/models"
	"github.com/noah-isme/campus-forum-api/internal/observability"
	"github.com/noah-isme/campus-forum-api/internal/repository"
)

// ReportService files and triages abuse reports.
type ReportService interface {
	FileReport(ctx context.Context, actor Actor, req dto.ReportCreateRequest) (dto.ReportResponse, error)
	ListReports(ctx context.Context, actor Actor) (dto.ReportQueueResponse, error)
	ResolveReport(ctx context.Context, actor Actor, reportID uint) (dto.ModerationResultResponse, error)
	ResolveTargetLink(ctx context.Context, report models.Report) dto.TargetLink
}

type reportService struct {
	reports        repository.ReportRepository
	moderation     repository.ModerationRepository
	replies        repository.ReplyRepository
	publisher      events.Publisher
	validator      *validator.Validate
	logger         zerolog.Logger
	sanitizer      *bluemonday.Policy
	repliesPerPage int
	now            func() time.Time
}

// NewReportService constructs the report engine. repliesPerPage must match the thread view.
func NewReportService(
	reports repository.ReportRepository,
	moderation repository.ModerationRepository,
	replies repository.ReplyRepository,
	publisher events.Publisher,
	validate *validator.Validate,
	repliesPerPage int,
	logger zerolog.Logger,
) ReportService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if repliesPerPage <= 0 {
		repliesPerPage = 10
	}
	return &reportService{
		reports:        reports,
		moderation:     moderation,
		replies:        replies,
		publisher:      publisher,
		validator:      validate,
		logger:         logger.With().Str("component", "report_service").Logger(),
		sanitizer:      bluemonday.StrictPolicy(),
		repliesPerPage: repliesPerPage,
		now:            time.Now,
	}
}

// FileReport records a pending report. The target is not required to exist.
func (s *reportService) FileReport(ctx context.Context, actor Actor, req dto.ReportCreateRequest) (dto.ReportResponse, error) {
	if err := requireAuthenticated(actor); err != nil {
		return dto.ReportResponse{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.ReportResponse{}, err
	}

	target, err := models.ParseReportTarget(req.TargetKind, req.TargetID)
	if err != nil {
		return dto.ReportResponse{}, invalidArgument("%v", err)
	}

	reason := strings.TrimSpace(s.sanitizer.Sanitize(req.Reason))
	if reason == "" {
		reason = models.DefaultReportReason
	}

	report := models.Report{
		ReporterID: actor.ID,
		TargetKind: target.Kind,
		TargetID:   target.ID,
		Reason:     reason,
		Status:     models.ReportPending,
	}
	if err := s.reports.Create(ctx, &report); err != nil {
		return dto.ReportResponse{}, err
	}

	observability.ReportsFiled().WithLabelValues(string(target.Kind)).Inc()
	s.logger.Info().Uint("report_id", report.ID).Uint("reporter_id", actor.ID).Str("target", target.String()).Msg("report filed")

	publishEvent(ctx, s.publisher, s.logger, events.Event{
		Type:       events.ReportFiled,
		ActorID:    actor.ID,
		EntityType: "report",
		EntityID:   report.ID,
		Metadata: map[string]interface{}{
			"target_kind": string(target.Kind),
			"target_id":   target.ID,
		},
		OccurredAt: s.now().UTC(),
	})

	return dto.NewReportResponse(report), nil
}

func (s *reportService) ListReports(ctx context.Context, actor Actor) (dto.ReportQueueResponse, error) {
	if err := requirePermission(actor, models.PermDeleteAnyReply); err != nil {
		return dto.ReportQueueResponse{}, err
	}

	pending, err := s.reports.ListByStatus(ctx, models.ReportPending)
	if err != nil {
		return dto.ReportQueueResponse{}, err
	}

	resolved, err := s.reports.ListByStatus(ctx, models.ReportResolved)
	if err != nil {
		return dto.ReportQueueResponse{}, err
	}

	return dto.ReportQueueResponse{
		Pending:  s.withLinks(ctx, pending),
		Resolved: s.withLinks(ctx, resolved),
	}, nil
}

func (s *reportService) withLinks(ctx context.Context, reports []models.Report) []dto.ReportResponse {
	out := make([]dto.ReportResponse, 0, len(reports))
	for _, report := range reports {
		response := dto.NewReportResponse(report)
		link := s.ResolveTargetLink(ctx, report)
		response.Link = &link
		out = append(out, response)
	}
	return out
}

// ResolveReport marks a report resolved. Resolving twice keeps the first resolution.
func (s *reportService) ResolveReport(ctx context.Context, actor Actor, reportID uint) (dto.ModerationResultResponse, error) {
	if err := requirePermission(actor, models.PermDeleteAnyReply); err != nil {
		return dto.ModerationResultResponse{}, err
	}

	report, err := s.reports.Get(ctx, reportID)
	if err != nil {
		return dto.ModerationResultResponse{}, translateNotFound(err, "report")
	}

	entry := &models.ModerationLog{
		ActorID:    actor.ID,
		Action:     models.ActionResolveReport,
		EntityType: "report",
		EntityID:   report.ID,
		Metadata: datatypes.JSONMap{
			"target_kind": string(report.TargetKind),
			"target_id":   report.TargetID,
		},
	}

	changed, err := s.moderation.ResolveReport(ctx, report.ID, actor.ID, s.now().UTC(), entry)
	if err != nil {
		return dto.ModerationResultResponse{}, err
	}

	if changed {
		observability.ReportsResolved().Inc()
		s.logger.Info().Uint("report_id", report.ID).Uint("resolver_id", actor.ID).Msg("report resolved")
		publishEvent(ctx, s.publisher, s.logger, events.Event{
			Type:       events.ReportResolved,
			ActorID:    actor.ID,
			EntityType: "report",
			EntityID:   report.ID,
			Metadata:   map[string]interface{}(entry.Metadata),
			OccurredAt: s.now().UTC(),
		})
	}

	return result(models.ActionResolveReport, "report", report.ID, changed), nil
}

// ResolveTargetLink builds a link to reported content. Replies link to the page holding them.
func (s *reportService) ResolveTargetLink(ctx context.Context, report models.Report) dto.TargetLink {
	switch report.TargetKind {
	case models.TargetThread:
		return dto.TargetLink{Available: true, URL: fmt.Sprintf("/threads/%d", report.TargetID)}
	case models.TargetReply:
		reply, err := s.replies.Get(ctx, report.TargetID)
		if err != nil {
			return dto.TargetLink{}
		}
		position, err := s.replies.Position(ctx, reply)
		if err != nil || position < 1 {
			s.logger.Warn().Err(err).Uint("reply_id", reply.ID).Msg("failed to locate reply page")
			return dto.TargetLink{}
		}
		page := (position-1)/int64(s.repliesPerPage) + 1
		return dto.TargetLink{
			Available: true,
			URL:       fmt.Sprintf("/threads/%d?page=%d#reply-%d", reply.ThreadID, page, reply.ID),
		}
	default:
		return dto.TargetLink{}
	}
}
