package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/noah-isme/campus-forum-api/internal/dto"
	"github.com/noah-isme/campus-forum-api/internal/events"
	"github.com/noah-isme/campus-forum-api/internal/models"
	"github.com/noah-isme/campus-forum-api/internal/observability"
	"github.com/noah-isme/campus-forum-api/internal/repository"
)

// ModerationService applies one-way moderation transitions.
// Repeating a transition succeeds without side effects.
type ModerationService interface {
	LockThread(ctx context.Context, actor Actor, threadID uint) (dto.ModerationResultResponse, error)
	DeleteReply(ctx context.Context, actor Actor, replyID uint) (dto.ModerationResultResponse, error)
	BanUser(ctx context.Context, actor Actor, userID uint) (dto.ModerationResultResponse, error)
	ListLog(ctx context.Context, actor Actor, req dto.ModerationLogListRequest) (dto.ModerationLogListResponse, error)
}

type moderationService struct {
	repo      repository.ModerationRepository
	threads   repository.ThreadRepository
	replies   repository.ReplyRepository
	users     repository.UserRepository
	publisher events.Publisher
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewModerationService constructs the moderation engine.
func NewModerationService(
	repo repository.ModerationRepository,
	threads repository.ThreadRepository,
	replies repository.ReplyRepository,
	users repository.UserRepository,
	publisher events.Publisher,
	validate *validator.Validate,
	logger zerolog.Logger,
) ModerationService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &moderationService{
		repo:      repo,
		threads:   threads,
		replies:   replies,
		users:     users,
		publisher: publisher,
		validator: validate,
		logger:    logger.With().Str("component", "moderation_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/campus-forum-api/internal/service/moderation"),
		now:       time.Now,
	}
}

func (s *moderationService) LockThread(ctx context.Context, actor Actor, threadID uint) (dto.ModerationResultResponse, error) {
	if err := requirePermission(actor, models.PermLockThread); err != nil {
		return dto.ModerationResultResponse{}, err
	}

	thread, err := s.threads.Get(ctx, threadID)
	if err != nil {
		return dto.ModerationResultResponse{}, translateNotFound(err, "thread")
	}

	entry := &models.ModerationLog{
		ActorID:    actor.ID,
		Action:     models.ActionLockThread,
		EntityType: string(models.TargetThread),
		EntityID:   thread.ID,
		Metadata:   datatypes.JSONMap{"title": thread.Title},
	}

	spanCtx, span := s.startSpan(ctx, "moderation.lock_thread", actor, thread.ID)
	defer span.End()

	changed, err := s.repo.LockThread(spanCtx, thread.ID, entry)
	if err != nil {
		span.RecordError(err)
		return dto.ModerationResultResponse{}, err
	}

	if changed {
		s.recordTransition(spanCtx, events.ThreadLocked, entry)
	}

	return result(models.ActionLockThread, models.TargetThread, thread.ID, changed), nil
}

func (s *moderationService) DeleteReply(ctx context.Context, actor Actor, replyID uint) (dto.ModerationResultResponse, error) {
	if err := requireAuthenticated(actor); err != nil {
		return dto.ModerationResultResponse{}, err
	}

	reply, err := s.replies.Get(ctx, replyID)
	if err != nil {
		return dto.ModerationResultResponse{}, translateNotFound(err, "reply")
	}

	byAuthor := reply.AuthorID == actor.ID
	if !byAuthor && !actor.Has(models.PermDeleteAnyReply) {
		return dto.ModerationResultResponse{}, ErrPermissionDenied
	}

	entry := &models.ModerationLog{
		ActorID:    actor.ID,
		Action:     models.ActionDeleteReply,
		EntityType: string(models.TargetReply),
		EntityID:   reply.ID,
		Metadata: datatypes.JSONMap{
			"thread_id": reply.ThreadID,
			"by_author": byAuthor,
		},
	}

	spanCtx, span := s.startSpan(ctx, "moderation.delete_reply", actor, reply.ID)
	defer span.End()

	changed, err := s.repo.SoftDeleteReply(spanCtx, reply.ID, entry)
	if err != nil {
		span.RecordError(err)
		return dto.ModerationResultResponse{}, err
	}

	if changed {
		s.recordTransition(spanCtx, events.ReplyDeleted, entry)
	}

	return result(models.ActionDeleteReply, models.TargetReply, reply.ID, changed), nil
}

func (s *moderationService) BanUser(ctx context.Context, actor Actor, userID uint) (dto.ModerationResultResponse, error) {
	if err := requirePermission(actor, models.PermChangeUser); err != nil {
		return dto.ModerationResultResponse{}, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return dto.ModerationResultResponse{}, translateNotFound(err, "user")
	}

	entry := &models.ModerationLog{
		ActorID:    actor.ID,
		Action:     models.ActionBanUser,
		EntityType: "user",
		EntityID:   user.ID,
		Metadata:   datatypes.JSONMap{"username": user.Username},
	}

	spanCtx, span := s.startSpan(ctx, "moderation.ban_user", actor, user.ID)
	defer span.End()

	changed, err := s.repo.DeactivateUser(spanCtx, user.ID, entry)
	if err != nil {
		span.RecordError(err)
		return dto.ModerationResultResponse{}, err
	}

	if changed {
		s.recordTransition(spanCtx, events.UserBanned, entry)
	}

	return result(models.ActionBanUser, "user", user.ID, changed), nil
}

func (s *moderationService) ListLog(ctx context.Context, actor Actor, req dto.ModerationLogListRequest) (dto.ModerationLogListResponse, error) {
	if err := requirePermission(actor, models.PermDeleteAnyReply); err != nil {
		return dto.ModerationLogListResponse{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.ModerationLogListResponse{}, err
	}

	page := maxInt(req.Page, 1)
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	filter := repository.ModerationLogFilter{
		Page:       repository.Page{Page: page, PageSize: pageSize},
		Action:     req.Action,
		EntityType: req.EntityType,
	}
	if req.ActorID != 0 {
		actorID := req.ActorID
		filter.ActorID = &actorID
	}

	entries, total, err := s.repo.ListLog(ctx, filter)
	if err != nil {
		return dto.ModerationLogListResponse{}, err
	}

	items := make([]dto.ModerationLogResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.NewModerationLogResponse(entry))
	}

	return dto.ModerationLogListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

func (s *moderationService) startSpan(ctx context.Context, name string, actor Actor, entityID uint) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.Int64("moderation.actor_id", int64(actor.ID)),
		attribute.Int64("moderation.entity_id", int64(entityID)),
	))
}

func (s *moderationService) recordTransition(ctx context.Context, eventType string, entry *models.ModerationLog) {
	observability.ModerationActions().WithLabelValues(entry.Action).Inc()
	s.logger.Info().
		Uint("actor_id", entry.ActorID).
		Str("action", entry.Action).
		Str("entity_type", entry.EntityType).
		Uint("entity_id", entry.EntityID).
		Msg("moderation action applied")

	publishEvent(ctx, s.publisher, s.logger, events.Event{
		Type:       eventType,
		ActorID:    entry.ActorID,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Metadata:   map[string]interface{}(entry.Metadata),
		OccurredAt: s.now().UTC(),
	})
}

func result(action string, entityType models.TargetKind, id uint, changed bool) dto.ModerationResultResponse {
	return dto.ModerationResultResponse{
		Action:     action,
		EntityType: string(entityType),
		EntityID:   id,
		Changed:    changed,
	}
}

// publishEvent delivers an event. Failures are logged and never returned to callers.
func publishEvent(ctx context.Context, publisher events.Publisher, logger zerolog.Logger, event events.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Warn().Err(err).Str("event_type", event.Type).Uint("entity_id", event.EntityID).Msg("failed to publish event")
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
