package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-forum-api/internal/dto"
	"github.com/noah-isme/campus-forum-api/internal/events"
	"github.com/noah-isme/campus-forum-api/internal/models"
	"github.com/noah-isme/campus-forum-api/internal/repository"
)

// ThreadListQuery narrows the thread listing.
type ThreadListQuery struct {
	Page     int
	Category string
	Tag      string
}

// ThreadService exposes thread and reply use-cases.
type ThreadService interface {
	ListThreads(ctx context.Context, actor Actor, query ThreadListQuery) (dto.ThreadListResponse, error)
	GetThread(ctx context.Context, actor Actor, id uint, page int) (dto.ThreadDetailResponse, error)
	CreateThread(ctx context.Context, actor Actor, payload dto.ThreadCreateRequest) (dto.ThreadResponse, error)
	CreateReply(ctx context.Context, actor Actor, threadID uint, payload dto.ReplyCreateRequest) (dto.ReplyCreatedResponse, error)
}

// ThreadServiceConfig carries paging settings for the thread views.
type ThreadServiceConfig struct {
	ThreadsPerPage int
	RepliesPerPage int
}

type threadService struct {
	threads        repository.ThreadRepository
	replies        repository.ReplyRepository
	taxonomy       repository.TaxonomyRepository
	votes          VoteService
	publisher      events.Publisher
	validator      *validator.Validate
	logger         zerolog.Logger
	tracer         trace.Tracer
	sanitizer      *bluemonday.Policy
	titlePolicy    *bluemonday.Policy
	threadsPerPage int
	repliesPerPage int
	now            func() time.Time
}

// NewThreadService constructs the thread service.
func NewThreadService(
	threads repository.ThreadRepository,
	replies repository.ReplyRepository,
	taxonomy repository.TaxonomyRepository,
	votes VoteService,
	publisher events.Publisher,
	validate *validator.Validate,
	cfg ThreadServiceConfig,
	logger zerolog.Logger,
) ThreadService {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("br")

	if publisher == nil {
		publisher = events.Nop{}
	}
	if cfg.ThreadsPerPage <= 0 {
		cfg.ThreadsPerPage = 15
	}
	if cfg.RepliesPerPage <= 0 {
		cfg.RepliesPerPage = 10
	}

	return &threadService{
		threads:        threads,
		replies:        replies,
		taxonomy:       taxonomy,
		votes:          votes,
		publisher:      publisher,
		validator:      validate,
		logger:         logger.With().Str("component", "thread_service").Logger(),
		tracer:         otel.Tracer("github.com/noah-isme/campus-forum-api/internal/service/thread"),
		sanitizer:      policy,
		titlePolicy:    bluemonday.StrictPolicy(),
		threadsPerPage: cfg.ThreadsPerPage,
		repliesPerPage: cfg.RepliesPerPage,
		now:            time.Now,
	}
}

func (s *threadService) ListThreads(ctx context.Context, actor Actor, query ThreadListQuery) (dto.ThreadListResponse, error) {
	if err := requireAuthenticated(actor); err != nil {
		return dto.ThreadListResponse{}, err
	}

	page := maxInt(query.Page, 1)
	filter := repository.ThreadFilter{
		Page:         repository.Page{Page: page, PageSize: s.threadsPerPage},
		CategorySlug: strings.TrimSpace(query.Category),
		TagSlug:      strings.TrimSpace(query.Tag),
	}

	threads, total, err := s.threads.List(ctx, filter)
	if err != nil {
		return dto.ThreadListResponse{}, err
	}

	ids := make([]uint, 0, len(threads))
	for _, thread := range threads {
		ids = append(ids, thread.ID)
	}

	scores, err := s.votes.Scores(ctx, models.TargetThread, ids)
	if err != nil {
		return dto.ThreadListResponse{}, err
	}

	counts, err := s.threads.CountReplies(ctx, ids)
	if err != nil {
		return dto.ThreadListResponse{}, err
	}

	items := make([]dto.ThreadSummaryResponse, 0, len(threads))
	for _, thread := range threads {
		items = append(items, dto.ThreadSummaryResponse{
			ID:         thread.ID,
			Title:      thread.Title,
			AuthorID:   thread.AuthorID,
			Category:   dto.NewCategoryResponse(thread.Category),
			Tags:       dto.NewTagResponseSlice(thread.Tags),
			IsLocked:   thread.IsLocked,
			Score:      scores[thread.ID],
			ReplyCount: counts[thread.ID],
			CreatedAt:  thread.CreatedAt,
			UpdatedAt:  thread.UpdatedAt,
		})
	}

	return dto.ThreadListResponse{
		Items:        items,
		Pagination:   dto.NewPaginationMeta(page, s.threadsPerPage, total),
		CategorySlug: filter.CategorySlug,
		TagSlug:      filter.TagSlug,
	}, nil
}

// GetThread returns the thread with one page of replies. Pages past the end show the last page.
func (s *threadService) GetThread(ctx context.Context, actor Actor, id uint, page int) (dto.ThreadDetailResponse, error) {
	if err := requireAuthenticated(actor); err != nil {
		return dto.ThreadDetailResponse{}, err
	}

	thread, err := s.threads.GetWithRelations(ctx, id)
	if err != nil {
		return dto.ThreadDetailResponse{}, translateNotFound(err, "thread")
	}

	target := models.ThreadTarget(thread.ID)
	score, err := s.votes.Score(ctx, target)
	if err != nil {
		return dto.ThreadDetailResponse{}, err
	}
	userVote, err := s.votes.UserVoteState(ctx, actor, target)
	if err != nil {
		return dto.ThreadDetailResponse{}, err
	}

	page = maxInt(page, 1)
	replies, total, err := s.replies.ListByThread(ctx, thread.ID, repository.Page{Page: page, PageSize: s.repliesPerPage})
	if err != nil {
		return dto.ThreadDetailResponse{}, err
	}

	meta := dto.NewPaginationMeta(page, s.repliesPerPage, total)
	if page > meta.TotalPages {
		page = meta.TotalPages
		replies, total, err = s.replies.ListByThread(ctx, thread.ID, repository.Page{Page: page, PageSize: s.repliesPerPage})
		if err != nil {
			return dto.ThreadDetailResponse{}, err
		}
		meta = dto.NewPaginationMeta(page, s.repliesPerPage, total)
	}

	visible := make([]uint, 0, len(replies))
	for _, reply := range replies {
		if !reply.IsDeleted {
			visible = append(visible, reply.ID)
		}
	}

	scores, err := s.votes.Scores(ctx, models.TargetReply, visible)
	if err != nil {
		return dto.ThreadDetailResponse{}, err
	}
	states, err := s.votes.UserVoteStates(ctx, actor, models.TargetReply, visible)
	if err != nil {
		return dto.ThreadDetailResponse{}, err
	}

	items := make([]dto.ReplyResponse, 0, len(replies))
	for _, reply := range replies {
		items = append(items, dto.NewReplyResponse(reply, scores[reply.ID], states[reply.ID]))
	}

	return dto.ThreadDetailResponse{
		Thread:     dto.NewThreadResponse(thread, score, userVote),
		Replies:    items,
		Pagination: meta,
	}, nil
}

func (s *threadService) CreateThread(ctx context.Context, actor Actor, payload dto.ThreadCreateRequest) (dto.ThreadResponse, error) {
	if err := requireAuthenticated(actor); err != nil {
		return dto.ThreadResponse{}, err
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.ThreadResponse{}, err
	}

	title := strings.TrimSpace(s.titlePolicy.Sanitize(payload.Title))
	if title == "" {
		return dto.ThreadResponse{}, invalidArgument("thread title empty after sanitization")
	}
	content := strings.TrimSpace(s.sanitizer.Sanitize(payload.Content))
	if content == "" {
		return dto.ThreadResponse{}, invalidArgument("thread content empty after sanitization")
	}

	category, err := s.taxonomy.GetCategory(ctx, payload.CategoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ThreadResponse{}, invalidArgument("unknown category %d", payload.CategoryID)
		}
		return dto.ThreadResponse{}, err
	}

	tagIDs := uniqueIDs(payload.TagIDs)
	tags, err := s.taxonomy.FindTags(ctx, tagIDs)
	if err != nil {
		return dto.ThreadResponse{}, err
	}
	if len(tags) != len(tagIDs) {
		return dto.ThreadResponse{}, invalidArgument("unknown tag selected")
	}

	resourceIDs := uniqueIDs(payload.ResourceIDs)
	resources, err := s.taxonomy.FindResources(ctx, resourceIDs)
	if err != nil {
		return dto.ThreadResponse{}, err
	}
	if len(resources) != len(resourceIDs) {
		return dto.ThreadResponse{}, invalidArgument("unknown resource selected")
	}

	if link := strings.TrimSpace(payload.ResourceLink); link != "" {
		resourceTitle := strings.TrimSpace(s.titlePolicy.Sanitize(payload.ResourceTitle))
		if resourceTitle == "" {
			resourceTitle = link
		}
		resources = append(resources, models.Resource{Title: resourceTitle, Kind: models.ResourceLink, Link: link})
	}

	spanCtx, span := s.tracer.Start(ctx, "thread.create", trace.WithAttributes(
		attribute.Int64("thread.author_id", int64(actor.ID)),
		attribute.Int64("thread.category_id", int64(category.ID)),
	))
	defer span.End()

	thread := models.Thread{
		Title:      title,
		Content:    content,
		AuthorID:   actor.ID,
		CategoryID: category.ID,
		Tags:       tags,
		Resources:  resources,
	}
	if err := s.threads.Create(spanCtx, &thread); err != nil {
		span.RecordError(err)
		return dto.ThreadResponse{}, err
	}
	thread.Category = category

	s.logger.Info().Uint("thread_id", thread.ID).Uint("author_id", actor.ID).Str("category", category.Slug).Msg("thread created")

	return dto.NewThreadResponse(thread, 0, 0), nil
}

// CreateReply appends a reply to an open thread and points the caller at the page holding it.
func (s *threadService) CreateReply(ctx context.Context, actor Actor, threadID uint, payload dto.ReplyCreateRequest) (dto.ReplyCreatedResponse, error) {
	if err := requireAuthenticated(actor); err != nil {
		return dto.ReplyCreatedResponse{}, err
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.ReplyCreatedResponse{}, err
	}

	content := strings.TrimSpace(s.sanitizer.Sanitize(payload.Content))
	if content == "" {
		return dto.ReplyCreatedResponse{}, invalidArgument("reply content empty after sanitization")
	}

	thread, err := s.threads.Get(ctx, threadID)
	if err != nil {
		return dto.ReplyCreatedResponse{}, translateNotFound(err, "thread")
	}
	if thread.IsLocked {
		return dto.ReplyCreatedResponse{}, ErrThreadLocked
	}

	reply := models.Reply{ThreadID: thread.ID, AuthorID: actor.ID, Content: content}
	if err := s.replies.Create(ctx, &reply); err != nil {
		return dto.ReplyCreatedResponse{}, translateTargetState(err, "thread")
	}

	position, err := s.replies.Position(ctx, reply)
	if err != nil {
		return dto.ReplyCreatedResponse{}, err
	}
	page := int((maxInt64(position, 1)-1)/int64(s.repliesPerPage)) + 1

	s.logger.Info().Uint("reply_id", reply.ID).Uint("thread_id", thread.ID).Uint("author_id", actor.ID).Msg("reply created")

	if thread.AuthorID != actor.ID {
		publishEvent(ctx, s.publisher, s.logger, events.Event{
			Type:       events.ReplyCreated,
			ActorID:    actor.ID,
			EntityType: string(models.TargetReply),
			EntityID:   reply.ID,
			Metadata: map[string]interface{}{
				"thread_id":        thread.ID,
				"thread_author_id": thread.AuthorID,
			},
			OccurredAt: s.now().UTC(),
		})
	}

	return dto.ReplyCreatedResponse{
		Reply:      dto.NewReplyResponse(reply, 0, 0),
		Page:       page,
		RedirectTo: fmt.Sprintf("/threads/%d?page=%d#reply-%d", thread.ID, page, reply.ID),
	}, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
