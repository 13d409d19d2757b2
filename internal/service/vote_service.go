package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-forum-api/internal/dto"
	"github.com/noah-isme/campus-forum-api/internal/models"
	"github.com/noah-isme/campus-forum-api/internal/observability"
	"github.com/noah-isme/campus-forum-api/internal/repository"
)

// VoteService toggles votes and computes scores for threads and replies.
type VoteService interface {
	CastVote(ctx context.Context, actor Actor, kind string, id uint, direction string) (dto.VoteResponse, error)
	Score(ctx context.Context, target models.Target) (int64, error)
	Scores(ctx context.Context, kind models.TargetKind, ids []uint) (map[uint]int64, error)
	UserVoteState(ctx context.Context, actor Actor, target models.Target) (int, error)
	UserVoteStates(ctx context.Context, actor Actor, kind models.TargetKind, ids []uint) (map[uint]int, error)
}

type voteService struct {
	votes   repository.VoteRepository
	threads repository.ThreadRepository
	replies repository.ReplyRepository
	cache   *redis.Client
	ttl     time.Duration
	logger  zerolog.Logger
	tracer  trace.Tracer
}

// NewVoteService constructs the voting engine. A nil cache disables score caching.
func NewVoteService(votes repository.VoteRepository, threads repository.ThreadRepository, replies repository.ReplyRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) VoteService {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &voteService{
		votes:   votes,
		threads: threads,
		replies: replies,
		cache:   cache,
		ttl:     ttl,
		logger:  logger.With().Str("component", "vote_service").Logger(),
		tracer:  otel.Tracer("github.com/noah-isme/campus-forum-api/internal/service/vote"),
	}
}

func scoreCacheKey(target models.Target) string {
	return fmt.Sprintf("forum:score:%s:%d", target.Kind, target.ID)
}

func (s *voteService) CastVote(ctx context.Context, actor Actor, kind string, id uint, direction string) (dto.VoteResponse, error) {
	if err := requireAuthenticated(actor); err != nil {
		return dto.VoteResponse{}, err
	}

	value, err := models.ParseVoteDirection(direction)
	if err != nil {
		return dto.VoteResponse{}, invalidArgument("%v", err)
	}

	target, err := models.ParseVoteTarget(kind, id)
	if err != nil {
		return dto.VoteResponse{}, invalidArgument("%v", err)
	}

	if err := s.ensureVotable(ctx, target); err != nil {
		return dto.VoteResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "vote.cast", trace.WithAttributes(
		attribute.String("vote.target_kind", string(target.Kind)),
		attribute.Int64("vote.target_id", int64(target.ID)),
		attribute.Int("vote.value", value),
	))
	defer span.End()

	outcome, err := s.votes.Toggle(spanCtx, actor.ID, target, value)
	if errors.Is(err, repository.ErrDuplicateVote) {
		// A concurrent toggle inserted first; re-running sees its row.
		s.logger.Debug().Uint("user_id", actor.ID).Str("target", target.String()).Msg("vote insert raced, retrying")
		outcome, err = s.votes.Toggle(spanCtx, actor.ID, target, value)
	}
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, repository.ErrDuplicateVote) {
			return dto.VoteResponse{}, fmt.Errorf("%w: %v", ErrConstraintViolation, err)
		}
		return dto.VoteResponse{}, translateTargetState(err, string(target.Kind))
	}

	s.invalidateScore(spanCtx, target)

	score, err := s.Score(spanCtx, target)
	if err != nil {
		return dto.VoteResponse{}, err
	}

	userVote := value
	if outcome == models.VoteRemoved {
		userVote = 0
	}

	observability.VotesCast().WithLabelValues(string(target.Kind), string(outcome)).Inc()
	s.logger.Info().
		Uint("user_id", actor.ID).
		Str("target", target.String()).
		Str("outcome", string(outcome)).
		Int64("score", score).
		Msg("vote cast")

	return dto.VoteResponse{
		TargetKind: string(target.Kind),
		TargetID:   target.ID,
		Outcome:    string(outcome),
		UserVote:   userVote,
		Score:      score,
	}, nil
}

// ensureVotable rejects missing targets, locked threads and deleted replies early.
// Votes on a reply are also blocked while its thread is locked. Toggle re-checks under row locks.
func (s *voteService) ensureVotable(ctx context.Context, target models.Target) error {
	threadID := target.ID
	if target.Kind == models.TargetReply {
		reply, err := s.replies.Get(ctx, target.ID)
		if err != nil {
			return translateNotFound(err, "reply")
		}
		if reply.IsDeleted {
			return ErrReplyDeleted
		}
		threadID = reply.ThreadID
	}

	thread, err := s.threads.Get(ctx, threadID)
	if err != nil {
		return translateNotFound(err, "thread")
	}
	if thread.IsLocked {
		return ErrThreadLocked
	}
	return nil
}

// refillScore stores a freshly aggregated score only if no cast bumped the target's
// version since the caller read it. KEYS: score, version. ARGV: score, version seen, ttl ms.
var refillScore = redis.NewScript(`
local current = redis.call("GET", KEYS[2])
if current == false then
	current = ""
end
if current ~= ARGV[2] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
return 1
`)

func scoreVersionKey(target models.Target) string {
	return fmt.Sprintf("forum:score:%s:%d:version", target.Kind, target.ID)
}

func (s *voteService) Score(ctx context.Context, target models.Target) (int64, error) {
	if !target.Votable() {
		return 0, invalidArgument("target kind %q does not accept votes", target.Kind)
	}

	key := scoreCacheKey(target)
	var version string
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key).Result()
		switch {
		case err == nil:
			if score, parseErr := strconv.ParseInt(cached, 10, 64); parseErr == nil {
				observability.ScoreCacheRequests().WithLabelValues("hit").Inc()
				return score, nil
			}
		case !errors.Is(err, redis.Nil):
			s.logger.Warn().Err(err).Str("key", key).Msg("score cache read failed")
		}

		// The version must be read before the aggregate so a cast landing in between is detected.
		version, err = s.cache.Get(ctx, scoreVersionKey(target)).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Str("key", key).Msg("score version read failed")
		}
	}

	score, err := s.votes.Score(ctx, target)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		observability.ScoreCacheRequests().WithLabelValues("miss").Inc()
		keys := []string{key, scoreVersionKey(target)}
		if err := refillScore.Run(ctx, s.cache, keys, score, version, s.ttl.Milliseconds()).Err(); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to cache score")
		}
	}

	return score, nil
}

// invalidateScore runs after the vote commits: bumping the version voids in-flight refills,
// deleting the key voids anything they already stored.
func (s *voteService) invalidateScore(ctx context.Context, target models.Target) {
	if s.cache == nil {
		return
	}
	versionKey := scoreVersionKey(target)
	_, err := s.cache.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey)
		pipe.Expire(ctx, versionKey, 2*s.ttl)
		pipe.Del(ctx, scoreCacheKey(target))
		return nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("target", target.String()).Msg("failed to invalidate score cache")
	}
}

func (s *voteService) Scores(ctx context.Context, kind models.TargetKind, ids []uint) (map[uint]int64, error) {
	scores, err := s.votes.Scores(ctx, kind, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := scores[id]; !ok {
			scores[id] = 0
		}
	}
	return scores, nil
}

func (s *voteService) UserVoteState(ctx context.Context, actor Actor, target models.Target) (int, error) {
	if !actor.Authenticated() || !target.Votable() {
		return 0, nil
	}

	vote, err := s.votes.Find(ctx, actor.ID, target)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return vote.Value, nil
}

func (s *voteService) UserVoteStates(ctx context.Context, actor Actor, kind models.TargetKind, ids []uint) (map[uint]int, error) {
	if !actor.Authenticated() {
		return map[uint]int{}, nil
	}
	return s.votes.UserValues(ctx, actor.ID, kind, ids)
}
