package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/campus-forum-api/internal/models"
)

// ErrDuplicateVote reports that a concurrent toggle inserted the same (user, target) vote first.
var ErrDuplicateVote = errors.New("duplicate vote for user and target")

// Target state errors are returned when a write finds its thread locked or its reply deleted
// after taking the row lock.
var (
	ErrThreadLocked = errors.New("thread is locked")
	ErrReplyDeleted = errors.New("reply is deleted")
)

// lockOpenThread takes a row lock on the thread and rejects locked threads.
func lockOpenThread(tx *gorm.DB, threadID uint) error {
	var thread models.Thread
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "is_locked").
		First(&thread, threadID).Error; err != nil {
		return err
	}
	if thread.IsLocked {
		return ErrThreadLocked
	}
	return nil
}

// lockVotableTarget re-checks the target under row locks so a concurrent lock or
// delete cannot slip in between the service check and the write.
func lockVotableTarget(tx *gorm.DB, target models.Target) error {
	threadID := target.ID
	if target.Kind == models.TargetReply {
		var reply models.Reply
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "thread_id", "is_deleted").
			First(&reply, target.ID).Error; err != nil {
			return err
		}
		if reply.IsDeleted {
			return ErrReplyDeleted
		}
		threadID = reply.ThreadID
	}
	return lockOpenThread(tx, threadID)
}

// VoteRepository persists votes and computes aggregate scores.
type VoteRepository interface {
	Toggle(ctx context.Context, userID uint, target models.Target, value int) (models.VoteOutcome, error)
	Find(ctx context.Context, userID uint, target models.Target) (models.Vote, error)
	Score(ctx context.Context, target models.Target) (int64, error)
	Scores(ctx context.Context, kind models.TargetKind, ids []uint) (map[uint]int64, error)
	UserValues(ctx context.Context, userID uint, kind models.TargetKind, ids []uint) (map[uint]int, error)
}

type voteRepository struct {
	db *gorm.DB
}

// NewVoteRepository constructs a GORM-backed vote repository.
func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

func targetColumn(kind models.TargetKind) (string, error) {
	switch kind {
	case models.TargetThread:
		return "thread_id", nil
	case models.TargetReply:
		return "reply_id", nil
	default:
		return "", fmt.Errorf("target kind %q does not accept votes", kind)
	}
}

// Toggle applies the create / remove / flip rule for a single (user, target) pair
// inside one transaction. A lost insert race returns ErrDuplicateVote; a locked thread or
// deleted reply returns ErrThreadLocked or ErrReplyDeleted without writing.
func (r *voteRepository) Toggle(ctx context.Context, userID uint, target models.Target, value int) (models.VoteOutcome, error) {
	column, err := targetColumn(target.Kind)
	if err != nil {
		return "", err
	}

	var outcome models.VoteOutcome
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockVotableTarget(tx, target); err != nil {
			return err
		}

		var existing models.Vote
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND "+column+" = ?", userID, target.ID).
			First(&existing).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote, err := models.NewVote(userID, target, value)
			if err != nil {
				return err
			}
			if err := tx.Create(&vote).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrDuplicateVote
				}
				return err
			}
			outcome = models.VoteCreated
		case err != nil:
			return err
		case existing.Value == value:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			outcome = models.VoteRemoved
		default:
			if err := tx.Model(&existing).Update("value", value).Error; err != nil {
				return err
			}
			outcome = models.VoteFlipped
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return outcome, nil
}

func (r *voteRepository) Find(ctx context.Context, userID uint, target models.Target) (models.Vote, error) {
	column, err := targetColumn(target.Kind)
	if err != nil {
		return models.Vote{}, err
	}

	var vote models.Vote
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND "+column+" = ?", userID, target.ID).
		First(&vote).Error; err != nil {
		return models.Vote{}, err
	}
	return vote, nil
}

func (r *voteRepository) Score(ctx context.Context, target models.Target) (int64, error) {
	column, err := targetColumn(target.Kind)
	if err != nil {
		return 0, err
	}

	var score int64
	if err := r.db.WithContext(ctx).
		Model(&models.Vote{}).
		Select("COALESCE(SUM(value), 0)").
		Where(column+" = ?", target.ID).
		Scan(&score).Error; err != nil {
		return 0, err
	}
	return score, nil
}

func (r *voteRepository) Scores(ctx context.Context, kind models.TargetKind, ids []uint) (map[uint]int64, error) {
	column, err := targetColumn(kind)
	if err != nil {
		return nil, err
	}

	scores := make(map[uint]int64, len(ids))
	if len(ids) == 0 {
		return scores, nil
	}

	var rows []struct {
		TargetID uint
		Score    int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Vote{}).
		Select(column+" AS target_id, COALESCE(SUM(value), 0) AS score").
		Where(column+" IN ?", ids).
		Group(column).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		scores[row.TargetID] = row.Score
	}
	return scores, nil
}

func (r *voteRepository) UserValues(ctx context.Context, userID uint, kind models.TargetKind, ids []uint) (map[uint]int, error) {
	column, err := targetColumn(kind)
	if err != nil {
		return nil, err
	}

	values := make(map[uint]int, len(ids))
	if len(ids) == 0 || userID == 0 {
		return values, nil
	}

	var votes []models.Vote
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND "+column+" IN ?", userID, ids).
		Find(&votes).Error; err != nil {
		return nil, err
	}

	for _, vote := range votes {
		values[vote.Target().ID] = vote.Value
	}
	return values, nil
}
