package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	VoteUp   = 1
	VoteDown = -1
)

// VoteOutcome describes what a toggle did to the stored vote.
type VoteOutcome string

const (
	VoteCreated VoteOutcome = "created"
	VoteRemoved VoteOutcome = "removed"
	VoteFlipped VoteOutcome = "flipped"
)

// Vote is a signed preference by a user on exactly one thread or reply.
// The two target columns are mutually exclusive; each carries its own uniqueness constraint.
type Vote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_votes_user_thread;uniqueIndex:idx_votes_user_reply" json:"user_id"`
	ThreadID  *uint     `gorm:"uniqueIndex:idx_votes_user_thread;check:chk_votes_target,(thread_id IS NULL) <> (reply_id IS NULL)" json:"thread_id,omitempty"`
	ReplyID   *uint     `gorm:"uniqueIndex:idx_votes_user_reply" json:"reply_id,omitempty"`
	Value     int       `gorm:"not null;check:chk_votes_value,value IN (1, -1)" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewVote builds a vote row for a votable target.
func NewVote(userID uint, target Target, value int) (Vote, error) {
	if value != VoteUp && value != VoteDown {
		return Vote{}, fmt.Errorf("invalid vote value %d", value)
	}

	vote := Vote{UserID: userID, Value: value}
	id := target.ID
	switch target.Kind {
	case TargetThread:
		vote.ThreadID = &id
	case TargetReply:
		vote.ReplyID = &id
	default:
		return Vote{}, fmt.Errorf("target kind %q does not accept votes", target.Kind)
	}
	return vote, nil
}

// Target returns the tagged target the vote points at.
func (v Vote) Target() Target {
	if v.ThreadID != nil {
		return ThreadTarget(*v.ThreadID)
	}
	if v.ReplyID != nil {
		return ReplyTarget(*v.ReplyID)
	}
	return Target{}
}

// ParseVoteDirection maps a direction token to a signed vote value.
func ParseVoteDirection(direction string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "up":
		return VoteUp, nil
	case "down":
		return VoteDown, nil
	default:
		return 0, fmt.Errorf("unknown vote direction %q", direction)
	}
}
