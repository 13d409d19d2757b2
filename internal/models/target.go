package models

import (
	"fmt"
	"strings"
)

// TargetKind names the type of content a vote or report points at.
type TargetKind string

const (
	TargetThread   TargetKind = "thread"
	TargetReply    TargetKind = "reply"
	TargetResource TargetKind = "resource"
)

// Target is a tagged reference to a piece of forum content.
type Target struct {
	Kind TargetKind `json:"kind"`
	ID   uint       `json:"id"`
}

// ThreadTarget references a thread.
func ThreadTarget(id uint) Target { return Target{Kind: TargetThread, ID: id} }

// ReplyTarget references a reply.
func ReplyTarget(id uint) Target { return Target{Kind: TargetReply, ID: id} }

// ResourceTarget references a course resource.
func ResourceTarget(id uint) Target { return Target{Kind: TargetResource, ID: id} }

// ParseReportTarget builds a target from a report kind token.
func ParseReportTarget(kind string, id uint) (Target, error) {
	switch TargetKind(strings.ToLower(strings.TrimSpace(kind))) {
	case TargetThread:
		return ThreadTarget(id), nil
	case TargetReply:
		return ReplyTarget(id), nil
	case TargetResource:
		return ResourceTarget(id), nil
	default:
		return Target{}, fmt.Errorf("unknown target kind %q", kind)
	}
}

// ParseVoteTarget builds a target from a vote kind token. Only threads and replies accept votes.
func ParseVoteTarget(kind string, id uint) (Target, error) {
	target, err := ParseReportTarget(kind, id)
	if err != nil {
		return Target{}, err
	}
	if !target.Votable() {
		return Target{}, fmt.Errorf("target kind %q does not accept votes", kind)
	}
	return target, nil
}

// Votable reports whether votes may be cast on the target.
func (t Target) Votable() bool {
	return t.Kind == TargetThread || t.Kind == TargetReply
}

func (t Target) String() string {
	return fmt.Sprintf("%s:%d", t.Kind, t.ID)
}
