package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-forum-api/internal/dto"
	"github.com/noah-isme/campus-forum-api/internal/events"
	"github.com/noah-isme/campus-forum-api/internal/models"
)

func newModerationServiceForEnv(env *forumEnv) ModerationService {
	return NewModerationService(env.moderation, env.threads, env.replies, env.users, env.publisher, testValidator(), testLogger())
}

func TestModerationServiceLockThreadIsIdempotent(t *testing.T) {
	env := newForumEnv(t)
	author := env.createUser(t, "author", nil)
	mod := env.createUser(t, "mod", func(u *models.User) { u.CanLockThread = true })
	thread := env.createThread(t, author, env.createCategory(t, "General", "general"), "Lock me")

	svc := newModerationServiceForEnv(env)
	ctx := context.Background()

	_, err := svc.LockThread(ctx, Actor{ID: author.ID}, thread.ID)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.LockThread(ctx, Actor{}, thread.ID)
	require.ErrorIs(t, err, ErrUnauthenticated)

	actor := Actor{ID: mod.ID, Capabilities: Capabilities{LockThread: true}}
	_, err = svc.LockThread(ctx, actor, 9999)
	require.ErrorIs(t, err, ErrNotFound)

	res, err := svc.LockThread(ctx, actor, thread.ID)
	require.NoError(t, err)
	require.True(t, res.Changed)
	require.Equal(t, models.ActionLockThread, res.Action)

	res, err = svc.LockThread(ctx, actor, thread.ID)
	require.NoError(t, err)
	require.False(t, res.Changed)

	stored, err := env.threads.Get(ctx, thread.ID)
	require.NoError(t, err)
	require.True(t, stored.IsLocked)
	require.EqualValues(t, 1, env.countLogs(t))
	require.Equal(t, []string{events.ThreadLocked}, env.publisher.types())
}

func TestModerationServiceLockedThreadRejectsRepliesAndVotes(t *testing.T) {
	env := newForumEnv(t)
	author := env.createUser(t, "author", nil)
	thread := env.createThread(t, author, env.createCategory(t, "General", "general"), "Soon locked")
	reply := env.createReply(t, thread, author, "before the lock")

	mod := newModerationServiceForEnv(env)
	votes := newVoteServiceForEnv(env, nil)
	threads := NewThreadService(env.threads, env.replies, env.taxonomy, votes, env.publisher, testValidator(), ThreadServiceConfig{}, testLogger())
	ctx := context.Background()

	_, err := mod.LockThread(ctx, moderator(99), thread.ID)
	require.NoError(t, err)

	_, err = threads.CreateReply(ctx, Actor{ID: author.ID}, thread.ID, dto.ReplyCreateRequest{Content: "too late"})
	require.ErrorIs(t, err, ErrThreadLocked)

	_, err = votes.CastVote(ctx, Actor{ID: author.ID}, "thread", thread.ID, "up")
	require.ErrorIs(t, err, ErrForbidden)

	_, err = votes.CastVote(ctx, Actor{ID: author.ID}, "reply", reply.ID, "up")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestModerationServiceDeleteReply(t *testing.T) {
	env := newForumEnv(t)
	author := env.createUser(t, "author", nil)
	other := env.createUser(t, "other", nil)
	thread := env.createThread(t, author, env.createCategory(t, "General", "general"), "Replies")
	own := env.createReply(t, thread, author, "mine")
	foreign := env.createReply(t, thread, other, "theirs")

	vote, err := models.NewVote(author.ID, models.ReplyTarget(foreign.ID), models.VoteUp)
	require.NoError(t, err)
	require.NoError(t, env.db.Create(&vote).Error)

	svc := newModerationServiceForEnv(env)
	ctx := context.Background()

	_, err = svc.DeleteReply(ctx, Actor{ID: author.ID}, 9999)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.DeleteReply(ctx, Actor{ID: author.ID}, foreign.ID)
	require.ErrorIs(t, err, ErrForbidden)

	res, err := svc.DeleteReply(ctx, Actor{ID: author.ID}, own.ID)
	require.NoError(t, err)
	require.True(t, res.Changed)

	mod := Actor{ID: 500, Capabilities: Capabilities{DeleteAnyReply: true}}
	res, err = svc.DeleteReply(ctx, mod, foreign.ID)
	require.NoError(t, err)
	require.True(t, res.Changed)

	res, err = svc.DeleteReply(ctx, mod, foreign.ID)
	require.NoError(t, err)
	require.False(t, res.Changed)

	stored, err := env.replies.Get(ctx, foreign.ID)
	require.NoError(t, err)
	require.True(t, stored.IsDeleted)

	var votes int64
	require.NoError(t, env.db.Model(&models.Vote{}).Where("reply_id = ?", foreign.ID).Count(&votes).Error)
	require.EqualValues(t, 1, votes)
	require.EqualValues(t, 2, env.countLogs(t))
	require.Equal(t, []string{events.ReplyDeleted, events.ReplyDeleted}, env.publisher.types())
}

func TestModerationServiceBanUser(t *testing.T) {
	env := newForumEnv(t)
	target := env.createUser(t, "troll", nil)
	admin := env.createUser(t, "admin", func(u *models.User) { u.CanChangeUser = true })

	svc := newModerationServiceForEnv(env)
	accounts := NewAccountService(env.users, testLogger())
	ctx := context.Background()

	_, err := svc.BanUser(ctx, Actor{ID: target.ID}, admin.ID)
	require.ErrorIs(t, err, ErrForbidden)

	actor, err := accounts.LoadActor(ctx, admin.ID)
	require.NoError(t, err)

	_, err = svc.BanUser(ctx, actor, 9999)
	require.ErrorIs(t, err, ErrNotFound)

	res, err := svc.BanUser(ctx, actor, target.ID)
	require.NoError(t, err)
	require.True(t, res.Changed)

	res, err = svc.BanUser(ctx, actor, target.ID)
	require.NoError(t, err)
	require.False(t, res.Changed)

	_, err = accounts.LoadActor(ctx, target.ID)
	require.ErrorIs(t, err, ErrAccountDisabled)
	require.Equal(t, []string{events.UserBanned}, env.publisher.types())
}

func TestModerationServicePublishFailureDoesNotFailAction(t *testing.T) {
	env := newForumEnv(t)
	env.publisher.fail = true
	author := env.createUser(t, "author", nil)
	thread := env.createThread(t, author, env.createCategory(t, "General", "general"), "Broker down")

	svc := newModerationServiceForEnv(env)
	res, err := svc.LockThread(context.Background(), moderator(1), thread.ID)
	require.NoError(t, err)
	require.True(t, res.Changed)
	require.EqualValues(t, 1, env.countLogs(t))
}

func TestModerationServiceListLog(t *testing.T) {
	env := newForumEnv(t)
	author := env.createUser(t, "author", nil)
	category := env.createCategory(t, "General", "general")
	first := env.createThread(t, author, category, "One")
	second := env.createThread(t, author, category, "Two")

	svc := newModerationServiceForEnv(env)
	ctx := context.Background()

	_, err := svc.LockThread(ctx, moderator(7), first.ID)
	require.NoError(t, err)
	_, err = svc.LockThread(ctx, moderator(8), second.ID)
	require.NoError(t, err)

	_, err = svc.ListLog(ctx, Actor{ID: author.ID}, dto.ModerationLogListRequest{})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.ListLog(ctx, moderator(7), dto.ModerationLogListRequest{Action: "nuke"})
	require.Error(t, err)

	resp, err := svc.ListLog(ctx, moderator(7), dto.ModerationLogListRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)
	require.EqualValues(t, 2, resp.Pagination.TotalItems)
	require.Equal(t, second.ID, resp.Items[0].EntityID)

	resp, err = svc.ListLog(ctx, moderator(7), dto.ModerationLogListRequest{ActorID: 7})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	require.Equal(t, first.ID, resp.Items[0].EntityID)
	require.Equal(t, "One", resp.Items[0].Metadata["title"])
}
