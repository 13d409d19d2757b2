package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-forum-api/internal/dto"
	"github.com/noah-isme/campus-forum-api/internal/events"
	"github.com/noah-isme/campus-forum-api/internal/models"
)

func newThreadServiceForEnv(env *forumEnv, cfg ThreadServiceConfig) (ThreadService, VoteService) {
	votes := newVoteServiceForEnv(env, nil)
	return NewThreadService(env.threads, env.replies, env.taxonomy, votes, env.publisher, testValidator(), cfg, testLogger()), votes
}

func TestThreadServiceCreateThread(t *testing.T) {
	env := newForumEnv(t)
	author := env.createUser(t, "author", nil)
	category := env.createCategory(t, "Academics", "academics")
	tag := models.Tag{Name: "Exams", Slug: "exams"}
	require.NoError(t, env.db.Create(&tag).Error)
	course := models.Course{Code: "CS F111", Title: "Computer Programming"}
	require.NoError(t, env.db.Create(&course).Error)
	notes := models.Resource{CourseID: &course.ID, Title: "Lecture notes", Kind: models.ResourcePDF, Link: "https://example.edu/notes.pdf"}
	require.NoError(t, env.db.Create(&notes).Error)

	svc, _ := newThreadServiceForEnv(env, ThreadServiceConfig{})
	ctx := context.Background()
	actor := Actor{ID: author.ID}

	_, err := svc.CreateThread(ctx, Actor{}, dto.ThreadCreateRequest{Title: "Hello", Content: "x", CategoryID: category.ID})
	require.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.CreateThread(ctx, actor, dto.ThreadCreateRequest{Title: "Hello", Content: "x", CategoryID: 9999})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.CreateThread(ctx, actor, dto.ThreadCreateRequest{Title: "Hello", Content: "x", CategoryID: category.ID, TagIDs: []uint{9999}})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.CreateThread(ctx, actor, dto.ThreadCreateRequest{Title: "Hi", Content: "x", CategoryID: category.ID})
	require.Error(t, err)

	resp, err := svc.CreateThread(ctx, actor, dto.ThreadCreateRequest{
		Title:         "Midsem <b>schedule</b>",
		Content:       "<p>When is it?</p><script>alert(1)</script>",
		CategoryID:    category.ID,
		TagIDs:        []uint{tag.ID, tag.ID},
		ResourceIDs:   []uint{notes.ID},
		ResourceTitle: "Past paper",
		ResourceLink:  "https://example.edu/past.pdf",
	})
	require.NoError(t, err)
	require.Equal(t, "Midsem schedule", resp.Title)
	require.Equal(t, "<p>When is it?</p>", resp.Content)
	require.Equal(t, "academics", resp.Category.Slug)
	require.Len(t, resp.Tags, 1)
	require.Len(t, resp.Resources, 2)

	stored, err := env.threads.GetWithRelations(ctx, resp.ID)
	require.NoError(t, err)
	require.Len(t, stored.Tags, 1)
	require.Len(t, stored.Resources, 2)

	var adHoc models.Resource
	require.NoError(t, env.db.Where("link = ?", "https://example.edu/past.pdf").First(&adHoc).Error)
	require.Nil(t, adHoc.CourseID)
	require.Equal(t, models.ResourceLink, adHoc.Kind)
	require.Equal(t, "Past paper", adHoc.Title)
}

func TestThreadServiceListThreads(t *testing.T) {
	env := newForumEnv(t)
	author := env.createUser(t, "author", nil)
	academics := env.createCategory(t, "Academics", "academics")
	hostel := env.createCategory(t, "Hostel", "hostel")

	for i := 0; i < 17; i++ {
		env.createThread(t, author, academics, fmt.Sprintf("Academic %02d", i))
	}
	hostelThread := env.createThread(t, author, hostel, "Mess menu")
	env.createReply(t, hostelThread, author, "paneer again")
	deleted := env.createReply(t, hostelThread, author, "removed")
	env.deleteReply(t, deleted)

	svc, votes := newThreadServiceForEnv(env, ThreadServiceConfig{ThreadsPerPage: 15})
	ctx := context.Background()
	actor := Actor{ID: author.ID}

	_, err := votes.CastVote(ctx, actor, "thread", hostelThread.ID, "up")
	require.NoError(t, err)

	_, err = svc.ListThreads(ctx, Actor{}, ThreadListQuery{})
	require.ErrorIs(t, err, ErrUnauthenticated)

	resp, err := svc.ListThreads(ctx, actor, ThreadListQuery{})
	require.NoError(t, err)
	require.Len(t, resp.Items, 15)
	require.EqualValues(t, 18, resp.Pagination.TotalItems)
	require.Equal(t, 2, resp.Pagination.TotalPages)
	require.Equal(t, "Mess menu", resp.Items[0].Title)
	require.EqualValues(t, 1, resp.Items[0].Score)
	require.EqualValues(t, 1, resp.Items[0].ReplyCount)

	resp, err = svc.ListThreads(ctx, actor, ThreadListQuery{Page: 2})
	require.NoError(t, err)
	require.Len(t, resp.Items, 3)

	resp, err = svc.ListThreads(ctx, actor, ThreadListQuery{Category: "hostel"})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	require.Equal(t, "hostel", resp.CategorySlug)

	resp, err = svc.ListThreads(ctx, actor, ThreadListQuery{Category: "missing"})
	require.NoError(t, err)
	require.Empty(t, resp.Items)
	require.Equal(t, 1, resp.Pagination.TotalPages)
}

func TestThreadServiceGetThread(t *testing.T) {
	env := newForumEnv(t)
	author := env.createUser(t, "author", nil)
	reader := env.createUser(t, "reader", nil)
	thread := env.createThread(t, author, env.createCategory(t, "General", "general"), "Detail")

	var replies []models.Reply
	for i := 0; i < 11; i++ {
		replies = append(replies, env.createReply(t, thread, author, fmt.Sprintf("reply %d", i)))
	}
	env.deleteReply(t, replies[1])

	svc, votes := newThreadServiceForEnv(env, ThreadServiceConfig{RepliesPerPage: 10})
	ctx := context.Background()
	actor := Actor{ID: reader.ID}

	_, err := votes.CastVote(ctx, actor, "thread", thread.ID, "down")
	require.NoError(t, err)
	_, err = votes.CastVote(ctx, actor, "reply", replies[0].ID, "up")
	require.NoError(t, err)

	_, err = svc.GetThread(ctx, actor, 9999, 1)
	require.ErrorIs(t, err, ErrNotFound)

	resp, err := svc.GetThread(ctx, actor, thread.ID, 1)
	require.NoError(t, err)
	require.EqualValues(t, -1, resp.Thread.Score)
	require.Equal(t, -1, resp.Thread.UserVote)
	require.Len(t, resp.Replies, 10)
	require.Equal(t, 2, resp.Pagination.TotalPages)

	require.Equal(t, "reply 0", resp.Replies[0].Content)
	require.NotNil(t, resp.Replies[0].Score)
	require.EqualValues(t, 1, *resp.Replies[0].Score)
	require.Equal(t, 1, resp.Replies[0].UserVote)

	require.True(t, resp.Replies[1].IsDeleted)
	require.Empty(t, resp.Replies[1].Content)
	require.Nil(t, resp.Replies[1].Score)

	resp, err = svc.GetThread(ctx, actor, thread.ID, 42)
	require.NoError(t, err)
	require.Equal(t, 2, resp.Pagination.Page)
	require.Len(t, resp.Replies, 1)
	require.Equal(t, replies[10].ID, resp.Replies[0].ID)
}

func TestThreadServiceCreateReply(t *testing.T) {
	env := newForumEnv(t)
	author := env.createUser(t, "author", nil)
	replier := env.createUser(t, "replier", nil)
	thread := env.createThread(t, author, env.createCategory(t, "General", "general"), "Busy")
	for i := 0; i < 10; i++ {
		env.createReply(t, thread, author, fmt.Sprintf("reply %d", i))
	}

	svc, _ := newThreadServiceForEnv(env, ThreadServiceConfig{RepliesPerPage: 10})
	ctx := context.Background()

	_, err := svc.CreateReply(ctx, Actor{ID: replier.ID}, 9999, dto.ReplyCreateRequest{Content: "hi"})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.CreateReply(ctx, Actor{ID: replier.ID}, thread.ID, dto.ReplyCreateRequest{Content: "<script>x</script>"})
	require.ErrorIs(t, err, ErrInvalidArgument)

	resp, err := svc.CreateReply(ctx, Actor{ID: replier.ID}, thread.ID, dto.ReplyCreateRequest{Content: "eleventh"})
	require.NoError(t, err)
	require.Equal(t, 2, resp.Page)
	require.Equal(t, fmt.Sprintf("/threads/%d?page=2#reply-%d", thread.ID, resp.Reply.ID), resp.RedirectTo)
	require.Equal(t, "eleventh", resp.Reply.Content)
	require.Equal(t, []string{events.ReplyCreated}, env.publisher.types())

	_, err = svc.CreateReply(ctx, Actor{ID: author.ID}, thread.ID, dto.ReplyCreateRequest{Content: "own thread"})
	require.NoError(t, err)
	require.Len(t, env.publisher.types(), 1)
}

func TestThreadServiceCreateReplyRechecksLockInsideTransaction(t *testing.T) {
	env := newForumEnv(t)
	author := env.createUser(t, "author", nil)
	thread := env.createThread(t, author, env.createCategory(t, "General", "general"), "Closing")

	threads := &afterThreadGet{ThreadRepository: env.threads, hook: func() { env.lockThread(t, thread) }}
	votes := NewVoteService(env.votes, threads, env.replies, nil, time.Minute, testLogger())
	svc := NewThreadService(threads, env.replies, env.taxonomy, votes, env.publisher, testValidator(), ThreadServiceConfig{}, testLogger())

	_, err := svc.CreateReply(context.Background(), Actor{ID: author.ID}, thread.ID, dto.ReplyCreateRequest{Content: "just in time"})
	require.ErrorIs(t, err, ErrThreadLocked)

	var rows int64
	require.NoError(t, env.db.Model(&models.Reply{}).Count(&rows).Error)
	require.Zero(t, rows)
	require.Empty(t, env.publisher.types())
}
