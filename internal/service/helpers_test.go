package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-forum-api/internal/events"
	"github.com/noah-isme/campus-forum-api/internal/models"
	"github.com/noah-isme/campus-forum-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	fail   bool
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, event := range p.events {
		out = append(out, event.Type)
	}
	return out
}

type forumEnv struct {
	db         *gorm.DB
	threads    repository.ThreadRepository
	replies    repository.ReplyRepository
	votes      repository.VoteRepository
	reports    repository.ReportRepository
	moderation repository.ModerationRepository
	users      repository.UserRepository
	taxonomy   repository.TaxonomyRepository
	publisher  *recordingPublisher
}

func newForumEnv(t *testing.T) *forumEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))

	return &forumEnv{
		db:         db,
		threads:    repository.NewThreadRepository(db),
		replies:    repository.NewReplyRepository(db),
		votes:      repository.NewVoteRepository(db),
		reports:    repository.NewReportRepository(db),
		moderation: repository.NewModerationRepository(db),
		users:      repository.NewUserRepository(db),
		taxonomy:   repository.NewTaxonomyRepository(db),
		publisher:  &recordingPublisher{},
	}
}

func (e *forumEnv) createUser(t *testing.T, username string, mutate func(*models.User)) models.User {
	t.Helper()
	user := models.User{Username: username, Email: username + "@pilani.bits-pilani.ac.in", IsActive: true}
	if mutate != nil {
		mutate(&user)
	}
	require.NoError(t, e.db.Create(&user).Error)
	return user
}

func (e *forumEnv) createCategory(t *testing.T, name, slug string) models.Category {
	t.Helper()
	category := models.Category{Name: name, Slug: slug}
	require.NoError(t, e.db.Create(&category).Error)
	return category
}

func (e *forumEnv) createThread(t *testing.T, author models.User, category models.Category, title string) models.Thread {
	t.Helper()
	thread := models.Thread{Title: title, Content: "body of " + title, AuthorID: author.ID, CategoryID: category.ID}
	require.NoError(t, e.db.Omit("Category").Create(&thread).Error)
	return thread
}

func (e *forumEnv) createReply(t *testing.T, thread models.Thread, author models.User, content string) models.Reply {
	t.Helper()
	reply := models.Reply{ThreadID: thread.ID, AuthorID: author.ID, Content: content}
	require.NoError(t, e.replies.Create(context.Background(), &reply))
	return reply
}

func (e *forumEnv) lockThread(t *testing.T, thread models.Thread) {
	t.Helper()
	require.NoError(t, e.db.Model(&models.Thread{}).Where("id = ?", thread.ID).Update("is_locked", true).Error)
}

func (e *forumEnv) deleteReply(t *testing.T, reply models.Reply) {
	t.Helper()
	require.NoError(t, e.db.Model(&models.Reply{}).Where("id = ?", reply.ID).Update("is_deleted", true).Error)
}

func (e *forumEnv) countLogs(t *testing.T) int64 {
	t.Helper()
	var total int64
	require.NoError(t, e.db.Model(&models.ModerationLog{}).Count(&total).Error)
	return total
}

func moderator(id uint) Actor {
	return Actor{ID: id, Capabilities: Capabilities{LockThread: true, DeleteAnyReply: true, ChangeUser: true}}
}

// afterThreadGet runs hook once, right after the wrapped Get returns.
type afterThreadGet struct {
	repository.ThreadRepository
	hook func()
}

func (r *afterThreadGet) Get(ctx context.Context, id uint) (models.Thread, error) {
	thread, err := r.ThreadRepository.Get(ctx, id)
	if hook := r.hook; hook != nil {
		r.hook = nil
		hook()
	}
	return thread, err
}

type afterReplyGet struct {
	repository.ReplyRepository
	hook func()
}

func (r *afterReplyGet) Get(ctx context.Context, id uint) (models.Reply, error) {
	reply, err := r.ReplyRepository.Get(ctx, id)
	if hook := r.hook; hook != nil {
		r.hook = nil
		hook()
	}
	return reply, err
}
