package router_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-forum-api/internal/config"
	"github.com/noah-isme/campus-forum-api/internal/database"
	"github.com/noah-isme/campus-forum-api/internal/dto"
	"github.com/noah-isme/campus-forum-api/internal/events"
	"github.com/noah-isme/campus-forum-api/internal/handler"
	"github.com/noah-isme/campus-forum-api/internal/middleware"
	"github.com/noah-isme/campus-forum-api/internal/models"
	"github.com/noah-isme/campus-forum-api/internal/repository"
	"github.com/noah-isme/campus-forum-api/internal/router"
	"github.com/noah-isme/campus-forum-api/internal/service"
)

const testSecret = "router-test-secret"

type testServer struct {
	app *fiber.App
	db  *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := database.ConnectSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	cfg := config.Config{
		AppName:         "Campus Forum API",
		AppEnv:          "test",
		JWTSecret:       testSecret,
		ThreadsPerPage:  15,
		RepliesPerPage:  10,
		RateLimitMax:    100,
		RateLimitWindow: time.Minute,
	}
	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())
	publisher := events.Nop{}

	threads := repository.NewThreadRepository(db)
	replies := repository.NewReplyRepository(db)
	votes := repository.NewVoteRepository(db)
	reports := repository.NewReportRepository(db)
	moderation := repository.NewModerationRepository(db)
	users := repository.NewUserRepository(db)
	taxonomy := repository.NewTaxonomyRepository(db)

	voteService := service.NewVoteService(votes, threads, replies, nil, 0, logger)
	threadService := service.NewThreadService(threads, replies, taxonomy, voteService, publisher, validate, service.ThreadServiceConfig{
		ThreadsPerPage: cfg.ThreadsPerPage,
		RepliesPerPage: cfg.RepliesPerPage,
	}, logger)
	moderationService := service.NewModerationService(moderation, threads, replies, users, publisher, validate, logger)
	reportService := service.NewReportService(reports, moderation, replies, publisher, validate, cfg.RepliesPerPage, logger)
	accountService := service.NewAccountService(users, logger)
	taxonomyService := service.NewTaxonomyService(taxonomy, validate, logger)

	app := fiber.New()
	router.Register(app, cfg, router.Dependencies{
		AccountHandler:    handler.NewAccountHandler(accountService, logger),
		TaxonomyHandler:   handler.NewTaxonomyHandler(taxonomyService, logger),
		ThreadHandler:     handler.NewThreadHandler(threadService, logger),
		VoteHandler:       handler.NewVoteHandler(voteService, logger),
		ReportHandler:     handler.NewReportHandler(reportService, logger),
		ModerationHandler: handler.NewModerationHandler(moderationService, reportService, logger),
		JWTMiddleware:     middleware.JWTProtected(testSecret),
		ActorLoader:       accountService,
		Logger:            logger,
	})

	return &testServer{app: app, db: db}
}

func (s *testServer) createUser(t *testing.T, username string, mutate func(*models.User)) models.User {
	t.Helper()
	user := models.User{Username: username, Email: username + "@example.edu", IsActive: true}
	if mutate != nil {
		mutate(&user)
	}
	require.NoError(t, s.db.Create(&user).Error)
	return user
}

func (s *testServer) do(t *testing.T, method, path string, user *models.User, body string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": fmt.Sprintf("%d", user.ID),
			"exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte(testSecret))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope map[string]json.RawMessage
	if strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	}
	return resp, envelope
}

func TestHealthIsPublic(t *testing.T) {
	server := newTestServer(t)

	resp, _ := server.do(t, http.MethodGet, "/api/v1/health", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "Campus Forum API", resp.Header.Get("X-Application"))
}

func TestForumRequiresAuthentication(t *testing.T) {
	server := newTestServer(t)

	resp, _ := server.do(t, http.MethodGet, "/api/v1/threads", nil, "")
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	disabled := server.createUser(t, "disabled", nil)
	require.NoError(t, server.db.Model(&models.User{}).Where("id = ?", disabled.ID).Update("is_active", false).Error)

	resp, _ = server.do(t, http.MethodGet, "/api/v1/threads", &disabled, "")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestForumFlow(t *testing.T) {
	server := newTestServer(t)

	admin := server.createUser(t, "admin", func(u *models.User) { u.IsSuperuser = true })
	author := server.createUser(t, "author", nil)
	reader := server.createUser(t, "reader", nil)

	resp, _ := server.do(t, http.MethodPost, "/api/v1/categories", &author, `{"name":"Academics"}`)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, body := server.do(t, http.MethodPost, "/api/v1/categories", &admin, `{"name":"Academics"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var category dto.CategoryResponse
	require.NoError(t, json.Unmarshal(body["data"], &category))
	require.Equal(t, "academics", category.Slug)

	resp, body = server.do(t, http.MethodPost, "/api/v1/threads", &author,
		fmt.Sprintf(`{"title":"Midsem schedule","content":"When are the midsems?","category_id":%d}`, category.ID))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var thread dto.ThreadResponse
	require.NoError(t, json.Unmarshal(body["data"], &thread))

	resp, body = server.do(t, http.MethodPost, fmt.Sprintf("/api/v1/vote/thread/%d/up", thread.ID), &reader, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var vote dto.VoteResponse
	require.NoError(t, json.Unmarshal(body["data"], &vote))
	require.Equal(t, int64(1), vote.Score)
	require.Equal(t, 1, vote.UserVote)

	resp, body = server.do(t, http.MethodPost, fmt.Sprintf("/api/v1/threads/%d/replies", thread.ID), &reader, `{"content":"Next week"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var created dto.ReplyCreatedResponse
	require.NoError(t, json.Unmarshal(body["data"], &created))
	require.Equal(t, 1, created.Page)
	require.Equal(t, created.RedirectTo, resp.Header.Get(fiber.HeaderLocation))

	resp, _ = server.do(t, http.MethodPost, fmt.Sprintf("/api/v1/reports/reply/%d", created.Reply.ID), &author, "")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, _ = server.do(t, http.MethodGet, "/api/v1/mod/reports", &author, "")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, body = server.do(t, http.MethodGet, "/api/v1/mod/reports", &admin, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var queue dto.ReportQueueResponse
	require.NoError(t, json.Unmarshal(body["data"], &queue))
	require.Len(t, queue.Pending, 1)

	resp, _ = server.do(t, http.MethodPost, fmt.Sprintf("/api/v1/mod/threads/%d/lock", thread.ID), &admin, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = server.do(t, http.MethodPost, fmt.Sprintf("/api/v1/threads/%d/replies", thread.ID), &reader, `{"content":"Too late"}`)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = server.do(t, http.MethodPost, fmt.Sprintf("/api/v1/vote/thread/%d/down", thread.ID), &reader, "")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, body = server.do(t, http.MethodGet, "/api/v1/mod/log", &admin, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var logs dto.ModerationLogListResponse
	require.NoError(t, json.Unmarshal(body["data"], &logs))
	require.Len(t, logs.Items, 1)
	require.Equal(t, models.ActionLockThread, logs.Items[0].Action)
}

func TestModeratorBanDisablesAccount(t *testing.T) {
	server := newTestServer(t)

	moderator := server.createUser(t, "moderator", func(u *models.User) { u.CanChangeUser = true })
	target := server.createUser(t, "target", nil)

	resp, _ := server.do(t, http.MethodGet, "/api/v1/me", &target, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = server.do(t, http.MethodPost, fmt.Sprintf("/api/v1/mod/users/%d/ban", target.ID), &target, "")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = server.do(t, http.MethodPost, fmt.Sprintf("/api/v1/mod/users/%d/ban", target.ID), &moderator, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = server.do(t, http.MethodGet, "/api/v1/me", &target, "")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
