package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-forum-api/internal/dto"
	"github.com/noah-isme/campus-forum-api/internal/handler"
	"github.com/noah-isme/campus-forum-api/internal/models"
	"github.com/noah-isme/campus-forum-api/internal/service"
)

type stubVoteService struct {
	err      error
	lastKind string
	lastDir  string
	lastID   uint
}

func (s *stubVoteService) CastVote(ctx context.Context, actor service.Actor, kind string, id uint, direction string) (dto.VoteResponse, error) {
	s.lastKind, s.lastID, s.lastDir = kind, id, direction
	if s.err != nil {
		return dto.VoteResponse{}, s.err
	}
	return dto.VoteResponse{TargetKind: kind, TargetID: id, Outcome: "created", UserVote: 1, Score: 3}, nil
}

func (s *stubVoteService) Score(ctx context.Context, target models.Target) (int64, error) {
	return 0, nil
}

func (s *stubVoteService) Scores(ctx context.Context, kind models.TargetKind, ids []uint) (map[uint]int64, error) {
	return map[uint]int64{}, nil
}

func (s *stubVoteService) UserVoteState(ctx context.Context, actor service.Actor, target models.Target) (int, error) {
	return 0, nil
}

func (s *stubVoteService) UserVoteStates(ctx context.Context, actor service.Actor, kind models.TargetKind, ids []uint) (map[uint]int, error) {
	return map[uint]int{}, nil
}

func TestVoteHandlerCast(t *testing.T) {
	svc := &stubVoteService{}
	app, api := newTestApp(staticActorLoader{5: {ID: 5}})
	handler.NewVoteHandler(svc, zerolog.Nop()).Register(api.Group("/vote"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/vote/reply/12/down", nil)
	req.Header.Set("X-User", "5")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeEnvelope(t, resp)
	var vote dto.VoteResponse
	require.NoError(t, json.Unmarshal(body.Data, &vote))
	require.EqualValues(t, 3, vote.Score)
	require.Equal(t, "reply", svc.lastKind)
	require.EqualValues(t, 12, svc.lastID)
	require.Equal(t, "down", svc.lastDir)
}

func TestVoteHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{service.ErrThreadLocked, fiber.StatusForbidden},
		{service.ErrReplyDeleted, fiber.StatusForbidden},
		{fmt.Errorf("%w: thread", service.ErrNotFound), fiber.StatusNotFound},
		{fmt.Errorf("%w: unknown vote direction", service.ErrInvalidArgument), fiber.StatusBadRequest},
		{fmt.Errorf("%w: race", service.ErrConstraintViolation), fiber.StatusConflict},
		{fmt.Errorf("connection reset"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		svc := &stubVoteService{err: tc.err}
		app, api := newTestApp(staticActorLoader{5: {ID: 5}})
		handler.NewVoteHandler(svc, zerolog.Nop()).Register(api.Group("/vote"))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/vote/thread/1/up", nil)
		req.Header.Set("X-User", "5")
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, tc.status, resp.StatusCode, tc.err.Error())

		body := decodeEnvelope(t, resp)
		require.False(t, body.Success)
		if tc.status == fiber.StatusInternalServerError {
			require.Equal(t, "internal server error", body.Message)
		}
	}
}

func TestVoteHandlerRejectsBadID(t *testing.T) {
	app, api := newTestApp(staticActorLoader{5: {ID: 5}})
	handler.NewVoteHandler(&stubVoteService{}, zerolog.Nop()).Register(api.Group("/vote"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/vote/thread/abc/up", nil)
	req.Header.Set("X-User", "5")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestVoteHandlerRequiresAccount(t *testing.T) {
	app, api := newTestApp(staticActorLoader{})
	handler.NewVoteHandler(&stubVoteService{}, zerolog.Nop()).Register(api.Group("/vote"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/vote/thread/1/up", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
