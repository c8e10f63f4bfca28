package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"teamchat/config"
	"teamchat/internal/events"
	"teamchat/internal/handler"
	"teamchat/internal/middleware"
	"teamchat/internal/presence"
	"teamchat/internal/proxy"
	"teamchat/internal/redis"
	"teamchat/internal/repository"
	"teamchat/internal/services"
	"teamchat/internal/websocket"
	"teamchat/pkg/database"
	"teamchat/pkg/logger"
)

type quota struct {
	left int
}

func (q *quota) AllowMessage(_ context.Context, _ string) (*redis.RateLimitResult, error) {
	if q.left <= 0 {
		return &redis.RateLimitResult{Allowed: false, Limit: 1, ResetIn: time.Minute}, nil
	}
	q.left--
	return &redis.RateLimitResult{Allowed: true, Remaining: q.left, Limit: 1, ResetIn: time.Minute}, nil
}

type testAPI struct {
	t      *testing.T
	engine *gin.Engine
	auth   *services.AuthService
}

func newTestAPI(t *testing.T, limiter *quota) *testAPI {
	t.Helper()
	db, err := database.OpenBadger(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	roomRepo := repository.NewBadgerRoomRepository(db)
	messageRepo := repository.NewBadgerMessageRepository(db)
	access := proxy.NewAccessControl(roomRepo)
	var publisher events.MultiPublisher

	auth := services.NewAuthService("test-secret")
	rooms := services.NewRoomService(roomRepo, access, &publisher, zap.NewNop())
	messages := services.NewMessageService(messageRepo, access, &publisher, 100, zap.NewNop())
	unread := services.NewUnreadService(roomRepo, messageRepo, access)
	tracker := presence.NewTracker(presence.Config{TypingTimeout: time.Minute, OfflineGrace: time.Second}, rooms, rooms, &publisher, zap.NewNop())
	hub := websocket.NewHub(messages, rooms, websocket.HubConfig{QueueSize: 8}, zap.NewNop())
	publisher = append(publisher, hub)

	srv := New(&config.Config{AppMode: TestMode, AppPort: "0"}, logger.NewNop())
	handlers := &Handlers{
		Room:      handler.NewRoomHandler(rooms),
		Message:   handler.NewMessageHandler(messages, unread),
		Presence:  handler.NewPresenceHandler(tracker, rooms),
		WebSocket: websocket.NewHandler(auth, hub, tracker, unread),
	}
	var ml middleware.MessageLimiter
	if limiter != nil {
		ml = limiter
	}
	srv.SetupRoutes(handlers, auth, ml, func(context.Context) error { return nil })
	return &testAPI{t: t, engine: srv.Engine(), auth: auth}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
}

func (a *testAPI) do(method, path string, user uuid.UUID, body any) (int, envelope) {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != uuid.Nil {
		token, err := a.auth.NewAccessToken(user, time.Hour)
		require.NoError(a.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec.Code, env
}

func (a *testAPI) createGroup(admin uuid.UUID, members ...uuid.UUID) string {
	a.t.Helper()
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.String())
	}
	code, env := a.do(http.MethodPost, "/v1/rooms", admin, map[string]any{
		"kind": "group", "name": "team", "participants": ids,
	})
	require.Equal(a.t, http.StatusCreated, code)
	var room struct {
		ID string `json:"id"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &room))
	return room.ID
}

func TestRoutes_RequireToken(t *testing.T) {
	api := newTestAPI(t, nil)

	code, env := api.do(http.MethodGet, "/v1/rooms", uuid.Nil, nil)
	require.Equal(t, http.StatusUnauthorized, code)
	require.Equal(t, "UNAUTHORIZED", env.Code)

	code, _ = api.do(http.MethodGet, "/ping", uuid.Nil, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = api.do(http.MethodGet, "/health", uuid.Nil, nil)
	require.Equal(t, http.StatusOK, code)
}

func TestRoutes_MessageFlowAndUnread(t *testing.T) {
	req := require.New(t)
	api := newTestAPI(t, nil)
	alice, bob := uuid.New(), uuid.New()
	roomID := api.createGroup(alice, bob)

	for i := 0; i < 3; i++ {
		code, _ := api.do(http.MethodPost, "/v1/rooms/"+roomID+"/messages", alice, map[string]any{"body": "hi"})
		req.Equal(http.StatusCreated, code)
	}

	code, env := api.do(http.MethodGet, "/v1/rooms/"+roomID+"/messages?after=1", bob, nil)
	req.Equal(http.StatusOK, code)
	var page struct {
		Messages []struct {
			Sequence int64 `json:"sequence"`
		} `json:"messages"`
		LastSequence int64 `json:"last_sequence"`
	}
	req.NoError(json.Unmarshal(env.Data, &page))
	req.Len(page.Messages, 2)
	req.Equal(int64(2), page.Messages[0].Sequence)
	req.Equal(int64(3), page.LastSequence)

	code, env = api.do(http.MethodGet, "/v1/rooms/"+roomID+"/unread", bob, nil)
	req.Equal(http.StatusOK, code)
	req.JSONEq(`{"room_id":"`+roomID+`","unread":3}`, string(env.Data))

	code, env = api.do(http.MethodPost, "/v1/rooms/"+roomID+"/read", bob, map[string]any{"sequence": 10})
	req.Equal(http.StatusOK, code)
	req.JSONEq(`{"last_read_sequence":3}`, string(env.Data))

	code, env = api.do(http.MethodGet, "/v1/unread", bob, nil)
	req.Equal(http.StatusOK, code)
	var summary []services.RoomUnread
	req.NoError(json.Unmarshal(env.Data, &summary))
	req.Len(summary, 1)
	req.Zero(summary[0].Unread)
}

func TestRoutes_MapsCoreErrors(t *testing.T) {
	req := require.New(t)
	api := newTestAPI(t, nil)
	alice, bob, outsider := uuid.New(), uuid.New(), uuid.New()
	roomID := api.createGroup(alice, bob)

	code, env := api.do(http.MethodPost, "/v1/rooms/"+roomID+"/messages", outsider, map[string]any{"body": "hi"})
	req.Equal(http.StatusForbidden, code)
	req.Equal("FORBIDDEN", env.Code)

	code, env = api.do(http.MethodGet, "/v1/rooms/"+uuid.NewString(), alice, nil)
	req.Equal(http.StatusNotFound, code)
	req.Equal("NOT_FOUND", env.Code)

	code, env = api.do(http.MethodPost, "/v1/rooms/"+roomID+"/leave", alice, nil)
	req.Equal(http.StatusConflict, code)
	req.Equal("LAST_ADMIN", env.Code)

	code, env = api.do(http.MethodPost, "/v1/rooms", alice, map[string]any{"kind": "direct", "participants": []string{}})
	req.Equal(http.StatusUnprocessableEntity, code)
	req.Equal("INVALID_MEMBERSHIP", env.Code)

	code, env = api.do(http.MethodPost, "/v1/rooms/not-a-uuid/messages", alice, map[string]any{"body": "hi"})
	req.Equal(http.StatusBadRequest, code)
	req.Equal("INVALID_REQUEST", env.Code)
}

func TestRoutes_LeaveWithPromotion(t *testing.T) {
	req := require.New(t)
	api := newTestAPI(t, nil)
	alice, bob := uuid.New(), uuid.New()
	roomID := api.createGroup(alice, bob)

	code, env := api.do(http.MethodPost, "/v1/rooms/"+roomID+"/leave?promote=true", alice, nil)
	req.Equal(http.StatusOK, code)
	var res struct {
		Promoted struct {
			UserID string `json:"user_id"`
			Role   string `json:"role"`
		} `json:"promoted"`
	}
	req.NoError(json.Unmarshal(env.Data, &res))
	req.Equal(bob.String(), res.Promoted.UserID)
	req.Equal("admin", res.Promoted.Role)
}

func TestRoutes_TypingShowsInPresence(t *testing.T) {
	req := require.New(t)
	api := newTestAPI(t, nil)
	alice, bob := uuid.New(), uuid.New()
	roomID := api.createGroup(alice, bob)

	code, _ := api.do(http.MethodPost, "/v1/rooms/"+roomID+"/typing", bob, nil)
	req.Equal(http.StatusNoContent, code)

	code, env := api.do(http.MethodGet, "/v1/rooms/"+roomID+"/presence", alice, nil)
	req.Equal(http.StatusOK, code)
	var res struct {
		Participants []struct {
			UserID string `json:"user_id"`
			State  string `json:"state"`
			Typing bool   `json:"typing"`
		} `json:"participants"`
	}
	req.NoError(json.Unmarshal(env.Data, &res))
	req.Len(res.Participants, 2)
	for _, p := range res.Participants {
		req.Equal(events.StateOffline, p.State)
		req.Equal(p.UserID == bob.String(), p.Typing)
	}
}

func TestRoutes_MessageRateLimit(t *testing.T) {
	req := require.New(t)
	api := newTestAPI(t, &quota{left: 1})
	alice := uuid.New()
	roomID := api.createGroup(alice)

	code, _ := api.do(http.MethodPost, "/v1/rooms/"+roomID+"/messages", alice, map[string]any{"body": "one"})
	req.Equal(http.StatusCreated, code)

	code, env := api.do(http.MethodPost, "/v1/rooms/"+roomID+"/messages", alice, map[string]any{"body": "two"})
	req.Equal(http.StatusTooManyRequests, code)
	req.Equal("RATE_LIMITED", env.Code)
}
