package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/lottodesk-backend/api/middleware"
	"github.com/angelmondragon/lottodesk-backend/internal/notifications"
	"github.com/angelmondragon/lottodesk-backend/pkg/auth"
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/lottodesk-backend/pkg/errors"
)

type stubNotificationService struct {
	listFn     func(context.Context, auth.Actor, notifications.ListParams) (*notifications.ListResult, error)
	feedFn     func(context.Context, auth.Actor, func(notifications.FeedSnapshot)) (*notifications.Feed, error)
	markFn     func(context.Context, auth.Actor, string) error
	markManyFn func(context.Context, auth.Actor, []string) (notifications.BatchResult, error)
	markAllFn  func(context.Context, auth.Actor) (int64, error)
	sendFn     func(context.Context, auth.Actor, notifications.SendInput) (int, error)
}

var errNotStubbed = errors.New("not stubbed")

func (s stubNotificationService) List(ctx context.Context, actor auth.Actor, params notifications.ListParams) (*notifications.ListResult, error) {
	if s.listFn == nil {
		return nil, errNotStubbed
	}
	return s.listFn(ctx, actor, params)
}

func (s stubNotificationService) Feed(ctx context.Context, actor auth.Actor, onChange func(notifications.FeedSnapshot)) (*notifications.Feed, error) {
	if s.feedFn == nil {
		return nil, errNotStubbed
	}
	return s.feedFn(ctx, actor, onChange)
}

func (s stubNotificationService) MarkRead(ctx context.Context, actor auth.Actor, id string) error {
	if s.markFn == nil {
		return errNotStubbed
	}
	return s.markFn(ctx, actor, id)
}

func (s stubNotificationService) MarkManyRead(ctx context.Context, actor auth.Actor, ids []string) (notifications.BatchResult, error) {
	if s.markManyFn == nil {
		return notifications.BatchResult{}, errNotStubbed
	}
	return s.markManyFn(ctx, actor, ids)
}

func (s stubNotificationService) MarkAllRead(ctx context.Context, actor auth.Actor) (int64, error) {
	if s.markAllFn == nil {
		return 0, errNotStubbed
	}
	return s.markAllFn(ctx, actor)
}

func (s stubNotificationService) Send(ctx context.Context, actor auth.Actor, input notifications.SendInput) (int, error) {
	if s.sendFn == nil {
		return 0, errNotStubbed
	}
	return s.sendFn(ctx, actor, input)
}

func (stubNotificationService) Delete(context.Context, auth.Actor, string) error {
	return errNotStubbed
}

func (stubNotificationService) Deliver(context.Context, notifications.Audience, notifications.Draft) (int, error) {
	return 0, errNotStubbed
}

func (stubNotificationService) PurgeRead(context.Context, time.Time) (int64, error) {
	return 0, errNotStubbed
}

func testActor(perms ...enums.Permission) auth.Actor {
	return auth.NewActor(auth.ActorInput{
		UserID:      "u-1",
		Email:       "ops@example.com",
		RoleID:      "r-1",
		RoleName:    "Operator",
		Permissions: perms,
	})
}

func withActor(req *http.Request, actor auth.Actor) *http.Request {
	return req.WithContext(middleware.WithActor(req.Context(), actor))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

type envelope struct {
	Data json.RawMessage `json:"data"`
	Meta map[string]any  `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestListNotificationsReportsUnreadCount(t *testing.T) {
	var got notifications.ListParams
	svc := stubNotificationService{
		listFn: func(_ context.Context, actor auth.Actor, params notifications.ListParams) (*notifications.ListResult, error) {
			assert.Equal(t, "u-1", actor.UserID)
			got = params
			return &notifications.ListResult{
				Items:       []notifications.Notification{{ID: "n-1", Title: "Vendor pending"}},
				Cursor:      "next",
				Total:       4,
				UnreadCount: 3,
			}, nil
		},
	}

	req := withActor(httptest.NewRequest(http.MethodGet, "/api/v1/notifications?limit=10&unreadOnly=true", nil), testActor())
	rec := httptest.NewRecorder()
	ListNotifications(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, got.Limit)
	assert.True(t, got.UnreadOnly)
	env := decodeEnvelope(t, rec)
	assert.EqualValues(t, 3, env.Meta["unread_count"])
	assert.EqualValues(t, 4, env.Meta["total"])
	assert.Equal(t, "next", env.Meta["cursor"])
}

func TestNotificationHandlersRequireActor(t *testing.T) {
	rec := httptest.NewRecorder()
	ListNotifications(stubNotificationService{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMarkNotificationReadPassesPathID(t *testing.T) {
	var gotID string
	svc := stubNotificationService{
		markFn: func(_ context.Context, _ auth.Actor, id string) error {
			gotID = id
			return nil
		},
	}
	req := withURLParam(httptest.NewRequest(http.MethodPost, "/", nil), "notificationID", "n-7")
	req = withActor(req, testActor())
	rec := httptest.NewRecorder()
	MarkNotificationRead(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "n-7", gotID)
}

func TestMarkNotificationReadNotFound(t *testing.T) {
	svc := stubNotificationService{
		markFn: func(context.Context, auth.Actor, string) error {
			return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
		},
	}
	req := withActor(withURLParam(httptest.NewRequest(http.MethodPost, "/", nil), "notificationID", "n-x"), testActor())
	rec := httptest.NewRecorder()
	MarkNotificationRead(svc, nil).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMarkNotificationsReadReportsPartialFailure(t *testing.T) {
	svc := stubNotificationService{
		markManyFn: func(_ context.Context, _ auth.Actor, ids []string) (notifications.BatchResult, error) {
			assert.Equal(t, []string{"n-1", "n-2"}, ids)
			return notifications.BatchResult{
				Succeeded: []string{"n-1"},
				Failed:    []notifications.BatchFailure{{ID: "n-2", Error: "NOT_FOUND: notification not found"}},
			}, errors.New("n-2: not found")
		},
	}
	req := withActor(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"ids":["n-1","n-2"]}`)), testActor())
	rec := httptest.NewRecorder()
	MarkNotificationsRead(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result notifications.BatchResult
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &result))
	assert.Equal(t, []string{"n-1"}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "n-2", result.Failed[0].ID)
}

func TestMarkNotificationsReadValidatesBody(t *testing.T) {
	called := false
	svc := stubNotificationService{
		markManyFn: func(context.Context, auth.Actor, []string) (notifications.BatchResult, error) {
			called = true
			return notifications.BatchResult{}, nil
		},
	}
	for _, body := range []string{`{"ids":[]}`, `{}`, `{"ids":[""]}`} {
		req := withActor(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), testActor())
		rec := httptest.NewRecorder()
		MarkNotificationsRead(svc, nil).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.False(t, called)
}

func TestMarkNotificationsReadSurfacesTotalFailure(t *testing.T) {
	svc := stubNotificationService{
		markManyFn: func(context.Context, auth.Actor, []string) (notifications.BatchResult, error) {
			return notifications.BatchResult{}, pkgerrors.New(pkgerrors.CodeDependency, "store unavailable")
		},
	}
	req := withActor(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"ids":["n-1"]}`)), testActor())
	rec := httptest.NewRecorder()
	MarkNotificationsRead(svc, nil).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMarkAllNotificationsRead(t *testing.T) {
	svc := stubNotificationService{
		markAllFn: func(context.Context, auth.Actor) (int64, error) { return 5, nil },
	}
	req := withActor(httptest.NewRequest(http.MethodPost, "/", nil), testActor())
	rec := httptest.NewRecorder()
	MarkAllNotificationsRead(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"updated":5}`, string(decodeEnvelope(t, rec).Data))
}

func TestSendNotificationCreates(t *testing.T) {
	svc := stubNotificationService{
		sendFn: func(_ context.Context, _ auth.Actor, in notifications.SendInput) (int, error) {
			assert.Equal(t, "Draw closed", in.Title)
			return 2, nil
		},
	}
	body := `{"title":"Draw closed","message":"Results are in"}`
	req := withActor(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), testActor(enums.PermissionNotificationsSend))
	rec := httptest.NewRecorder()
	SendNotification(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"sent":2}`, string(decodeEnvelope(t, rec).Data))
}

type noopChannel struct{}

func (noopChannel) Subscribe(context.Context, string, func([]notifications.Notification)) (func(), error) {
	return func() {}, nil
}

type noopMarker struct{}

func (noopMarker) MarkRead(context.Context, string, string) error { return nil }

func (noopMarker) MarkManyRead(context.Context, string, []string) notifications.BatchResult {
	return notifications.BatchResult{}
}

// cancelOnWrite ends the request once the first snapshot event is written.
type cancelOnWrite struct {
	*httptest.ResponseRecorder
	cancel context.CancelFunc
}

func (c *cancelOnWrite) Write(p []byte) (int, error) {
	n, err := c.ResponseRecorder.Write(p)
	if strings.Contains(string(p), "event: snapshot") {
		c.cancel()
	}
	return n, err
}

func TestStreamNotificationsSendsSnapshot(t *testing.T) {
	svc := stubNotificationService{
		feedFn: func(_ context.Context, actor auth.Actor, onChange func(notifications.FeedSnapshot)) (*notifications.Feed, error) {
			feed, err := notifications.NewFeed(notifications.FeedOptions{Channel: noopChannel{}, Marker: noopMarker{}})
			if err != nil {
				return nil, err
			}
			onChange(notifications.FeedSnapshot{
				State:       notifications.FeedSubscribed,
				UserID:      actor.UserID,
				Items:       []notifications.Notification{{ID: "n-1"}},
				UnreadCount: 1,
			})
			return feed, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := withActor(httptest.NewRequest(http.MethodGet, "/api/v1/notifications/stream", nil).WithContext(ctx), testActor())
	rec := &cancelOnWrite{ResponseRecorder: httptest.NewRecorder(), cancel: cancel}

	done := make(chan struct{})
	go func() {
		defer close(done)
		StreamNotifications(svc, time.Hour, nil).ServeHTTP(rec, req)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end after the first snapshot")
	}

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "id: 1\nevent: snapshot\n")
	assert.Contains(t, body, `"unread_count":1`)
	assert.Contains(t, body, `"state":"subscribed"`)
}

func TestStreamNotificationsFeedError(t *testing.T) {
	svc := stubNotificationService{
		feedFn: func(context.Context, auth.Actor, func(notifications.FeedSnapshot)) (*notifications.Feed, error) {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "realtime unavailable")
		},
	}
	req := withActor(httptest.NewRequest(http.MethodGet, "/", nil), testActor())
	rec := httptest.NewRecorder()
	StreamNotifications(svc, time.Hour, nil).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
