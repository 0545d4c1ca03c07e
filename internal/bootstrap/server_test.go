package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/localink/localink/api"
	"github.com/localink/localink/config"
	"github.com/localink/localink/internal/domain"
	"github.com/localink/localink/internal/ratelimit"
	"github.com/localink/localink/internal/repository/repotest"
	"github.com/localink/localink/internal/service/booking"
	"github.com/localink/localink/internal/service/messages"
	"github.com/localink/localink/internal/service/profiles"
	"github.com/localink/localink/internal/service/reviews"
	"github.com/localink/localink/internal/service/tours"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const tourID = "9b2f0c1e-6f61-4c55-9d0e-5a1c3b7f8e01"

type testServer struct {
	router *gin.Engine
	store  *repotest.Store
}

func newTestServer(t *testing.T, limiter api.RateLimiter, checks map[string]Checker) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repotest.NewStore()
	store.AddUser(domain.User{ID: "guide-1", Name: "Gina", Email: "gina@example.com", Role: domain.RoleGuide})
	store.AddUser(domain.User{ID: "tourist-1", Name: "Ann", Email: "ann@example.com", Role: domain.RoleTourist})
	store.AddUser(domain.User{ID: "tourist-2", Name: "Bob", Email: "bob@example.com", Role: domain.RoleTourist})
	store.AddTour(domain.Tour{ID: tourID, GuideID: "guide-1", Title: "Old Town Walk", Description: "A walk through history.",
		Location: "Lisbon", PriceCents: 2500, DurationHours: 3, MaxGroupSize: 1})

	repos := store.Repositories()
	now := func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) }
	mem := ratelimit.NewMemoryStore(time.Minute)
	t.Cleanup(mem.Stop)

	cfg := &config.Config{}
	router := NewRouter(cfg, Deps{
		Handlers: api.Handlers{
			Tours:    api.NewTourHandler(tours.NewTourService(store, repos.Tours, repos.Reviews)),
			Bookings: api.NewBookingHandler(booking.NewBookingService(store, repos.Bookings, nil, "", booking.WithClock(now))),
			Reviews:  api.NewReviewHandler(reviews.NewReviewService(store, repos.Reviews, nil)),
			Messages: api.NewMessageHandler(messages.NewMessageService(repos.Bookings, repos.Messages, ratelimit.New(mem, "messages", 10, time.Minute), nil)),
			Profile:  api.NewProfileHandler(profiles.NewProfileService(store, repos.Users)),
		},
		Limiter: limiter,
		Checks:  checks,
		Log:     zap.NewNop(),
	})
	return &testServer{router: router, store: store}
}

func (s *testServer) do(t *testing.T, method, path, userID, role string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(api.HeaderUserID, userID)
		req.Header.Set(api.HeaderUserRole, role)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestRouter_BookingLifecycle(t *testing.T) {
	s := newTestServer(t, nil, nil)

	w := s.do(t, http.MethodPost, "/api/bookings", "tourist-1", "TOURIST", map[string]string{"tourId": tourID, "date": "2026-10-20"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[map[string]any](t, w)
	id := created["id"].(string)
	assert.Equal(t, "PENDING", created["status"])

	// A second tourist may request the same date while the first is pending.
	w = s.do(t, http.MethodPost, "/api/bookings", "tourist-2", "TOURIST", map[string]string{"tourId": tourID, "date": "2026-10-20"})
	require.Equal(t, http.StatusCreated, w.Code)
	otherID := decode[map[string]any](t, w)["id"].(string)

	w = s.do(t, http.MethodPatch, "/api/bookings/"+id, "guide-1", "GUIDE", map[string]string{"status": "CONFIRMED"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Capacity is one, so the second confirmation fails.
	w = s.do(t, http.MethodPatch, "/api/bookings/"+otherID, "guide-1", "GUIDE", map[string]string{"status": "CONFIRMED"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CAPACITY_EXCEEDED", decode[errorEnvelope](t, w).Error.Code)

	// The tourist cannot cancel a confirmed booking.
	w = s.do(t, http.MethodPatch, "/api/bookings/"+id, "tourist-1", "TOURIST", map[string]string{"status": "CANCELLED"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_TRANSITION", decode[errorEnvelope](t, w).Error.Code)

	w = s.do(t, http.MethodPatch, "/api/bookings/"+id, "guide-1", "GUIDE", map[string]string{"status": "COMPLETED"})
	require.Equal(t, http.StatusOK, w.Code)

	// Completed bookings unlock reviews.
	w = s.do(t, http.MethodPost, "/api/reviews", "tourist-1", "TOURIST", map[string]any{"tourId": tourID, "rating": 5, "comment": "Fantastic"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/tours/"+tourID, "", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	tour := decode[map[string]any](t, w)
	assert.Equal(t, float64(1), tour["reviewCount"])
	assert.Len(t, tour["reviews"], 1)

	w = s.do(t, http.MethodGet, "/api/bookings", "guide-1", "GUIDE", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 2)

	// Booked tours cannot be deleted.
	w = s.do(t, http.MethodDelete, "/api/tours/"+tourID, "guide-1", "GUIDE", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRouter_Messages(t *testing.T) {
	s := newTestServer(t, nil, nil)

	w := s.do(t, http.MethodPost, "/api/bookings", "tourist-1", "TOURIST", map[string]string{"tourId": tourID, "date": "2026-10-21"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[map[string]any](t, w)["id"].(string)

	w = s.do(t, http.MethodPost, "/api/messages", "tourist-1", "TOURIST", map[string]string{"bookingId": id, "content": "<b>Hi!</b>"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Hi!", decode[map[string]any](t, w)["content"])

	w = s.do(t, http.MethodPost, "/api/messages", "tourist-2", "TOURIST", map[string]string{"bookingId": id, "content": "intruder"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/messages/"+id, "guide-1", "GUIDE", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[map[string]any](t, w)
	assert.Len(t, page["messages"], 1)
	assert.Equal(t, false, page["hasMore"])
}

func TestRouter_Profile(t *testing.T) {
	s := newTestServer(t, nil, nil)

	w := s.do(t, http.MethodPut, "/api/profile", "guide-1", "GUIDE", map[string]any{"bio": "Local historian", "languages": []string{"Portuguese", "English"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/profile", "guide-1", "GUIDE", nil)
	require.Equal(t, http.StatusOK, w.Code)
	user := decode[map[string]any](t, w)
	assert.Equal(t, "Local historian", user["profile"].(map[string]any)["bio"])
}

func TestRouter_RequiresIdentity(t *testing.T) {
	s := newTestServer(t, nil, nil)

	w := s.do(t, http.MethodGet, "/api/bookings", "", "", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, w.Header().Get(api.HeaderRequestID))
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	checks := map[string]Checker{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	}
	s := newTestServer(t, nil, checks)

	w := s.do(t, http.MethodGet, "/healthz", "", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/healthz?deep=1", "", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")

	s.do(t, http.MethodGet, "/api/tours", "", "", nil)
	w = s.do(t, http.MethodGet, "/metrics", "", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "localink_http_requests_total"))
}

func TestRouter_RateLimit(t *testing.T) {
	mem := ratelimit.NewMemoryStore(time.Minute)
	defer mem.Stop()
	fixed := time.Date(2026, 10, 19, 12, 0, 10, 0, time.UTC)
	s := newTestServer(t, ratelimit.New(mem, "http", 3, time.Minute, ratelimit.WithClock(func() time.Time { return fixed })), nil)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/tours", "", "", nil).Code)
	}
	w := s.do(t, http.MethodGet, "/api/tours", "", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/healthz", "", "", nil).Code)
}
