package messages

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/localink/localink/internal/domain"
	"github.com/localink/localink/internal/ratelimit"
	"github.com/localink/localink/internal/repository/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLimiter struct {
	mock.Mock
}

func (m *MockLimiter) Allow(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

const (
	guideID   = "guide-1"
	touristID = "tourist-1"
	bookingID = "4d1e3a0a-34d5-4b7b-9d4e-7e7f2f7c1a10"
)

var (
	guide   = domain.Actor{ID: guideID, Role: domain.RoleGuide}
	tourist = domain.Actor{ID: touristID, Role: domain.RoleTourist}
)

func newStore() *repotest.Store {
	store := repotest.NewStore()
	store.AddUser(domain.User{ID: guideID, Name: "Gina", Role: domain.RoleGuide})
	store.AddUser(domain.User{ID: touristID, Name: "Ann", Role: domain.RoleTourist})
	store.AddUser(domain.User{ID: "stranger", Name: "Sam", Role: domain.RoleTourist})
	store.AddTour(domain.Tour{ID: "tour-1", GuideID: guideID, Title: "Old Town Walk", MaxGroupSize: 4})
	store.AddBooking(domain.Booking{ID: bookingID, TourID: "tour-1", TouristID: touristID,
		Date: time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), Status: domain.BookingStatusConfirmed})
	return store
}

func newService(store *repotest.Store, limiter RateLimiter) *MessageService {
	repos := store.Repositories()
	return NewMessageService(repos.Bookings, repos.Messages, limiter, nil)
}

func TestMessageService_Send(t *testing.T) {
	store := newStore()
	limiter := &MockLimiter{}
	limiter.On("Allow", mock.Anything, touristID+":"+bookingID).Return(true, nil).Once()

	msg, err := newService(store, limiter).Send(context.Background(), tourist, SendInput{BookingID: bookingID, Content: "  See you at 9? "})

	require.NoError(t, err)
	assert.Equal(t, "See you at 9?", msg.Content)
	assert.Equal(t, "Ann", msg.SenderName)
	assert.Len(t, store.Messages(), 1)
	limiter.AssertExpectations(t)
}

func TestMessageService_Send_StripsMarkup(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "tags", input: "<b>Hello</b> <i>there</i>", want: "Hello there"},
		{name: "script", input: "hi<script>alert(1)</script>", want: "hi"},
		{name: "entities survive", input: "fish & chips < 10€", want: "fish & chips < 10€"},
		{name: "quotes", input: `he said "meet at the 'gate'"`, want: `he said "meet at the 'gate'"`},
		{name: "entity-encoded tag", input: "&lt;img src=x onerror=alert(1)&gt;hi", want: "hi"},
		{name: "entity-encoded script", input: "&lt;script&gt;alert(1)&lt;/script&gt;ok", want: "ok"},
		{name: "double-encoded tag", input: "&amp;lt;b&amp;gt;bold&amp;lt;/b&amp;gt;", want: "bold"},
		{name: "encoded text stays text", input: "5 &lt; 10 &amp; 3 &gt; 1", want: "5 < 10 & 3 > 1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := newService(newStore(), nil).Send(context.Background(), guide, SendInput{BookingID: bookingID, Content: tc.input})
			require.NoError(t, err)
			assert.Equal(t, tc.want, msg.Content)
		})
	}
}

func TestMessageService_Send_StoresNoMarkup(t *testing.T) {
	store := newStore()
	inputs := []string{
		"&lt;img src=x onerror=alert(1)&gt;hi",
		"&#60;a href=javascript:alert(1)&#62;x&#60;/a&#62;",
		"&amp;amp;lt;iframe src=x&amp;amp;gt;deep",
	}

	for _, input := range inputs {
		_, err := newService(store, nil).Send(context.Background(), tourist, SendInput{BookingID: bookingID, Content: input})
		require.NoError(t, err)
	}

	require.Len(t, store.Messages(), len(inputs))
	for _, msg := range store.Messages() {
		assert.NotRegexp(t, `<[a-zA-Z/!]`, msg.Content)
	}
}

func TestMessageService_Send_Validation(t *testing.T) {
	testCases := []struct {
		name  string
		input SendInput
	}{
		{name: "empty", input: SendInput{BookingID: bookingID}},
		{name: "only markup", input: SendInput{BookingID: bookingID, Content: "<p> </p>"}},
		{name: "only encoded markup", input: SendInput{BookingID: bookingID, Content: "&lt;br&gt;"}},
		{name: "too long", input: SendInput{BookingID: bookingID, Content: string(make([]byte, 1001))}},
		{name: "bad booking id", input: SendInput{BookingID: "123", Content: "hi"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := newStore()
			_, err := newService(store, nil).Send(context.Background(), tourist, tc.input)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Empty(t, store.Messages())
		})
	}
}

func TestMessageService_Send_NonParticipant(t *testing.T) {
	store := newStore()
	limiter := &MockLimiter{}

	_, err := newService(store, limiter).Send(context.Background(), domain.Actor{ID: "stranger", Role: domain.RoleTourist},
		SendInput{BookingID: bookingID, Content: "hello"})

	assert.ErrorIs(t, err, domain.ErrForbidden)
	limiter.AssertNotCalled(t, "Allow", mock.Anything, mock.Anything)
}

func TestMessageService_Send_UnknownBooking(t *testing.T) {
	_, err := newService(newStore(), nil).Send(context.Background(), tourist,
		SendInput{BookingID: "00000000-0000-4000-8000-000000000000", Content: "hello"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMessageService_Send_RateLimited(t *testing.T) {
	store := newStore()
	mem := ratelimit.NewMemoryStore(time.Minute)
	defer mem.Stop()
	now := time.Date(2026, 10, 19, 12, 0, 30, 0, time.UTC)
	limiter := ratelimit.New(mem, "messages", 10, time.Minute, ratelimit.WithClock(func() time.Time { return now }))
	service := newService(store, limiter)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := service.Send(ctx, tourist, SendInput{BookingID: bookingID, Content: fmt.Sprintf("message %d", i)})
		require.NoError(t, err)
	}

	_, err := service.Send(ctx, tourist, SendInput{BookingID: bookingID, Content: "one too many"})
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Len(t, store.Messages(), 10)

	// The guide has a separate budget.
	_, err = service.Send(ctx, guide, SendInput{BookingID: bookingID, Content: "ok"})
	assert.NoError(t, err)
}

func TestMessageService_Send_LimiterErrorFailsOpen(t *testing.T) {
	limiter := &MockLimiter{}
	limiter.On("Allow", mock.Anything, mock.Anything).Return(false, errors.New("redis down"))

	_, err := newService(newStore(), limiter).Send(context.Background(), tourist, SendInput{BookingID: bookingID, Content: "hello"})

	assert.NoError(t, err)
}

func TestMessageService_List_Pagination(t *testing.T) {
	store := newStore()
	for i := 0; i < 5; i++ {
		store.AddMessage(domain.Message{ID: fmt.Sprintf("m%d", i), BookingID: bookingID, SenderID: touristID, Content: fmt.Sprintf("msg %d", i)})
	}
	service := newService(store, nil)
	ctx := context.Background()

	first, err := service.List(ctx, guide, ListInput{BookingID: bookingID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Messages, 2)
	assert.Equal(t, "m3", first.Messages[0].ID)
	assert.Equal(t, "m4", first.Messages[1].ID)
	assert.True(t, first.HasMore)
	require.NotNil(t, first.NextBefore)
	assert.Equal(t, first.Messages[0].CreatedAt, *first.NextBefore)

	second, err := service.List(ctx, guide, ListInput{BookingID: bookingID, Limit: 2, Before: *first.NextBefore})
	require.NoError(t, err)
	require.Len(t, second.Messages, 2)
	assert.Equal(t, "m1", second.Messages[0].ID)
	assert.True(t, second.HasMore)

	last, err := service.List(ctx, guide, ListInput{BookingID: bookingID, Limit: 2, Before: *second.NextBefore})
	require.NoError(t, err)
	require.Len(t, last.Messages, 1)
	assert.Equal(t, "m0", last.Messages[0].ID)
	assert.False(t, last.HasMore)
	assert.Nil(t, last.NextBefore)
}

func TestMessageService_List_LimitClamp(t *testing.T) {
	store := newStore()
	for i := 0; i < 60; i++ {
		store.AddMessage(domain.Message{ID: fmt.Sprintf("m%02d", i), BookingID: bookingID, SenderID: guideID, Content: "x"})
	}
	service := newService(store, nil)

	for _, limit := range []int{0, -3, 500} {
		page, err := service.List(context.Background(), tourist, ListInput{BookingID: bookingID, Limit: limit})
		require.NoError(t, err)
		assert.Len(t, page.Messages, DefaultPageSize)
		assert.True(t, page.HasMore)
		assert.Equal(t, "m59", page.Messages[len(page.Messages)-1].ID)
	}
}

func TestMessageService_List_NonParticipant(t *testing.T) {
	_, err := newService(newStore(), nil).List(context.Background(), domain.Actor{ID: "stranger", Role: domain.RoleTourist}, ListInput{BookingID: bookingID})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
