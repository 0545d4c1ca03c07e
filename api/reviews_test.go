package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/localink/localink/internal/domain"
	"github.com/localink/localink/internal/service/reviews"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockReviewUseCase struct {
	mock.Mock
}

func (m *MockReviewUseCase) Create(ctx context.Context, actor domain.Actor, input reviews.CreateReviewInput) (*domain.Review, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *MockReviewUseCase) List(ctx context.Context, filter domain.ReviewFilter) ([]domain.Review, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

func TestReviewHandler_create(t *testing.T) {
	mockService := &MockReviewUseCase{}
	handler := NewReviewHandler(mockService)
	input := reviews.CreateReviewInput{TourID: "tour-1", Rating: 5, Comment: "Great"}
	c, w := newTestContext(http.MethodPost, "/api/reviews", input, &touristActor)

	mockService.On("Create", c.Request.Context(), touristActor, input).
		Return(&domain.Review{ID: "r-1", TourID: "tour-1", AuthorID: touristActor.ID, Rating: 5, Comment: "Great"}, nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var response reviewResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 5, response.Rating)
}

func TestReviewHandler_create_Duplicate(t *testing.T) {
	mockService := &MockReviewUseCase{}
	handler := NewReviewHandler(mockService)
	c, w := newTestContext(http.MethodPost, "/api/reviews", reviews.CreateReviewInput{TourID: "tour-1", Rating: 5, Comment: "Again"}, &touristActor)
	mockService.On("Create", mock.Anything, touristActor, mock.Anything).Return(nil, fmt.Errorf("%w: already reviewed", domain.ErrConflict))

	handler.create(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestReviewHandler_list(t *testing.T) {
	mockService := &MockReviewUseCase{}
	handler := NewReviewHandler(mockService)
	c, w := newTestContext(http.MethodGet, "/api/reviews?guideId=guide-1", nil, nil)
	mockService.On("List", c.Request.Context(), domain.ReviewFilter{GuideID: "guide-1"}).
		Return([]domain.Review{{ID: "r-1", TourTitle: "Old Town Walk"}}, nil)

	handler.list(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var response []reviewResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response, 1)
	assert.Equal(t, "Old Town Walk", response[0].TourTitle)
}
