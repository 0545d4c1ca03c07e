package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/localink/localink/internal/domain"
	"github.com/localink/localink/internal/service/reviews"
)

type ReviewHandler struct {
	service reviews.ReviewUseCase
}

func NewReviewHandler(service reviews.ReviewUseCase) *ReviewHandler {
	return &ReviewHandler{service: service}
}

func (h *ReviewHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.list)
}

func (h *ReviewHandler) create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req reviews.CreateReviewInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	review, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newReviewResponse(*review))
}

func (h *ReviewHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context(), domain.ReviewFilter{
		TourID:  c.Query("tourId"),
		GuideID: c.Query("guideId"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]reviewResponse, 0, len(list))
	for _, r := range list {
		out = append(out, newReviewResponse(r))
	}
	c.JSON(http.StatusOK, out)
}
