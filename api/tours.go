package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/localink/localink/internal/domain"
	"github.com/localink/localink/internal/service/tours"
)

type TourHandler struct {
	service tours.TourUseCase
}

func NewTourHandler(service tours.TourUseCase) *TourHandler {
	return &TourHandler{service: service}
}

func (h *TourHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.POST("", h.create)
	router.GET("/:id", h.get)
	router.PUT("/:id", h.update)
	router.DELETE("/:id", h.delete)
}

// list shows a guide their own tours and everyone else the full catalog.
func (h *TourHandler) list(c *gin.Context) {
	filter := domain.TourFilter{Location: c.Query("location")}
	if actor, ok := actorFrom(c); ok && actor.Role == domain.RoleGuide {
		filter.GuideID = actor.ID
	}

	list, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]tourResponse, 0, len(list))
	for _, t := range list {
		out = append(out, newTourResponse(t))
	}
	c.JSON(http.StatusOK, out)
}

func (h *TourHandler) get(c *gin.Context) {
	details, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTourDetailsResponse(details))
}

func (h *TourHandler) create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req tours.TourInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	tour, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newTourResponse(*tour))
}

func (h *TourHandler) update(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req tours.TourInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	tour, err := h.service.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTourResponse(*tour))
}

func (h *TourHandler) delete(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
