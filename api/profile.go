package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/localink/localink/internal/service/profiles"
)

type ProfileHandler struct {
	service profiles.ProfileUseCase
}

func NewProfileHandler(service profiles.ProfileUseCase) *ProfileHandler {
	return &ProfileHandler{service: service}
}

func (h *ProfileHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.get)
	router.PUT("", h.update)
}

func (h *ProfileHandler) get(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	user, err := h.service.Get(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

func (h *ProfileHandler) update(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req profiles.UpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	user, err := h.service.Update(c.Request.Context(), actor.ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}
