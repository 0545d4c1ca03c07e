package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/localink/localink/internal/service/messages"
)

type MessageHandler struct {
	service messages.MessageUseCase
}

func NewMessageHandler(service messages.MessageUseCase) *MessageHandler {
	return &MessageHandler{service: service}
}

func (h *MessageHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.send)
	router.GET("/:bookingId", h.list)
}

func (h *MessageHandler) send(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req messages.SendInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	msg, err := h.service.Send(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newMessageResponse(*msg))
}

func (h *MessageHandler) list(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	input := messages.ListInput{BookingID: c.Param("bookingId")}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			respondBadRequest(c, "limit must be a number")
			return
		}
		input.Limit = limit
	}
	if raw := c.Query("before"); raw != "" {
		before, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			respondBadRequest(c, "before must be an RFC 3339 timestamp")
			return
		}
		input.Before = before
	}

	page, err := h.service.List(c.Request.Context(), actor, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newMessagePageResponse(page))
}
