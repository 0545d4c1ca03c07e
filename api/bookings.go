package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/localink/localink/internal/domain"
	"github.com/localink/localink/internal/service/booking"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	TourID string `json:"tourId"`
	Date   string `json:"date"`
}

type updateBookingRequest struct {
	Status string `json:"status"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.list)
	router.PATCH("/:id", h.updateStatus)
}

func (h *BookingHandler) create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if actor.Role != domain.RoleTourist {
		respondError(c, fmt.Errorf("%w: only tourists can book tours", domain.ErrForbidden))
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		TourID:    req.TourID,
		TouristID: actor.ID,
		Date:      req.Date,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newBookingResponse(*created))
}

func (h *BookingHandler) list(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	list, err := h.service.ListBookings(c.Request.Context(), booking.ListInput{
		Actor:     actor,
		TourID:    c.Query("tourId"),
		TouristID: c.Query("touristId"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]bookingResponse, 0, len(list))
	for _, b := range list {
		out = append(out, newBookingResponse(b))
	}
	c.JSON(http.StatusOK, out)
}

func (h *BookingHandler) updateStatus(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req updateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	updated, err := h.service.TransitionStatus(c.Request.Context(), booking.TransitionInput{
		BookingID: c.Param("id"),
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Status:    domain.BookingStatus(req.Status),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBookingResponse(*updated))
}
