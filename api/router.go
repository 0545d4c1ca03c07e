package api

import "github.com/gin-gonic/gin"

type Handlers struct {
	Tours    *TourHandler
	Bookings *BookingHandler
	Reviews  *ReviewHandler
	Messages *MessageHandler
	Profile  *ProfileHandler
}

// Register mounts every resource under group, normally /api.
func (h Handlers) Register(group *gin.RouterGroup) {
	h.Tours.Register(group.Group("/tours"))
	h.Bookings.Register(group.Group("/bookings"))
	h.Reviews.Register(group.Group("/reviews"))
	h.Messages.Register(group.Group("/messages"))
	h.Profile.Register(group.Group("/profile"))
}
