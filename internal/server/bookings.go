package server

import (
	"net/http"
	"time"

	"github.com/rehna-jp/Louer/internal/auth"
	"github.com/rehna-jp/Louer/internal/models"
	"github.com/rehna-jp/Louer/internal/service"

	"github.com/gin-gonic/gin"
)

type bookingRequest struct {
	ListingID  uint   `json:"listing_id" binding:"required,min=1"`
	MoveInDate string `json:"move_in_date" binding:"required,datetime=2006-01-02"`
	Months     *int   `json:"months" binding:"omitempty,min=1,max=36"`
}

type bookingPatchRequest struct {
	Status     *models.BookingStatus `json:"status" binding:"omitempty,oneof=pending confirmed cancelled"`
	MoveInDate *string               `json:"move_in_date" binding:"omitempty,datetime=2006-01-02"`
	Months     *int                  `json:"months" binding:"omitempty,min=1,max=36"`
}

type bookingQuery struct {
	pageQuery
	Status    models.BookingStatus `form:"status" binding:"omitempty,oneof=pending confirmed cancelled"`
	ListingID uint                 `form:"listing_id"`
}

func (h *Handler) CreateBooking(c *gin.Context) {
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	moveIn, err := time.Parse(service.DateLayout, req.MoveInDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "move_in_date must match " + service.DateLayout})
		return
	}
	booking, err := h.bookings.Create(c.Request.Context(), auth.GetPrincipal(c), service.BookingInput{
		ListingID:  req.ListingID,
		MoveInDate: moveIn,
		Months:     req.Months,
	})
	if err != nil {
		respondError(c, "create booking", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": booking})
}

func (h *Handler) ListBookings(c *gin.Context) {
	var q bookingQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.bookings.List(c.Request.Context(), auth.GetPrincipal(c),
		service.BookingFilter{Status: q.Status, ListingID: q.ListingID}, q.page())
	if err != nil {
		respondError(c, "list bookings", err)
		return
	}
	writePage(c, "bookings", res)
}

func (h *Handler) GetBooking(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	booking, err := h.bookings.Get(c.Request.Context(), auth.GetPrincipal(c), id)
	if err != nil {
		respondError(c, "get booking", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

func (h *Handler) UpdateBooking(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req bookingPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	patch := service.BookingPatch{Status: req.Status, Months: req.Months}
	if req.MoveInDate != nil {
		d, err := time.Parse(service.DateLayout, *req.MoveInDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "move_in_date must match " + service.DateLayout})
			return
		}
		patch.MoveInDate = &d
	}
	booking, err := h.bookings.Update(c.Request.Context(), auth.GetPrincipal(c), id, patch)
	if err != nil {
		respondError(c, "update booking", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}
