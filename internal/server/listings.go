package server

import (
	"net/http"

	"github.com/rehna-jp/Louer/internal/auth"
	"github.com/rehna-jp/Louer/internal/models"
	"github.com/rehna-jp/Louer/internal/service"

	"github.com/gin-gonic/gin"
)

type listingRequest struct {
	Title             string               `json:"title" binding:"required,min=3,max=150"`
	Description       string               `json:"description" binding:"max=5000"`
	LocationCity      string               `json:"location_city" binding:"max=100"`
	LocationArea      string               `json:"location_area" binding:"max=100"`
	Latitude          *float64             `json:"latitude" binding:"omitempty,gte=-90,lte=90"`
	Longitude         *float64             `json:"longitude" binding:"omitempty,gte=-180,lte=180"`
	PriceMonthlyCents int64                `json:"price_monthly_cents" binding:"required,gt=0"`
	Currency          string               `json:"currency" binding:"omitempty,len=3,alpha"`
	Type              models.ListingType   `json:"type" binding:"required,oneof=room apartment hostel studio"`
	Status            models.ListingStatus `json:"status" binding:"omitempty,oneof=active occupied inactive draft"`
	Images            []string             `json:"images" binding:"max=10,dive,required,url,max=2048"`
}

type listingPatchRequest struct {
	Title             *string               `json:"title" binding:"omitempty,min=3,max=150"`
	Description       *string               `json:"description" binding:"omitempty,max=5000"`
	LocationCity      *string               `json:"location_city" binding:"omitempty,max=100"`
	LocationArea      *string               `json:"location_area" binding:"omitempty,max=100"`
	Latitude          *float64              `json:"latitude" binding:"omitempty,gte=-90,lte=90"`
	Longitude         *float64              `json:"longitude" binding:"omitempty,gte=-180,lte=180"`
	PriceMonthlyCents *int64                `json:"price_monthly_cents" binding:"omitempty,gt=0"`
	Currency          *string               `json:"currency" binding:"omitempty,len=3,alpha"`
	Type              *models.ListingType   `json:"type" binding:"omitempty,oneof=room apartment hostel studio"`
	Status            *models.ListingStatus `json:"status" binding:"omitempty,oneof=active occupied inactive draft"`
	Images            *[]string             `json:"images" binding:"omitempty,max=10,dive,required,url,max=2048"`
}

type listingQuery struct {
	pageQuery
	Status     models.ListingStatus `form:"status" binding:"omitempty,oneof=active occupied inactive draft"`
	Type       models.ListingType   `form:"type" binding:"omitempty,oneof=room apartment hostel studio"`
	City       string               `form:"city" binding:"max=100"`
	LandlordID uint                 `form:"landlord_id"`
	Q          string               `form:"q" binding:"max=200"`
	Order      string               `form:"order" binding:"omitempty,oneof=newest price_asc price_desc"`
}

func (h *Handler) CreateListing(c *gin.Context) {
	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	listing, err := h.listings.Create(c.Request.Context(), auth.GetPrincipal(c), service.ListingInput{
		Title:             req.Title,
		Description:       req.Description,
		LocationCity:      req.LocationCity,
		LocationArea:      req.LocationArea,
		Latitude:          req.Latitude,
		Longitude:         req.Longitude,
		PriceMonthlyCents: req.PriceMonthlyCents,
		Currency:          req.Currency,
		Type:              req.Type,
		Status:            req.Status,
		Images:            req.Images,
	})
	if err != nil {
		respondError(c, "create listing", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"listing": listing})
}

func (h *Handler) ListListings(c *gin.Context) {
	var q listingQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.listings.List(c.Request.Context(), service.ListingFilter{
		Status:     q.Status,
		Type:       q.Type,
		City:       q.City,
		LandlordID: q.LandlordID,
		Q:          q.Q,
		Order:      q.Order,
	}, q.page())
	if err != nil {
		respondError(c, "list listings", err)
		return
	}
	writePage(c, "listings", res)
}

func (h *Handler) GetListing(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	listing, err := h.listings.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, "get listing", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listing": listing})
}

func (h *Handler) UpdateListing(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req listingPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	listing, err := h.listings.Update(c.Request.Context(), auth.GetPrincipal(c), id, service.ListingPatch{
		Title:             req.Title,
		Description:       req.Description,
		LocationCity:      req.LocationCity,
		LocationArea:      req.LocationArea,
		Latitude:          req.Latitude,
		Longitude:         req.Longitude,
		PriceMonthlyCents: req.PriceMonthlyCents,
		Currency:          req.Currency,
		Type:              req.Type,
		Status:            req.Status,
		Images:            req.Images,
	})
	if err != nil {
		respondError(c, "update listing", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listing": listing})
}

func (h *Handler) DeleteListing(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.listings.Delete(c.Request.Context(), auth.GetPrincipal(c), id); err != nil {
		respondError(c, "delete listing", err)
		return
	}
	c.Status(http.StatusNoContent)
}
