package server

import (
	"net/http"

	"github.com/rehna-jp/Louer/internal/auth"

	"github.com/gin-gonic/gin"
)

func (h *Handler) AddFavorite(c *gin.Context) {
	var req struct {
		ListingID uint `json:"listing_id" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	fav, err := h.favorites.Add(c.Request.Context(), auth.GetPrincipal(c), req.ListingID)
	if err != nil {
		respondError(c, "add favorite", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"favorite": fav})
}

func (h *Handler) ListFavorites(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.favorites.List(c.Request.Context(), auth.GetPrincipal(c), q.page())
	if err != nil {
		respondError(c, "list favorites", err)
		return
	}
	writePage(c, "favorites", res)
}

func (h *Handler) RemoveFavorite(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.favorites.Remove(c.Request.Context(), auth.GetPrincipal(c), id); err != nil {
		respondError(c, "remove favorite", err)
		return
	}
	c.Status(http.StatusNoContent)
}
