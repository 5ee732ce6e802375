package server

import (
	"net/http"

	"github.com/rehna-jp/Louer/internal/auth"
	"github.com/rehna-jp/Louer/internal/service"

	"github.com/gin-gonic/gin"
)

type threadQuery struct {
	pageQuery
	ListingID uint `form:"listing_id"`
}

// CreateThread answers 201 for a new thread and 200 with existed=true when
// the (listing, tenant) pair already had one.
func (h *Handler) CreateThread(c *gin.Context) {
	var req struct {
		ListingID uint  `json:"listing_id" binding:"required,min=1"`
		TenantID  *uint `json:"tenant_id" binding:"omitempty,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	thread, existed, err := h.threads.CreateOrGet(c.Request.Context(), auth.GetPrincipal(c),
		service.ThreadInput{ListingID: req.ListingID, TenantID: req.TenantID})
	if err != nil {
		respondError(c, "create thread", err)
		return
	}
	if existed {
		c.JSON(http.StatusOK, gin.H{"thread": thread, "existed": true})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"thread": thread})
}

func (h *Handler) ListThreads(c *gin.Context) {
	var q threadQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.threads.ListThreads(c.Request.Context(), auth.GetPrincipal(c), q.ListingID, q.page())
	if err != nil {
		respondError(c, "list threads", err)
		return
	}
	writePage(c, "threads", res)
}

func (h *Handler) GetThread(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	thread, err := h.threads.Get(c.Request.Context(), auth.GetPrincipal(c), id)
	if err != nil {
		respondError(c, "get thread", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"thread": thread})
}

func (h *Handler) SendMessage(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content" binding:"required,max=5000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	msg, err := h.threads.SendMessage(c.Request.Context(), auth.GetPrincipal(c), id, req.Content)
	if err != nil {
		respondError(c, "send message", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

func (h *Handler) ListMessages(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.threads.ListMessages(c.Request.Context(), auth.GetPrincipal(c), id, q.page())
	if err != nil {
		respondError(c, "list messages", err)
		return
	}
	writePage(c, "messages", res)
}

func (h *Handler) MarkThreadRead(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	n, err := h.threads.MarkRead(c.Request.Context(), auth.GetPrincipal(c), id)
	if err != nil {
		respondError(c, "mark thread read", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}
