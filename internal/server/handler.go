package server

import (
	"net/http"
	"strconv"

	"github.com/rehna-jp/Louer/internal/auth"
	"github.com/rehna-jp/Louer/internal/models"
	"github.com/rehna-jp/Louer/internal/service"

	"github.com/gin-gonic/gin"
)

// Handler groups the HTTP handlers. It only binds input and maps errors; all
// rules live in the services.
type Handler struct {
	users     *service.UserService
	listings  *service.ListingService
	bookings  *service.BookingService
	favorites *service.FavoriteService
	threads   *service.ThreadService
}

func NewHandler(users *service.UserService, listings *service.ListingService, bookings *service.BookingService,
	favorites *service.FavoriteService, threads *service.ThreadService) *Handler {
	return &Handler{users: users, listings: listings, bookings: bookings, favorites: favorites, threads: threads}
}

type pageQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

func (q pageQuery) page() service.Page { return service.Page{Page: q.Page, Limit: q.Limit} }

// idParam parses a positive path id and writes a 400 when it is not one.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func writePage[T any](c *gin.Context, key string, res *service.PageResult[T]) {
	c.JSON(http.StatusOK, gin.H{
		"page":  res.Page,
		"limit": res.Limit,
		"total": res.Total,
		key:     res.Items,
	})
}

type registerRequest struct {
	Email    string      `json:"email" binding:"required,email,max=254"`
	Password string      `json:"password" binding:"required,min=8,max=72"`
	Name     string      `json:"name" binding:"max=100"`
	Phone    string      `json:"phone" binding:"max=30"`
	Role     models.Role `json:"role" binding:"omitempty,oneof=tenant landlord"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.users.Register(c.Request.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
		Role:     req.Role,
	})
	if err != nil {
		respondError(c, "register", err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, "login", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.users.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, "refresh token", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Me(c *gin.Context) {
	user, err := h.users.Me(c.Request.Context(), auth.GetPrincipal(c))
	if err != nil {
		respondError(c, "me", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
