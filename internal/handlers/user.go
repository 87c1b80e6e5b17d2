package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/social-platform/social-platform/internal/config"
	"github.com/social-platform/social-platform/internal/middleware"
	"github.com/social-platform/social-platform/internal/services"
)

type UserHandler struct {
	userService *services.UserService
	pagination  config.PaginationConfig
}

func NewUserHandler(userService *services.UserService, pagination config.PaginationConfig) *UserHandler {
	return &UserHandler{
		userService: userService,
		pagination:  pagination,
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.userService.Authenticate(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "Bearer"})
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.Update(c.Request.Context(), middleware.GetUsername(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.userService.Delete(c.Request.Context(), middleware.GetUsername(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Follow(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	following, err := h.userService.Follow(c.Request.Context(), middleware.GetUsername(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, following)
}

func (h *UserHandler) GetFollowers(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	followers, err := h.userService.GetFollowers(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, followers)
}

func (h *UserHandler) GetFollowing(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	following, err := h.userService.GetFollowing(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, following)
}

func (h *UserHandler) Search(c *gin.Context) {
	page, size := pageParams(c, h.pagination.SearchPageSize)
	keyword := c.Query("keyword")

	users, meta, err := h.userService.Search(c.Request.Context(), page, size, keyword)
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]services.UserSummary, 0, len(users))
	for _, u := range users {
		views = append(views, services.NewUserSummary(u))
	}

	c.JSON(http.StatusOK, gin.H{
		"users":       views,
		"currentPage": meta.CurrentPage,
		"totalItems":  meta.TotalItems,
		"totalPages":  meta.TotalPages,
	})
}
