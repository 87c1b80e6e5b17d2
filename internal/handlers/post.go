package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/social-platform/social-platform/internal/config"
	"github.com/social-platform/social-platform/internal/middleware"
	"github.com/social-platform/social-platform/internal/services"
)

type PostHandler struct {
	postService *services.PostService
	pagination  config.PaginationConfig
}

func NewPostHandler(postService *services.PostService, pagination config.PaginationConfig) *PostHandler {
	return &PostHandler{
		postService: postService,
		pagination:  pagination,
	}
}

func (h *PostHandler) CreatePost(c *gin.Context) {
	var req services.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.postService.CreatePost(c.Request.Context(), middleware.GetUsername(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) GetPost(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	post, err := h.postService.GetPost(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

func (h *PostHandler) ListPosts(c *gin.Context) {
	page, size := pageParams(c, h.pagination.ListPageSize)
	keyword := c.Query("keyword")

	posts, meta, err := h.postService.ListPosts(c.Request.Context(), page, size, keyword)
	if err != nil {
		respondError(c, err)
		return
	}
	if posts == nil {
		posts = []services.PostView{}
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":       posts,
		"currentPage": meta.CurrentPage,
		"totalItems":  meta.TotalItems,
		"totalPages":  meta.TotalPages,
	})
}

func (h *PostHandler) SearchPosts(c *gin.Context) {
	page, size := pageParams(c, h.pagination.SearchPageSize)
	keyword := c.Query("keyword")

	posts, meta, err := h.postService.SearchPosts(c.Request.Context(), page, size, keyword)
	if err != nil {
		respondError(c, err)
		return
	}
	if posts == nil {
		posts = []services.PostView{}
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":       posts,
		"currentPage": meta.CurrentPage,
		"totalItems":  meta.TotalItems,
		"totalPages":  meta.TotalPages,
	})
}

func (h *PostHandler) UpdatePost(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.postService.UpdatePost(c.Request.Context(), middleware.GetUsername(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

func (h *PostHandler) DeletePost(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.postService.DeletePost(c.Request.Context(), middleware.GetUsername(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *PostHandler) ListPostsByUser(c *gin.Context) {
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}

	posts, err := h.postService.ListPostsByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, posts)
}

func (h *PostHandler) AddComment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.postService.AddComment(c.Request.Context(), middleware.GetUsername(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

func (h *PostHandler) LikePost(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	post, err := h.postService.LikePost(c.Request.Context(), middleware.GetUsername(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}
