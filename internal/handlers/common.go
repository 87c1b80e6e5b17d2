package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/social-platform/social-platform/internal/apperr"
)

func respondError(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		respondError(c, apperr.InvalidArgument("invalid id"))
		return uuid.Nil, false
	}
	return id, true
}

// pageParams reads the zero-based page index and page size query parameters,
// falling back to the given default size.
func pageParams(c *gin.Context, defaultSize int) (int, int) {
	page := 0
	if p := c.Query("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed >= 0 {
			page = parsed
		}
	}

	size := defaultSize
	if s := c.Query("size"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil && parsed > 0 && parsed <= 100 {
			size = parsed
		}
	}
	return page, size
}
