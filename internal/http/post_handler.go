package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"plog/internal/service"
)

// PostHandler expone los endpoints de posts.
type PostHandler struct {
	logger   *zap.Logger
	postServ *service.PostService
}

func NewPostHandler(logger *zap.Logger, postServ *service.PostService) *PostHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostHandler{logger: logger, postServ: postServ}
}

type postRequest struct {
	Title   string `json:"title" binding:"required,min=3,max=255"`
	Content string `json:"content" binding:"required"`
}

// ListPosts maneja GET /posts?limit&offset.
func (h *PostHandler) ListPosts(c *gin.Context) {
	var query struct {
		Limit  int `form:"limit,default=10" binding:"min=1,max=100"`
		Offset int `form:"offset,default=0" binding:"min=0"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pagination"})
		return
	}

	posts, err := h.postServ.List(c.Request.Context(), query.Limit, query.Offset)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPaginator) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pagination"})
			return
		}
		h.logger.Error("list posts failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch posts"})
		return
	}
	c.JSON(http.StatusOK, posts)
}

// GetPost maneja GET /posts/:id.
func (h *PostHandler) GetPost(c *gin.Context) {
	id, ok := parsePostID(c)
	if !ok {
		return
	}

	post, err := h.postServ.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "get post failed", err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// MyPosts maneja GET /my-posts.
func (h *PostHandler) MyPosts(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	posts, err := h.postServ.ListByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("list my posts failed", zap.Error(err), zap.Int64("user_id", claims.UserID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch posts"})
		return
	}
	c.JSON(http.StatusOK, posts)
}

// CreatePost maneja POST /posts.
func (h *PostHandler) CreatePost(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create post request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	post, err := h.postServ.Create(c.Request.Context(), claims.UserID, claims.Username, req.Title, req.Content)
	if err != nil {
		h.writeError(c, "create post failed", err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// UpdatePost maneja PUT /posts/:id.
func (h *PostHandler) UpdatePost(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	id, ok := parsePostID(c)
	if !ok {
		return
	}
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid update post request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	post, err := h.postServ.Update(c.Request.Context(), claims.UserID, id, req.Title, req.Content)
	if err != nil {
		h.writeError(c, "update post failed", err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *PostHandler) writeError(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, service.ErrPostNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
	case errors.Is(err, service.ErrNotPostOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "not allowed to edit this post"})
	case errors.Is(err, service.ErrInvalidTitle), errors.Is(err, service.ErrInvalidContent):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parsePostID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return 0, false
	}
	return id, true
}
