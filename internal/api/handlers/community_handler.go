package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sushil-kumar-saw/mitra-farm/internal/config"
	"github.com/sushil-kumar-saw/mitra-farm/internal/services"
)

// CommunityHandler serves the question-and-answer forum.
type CommunityHandler struct {
	cfg              *config.Config
	communityService services.ICommunityService
}

// NewCommunityHandler creates a new CommunityHandler.
func NewCommunityHandler(cfg *config.Config, communityService services.ICommunityService) *CommunityHandler {
	return &CommunityHandler{cfg: cfg, communityService: communityService}
}

// ListPosts handles GET /api/community
func (h *CommunityHandler) ListPosts(c *gin.Context) {
	posts, err := h.communityService.ListPosts(c.Request.Context())
	if err != nil {
		respondError(c, h.cfg, err, "Failed to load posts", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "posts": posts})
}

type postRequest struct {
	Question string `json:"question"`
}

// CreatePost handles POST /api/community
func (h *CommunityHandler) CreatePost(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req postRequest
	_ = c.ShouldBindJSON(&req)
	post, err := h.communityService.CreatePost(c.Request.Context(), userID, req.Question)
	if err != nil {
		respondError(c, h.cfg, err, "Failed to create post", nil)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "post": post})
}

type communityReplyRequest struct {
	Content string `json:"content"`
}

// AddReply handles POST /api/community/:postId/replies
func (h *CommunityHandler) AddReply(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	postID, ok := pathID(c, "postId", "post ID")
	if !ok {
		return
	}
	var req communityReplyRequest
	_ = c.ShouldBindJSON(&req)
	post, err := h.communityService.AddReply(c.Request.Context(), userID, postID, req.Content)
	if err != nil {
		respondError(c, h.cfg, err, "Failed to add reply", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "post": post})
}

// DeletePost handles DELETE /api/community/:postId
func (h *CommunityHandler) DeletePost(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	postID, ok := pathID(c, "postId", "post ID")
	if !ok {
		return
	}
	if err := h.communityService.DeletePost(c.Request.Context(), userID, postID); err != nil {
		respondError(c, h.cfg, err, "Failed to delete post", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Post deleted"})
}

// DeleteReply handles DELETE /api/community/:postId/replies/:replyId
func (h *CommunityHandler) DeleteReply(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	postID, ok := pathID(c, "postId", "post ID")
	if !ok {
		return
	}
	replyID, ok := pathID(c, "replyId", "reply ID")
	if !ok {
		return
	}
	if err := h.communityService.DeleteReply(c.Request.Context(), userID, postID, replyID); err != nil {
		respondError(c, h.cfg, err, "Failed to delete reply", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Reply deleted"})
}
