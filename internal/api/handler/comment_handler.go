package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/sanity-adjacent/internal/api/middleware"
	"github.com/d60-Lab/sanity-adjacent/pkg/response"
)

type addCommentRequest struct {
	PostID  string `json:"postId" binding:"required"`
	Content string `json:"content" binding:"required,notblank,max=2000"`
}

// AddComment 发表评论
// @Summary 发表评论
// @Tags 评论
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body addCommentRequest true "评论"
// @Success 201 {object} response.Response{data=model.Comment}
// @Failure 404 {object} response.Response
// @Router /api/v1/comment.add [post]
func (h *Handler) AddComment(c *gin.Context) {
	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	cm, err := h.commentService.Add(c.Request.Context(), middleware.CurrentUserID(c), req.PostID, req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cm)
}
