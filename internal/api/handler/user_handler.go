package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/sanity-adjacent/internal/api/middleware"
	"github.com/d60-Lab/sanity-adjacent/pkg/response"
)

type updateNameRequest struct {
	Name string `json:"name" binding:"required,notblank,max=100"`
}

type updatePfpRequest struct {
	Image string `json:"image" binding:"required,url"`
}

// Me 当前用户
// @Summary 当前用户及已点赞帖子
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=service.Profile}
// @Failure 401 {object} response.Response
// @Router /api/v1/user.me [get]
func (h *Handler) Me(c *gin.Context) {
	p, err := h.userService.Me(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, p)
}

// UpdateName 修改昵称
// @Summary 修改昵称
// @Tags 用户
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body updateNameRequest true "昵称"
// @Success 200 {object} response.Response{data=model.User}
// @Router /api/v1/user.updateName [post]
func (h *Handler) UpdateName(c *gin.Context) {
	var req updateNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.userService.UpdateName(c.Request.Context(), middleware.CurrentUserID(c), req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, u)
}

// UpdatePfp 修改头像
// @Summary 修改头像
// @Tags 用户
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body updatePfpRequest true "头像地址"
// @Success 200 {object} response.Response{data=model.User}
// @Router /api/v1/user.updatePfp [post]
func (h *Handler) UpdatePfp(c *gin.Context) {
	var req updatePfpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.userService.UpdatePfp(c.Request.Context(), middleware.CurrentUserID(c), req.Image)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, u)
}
