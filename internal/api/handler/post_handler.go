package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/sanity-adjacent/internal/api/middleware"
	"github.com/d60-Lab/sanity-adjacent/internal/service"
	"github.com/d60-Lab/sanity-adjacent/pkg/response"
)

type pageQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=50"`
}

type postIDQuery struct {
	PostID string `form:"postId" binding:"required"`
}

type postIDRequest struct {
	PostID string `json:"postId" binding:"required"`
}

type newPostRequest struct {
	Title    string  `json:"title" binding:"required,notblank,max=255"`
	Content  string  `json:"content" binding:"required,notblank"`
	ImageSrc *string `json:"imageSrc" binding:"omitempty,url"`
}

type updatePostRequest struct {
	PostID  string  `json:"postId" binding:"required"`
	Title   string  `json:"title" binding:"required,notblank,max=255"`
	Content string  `json:"content" binding:"required,notblank"`
	ImgLink *string `json:"imgLink" binding:"omitempty,url"`
}

// GetAll 首页帖子流
// @Summary 帖子列表（按更新时间倒序）
// @Tags 帖子
// @Produce json
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=[]service.PostView}
// @Router /api/v1/post.getAll [get]
func (h *Handler) GetAll(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	list, err := h.postService.GetAll(c.Request.Context(), q.Page, q.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// GetOne 单个帖子
// @Summary 帖子详情
// @Tags 帖子
// @Produce json
// @Param postId query string true "帖子ID"
// @Success 200 {object} response.Response{data=model.Post}
// @Failure 404 {object} response.Response
// @Router /api/v1/post.getOne [get]
func (h *Handler) GetOne(c *gin.Context) {
	var q postIDQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	p, err := h.postService.GetOne(c.Request.Context(), q.PostID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, p)
}

// NewPost 发帖，需要 can_post 权限
// @Summary 发帖
// @Tags 帖子
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body newPostRequest true "帖子内容"
// @Success 201 {object} response.Response{data=model.Post}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/post.new [post]
func (h *Handler) NewPost(c *gin.Context) {
	var req newPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	p, err := h.postService.Create(c.Request.Context(), middleware.CurrentUserID(c), service.CreatePostInput{
		Title:   req.Title,
		Content: req.Content,
		Image:   req.ImageSrc,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, p)
}

// UpdatePost 作者修改帖子
// @Summary 修改帖子
// @Tags 帖子
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body updatePostRequest true "新内容（全量覆盖）"
// @Success 200 {object} response.Response{data=message}
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/post.update [post]
func (h *Handler) UpdatePost(c *gin.Context) {
	var req updatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	err := h.postService.Update(c.Request.Context(), middleware.CurrentUserID(c), service.UpdatePostInput{
		PostID:  req.PostID,
		Title:   req.Title,
		Content: req.Content,
		Image:   req.ImgLink,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, message{Message: "User updated post"})
}

// AddLike 点赞
// @Summary 点赞
// @Tags 帖子
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body postIDRequest true "帖子ID"
// @Success 200 {object} response.Response{data=message}
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/post.addLike [post]
func (h *Handler) AddLike(c *gin.Context) {
	var req postIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.likeService.AddLike(c.Request.Context(), middleware.CurrentUserID(c), req.PostID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, message{Message: "User liked post"})
}

// RemoveLike 取消点赞
// @Summary 取消点赞
// @Tags 帖子
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body postIDRequest true "帖子ID"
// @Success 200 {object} response.Response{data=message}
// @Failure 404 {object} response.Response
// @Router /api/v1/post.removeLike [post]
func (h *Handler) RemoveLike(c *gin.Context) {
	var req postIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.likeService.RemoveLike(c.Request.Context(), middleware.CurrentUserID(c), req.PostID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, message{Message: "User unliked post"})
}

// GetLikes 点赞数
// @Summary 帖子点赞数（实时聚合）
// @Tags 帖子
// @Produce json
// @Param postId query string true "帖子ID"
// @Success 200 {object} response.Response{data=int}
// @Failure 404 {object} response.Response
// @Router /api/v1/post.getLikes [get]
func (h *Handler) GetLikes(c *gin.Context) {
	var q postIDQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	cnt, err := h.likeService.GetLikes(c.Request.Context(), q.PostID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, cnt)
}

// GetComments 帖子评论
// @Summary 评论列表（按时间正序）
// @Tags 帖子
// @Produce json
// @Param postId query string true "帖子ID"
// @Success 200 {object} response.Response{data=[]model.Comment}
// @Failure 404 {object} response.Response
// @Router /api/v1/post.getComments [get]
func (h *Handler) GetComments(c *gin.Context) {
	var q postIDQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	list, err := h.commentService.ListByPost(c.Request.Context(), q.PostID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}
