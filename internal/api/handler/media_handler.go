package handler

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/sanity-adjacent/internal/api/middleware"
	"github.com/d60-Lab/sanity-adjacent/internal/storage"
	"github.com/d60-Lab/sanity-adjacent/pkg/response"
)

type uploadResult struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Upload 上传图片，返回可用于 imageSrc / image 的地址
// @Summary 上传图片
// @Tags 媒体
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "图片"
// @Success 201 {object} response.Response{data=uploadResult}
// @Failure 400 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /api/v1/media.upload [post]
func (h *Handler) Upload(c *gin.Context) {
	if h.media == nil {
		response.ServiceUnavailable(c, "media storage is not configured")
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	if fh.Size > h.media.MaxUpload() {
		response.BadRequest(c, fmt.Sprintf("file exceeds %d bytes", h.media.MaxUpload()))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	defer f.Close()

	key := storage.ObjectKey(middleware.CurrentUserID(c), fh.Filename)
	u, err := h.media.Put(c.Request.Context(), key, fh.Header.Get("Content-Type"), f, fh.Size)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, uploadResult{Key: key, URL: u.String()})
}
