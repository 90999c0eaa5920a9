package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Desarso/parsa/models"
	"github.com/Desarso/parsa/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// StudioHandler exposes image generation, image editing and the grounded searches.
type StudioHandler struct {
	studio    *sessions.StudioSession
	gateway   models.Gateway
	maxUpload int64
	log       zerolog.Logger
}

// GenerateImage godoc
// @Summary      Generate an image
// @Tags         images
// @Accept       json
// @Produce      json
// @Param        request  body      models.Image_Generation_Request  true  "Generation request"
// @Success      200      {object}  models.Image_Response
// @Failure      400      {object}  models.Image_Response
// @Failure      502      {object}  models.Image_Response
// @Router       /api/v1/images/generations [post]
func (h *StudioHandler) GenerateImage(c *gin.Context) {
	var req models.Image_Generation_Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Image_Response{Error: err.Error()})
		return
	}
	in, err := req.Input()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.Image_Response{Error: err.Error()})
		return
	}
	res := h.studio.GenerateImage(c.Request.Context(), in)
	if res.Image == nil {
		c.JSON(http.StatusBadGateway, res.Response())
		return
	}
	c.JSON(http.StatusOK, res.Response())
}

// EditImage godoc
// @Summary      Edit an image
// @Description  Accepts a multipart form (prompt, image) or a JSON body.
// @Tags         images
// @Accept       mpfd,json
// @Produce      json
// @Param        prompt  formData  string  true  "Edit instruction"
// @Param        image   formData  file    true  "Source image"
// @Success      200     {object}  models.Image_Response
// @Failure      400     {object}  models.Image_Response
// @Failure      502     {object}  models.Image_Response
// @Router       /api/v1/images/edits [post]
func (h *StudioHandler) EditImage(c *gin.Context) {
	in, err := h.bindEdit(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.Image_Response{Error: err.Error()})
		return
	}
	res := h.studio.EditImage(c.Request.Context(), in)
	if res.Image == nil {
		c.JSON(http.StatusBadGateway, res.Response())
		return
	}
	c.JSON(http.StatusOK, res.Response())
}

// SearchWeb godoc
// @Summary      Web-grounded search
// @Tags         search
// @Accept       json
// @Produce      json
// @Param        request  body      models.Search_Request  true  "Search request"
// @Success      200      {object}  models.Grounded_Response
// @Failure      400      {object}  models.Grounded_Response
// @Failure      502      {object}  models.Grounded_Response
// @Router       /api/v1/search/web [post]
func (h *StudioHandler) SearchWeb(c *gin.Context) {
	var req models.Search_Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, emptyGrounded(err.Error()))
		return
	}
	if isBlank(req.Prompt) {
		c.JSON(http.StatusBadRequest, emptyGrounded(models.ErrEmptyPrompt.Error()))
		return
	}
	res := h.studio.Search(c.Request.Context(), req.Prompt)
	if res.Error != "" {
		c.JSON(http.StatusBadGateway, res.Response())
		return
	}
	c.JSON(http.StatusOK, res.Response())
}

// SearchMaps godoc
// @Summary      Maps-grounded search
// @Description  Needs latitude and longitude; without them the location status is returned.
// @Tags         search
// @Accept       json
// @Produce      json
// @Param        request  body      models.Maps_Search_Request  true  "Search request"
// @Success      200      {object}  models.Grounded_Response
// @Failure      400      {object}  models.Grounded_Response
// @Failure      412      {object}  models.Grounded_Response
// @Failure      502      {object}  models.Grounded_Response
// @Router       /api/v1/search/maps [post]
func (h *StudioHandler) SearchMaps(c *gin.Context) {
	var req models.Maps_Search_Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, emptyGrounded(err.Error()))
		return
	}

	maps := sessions.NewMapsSession(h.gateway, h.log)
	if err := maps.Locate(c.Request.Context(), req.Locator()); err != nil {
		c.JSON(http.StatusPreconditionFailed, emptyGrounded(maps.Status()))
		return
	}
	if isBlank(req.Prompt) {
		c.JSON(http.StatusBadRequest, emptyGrounded(models.ErrEmptyPrompt.Error()))
		return
	}

	res := maps.Search(c.Request.Context(), req.Prompt)
	if res.Error != "" {
		c.JSON(http.StatusBadGateway, res.Response())
		return
	}
	c.JSON(http.StatusOK, res.Response())
}

func (h *StudioHandler) bindEdit(c *gin.Context) (models.ImageEditInput, error) {
	if c.ContentType() == "multipart/form-data" {
		prompt := c.PostForm("prompt")
		if isBlank(prompt) {
			return models.ImageEditInput{}, models.ErrEmptyPrompt
		}
		src, err := formImage(c, "image", h.maxUpload, true)
		if err != nil {
			return models.ImageEditInput{}, err
		}
		return models.ImageEditInput{Prompt: prompt, Source: *src}, nil
	}

	var req models.Image_Edit_Request
	if err := c.ShouldBindJSON(&req); err != nil {
		return models.ImageEditInput{}, err
	}
	return req.Input()
}

// formImage reads an uploaded image from a multipart field. A missing optional field
// yields a nil attachment.
func formImage(c *gin.Context, field string, maxBytes int64, required bool) (*models.Attachment, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			if required {
				return nil, models.ErrMissingAttachment
			}
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, fmt.Errorf("%s exceeds %d bytes", field, maxBytes)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", field, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	declared := fh.Header.Get("Content-Type")
	UploadBytesTotal.WithLabelValues(declared).Add(float64(len(data)))
	return models.NewAttachment(data, declared)
}

func emptyGrounded(msg string) models.Grounded_Response {
	return models.Grounded_Response{Sources: []models.GroundingSource{}, Error: msg}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
