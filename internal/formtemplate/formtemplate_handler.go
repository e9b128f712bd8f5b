package formtemplate

import (
	"net/http"
	"strings"

	"github.com/Abhinav7558/employee-management-system/internal/shared/apperror"
	"github.com/Abhinav7558/employee-management-system/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const emptyListMessage = "No forms available"

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("formtemplate.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("formtemplate.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("form template request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) Create(c *gin.Context) {
	userID := c.GetString("user_id")
	h.logger.Debug("http create form template", zap.String("user_id", userID))

	var req CreateFormTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http create form template validation failed", zap.Error(err))
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) GetAll(c *gin.Context) {
	page := response.ParsePage(c)
	filter := ListFormTemplatesFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		IsActive: response.ParseBool(c, "is_active"),
		Page:     page.Page,
		PageSize: page.PageSize,
	}
	h.logger.Debug("http list form templates",
		zap.String("search", filter.Search),
		zap.Int("page", filter.Page),
	)

	items, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	if total == 0 {
		response.Message(c, http.StatusOK, emptyListMessage)
		return
	}

	meta := response.NewPaginationMeta(total, page.Page, page.PageSize)
	response.Success(c, http.StatusOK, items, &meta)
}

func (h *Handler) GetById(c *gin.Context) {
	id := c.Param("id")
	h.logger.Debug("http get form template by id", zap.String("form_template_id", id))

	resp, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Update(c *gin.Context) {
	id := c.Param("id")
	h.logger.Debug("http update form template", zap.String("form_template_id", id))

	var req UpdateFormTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http update form template validation failed", zap.Error(err))
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Duplicate(c *gin.Context) {
	id := c.Param("id")
	userID := c.GetString("user_id")
	h.logger.Debug("http duplicate form template",
		zap.String("form_template_id", id),
		zap.String("user_id", userID),
	)

	resp, err := h.service.Duplicate(c.Request.Context(), id, userID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) Delete(c *gin.Context) {
	id := c.Param("id")
	h.logger.Debug("http delete form template", zap.String("form_template_id", id))

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true}, nil)
}
