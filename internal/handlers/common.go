package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/paulexconde/formbuilder/internal/models"
	"github.com/paulexconde/formbuilder/internal/pkg/logger"
	"github.com/paulexconde/formbuilder/pkg/fault"
)

type ErrorResponse struct {
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type ValidationErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewValidator returns a validator with the answer_type rule registered.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("answer_type", func(fl validator.FieldLevel) bool {
		return models.AnswerType(fl.Field().String()).Valid()
	})
	return v
}

// BaseHandler holds what every handler needs.
type BaseHandler struct {
	logger   logger.Logger
	validate *validator.Validate
}

func NewBaseHandler(log logger.Logger, validate *validator.Validate) BaseHandler {
	return BaseHandler{logger: log, validate: validate}
}

// bind decodes the JSON body into req and validates it. On failure the
// response is already written.
func (h *BaseHandler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body", Details: err.Error(), Code: "bad_request"})
		return false
	}

	if err := h.validate.Struct(req); err != nil {
		h.writeError(c, err)
		return false
	}

	return true
}

// writeError maps err onto a status: not found 404, conflicts 409,
// validation and client faults 400, anything else 500.
func (h *BaseHandler) writeError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]ValidationErrorResponse, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, ValidationErrorResponse{Field: fe.Field(), Message: "failed on " + fe.Tag()})
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "validation failed", Details: details, Code: "validation_error"})
		return
	}

	code := fault.Code(err)
	switch code {
	case "not_found":
		c.JSON(http.StatusNotFound, ErrorResponse{Message: err.Error(), Code: code})
	case "already_submitted", "conflict":
		c.JSON(http.StatusConflict, ErrorResponse{Message: err.Error(), Code: code})
	case "bad_request":
		resp := ErrorResponse{Message: err.Error(), Code: code}
		if field := fault.FieldOf(err); field != "" {
			resp.Details = []ValidationErrorResponse{{Field: field, Message: "wrong value type"}}
		}
		c.JSON(http.StatusBadRequest, resp)
	default:
		h.logger.LogError(err, "request failed", "method", c.Request.Method, "path", c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "internal error", Code: "internal"})
	}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "formbuilder"})
}
