package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/xdarkflarex/exam-web/internal/errors"
	"github.com/xdarkflarex/exam-web/internal/services"
	"github.com/xdarkflarex/exam-web/internal/utils"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// User-facing messages for the exam runners. The UI renders them verbatim.
const (
	MsgSaveAnswerFailed    = "Lỗi khi lưu bài làm"
	MsgUpdateAttemptFailed = "Lỗi khi cập nhật bài thi"
	MsgConnectionFailed    = "Lỗi kết nối"
	MsgAttemptNotFound     = "Không tìm thấy bài làm"
	MsgAttemptNotActive    = "Bài làm đã kết thúc"
)

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging and error translation for all handlers
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"student_id", StudentID(c),
	}
	fields = append(fields, additionalFields...)
	h.logger.LogError(err, message, fields...)
}

// RespondError maps a service error to a status code and the fixed message
// the UI shows for the failed step.
func (h *BaseHandler) RespondError(c *gin.Context, err error) {
	var validationErr *apperrors.ValidationError
	var validationErrs apperrors.ValidationErrors
	var permissionErr *services.PermissionError

	switch {
	case errors.Is(err, services.ErrAttemptNotFound), errors.Is(err, services.ErrExamNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: MsgAttemptNotFound, Details: err.Error()})
	case errors.Is(err, services.ErrAttemptNotActive), errors.Is(err, services.ErrAttemptAlreadySubmitted):
		c.JSON(http.StatusConflict, ErrorResponse{Message: MsgAttemptNotActive, Details: err.Error()})
	case errors.Is(err, services.ErrSaveAnswersFailed):
		c.JSON(http.StatusBadGateway, ErrorResponse{Message: MsgSaveAnswerFailed, Details: err.Error()})
	case errors.Is(err, services.ErrUpdateAttemptFailed):
		c.JSON(http.StatusBadGateway, ErrorResponse{Message: MsgUpdateAttemptFailed, Details: err.Error()})
	case errors.As(err, &permissionErr):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Forbidden", Details: err.Error()})
	case errors.As(err, &validationErr), errors.As(err, &validationErrs):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Validation failed", Details: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: MsgConnectionFailed, Details: err.Error()})
	}
}

// HealthCheck responds to liveness probes
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
