package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xdarkflarex/exam-web/internal/services"
	"github.com/xdarkflarex/exam-web/internal/utils"
)

type QuestionHandler struct {
	BaseHandler
	bankService services.QuestionBankService
}

func NewQuestionHandler(bankService services.QuestionBankService, logger utils.Logger) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler: NewBaseHandler(logger),
		bankService: bankService,
	}
}

// GetQuestionBank returns the exam's questions grouped into the three parts.
func (h *QuestionHandler) GetQuestionBank(c *gin.Context) {
	examID, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	bank, err := h.bankService.GetBank(c.Request.Context(), examID)
	if err != nil {
		h.LogError(c, err, "Failed to get question bank", "exam_id", examID)
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bank)
}
