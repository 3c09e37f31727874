package handlers

import (
	"context"
	"net/http"

	"epilog-api/pkg/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdviceProvider runs the advice pipeline for one request.
type AdviceProvider interface {
	GetAdvice(ctx context.Context, stationName string, profile models.UserProfile) (models.AdviceResult, error)
}

// AdviceHandler serves POST /api/advice.
type AdviceHandler struct {
	advice AdviceProvider
	logger *zap.Logger
}

// NewAdviceHandler creates an AdviceHandler.
func NewAdviceHandler(advice AdviceProvider, logger *zap.Logger) *AdviceHandler {
	return &AdviceHandler{advice: advice, logger: logger}
}

// GiveAdvice validates the body, normalizes the profile enums at the
// boundary, and answers with the canonical advice schema. Non-2xx happens
// only on a malformed body or total pipeline failure.
func (h *AdviceHandler) GiveAdvice(c *gin.Context) {
	var req models.AdviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	profile := req.UserProfile.Normalize()

	result, err := h.advice.GetAdvice(c.Request.Context(), req.StationName, profile)
	if err != nil {
		h.logger.Error("advice pipeline failed",
			zap.String("station", req.StationName), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"decision":      "error",
			"three_reason":  []string{},
			"detail_answer": "Internal Server Error",
			"actionItems":   []string{},
			"references":    []string{},
		})
		return
	}

	c.JSON(http.StatusOK, result)
}
