package handlers

import (
	"context"
	"fmt"
	"net/http"

	"epilog-api/pkg/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PageIngester embeds and stores pre-extracted document pages.
type PageIngester interface {
	IngestPages(ctx context.Context, source string, pages []string) (int, error)
}

// IngestHandler serves POST /api/ingest/pages. PDF text extraction happens
// upstream; this boundary only accepts already-extracted page texts.
type IngestHandler struct {
	ingest PageIngester
	logger *zap.Logger
}

// NewIngestHandler creates an IngestHandler.
func NewIngestHandler(ingest PageIngester, logger *zap.Logger) *IngestHandler {
	return &IngestHandler{ingest: ingest, logger: logger}
}

// IngestPages stores one row per page that clears the length threshold.
func (h *IngestHandler) IngestPages(c *gin.Context) {
	var req models.IngestPagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid request body: " + err.Error()})
		return
	}
	if len(req.Pages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "pages must not be empty"})
		return
	}

	inserted, err := h.ingest.IngestPages(c.Request.Context(), req.Source, req.Pages)
	if err != nil {
		h.logger.Error("page ingestion failed", zap.String("source", req.Source), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"message":  fmt.Sprintf("Successfully ingested %d pages from %s", inserted, req.Source),
		"inserted": inserted,
	})
}
