package handlers

import (
	"context"
	"net/http"
	"time"

	"epilog-api/pkg/models"

	"github.com/gin-gonic/gin"
)

// ReadingProvider resolves a station-day to a pollutant reading.
type ReadingProvider interface {
	GetReading(ctx context.Context, stationName, date string) models.PollutantReading
}

// AirQualityHandler serves GET /api/air-quality.
type AirQualityHandler struct {
	airQuality ReadingProvider
	now        func() time.Time
}

// NewAirQualityHandler creates an AirQualityHandler.
func NewAirQualityHandler(airQuality ReadingProvider) *AirQualityHandler {
	return &AirQualityHandler{airQuality: airQuality, now: time.Now}
}

// GetAirQuality returns today's reading for the station named in the query
// string. The source field tells callers whether they got a stored row or
// the synthetic substitute.
func (h *AirQualityHandler) GetAirQuality(c *gin.Context) {
	stationName := c.Query("stationName")
	if stationName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "stationName query parameter is required"})
		return
	}

	date := h.now().Format("2006-01-02")
	reading := h.airQuality.GetReading(c.Request.Context(), stationName, date)
	c.JSON(http.StatusOK, reading)
}
