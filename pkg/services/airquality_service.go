package services

import (
	"context"
	"errors"

	"epilog-api/pkg/models"
	"epilog-api/pkg/observability"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DailyAirQuality is one stored station-day of pollutant concentrations.
// PM in µg/m³, O3 in ppm, NO2/SO2 in ppb, CO in ppm.
type DailyAirQuality struct {
	ID          uint    `gorm:"primaryKey"`
	StationName string  `gorm:"index:idx_station_date,unique"`
	Date        string  `gorm:"index:idx_station_date,unique"`
	PM25        float64 `gorm:"column:pm25"`
	PM10        float64 `gorm:"column:pm10"`
	O3          float64 `gorm:"column:o3"`
	NO2         float64 `gorm:"column:no2"`
	SO2         float64 `gorm:"column:so2"`
	CO          float64 `gorm:"column:co"`
}

// TableName keeps the collection name the ingestion scripts write to.
func (DailyAirQuality) TableName() string {
	return "daily_air_quality"
}

// Fixed synthetic concentrations returned when no row exists for a
// station-day. PM2.5 sits in the unhealthy band so the degraded reading errs
// on the cautious side; everything else is good-to-moderate.
var mockConcentrations = map[string]float64{
	models.PollutantPM25: 60.0,
	models.PollutantPM10: 120.0,
	models.PollutantO3:   0.060,
	models.PollutantNO2:  40.0,
	models.PollutantSO2:  20.0,
	models.PollutantCO:   5.0,
}

// AirQualityService resolves a station name and date to a pollutant reading.
// It is read-only: a miss produces a synthetic reading, never a write and
// never an error, so the advice pipeline always has data to work with.
type AirQualityService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewAirQualityService creates an AirQualityService on top of the readings
// store. db may be nil in degraded deployments; every lookup then mocks.
func NewAirQualityService(db *gorm.DB, logger *zap.Logger) *AirQualityService {
	return &AirQualityService{db: db, logger: logger}
}

// GetReading returns the stored reading for (stationName, date), or the
// deterministic mock reading tagged source=mock when the store has no row or
// is unreachable.
func (s *AirQualityService) GetReading(ctx context.Context, stationName, date string) models.PollutantReading {
	if s.db == nil {
		s.logger.Warn("air quality store not configured, using mock reading",
			zap.String("station", stationName), zap.String("date", date))
		return s.mockReading(stationName, date)
	}

	var row DailyAirQuality
	err := s.db.WithContext(ctx).
		Where("station_name = ? AND date = ?", stationName, date).
		First(&row).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("air quality lookup failed, using mock reading",
				zap.String("station", stationName), zap.String("date", date), zap.Error(err))
		} else {
			s.logger.Info("no air quality row for station-day, using mock reading",
				zap.String("station", stationName), zap.String("date", date))
		}
		return s.mockReading(stationName, date)
	}

	concentrations := map[string]float64{
		models.PollutantPM25: row.PM25,
		models.PollutantPM10: row.PM10,
		models.PollutantO3:   row.O3,
		models.PollutantNO2:  row.NO2,
		models.PollutantSO2:  row.SO2,
		models.PollutantCO:   row.CO,
	}
	return models.PollutantReading{
		StationName:    stationName,
		Date:           date,
		Source:         models.ReadingSourceStore,
		Concentrations: concentrations,
		Grades:         models.DeriveGrades(concentrations),
	}
}

func (s *AirQualityService) mockReading(stationName, date string) models.PollutantReading {
	observability.MockReadingsTotal.Inc()
	concentrations := make(map[string]float64, len(mockConcentrations))
	for pollutant, value := range mockConcentrations {
		concentrations[pollutant] = value
	}
	return models.PollutantReading{
		StationName:    stationName,
		Date:           date,
		Source:         models.ReadingSourceMock,
		Concentrations: concentrations,
		Grades:         models.DeriveGrades(concentrations),
	}
}
