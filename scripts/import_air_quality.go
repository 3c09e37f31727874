//go:build ignore

package main

import (
	"flag"
	"log"
	"os"
	"strconv"
	"strings"

	config "epilog-api/configs"
	"epilog-api/pkg/services"

	"github.com/joho/godotenv"
	"github.com/xuri/excelize/v2"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Imports station-day pollutant readings from an XLSX export into the
// daily_air_quality table. Expected columns, in order:
// station_name, date (YYYY-MM-DD), pm25, pm10, o3, no2, so2, co.
func main() {
	inputPath := flag.String("input", "data/air_quality.xlsx", "path to the XLSX file")
	sheetName := flag.String("sheet", "", "sheet to read (defaults to the first sheet)")
	flag.Parse()

	log.Println("Starting air quality import...")

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.LoadConfig()

	var dialector gorm.Dialector
	if strings.HasPrefix(cfg.AirQualityDSN, "postgres://") || strings.HasPrefix(cfg.AirQualityDSN, "postgresql://") {
		dialector = postgres.Open(cfg.AirQualityDSN)
	} else {
		dialector = sqlite.Open(cfg.AirQualityDSN)
	}
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to open air quality store: %v", err)
	}
	if err := db.AutoMigrate(&services.DailyAirQuality{}); err != nil {
		log.Fatalf("Failed to migrate air quality store: %v", err)
	}

	f, err := excelize.OpenFile(*inputPath)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *inputPath, err)
	}
	defer f.Close()

	sheet := *sheetName
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		log.Fatalf("Failed to read sheet %q: %v", sheet, err)
	}
	if len(rows) < 2 {
		log.Fatalf("Sheet %q has no data rows", sheet)
	}

	successCount := 0
	skipCount := 0

	// Row 0 is the header.
	for i, row := range rows[1:] {
		if len(row) < 8 {
			log.Printf("Row %d: expected 8 columns, got %d, skipping", i+2, len(row))
			skipCount++
			continue
		}

		stationName := strings.TrimSpace(row[0])
		date := strings.TrimSpace(row[1])
		if stationName == "" || date == "" {
			log.Printf("Row %d: missing station or date, skipping", i+2)
			skipCount++
			continue
		}

		values, err := parseConcentrations(row[2:8])
		if err != nil {
			log.Printf("Row %d: %v, skipping", i+2, err)
			skipCount++
			continue
		}

		record := services.DailyAirQuality{
			StationName: stationName,
			Date:        date,
			PM25:        values[0],
			PM10:        values[1],
			O3:          values[2],
			NO2:         values[3],
			SO2:         values[4],
			CO:          values[5],
		}

		err = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "station_name"}, {Name: "date"}},
			UpdateAll: true,
		}).Create(&record).Error
		if err != nil {
			log.Printf("Row %d: upsert failed: %v", i+2, err)
			skipCount++
			continue
		}
		successCount++
	}

	log.Printf("Import complete: %d rows imported, %d skipped", successCount, skipCount)
	if successCount == 0 {
		os.Exit(1)
	}
}

func parseConcentrations(cells []string) ([6]float64, error) {
	var values [6]float64
	for i, cell := range cells {
		v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil {
			return values, err
		}
		values[i] = v
	}
	return values, nil
}
