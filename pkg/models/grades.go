package models

// Grade is the ordinal severity category derived from a pollutant
// concentration. Higher is worse.
type Grade int

const (
	GradeGood Grade = iota + 1
	GradeModerate
	GradeUnhealthySensitive
	GradeUnhealthy
	GradeHazardous
)

// String returns the stable English key used in cache keys and logs.
func (g Grade) String() string {
	switch g {
	case GradeGood:
		return "good"
	case GradeModerate:
		return "moderate"
	case GradeUnhealthySensitive:
		return "unhealthy_sensitive"
	case GradeUnhealthy:
		return "unhealthy"
	case GradeHazardous:
		return "hazardous"
	}
	return "unknown"
}

// KoreanLabel returns the display label used in retrieval queries and
// prompts.
func (g Grade) KoreanLabel() string {
	switch g {
	case GradeGood:
		return "좋음"
	case GradeModerate:
		return "보통"
	case GradeUnhealthySensitive:
		return "약간나쁨"
	case GradeUnhealthy:
		return "나쁨"
	case GradeHazardous:
		return "매우나쁨"
	}
	return "보통"
}

// Grades returns every grade in ascending severity order.
func Grades() []Grade {
	return []Grade{GradeGood, GradeModerate, GradeUnhealthySensitive, GradeUnhealthy, GradeHazardous}
}

// Pollutant codes, in the canonical order used for cache keys and query
// construction. PM2.5 first: it dominates the health guidance.
const (
	PollutantPM25 = "pm25"
	PollutantPM10 = "pm10"
	PollutantO3   = "o3"
	PollutantNO2  = "no2"
	PollutantSO2  = "so2"
	PollutantCO   = "co"
)

// Pollutants lists the measured pollutants in canonical order.
func Pollutants() []string {
	return []string{PollutantPM25, PollutantPM10, PollutantO3, PollutantNO2, PollutantSO2, PollutantCO}
}

// PollutantKoreanName returns the display name of a pollutant.
func PollutantKoreanName(pollutant string) string {
	switch pollutant {
	case PollutantPM25:
		return "초미세먼지"
	case PollutantPM10:
		return "미세먼지"
	case PollutantO3:
		return "오존"
	case PollutantNO2:
		return "이산화질소"
	case PollutantSO2:
		return "아황산가스"
	case PollutantCO:
		return "일산화탄소"
	}
	return pollutant
}

// gradeBreakpoints holds the upper bound of each grade band except
// hazardous, which is open-ended. Values follow the US EPA AQI breakpoints:
// PM in µg/m³ (24h), O3 in ppm (8h), NO2/SO2 in ppb (1h), CO in ppm (8h).
var gradeBreakpoints = map[string][4]float64{
	PollutantPM25: {12.0, 35.4, 55.4, 150.4},
	PollutantPM10: {54, 154, 254, 354},
	PollutantO3:   {0.054, 0.070, 0.085, 0.105},
	PollutantNO2:  {53, 100, 360, 649},
	PollutantSO2:  {35, 75, 185, 304},
	PollutantCO:   {4.4, 9.4, 12.4, 15.4},
}

// Categorize maps a pollutant concentration to its grade band. Unknown
// pollutants grade as good so an extra column in the source data can never
// escalate a decision.
func Categorize(pollutant string, concentration float64) Grade {
	bounds, ok := gradeBreakpoints[pollutant]
	if !ok {
		return GradeGood
	}
	switch {
	case concentration <= bounds[0]:
		return GradeGood
	case concentration <= bounds[1]:
		return GradeModerate
	case concentration <= bounds[2]:
		return GradeUnhealthySensitive
	case concentration <= bounds[3]:
		return GradeUnhealthy
	default:
		return GradeHazardous
	}
}

// DeriveGrades grades every concentration in the map.
func DeriveGrades(concentrations map[string]float64) map[string]Grade {
	grades := make(map[string]Grade, len(concentrations))
	for pollutant, value := range concentrations {
		grades[pollutant] = Categorize(pollutant, value)
	}
	return grades
}
