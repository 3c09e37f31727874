package models

import (
	"strings"
	"time"
)

// AgeGroup is the closed set of user age bands the decision tables cover.
// Anything else must be normalized at the boundary before it reaches the
// decision engine.
type AgeGroup string

const (
	AgeInfant         AgeGroup = "infant"
	AgeElementaryLow  AgeGroup = "elementary_low"
	AgeElementaryHigh AgeGroup = "elementary_high"
	AgeTeen           AgeGroup = "teen"
)

// AgeGroups returns every declared age group, in table order.
func AgeGroups() []AgeGroup {
	return []AgeGroup{AgeInfant, AgeElementaryLow, AgeElementaryHigh, AgeTeen}
}

// Condition is the closed set of respiratory/skin conditions the decision
// tables cover.
type Condition string

const (
	ConditionNone     Condition = "none"
	ConditionRhinitis Condition = "rhinitis"
	ConditionAsthma   Condition = "asthma"
	ConditionAtopy    Condition = "atopy"
)

// Conditions returns every declared condition, in table order.
func Conditions() []Condition {
	return []Condition{ConditionNone, ConditionRhinitis, ConditionAsthma, ConditionAtopy}
}

// Sensitive reports whether the condition belongs to the sensitive group that
// escalates borderline air quality decisions.
func (c Condition) Sensitive() bool {
	return c == ConditionRhinitis || c == ConditionAsthma || c == ConditionAtopy
}

// Decision is the graded outdoor-activity decision.
type Decision string

const (
	DecisionOK      Decision = "ok"
	DecisionCaution Decision = "caution"
	DecisionWarning Decision = "warning"
)

// NormalizeAgeGroup maps free-form client input (English keys, Korean labels,
// age ranges) onto the closed AgeGroup set. Unknown values fall back to
// elementary_high, the middle of the covered range.
func NormalizeAgeGroup(raw string) AgeGroup {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "infant", "유아", "영유아", "영아", "0-6", "0~6", "0-5", "0~5", "0-3", "0~3":
		return AgeInfant
	case "elementary_low", "초등 저학년", "초등저학년", "1-3", "1~3", "7-9", "7~9":
		return AgeElementaryLow
	case "elementary_high", "초등 고학년", "초등고학년", "4-6", "4~6", "10-12", "10~12":
		return AgeElementaryHigh
	case "teen", "teen_adult", "청소년", "중등", "고등", "중학생", "고등학생", "13-15", "13~15", "16-18", "16~18":
		return AgeTeen
	case "child", "children", "초등", "아동":
		return AgeElementaryHigh
	case "adult", "성인":
		return AgeTeen
	}
	switch {
	case strings.Contains(s, "유아"):
		return AgeInfant
	case strings.Contains(s, "저학년"):
		return AgeElementaryLow
	case strings.Contains(s, "고학년"), strings.Contains(s, "초등"), strings.Contains(s, "아동"):
		return AgeElementaryHigh
	case strings.Contains(s, "중등"), strings.Contains(s, "고등"), strings.Contains(s, "청소년"):
		return AgeTeen
	}
	return AgeElementaryHigh
}

// NormalizeCondition maps free-form client input onto the closed Condition
// set. Unknown or empty values are treated as no known condition.
func NormalizeCondition(raw string) Condition {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "asthma", "천식":
		return ConditionAsthma
	case "rhinitis", "비염":
		return ConditionRhinitis
	case "atopy", "atopic", "아토피":
		return ConditionAtopy
	case "", "none", "general", "healthy", "일반", "건강", "건강함", "없음":
		return ConditionNone
	}
	return ConditionNone
}

// UserProfile is supplied per request and immutable.
type UserProfile struct {
	AgeGroup  AgeGroup  `json:"ageGroup"`
	Condition Condition `json:"condition"`
}

// Reading sources. Mock readings must stay distinguishable from stored rows
// so logs can tell synthetic from real data.
const (
	ReadingSourceStore = "store"
	ReadingSourceMock  = "mock"
)

// PollutantReading is one station-day of pollutant concentrations together
// with the grade derived from each concentration. Immutable once produced.
type PollutantReading struct {
	StationName    string             `json:"stationName"`
	Date           string             `json:"date"`
	Source         string             `json:"source"`
	Concentrations map[string]float64 `json:"concentrations"`
	Grades         map[string]Grade   `json:"grades"`
}

// Grade returns the derived grade for a pollutant, GradeGood when the
// pollutant was not measured.
func (r PollutantReading) Grade(pollutant string) Grade {
	if g, ok := r.Grades[pollutant]; ok {
		return g
	}
	return GradeGood
}

// AdviceResult is the unit stored in and returned from the advice cache.
// Field order and content must survive the cache round trip unchanged.
type AdviceResult struct {
	Decision     Decision `json:"decision"`
	DecisionText string   `json:"decision_text"`
	ThreeReason  []string `json:"three_reason"`
	DetailAnswer string   `json:"detail_answer"`
	ActionItems  []string `json:"actionItems"`
	References   []string `json:"references"`
}

// CacheEntry wraps a cached AdviceResult with its creation timestamp.
// Re-derivation overwrites the whole entry, never appends.
type CacheEntry struct {
	Key       string       `json:"key"`
	Data      AdviceResult `json:"data"`
	CreatedAt time.Time    `json:"created_at"`
}

// GuidelineDocument is one ingested guideline chunk (one document page) with
// its embedding vector. Created during ingestion, immutable thereafter; the
// advice path only reads it.
type GuidelineDocument struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
	Source    string    `json:"source"`
	Page      int       `json:"page"`
	Category  string    `json:"category"`
	RiskLevel string    `json:"risk_level"`
	CreatedAt time.Time `json:"created_at"`
}

// GuidelineSnippet is a retrieved guideline chunk with its similarity score.
type GuidelineSnippet struct {
	Text      string  `json:"text"`
	Source    string  `json:"source"`
	Page      int     `json:"page"`
	Category  string  `json:"category"`
	RiskLevel string  `json:"risk_level"`
	Score     float32 `json:"score"`
}

// UserProfileInput is the raw, not yet normalized profile from the request
// body.
type UserProfileInput struct {
	AgeGroup  string `json:"ageGroup"`
	Condition string `json:"condition"`
}

// Normalize rejects nothing: unknown enum values collapse onto the declared
// variant set before they reach the decision engine.
func (p UserProfileInput) Normalize() UserProfile {
	return UserProfile{
		AgeGroup:  NormalizeAgeGroup(p.AgeGroup),
		Condition: NormalizeCondition(p.Condition),
	}
}

// AdviceRequest is the body of POST /api/advice.
type AdviceRequest struct {
	StationName string           `json:"stationName" binding:"required"`
	UserProfile UserProfileInput `json:"userProfile" binding:"required"`
}

// IngestPagesRequest is the body of POST /api/ingest/pages: pre-extracted
// page texts of a single source document. Text extraction itself (PDF
// parsing) happens outside this service.
type IngestPagesRequest struct {
	Source string   `json:"source" binding:"required"`
	Pages  []string `json:"pages" binding:"required"`
}
