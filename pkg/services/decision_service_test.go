package services

import (
	"strings"
	"testing"

	"epilog-api/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readingWithGrades(grades map[string]models.Grade) models.PollutantReading {
	return models.PollutantReading{
		StationName: "강남구",
		Date:        "2026-08-29",
		Source:      models.ReadingSourceStore,
		Grades:      grades,
	}
}

func TestDecideTotalOverAllInputs(t *testing.T) {
	// Every grade x age x condition combination must yield a decision, a
	// non-empty display text and at least one action item.
	for _, grade := range models.Grades() {
		reading := readingWithGrades(map[string]models.Grade{
			models.PollutantPM25: grade,
			models.PollutantO3:   grade,
		})
		for _, age := range models.AgeGroups() {
			for _, cond := range models.Conditions() {
				profile := models.UserProfile{AgeGroup: age, Condition: cond}
				decision, text, items := Decide(reading, profile)

				assert.Contains(t, []models.Decision{models.DecisionOK, models.DecisionCaution, models.DecisionWarning}, decision)
				assert.NotEmpty(t, text, "grade=%v age=%s cond=%s", grade, age, cond)
				assert.NotEmpty(t, items, "grade=%v age=%s cond=%s", grade, age, cond)
			}
		}
	}
}

func TestDecideCleanAir(t *testing.T) {
	reading := readingWithGrades(map[string]models.Grade{
		models.PollutantPM25: models.GradeGood,
		models.PollutantO3:   models.GradeGood,
	})
	decision, _, _ := Decide(reading, models.UserProfile{AgeGroup: models.AgeTeen, Condition: models.ConditionNone})
	assert.Equal(t, models.DecisionOK, decision)
}

func TestDecideUnhealthyPM25(t *testing.T) {
	reading := readingWithGrades(map[string]models.Grade{
		models.PollutantPM25: models.GradeUnhealthy,
		models.PollutantO3:   models.GradeGood,
	})

	decision, _, _ := Decide(reading, models.UserProfile{AgeGroup: models.AgeElementaryHigh, Condition: models.ConditionNone})
	assert.Equal(t, models.DecisionCaution, decision)

	// A sensitive condition escalates the same reading to warning.
	decision, _, _ = Decide(reading, models.UserProfile{AgeGroup: models.AgeElementaryHigh, Condition: models.ConditionAsthma})
	assert.Equal(t, models.DecisionWarning, decision)
}

func TestDecideHazardousAlwaysWarns(t *testing.T) {
	reading := readingWithGrades(map[string]models.Grade{
		models.PollutantPM25: models.GradeHazardous,
	})
	for _, cond := range models.Conditions() {
		decision, _, _ := Decide(reading, models.UserProfile{AgeGroup: models.AgeInfant, Condition: cond})
		assert.Equal(t, models.DecisionWarning, decision, "cond=%s", cond)
	}
}

func TestDecideBothHighSuffix(t *testing.T) {
	reading := readingWithGrades(map[string]models.Grade{
		models.PollutantPM25: models.GradeUnhealthy,
		models.PollutantO3:   models.GradeUnhealthy,
	})
	decision, text, _ := Decide(reading, models.UserProfile{AgeGroup: models.AgeTeen, Condition: models.ConditionNone})
	assert.Equal(t, models.DecisionWarning, decision)
	assert.True(t, strings.HasSuffix(text, bothHighSuffix), "text %q", text)

	reading = readingWithGrades(map[string]models.Grade{
		models.PollutantPM25: models.GradeUnhealthy,
		models.PollutantO3:   models.GradeGood,
	})
	_, text, _ = Decide(reading, models.UserProfile{AgeGroup: models.AgeTeen, Condition: models.ConditionNone})
	assert.False(t, strings.HasSuffix(text, bothHighSuffix), "text %q", text)
}

func TestDecideSensitiveBorderline(t *testing.T) {
	reading := readingWithGrades(map[string]models.Grade{
		models.PollutantPM25: models.GradeUnhealthySensitive,
	})

	decision, _, _ := Decide(reading, models.UserProfile{AgeGroup: models.AgeTeen, Condition: models.ConditionNone})
	assert.Equal(t, models.DecisionOK, decision)

	decision, _, _ = Decide(reading, models.UserProfile{AgeGroup: models.AgeTeen, Condition: models.ConditionRhinitis})
	assert.Equal(t, models.DecisionCaution, decision)
}

func TestDecideConditionItemsAppended(t *testing.T) {
	reading := readingWithGrades(map[string]models.Grade{
		models.PollutantPM25: models.GradeUnhealthy,
	})

	_, _, baseItems := Decide(reading, models.UserProfile{AgeGroup: models.AgeElementaryLow, Condition: models.ConditionNone})
	_, _, asthmaItems := Decide(reading, models.UserProfile{AgeGroup: models.AgeElementaryLow, Condition: models.ConditionAsthma})

	require.Greater(t, len(asthmaItems), len(baseItems))
	assert.Equal(t, baseItems, asthmaItems[:len(baseItems)], "base items come first, in order")
}

func TestMainIssue(t *testing.T) {
	reading := readingWithGrades(map[string]models.Grade{
		models.PollutantPM25: models.GradeModerate,
		models.PollutantO3:   models.GradeUnhealthy,
	})
	pollutant, grade := MainIssue(reading)
	assert.Equal(t, models.PollutantO3, pollutant)
	assert.Equal(t, models.GradeUnhealthy, grade)

	// PM2.5 wins ties.
	reading = readingWithGrades(map[string]models.Grade{
		models.PollutantPM25: models.GradeUnhealthy,
		models.PollutantO3:   models.GradeUnhealthy,
	})
	pollutant, _ = MainIssue(reading)
	assert.Equal(t, models.PollutantPM25, pollutant)
}
