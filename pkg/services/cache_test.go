package services

import (
	"context"
	"testing"

	"epilog-api/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveCacheKeyFormat(t *testing.T) {
	reading := models.PollutantReading{
		Grades: map[string]models.Grade{
			models.PollutantPM25: models.GradeUnhealthy,
			models.PollutantPM10: models.GradeModerate,
			models.PollutantO3:   models.GradeModerate,
			models.PollutantNO2:  models.GradeGood,
			models.PollutantSO2:  models.GradeGood,
			models.PollutantCO:   models.GradeModerate,
		},
	}
	profile := models.UserProfile{AgeGroup: models.AgeElementaryHigh, Condition: models.ConditionAsthma}

	key := DeriveCacheKey(reading, profile)
	assert.Equal(t, "pm25:4_pm10:2_o3:2_no2:1_so2:1_co:2_age:elementary_high_cond:asthma", key)
}

func TestDeriveCacheKeyIgnoresRawConcentrations(t *testing.T) {
	// Two readings with different raw values but the same grade bands must
	// collapse onto one key.
	profile := models.UserProfile{AgeGroup: models.AgeTeen, Condition: models.ConditionNone}

	a := models.PollutantReading{
		Concentrations: map[string]float64{models.PollutantPM25: 80.0},
		Grades:         models.DeriveGrades(map[string]float64{models.PollutantPM25: 80.0}),
	}
	b := models.PollutantReading{
		Concentrations: map[string]float64{models.PollutantPM25: 82.0},
		Grades:         models.DeriveGrades(map[string]float64{models.PollutantPM25: 82.0}),
	}

	assert.Equal(t, DeriveCacheKey(a, profile), DeriveCacheKey(b, profile))
}

func TestDeriveCacheKeyDiscriminatesProfile(t *testing.T) {
	reading := models.PollutantReading{
		Grades: map[string]models.Grade{models.PollutantPM25: models.GradeUnhealthy},
	}

	base := DeriveCacheKey(reading, models.UserProfile{AgeGroup: models.AgeTeen, Condition: models.ConditionNone})
	otherAge := DeriveCacheKey(reading, models.UserProfile{AgeGroup: models.AgeInfant, Condition: models.ConditionNone})
	otherCond := DeriveCacheKey(reading, models.UserProfile{AgeGroup: models.AgeTeen, Condition: models.ConditionAsthma})

	assert.NotEqual(t, base, otherAge)
	assert.NotEqual(t, base, otherCond)
}

func TestDeriveCacheKeyMissingPollutantGradesGood(t *testing.T) {
	reading := models.PollutantReading{
		Grades: map[string]models.Grade{models.PollutantPM25: models.GradeModerate},
	}
	key := DeriveCacheKey(reading, models.UserProfile{AgeGroup: models.AgeTeen, Condition: models.ConditionNone})
	assert.Equal(t, "pm25:2_pm10:1_o3:1_no2:1_so2:1_co:1_age:teen_cond:none", key)
}

func TestMemoryAdviceCacheRoundTrip(t *testing.T) {
	cache := NewMemoryAdviceCache()
	ctx := context.Background()

	_, found, err := cache.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	result := models.AdviceResult{
		Decision:     models.DecisionCaution,
		DecisionText: "오늘은 잠깐만 다녀와요.",
		ThreeReason:  []string{"초미세먼지 나쁨", "오존 보통", "민감군 주의"},
		DetailAnswer: "짧은 외출만 권장해요.",
		ActionItems:  []string{"외출은 30분 이내"},
		References:   []string{"고농도 미세먼지 대응매뉴얼"},
	}
	require.NoError(t, cache.Put(ctx, "key1", result))

	got, found, err := cache.Get(ctx, "key1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, result, got)

	// Put overwrites the whole entry.
	updated := result
	updated.DetailAnswer = "실내 활동을 권장해요."
	require.NoError(t, cache.Put(ctx, "key1", updated))
	got, _, _ = cache.Get(ctx, "key1")
	assert.Equal(t, updated, got)
}
