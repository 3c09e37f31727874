package services

import (
	"epilog-api/pkg/models"
)

// Decision texts per age group. Indexed by the decision key; every declared
// age group has all three entries so the engine stays total.
var decisionTexts = map[models.AgeGroup]map[models.Decision]string{
	models.AgeInfant: {
		models.DecisionOK:      "오늘은 바깥놀이 괜찮아요 🙂",
		models.DecisionCaution: "오늘은 짧게 다녀와요!",
		models.DecisionWarning: "오늘은 실내가 더 편해요 🏠",
	},
	models.AgeElementaryLow: {
		models.DecisionOK:      "오늘은 밖에서 놀기 좋아요! 물은 꼭 챙기기!",
		models.DecisionCaution: "오늘은 잠깐만 다녀와요. 땀나는 놀이는 쉬기!",
		models.DecisionWarning: "오늘은 실내 놀이가 더 좋아요!",
	},
	models.AgeElementaryHigh: {
		models.DecisionOK:      "오늘은 야외활동 괜찮아요. 물 자주 마셔요!",
		models.DecisionCaution: "오늘은 야외 활동은 가능하지만 강도는 낮게!",
		models.DecisionWarning: "오늘은 실내 활동이 안전해요.",
	},
	models.AgeTeen: {
		models.DecisionOK:      "오늘은 야외 활동 무리 없어요. 수분 섭취 잊지 마세요.",
		models.DecisionCaution: "오늘은 야외 운동 강도는 낮추고 시간은 짧게!",
		models.DecisionWarning: "오늘은 실내 활동이 더 안전합니다.",
	},
}

// Base action items per age group and decision.
var actionItems = map[models.AgeGroup]map[models.Decision][]string{
	models.AgeInfant: {
		models.DecisionOK: {
			"가까운 공원에서 가볍게 뛰어놀기",
			"물 자주 마시기",
			"집에 오면 손·얼굴 씻기",
		},
		models.DecisionCaution: {
			"외출은 20–30분 이내로 짧게",
			"뛰는 놀이는 잠깐만",
			"집에서는 블록/역할놀이로 바꿔보기",
		},
		models.DecisionWarning: {
			"외출 대신 장난감 정리+찾기 게임",
			"실내에서 풍선배구/장애물 코스(가볍게)",
			"환기는 짧게(5–10분) 하고 바로 닫기",
		},
	},
	models.AgeElementaryLow: {
		models.DecisionOK: {
			"가벼운 달리기/자전거",
			"물 자주 마시기",
			"귀가 후 손씻기/세안",
		},
		models.DecisionCaution: {
			"땀 많이 나는 놀이는 잠깐만",
			"외출은 30분 이내",
			"실내에서는 만들기/보드게임 추천",
		},
		models.DecisionWarning: {
			"밖 대신 실내 놀이(보드게임/만들기)",
			"창문 환기는 짧게",
			"기침/쌕쌕이면 쉬기",
		},
	},
	models.AgeElementaryHigh: {
		models.DecisionOK: {
			"가벼운 운동이나 산책",
			"마스크/손씻기(필요 시)",
			"귀가 후 샤워/세안",
		},
		models.DecisionCaution: {
			"체육/뛰기 대신 산책·자전거 천천히",
			"시간은 짧게(30–60분)",
			"실내에서는 독서/보드게임/만들기",
		},
		models.DecisionWarning: {
			"야외 활동 대신 실내 활동",
			"창문 환기는 짧게",
			"호흡기 증상 있으면 무리하지 않기",
		},
	},
	models.AgeTeen: {
		models.DecisionOK: {
			"가벼운 운동이나 산책",
			"마스크/손씻기(필요 시)",
			"귀가 후 샤워/세안",
		},
		models.DecisionCaution: {
			"격한 운동은 피하고 강도 낮추기",
			"외출 시간은 짧게(30–60분)",
			"실내에서는 스트레칭/가벼운 운동 추천",
		},
		models.DecisionWarning: {
			"야외 활동 대신 실내 운동",
			"창문 환기는 짧게",
			"호흡기 증상 있으면 무리하지 않기",
		},
	},
}

// Condition-specific items appended after the base items. The none condition
// adds nothing.
var conditionActionItems = map[models.Condition]map[models.Decision][]string{
	models.ConditionAsthma: {
		models.DecisionOK: {
			"흡입기(증상완화제)는 늘 가지고 다니기",
		},
		models.DecisionCaution: {
			"흡입기(증상완화제) 꼭 챙기기",
			"쌕쌕거림이 시작되면 바로 실내로",
		},
		models.DecisionWarning: {
			"외출 전 흡입기 준비, 증상 시 즉시 사용",
			"기침·쌕쌕거림이 계속되면 보호자에게 알리기",
		},
	},
	models.ConditionRhinitis: {
		models.DecisionOK: {
			"외출 후 코 세척(식염수)",
		},
		models.DecisionCaution: {
			"보건용 마스크(KF80 이상) 착용",
			"귀가 후 코 세척",
		},
		models.DecisionWarning: {
			"실내에서도 공기청정기 가동",
			"코막힘 심하면 가습으로 완화",
		},
	},
	models.ConditionAtopy: {
		models.DecisionOK: {
			"보습제 수시로 바르기",
		},
		models.DecisionCaution: {
			"외출 전 보습제 꼼꼼히 바르기",
			"귀가 후 미지근한 물로 씻고 바로 보습",
		},
		models.DecisionWarning: {
			"피부 가려움 심해지면 긁지 말고 냉찜질",
			"면 소재 긴팔로 피부 노출 줄이기",
		},
	},
}

const bothHighSuffix = " (미세먼지와 오존 둘 다 높아요!)"

// OverallGrade returns the worst grade across all measured pollutants.
func OverallGrade(reading models.PollutantReading) models.Grade {
	worst := models.GradeGood
	for _, grade := range reading.Grades {
		if grade > worst {
			worst = grade
		}
	}
	return worst
}

// decide maps the graded reading to a decision tier:
//   - warning when any pollutant is hazardous, or PM2.5 and O3 are both at
//     least unhealthy;
//   - caution when any pollutant is unhealthy, or a sensitive-group grade is
//     reached by a user with a sensitive condition;
//   - sensitive conditions escalate caution to warning (ties resolve to the
//     safer tier);
//   - ok otherwise.
func decide(reading models.PollutantReading, profile models.UserProfile) models.Decision {
	pm25 := reading.Grade(models.PollutantPM25)
	o3 := reading.Grade(models.PollutantO3)

	worst := OverallGrade(reading)

	switch {
	case worst >= models.GradeHazardous:
		return models.DecisionWarning
	case pm25 >= models.GradeUnhealthy && o3 >= models.GradeUnhealthy:
		return models.DecisionWarning
	case worst >= models.GradeUnhealthy:
		if profile.Condition.Sensitive() {
			return models.DecisionWarning
		}
		return models.DecisionCaution
	case worst >= models.GradeUnhealthySensitive && profile.Condition.Sensitive():
		return models.DecisionCaution
	default:
		return models.DecisionOK
	}
}

// Decide is the decision engine: a pure function from the graded reading and
// the profile to a decision tier, a display text, and a non-empty ordered
// action item list. Total over the declared enum sets: unknown age groups
// read the elementary_high tables.
func Decide(reading models.PollutantReading, profile models.UserProfile) (models.Decision, string, []string) {
	decision := decide(reading, profile)

	texts, ok := decisionTexts[profile.AgeGroup]
	if !ok {
		texts = decisionTexts[models.AgeElementaryHigh]
	}
	text := texts[decision]

	if reading.Grade(models.PollutantPM25) >= models.GradeUnhealthy &&
		reading.Grade(models.PollutantO3) >= models.GradeUnhealthy {
		text += bothHighSuffix
	}

	base, ok := actionItems[profile.AgeGroup]
	if !ok {
		base = actionItems[models.AgeElementaryHigh]
	}
	items := make([]string, 0, len(base[decision])+2)
	items = append(items, base[decision]...)
	if extra, ok := conditionActionItems[profile.Condition]; ok {
		items = append(items, extra[decision]...)
	}

	return decision, text, items
}

// MainIssue returns the dominant pollutant and its grade: the worst-graded
// pollutant in canonical order (PM2.5 wins ties, matching its weight in the
// underlying guidance).
func MainIssue(reading models.PollutantReading) (string, models.Grade) {
	mainPollutant := models.PollutantPM25
	mainGrade := reading.Grade(models.PollutantPM25)
	for _, pollutant := range models.Pollutants() {
		if grade := reading.Grade(pollutant); grade > mainGrade {
			mainPollutant = pollutant
			mainGrade = grade
		}
	}
	return mainPollutant, mainGrade
}
