package services

import (
	"context"
	"errors"
	"testing"

	"epilog-api/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeChat struct {
	content     string
	err         error
	calls       int
	lastUserMsg string
}

func (f *fakeChat) ChatCompletionJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	f.lastUserMsg = userPrompt
	if f.err != nil {
		return "", f.err
	}
	return f.content, nil
}

func generationContext() GenerationContext {
	return GenerationContext{
		Reading: models.PollutantReading{
			StationName: "강남구",
			Grades: map[string]models.Grade{
				models.PollutantPM25: models.GradeUnhealthy,
			},
		},
		Profile:      models.UserProfile{AgeGroup: models.AgeElementaryHigh, Condition: models.ConditionAsthma},
		Decision:     models.DecisionWarning,
		DecisionText: "오늘은 실내 활동이 안전해요.",
		ActionItems:  []string{"야외 활동 대신 실내 활동"},
		Snippets: []models.GuidelineSnippet{
			{Text: "고농도 시 외출을 자제합니다.", Source: "대응매뉴얼", Page: 3},
			{Text: "천식 환자는 흡입기를 휴대합니다.", Source: "천식 가이드", Page: 12},
			{Text: "실내 공기질을 관리합니다.", Source: "대응매뉴얼", Page: 9},
		},
	}
}

func TestGenerateParsesModelOutput(t *testing.T) {
	chat := &fakeChat{content: `{"three_reason":["**초미세먼지**가 나쁨 단계예요","천식이 있어 더 민감해요","가이드라인이 외출 자제를 권고해요"],"detail_answer":"상세 설명입니다."}`}
	svc := NewGenerationService(chat, zap.NewNop())

	out := svc.Generate(context.Background(), generationContext())

	require.Len(t, out.ThreeReason, 3)
	assert.Equal(t, "상세 설명입니다.", out.DetailAnswer)
	// Distinct sources in retrieval order.
	assert.Equal(t, []string{"대응매뉴얼", "천식 가이드"}, out.References)
}

func TestGenerateUserPromptCarriesContext(t *testing.T) {
	chat := &fakeChat{content: `{"three_reason":["a"],"detail_answer":"b"}`}
	svc := NewGenerationService(chat, zap.NewNop())

	svc.Generate(context.Background(), generationContext())

	assert.Contains(t, chat.lastUserMsg, "오늘은 실내 활동이 안전해요.")
	assert.Contains(t, chat.lastUserMsg, "[출처: 대응매뉴얼]")
	assert.Contains(t, chat.lastUserMsg, "초미세먼지=나쁨")
}

func TestGenerateUpstreamErrorFallsBack(t *testing.T) {
	chat := &fakeChat{err: errors.New("503 from upstream")}
	svc := NewGenerationService(chat, zap.NewNop())

	out := svc.Generate(context.Background(), generationContext())

	require.NotEmpty(t, out.ThreeReason)
	assert.NotEmpty(t, out.DetailAnswer)
	// The fallback cites nothing.
	assert.Empty(t, out.References)
	assert.Contains(t, out.ThreeReason[0], "오늘은 실내 활동이 안전해요.")
}

func TestGenerateMalformedJSONFallsBack(t *testing.T) {
	for _, content := range []string{
		"not json at all",
		`{"three_reason":[],"detail_answer":"x"}`,
		`{"three_reason":["a"],"detail_answer":"  "}`,
	} {
		chat := &fakeChat{content: content}
		svc := NewGenerationService(chat, zap.NewNop())

		out := svc.Generate(context.Background(), generationContext())
		assert.Empty(t, out.References, "content %q", content)
		assert.NotEmpty(t, out.ThreeReason, "content %q", content)
	}
}

func TestSnippetReferencesUnknownSource(t *testing.T) {
	refs := snippetReferences([]models.GuidelineSnippet{{Text: "x", Source: ""}})
	assert.Equal(t, []string{"Unknown Source"}, refs)
}
