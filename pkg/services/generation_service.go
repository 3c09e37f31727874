package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"epilog-api/pkg/models"
	"epilog-api/pkg/observability"

	"go.uber.org/zap"
)

// ChatClient runs one system+user exchange and returns the model's JSON
// content. Implemented by the OpenAI client; tests substitute fakes.
type ChatClient interface {
	ChatCompletionJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// GenerationContext is everything the justification prompt needs. The
// decision itself is already made; the model only explains it.
type GenerationContext struct {
	Reading      models.PollutantReading
	Profile      models.UserProfile
	Decision     models.Decision
	DecisionText string
	ActionItems  []string
	Snippets     []models.GuidelineSnippet
}

// GenerationOutput is the structured justification: exactly the three_reason
// + detail_answer schema the API exposes.
type GenerationOutput struct {
	ThreeReason  []string
	DetailAnswer string
	References   []string
}

const generationSystemPrompt = `당신은 환경보건 의사입니다. 대기질 데이터와 환자의 기저질환 정보를 바탕으로 판단 근거를 작성해주세요.

[중요]
1. 'decision'과 'actionItems'는 이미 시스템에서 계산되었습니다. 당신은 이 결정이 내려진 '의학적/환경적 이유'만 작성하면 됩니다.
2. 제공된 [의학적 가이드라인] 내용을 최우선으로 반영하여 설명하세요.
3. 반드시 JSON 형식으로 응답해야 합니다.

응답 포맷:
{
    "three_reason": ["**핵심 키워드**를 강조한 한 줄 근거 1", "근거 2", "근거 3"],
    "detail_answer": "판단 근거에 대한 상세 설명 (가이드라인 내용 인용 포함)"
}`

// generationResult is the JSON shape the model must return.
type generationResult struct {
	ThreeReason  []string `json:"three_reason"`
	DetailAnswer string   `json:"detail_answer"`
}

// GenerationService produces the structured natural-language justification
// for an already-made decision. Generation is a soft dependency: upstream
// failure or a malformed response degrades to a fixed template that
// references the decision text only.
type GenerationService struct {
	chat   ChatClient
	logger *zap.Logger
}

// NewGenerationService creates a GenerationService.
func NewGenerationService(chat ChatClient, logger *zap.Logger) *GenerationService {
	return &GenerationService{chat: chat, logger: logger}
}

// Generate returns the justification and the references actually derived
// from the provided snippets. It never returns an error: every failure path
// yields the deterministic fallback.
func (s *GenerationService) Generate(ctx context.Context, gc GenerationContext) GenerationOutput {
	content, err := s.chat.ChatCompletionJSON(ctx, generationSystemPrompt, buildUserPrompt(gc))
	if err != nil {
		s.logger.Warn("generation call failed, using fallback justification",
			zap.String("decision", string(gc.Decision)), zap.Error(err))
		observability.GenerationFallbacksTotal.Inc()
		return fallbackOutput(gc)
	}

	var result generationResult
	if err := json.Unmarshal([]byte(content), &result); err != nil ||
		len(result.ThreeReason) == 0 || strings.TrimSpace(result.DetailAnswer) == "" {
		s.logger.Warn("generation returned malformed structure, using fallback justification",
			zap.String("decision", string(gc.Decision)), zap.Error(err))
		observability.GenerationFallbacksTotal.Inc()
		return fallbackOutput(gc)
	}

	return GenerationOutput{
		ThreeReason:  result.ThreeReason,
		DetailAnswer: result.DetailAnswer,
		References:   snippetReferences(gc.Snippets),
	}
}

func buildUserPrompt(gc GenerationContext) string {
	var grades []string
	for _, pollutant := range models.Pollutants() {
		grades = append(grades, fmt.Sprintf("%s=%s",
			models.PollutantKoreanName(pollutant), gc.Reading.Grade(pollutant).KoreanLabel()))
	}

	contextText := "관련 의학적 가이드라인을 찾을 수 없습니다."
	if len(gc.Snippets) > 0 {
		var b strings.Builder
		for _, snippet := range gc.Snippets {
			source := snippet.Source
			if source == "" {
				source = "가이드라인"
			}
			fmt.Fprintf(&b, "- [출처: %s] %s\n", source, snippet.Text)
		}
		contextText = b.String()
	}

	return fmt.Sprintf(`[상황 정보]
- 대기질: %s
- 사용자: %s, %s
- 시스템 결정: %s
- 시스템 행동수칙: %s

[의학적 가이드라인 (참고 문헌)]
%s

위 결정이 내려진 배경과 이유를 가이드라인을 참고하여 친절하게 설명해주세요.`,
		strings.Join(grades, ", "),
		gc.Profile.AgeGroup, gc.Profile.Condition,
		gc.DecisionText,
		strings.Join(gc.ActionItems, " / "),
		contextText)
}

// fallbackOutput is the deterministic justification used when the model is
// unavailable. References stay empty: the fallback cites nothing.
func fallbackOutput(gc GenerationContext) GenerationOutput {
	return GenerationOutput{
		ThreeReason: []string{
			fmt.Sprintf("오늘 대기질 기준으로 **%s** 단계로 판정되었어요.", gc.DecisionText),
			"측정된 오염물질 중 가장 나쁜 등급을 기준으로 안전하게 판단했어요.",
			"아래 행동수칙을 지키면 무리 없이 하루를 보낼 수 있어요.",
		},
		DetailAnswer: "일시적인 오류로 상세 설명을 불러오지 못했습니다. 하지만 행동 지침은 위와 같이 준수해주세요.",
		References:   []string{},
	}
}

// snippetReferences lists the distinct sources of the snippets actually
// handed to the model, in retrieval order.
func snippetReferences(snippets []models.GuidelineSnippet) []string {
	refs := make([]string, 0, len(snippets))
	seen := make(map[string]bool, len(snippets))
	for _, snippet := range snippets {
		source := snippet.Source
		if source == "" {
			source = "Unknown Source"
		}
		if !seen[source] {
			seen[source] = true
			refs = append(refs, source)
		}
	}
	return refs
}
