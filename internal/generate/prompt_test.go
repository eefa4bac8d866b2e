package generate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hotelrag/concierge/internal/domain"
)

func TestBuildPrompt_NumbersCommentsInRankedOrder(t *testing.T) {
	ranked := []domain.RankedCandidate{
		{Candidate: domain.Candidate{CommentID: "c2", Text: "早餐不错"}},
		{Candidate: domain.Candidate{CommentID: "c1", Text: "房间干净"}},
	}
	prompt, err := BuildPrompt(PromptInput{
		UserQuery: "房间怎么样",
		Today:     time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		Ranked:    ranked,
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "评论1：早餐不错")
	assert.Contains(t, prompt, "评论2：房间干净")
}

func TestBuildPrompt_DistinguishesCitableCommentsFromBackgroundSummaries(t *testing.T) {
	prompt, err := BuildPrompt(PromptInput{
		UserQuery: "房间怎么样",
		Today:     time.Now(),
		Ranked:    []domain.RankedCandidate{{Candidate: domain.Candidate{CommentID: "c1", Text: "干净"}}},
		Summaries: []domain.CategorySummary{{Category: "噪音", SummaryText: "常见差评"}},
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "可以在回答中按编号引用它们")
	assert.Contains(t, prompt, "不能在回答中按编号引用")
	assert.Contains(t, prompt, "评论1：干净")
	assert.Contains(t, prompt, "【噪音】常见差评")
}

func TestBuildPrompt_OmitsPreviousTurnSectionWhenAbsent(t *testing.T) {
	prompt, err := BuildPrompt(PromptInput{UserQuery: "q", Today: time.Now()})
	require.NoError(t, err)
	assert.NotContains(t, prompt, "上一轮对话")
}

func TestBuildPrompt_IncludesPreviousTurnWhenPresent(t *testing.T) {
	prompt, err := BuildPrompt(PromptInput{UserQuery: "q", Today: time.Now(), PreviousTurn: "上次问了早餐"})
	require.NoError(t, err)
	assert.Contains(t, prompt, "上一轮对话")
	assert.Contains(t, prompt, "上次问了早餐")
}

func TestBuildPrompt_IncludesWeightedSubQueries(t *testing.T) {
	prompt, err := BuildPrompt(PromptInput{
		UserQuery:  "q",
		Today:      time.Now(),
		SubQueries: []domain.SubQuery{{Text: "大床房", Weight: 0.6}, {Text: "噪音", Weight: 0.4}},
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "大床房（权重 0.6）")
	assert.Contains(t, prompt, "噪音（权重 0.4）")
}
