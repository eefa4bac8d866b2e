// Package generate assembles the final answer prompt and streams the
// LLM's response, per spec.md §4.5.
package generate

import (
	"fmt"
	"strings"
	"time"

	"github.com/hotelrag/concierge/internal/domain"
	"github.com/hotelrag/concierge/pkg/text"
)

const promptTemplate = `你是一个酒店点评助手，请根据下面提供的评论和摘要回答用户的问题。

今天的日期：{{.Today}}
{{if .PreviousTurn}}
上一轮对话：
{{.PreviousTurn}}
{{end}}
用户问题：{{.UserQuery}}
{{if .SubQueries}}
检索使用的子查询（带权重）：
{{.SubQueries}}
{{end}}
{{if .Comments}}
以下是按相关性排序的评论，可以在回答中按编号引用它们（如"评论1"）：

{{.Comments}}
{{end}}
{{if .Summaries}}
以下是相关类别的摘要，仅作为背景信息，不能在回答中按编号引用：

{{.Summaries}}
{{end}}
请基于以上信息给出简洁、准确的回答。`

// PromptInput holds everything the generator needs to assemble one prompt.
type PromptInput struct {
	UserQuery    string
	PreviousTurn string
	Today        time.Time
	SubQueries   []domain.SubQuery
	Ranked       []domain.RankedCandidate
	Summaries    []domain.CategorySummary
}

// BuildPrompt renders the final-answer prompt: user query, optional
// previous turn, today's date, weighted sub-queries, ranked comments
// numbered in ranked order ("评论1", "评论2", ...), and a summary block
// that is explicitly marked as non-citable background (spec.md §4.5).
func BuildPrompt(in PromptInput) (string, error) {
	return text.NewRenderer().
		WithTemplate(promptTemplate).
		WithVariable("Today", in.Today.Format("2006-01-02")).
		WithVariable("PreviousTurn", in.PreviousTurn).
		WithVariable("UserQuery", in.UserQuery).
		WithVariable("SubQueries", formatSubQueries(in.SubQueries)).
		WithVariable("Comments", formatComments(in.Ranked)).
		WithVariable("Summaries", formatSummaries(in.Summaries)).
		Render()
}

func formatSubQueries(subQueries []domain.SubQuery) string {
	if len(subQueries) == 0 {
		return ""
	}
	var b strings.Builder
	for i, sq := range subQueries {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- %s（权重 %.1f）", sq.Text, sq.Weight)
	}
	return b.String()
}

func formatComments(ranked []domain.RankedCandidate) string {
	if len(ranked) == 0 {
		return ""
	}
	var b strings.Builder
	for i, c := range ranked {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "评论%d：%s", i+1, c.Text)
	}
	return b.String()
}

func formatSummaries(summaries []domain.CategorySummary) string {
	if len(summaries) == 0 {
		return ""
	}
	var b strings.Builder
	for i, s := range summaries {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "【%s】%s", s.Category, s.SummaryText)
	}
	return b.String()
}
