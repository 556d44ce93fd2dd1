package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// analysisInputBudget caps how much transcript is sent to the generator.
const analysisInputBudget = 8000

// Analysis is the AI-generated metadata shape later fed into Save.
type Analysis struct {
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	KeyInsights []string `json:"key_insights"`
	ActionItems []string `json:"action_items"`
}

// ParseError reports generator output that failed to parse as an Analysis.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("analysis output is not valid JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Sentinel is the fixed fallback substituted when analysis output fails to
// parse. Callers recognize the failure by these values, not by an error.
func Sentinel() Analysis {
	return Analysis{
		Title:       "Chat analysis",
		Summary:     "Analysis failed",
		Category:    "other",
		Tags:        []string{"chat"},
		KeyInsights: []string{"analysis retry needed"},
		ActionItems: []string{"review the content and re-run the analysis"},
	}
}

// Analyze asks the generator for structured metadata about a transcript.
// A provider failure aborts with ProviderError; unparseable output is
// swallowed and replaced with the sentinel (the parse-or-fallback policy),
// so the save pipeline always receives some metadata shape.
func (s *Service) Analyze(ctx context.Context, content string) (Analysis, error) {
	if len(strings.TrimSpace(content)) == 0 {
		return Analysis{}, &ValidationError{Message: "content is required"}
	}

	raw, err := s.generator.Generate(ctx, analysisPrompt(content))
	if err != nil {
		return Analysis{}, &ProviderError{Op: "analyze", Err: err}
	}

	analysis, err := parseAnalysis(raw)
	if err != nil {
		slog.WarnContext(ctx, "analysis output failed to parse, substituting sentinel", "error", err)
		return Sentinel(), nil
	}

	return analysis, nil
}

func parseAnalysis(raw string) (Analysis, error) {
	var analysis Analysis
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &analysis); err != nil {
		return Analysis{}, &ParseError{Raw: raw, Err: err}
	}
	return analysis, nil
}

func analysisPrompt(content string) string {
	runes := []rune(content)
	if len(runes) > analysisInputBudget {
		content = string(runes[:analysisInputBudget])
	}

	var sb strings.Builder
	sb.WriteString("Analyze the following conversation chronologically, focusing on how it progressed, the technical problems encountered, and how they were resolved:\n\n")
	sb.WriteString("Conversation:\n")
	sb.WriteString(content)
	sb.WriteString("\n\nCover the following:\n")
	sb.WriteString("1. The overall purpose and goals\n")
	sb.WriteString("2. The main technologies involved\n")
	sb.WriteString("3. Problems that came up and how they were solved\n")
	sb.WriteString("4. What was ultimately achieved\n")
	sb.WriteString("5. Key lessons learned\n\n")
	sb.WriteString("Return JSON only, in exactly this shape:\n")
	sb.WriteString(`{
  "title": "a title centered on the purpose",
  "summary": "chronological progress and main outcomes (300 characters max)",
  "category": "one of tech|project|career|study|personal|other",
  "tags": ["specific technologies and keywords"],
  "key_insights": ["technical lessons and important findings"],
  "action_items": ["what was completed and what to do next"]
}`)
	sb.WriteString("\n\nReturn only the JSON with no other explanation.")

	return sb.String()
}
