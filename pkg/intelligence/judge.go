// Package intelligence provides LLM-backed memory capabilities: importance
// judgment for conversation admission and weekly log summarization.
package intelligence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/hozonlabs/hozon-go/pkg/llm"
)

// ErrUnavailable is returned when the backing LLM cannot be reached or
// produces no usable output. Callers may treat it as a signal to fall back
// to a default rather than fail the operation.
var ErrUnavailable = errors.New("intelligence: llm unavailable")

const judgeSystemPrompt = `You are an importance judge for an AI agent's conversation memory.
Rate how important the given exchange is to remember long-term, on a scale from 1 to 10.
Consider personal facts, decisions, preferences, commitments, and novel information as important.
Consider small talk and transient chatter as unimportant.
Return a JSON object with an "importance" field.`

// ChatJudge scores conversation exchanges on a 1-10 importance scale using
// an LLM.
type ChatJudge struct {
	llm llm.Provider
}

// NewChatJudge creates a judge backed by the given LLM provider.
func NewChatJudge(provider llm.Provider) *ChatJudge {
	return &ChatJudge{llm: provider}
}

// JudgeImportance returns an importance score in [1, 10] for a single
// message/response exchange. If the LLM call fails it returns 0 and
// ErrUnavailable.
func (j *ChatJudge) JudgeImportance(ctx context.Context, sender, message, response string) (float64, error) {
	userPrompt := fmt.Sprintf(
		"Exchange:\n%s: %s\n→ %s\n\nRate the importance and return JSON: {\"importance\": 1-10}",
		sender, message, response,
	)

	messages := []llm.Message{
		{Role: "system", Content: judgeSystemPrompt},
		{Role: "user", Content: userPrompt},
	}

	raw, err := j.llm.GenerateWithMessages(ctx, messages, llm.WithTemperature(0.0), llm.WithMaxTokens(100))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	score, ok := parseImportance(raw)
	if !ok {
		return 0, fmt.Errorf("%w: unparsable response %q", ErrUnavailable, truncate(raw, 80))
	}
	return score, nil
}

var numberRe = regexp.MustCompile(`\d+\.?\d*`)

// parseImportance extracts a 1-10 score from an LLM response. It first tries
// the JSON object the prompt asks for, then falls back to the first number
// in the text.
func parseImportance(response string) (float64, bool) {
	if start := strings.Index(response, "{"); start >= 0 {
		if end := strings.LastIndex(response, "}"); end > start {
			var result map[string]interface{}
			if err := json.Unmarshal([]byte(response[start:end+1]), &result); err == nil {
				if score, ok := result["importance"].(float64); ok {
					return clampScore(score), true
				}
			}
		}
	}

	if m := numberRe.FindString(response); m != "" {
		var score float64
		if _, err := fmt.Sscanf(m, "%f", &score); err == nil {
			return clampScore(score), true
		}
	}

	return 0, false
}

func clampScore(score float64) float64 {
	return math.Max(1.0, math.Min(10.0, score))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
