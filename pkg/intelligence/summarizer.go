package intelligence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hozonlabs/hozon-go/pkg/llm"
)

const (
	// entrySeparator joins individual memory entries in the summarization
	// prompt.
	entrySeparator = "\n\n---\n\n"

	defaultSummaryTimeout   = 120 * time.Second
	defaultSummaryMaxTokens = 800
)

const weeklySummaryPrompt = "以下はAIエージェントの直近1週間の会話ログとリサーチ結果です。\n" +
	"これらを簡潔に要約してください（日本語、500字以内）。\n" +
	"重要なトピック、学んだこと、傾向を中心にまとめてください。\n\n"

// WeeklySummarizer compresses a week of memory entries into a single
// summary using an LLM.
type WeeklySummarizer struct {
	llm     llm.Provider
	timeout time.Duration
}

// SummarizerOption configures a WeeklySummarizer.
type SummarizerOption func(*WeeklySummarizer)

// WithTimeout bounds the LLM call. The default is 120 seconds.
func WithTimeout(d time.Duration) SummarizerOption {
	return func(s *WeeklySummarizer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewWeeklySummarizer creates a summarizer backed by the given LLM provider.
func NewWeeklySummarizer(provider llm.Provider, opts ...SummarizerOption) *WeeklySummarizer {
	s := &WeeklySummarizer{
		llm:     provider,
		timeout: defaultSummaryTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize joins the given entry texts and asks the LLM for a compact
// Japanese summary. Entries must already be in the desired order. Returns
// ErrUnavailable if the LLM call fails or yields empty output.
func (s *WeeklySummarizer) Summarize(ctx context.Context, entries []string) (string, error) {
	if len(entries) == 0 {
		return "", fmt.Errorf("Summarize: no entries to summarize")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prompt := weeklySummaryPrompt + strings.Join(entries, entrySeparator)

	raw, err := s.llm.Generate(ctx, prompt, llm.WithTemperature(0.5), llm.WithMaxTokens(defaultSummaryMaxTokens))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	summary := strings.TrimSpace(raw)
	if summary == "" {
		return "", fmt.Errorf("%w: empty summary", ErrUnavailable)
	}
	return summary, nil
}
