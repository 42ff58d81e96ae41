// Package copy rewrites templated reminder lines into friendlier copy using
// an LLM. The rewriter is strictly best-effort; callers fall back to the
// template whenever it errors.
package copy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/northstarhq/northstar/internal/models"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultModel is the default model to use
	DefaultModel = "gpt-4o-mini"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 15 * time.Second
	// maxRewriteLength caps rewritten copy so a runaway completion never
	// floods a chat message
	maxRewriteLength = 400
)

const systemPrompt = "You rewrite goal reminder messages for a team chat bot. " +
	"Keep the meaning and the goal name intact, stay under two sentences, " +
	"and reply with the rewritten message only."

// Rewriter implements notify.Copywriter using OpenAI chat completions.
type Rewriter struct {
	client openai.Client
	model  string
	logger *zap.Logger
}

// NewRewriter creates a new rewriter. An empty model uses the default.
func NewRewriter(apiKey, model string, logger *zap.Logger) *Rewriter {
	if model == "" {
		model = DefaultModel
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{Timeout: DefaultTimeout}),
	)

	return &Rewriter{
		client: client,
		model:  model,
		logger: logger,
	}
}

// Rewrite asks the model for a friendlier version of the templated line.
func (r *Rewriter) Rewrite(ctx context.Context, base, goalName string, kind models.ReminderKind) (string, error) {
	req := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(r.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt(base, goalName, kind)),
		},
	}

	start := time.Now()
	resp, err := r.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to rewrite reminder: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("empty completion")
	}
	text = truncate(text, maxRewriteLength)

	r.logger.Debug("reminder_copy_rewritten",
		zap.String("kind", string(kind)),
		zap.Int64("latency_ms", time.Since(start).Milliseconds()),
	)
	return text, nil
}

// truncate caps text at max bytes without cutting through a multi-byte
// UTF-8 sequence.
func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

func userPrompt(base, goalName string, kind models.ReminderKind) string {
	var tone string
	switch kind {
	case models.ReminderKindNearExpiry:
		tone = "The cycle ends in a few days, so add gentle urgency."
	case models.ReminderKindExpired:
		tone = "The cycle just ended, so strike a wrap-up tone."
	default:
		tone = "This is a routine check-in."
	}
	return fmt.Sprintf("Goal: %q\nTemplate: %q\n%s", goalName, base, tone)
}
