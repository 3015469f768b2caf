// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/docquery/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// maxPassageChars bounds how much of each passage is sent to the scoring model.
const maxPassageChars = 800

// Reranker implements ai.Reranker using OpenAI-compatible chat APIs.
// It asks the model to score every passage against the query in a single
// call and parses the JSON response.
type Reranker struct {
	client llms.Model
	logger *slog.Logger
}

// scoreSheet is the wrapper structure for the LLM's JSON response.
type scoreSheet struct {
	Scores []float64 `json:"scores"`
}

// newReranker is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newReranker(config *ai.Config) (*Reranker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.RerankerHost),
		openai.WithToken("none"),
		openai.WithModel(config.RerankerModel),
	)
	if err != nil {
		return nil, err
	}

	return &Reranker{
		client: client,
		logger: slog.Default().With("component", "openai-reranker"),
	}, nil
}

// NewReranker creates a new reranker using the provided configuration.
//
// Returns ai.Reranker interface to enforce abstraction.
func NewReranker(config *ai.Config) (ai.Reranker, error) {
	return newReranker(config)
}

// Rerank scores each passage against the query using an LLM.
// Scores are clamped to [0, 1] and returned in passage order.
func (r *Reranker) Rerank(ctx context.Context, query string, passages []string) ([]float64, error) {
	if len(passages) == 0 {
		return []float64{}, nil
	}

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(rerankSystemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(buildRerankInput(query, passages)),
			},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var result scoreSheet
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := r.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			r.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			r.logger.Debug("no choices returned from model")
			return nil, fmt.Errorf("reranker: empty response")
		}

		responseText := stripCodeFences(response.Choices[0].Content)
		responseText = repairJSON(responseText)

		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			r.logger.Warn("error parsing reranker response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		if len(result.Scores) != len(passages) {
			lastErr = fmt.Errorf("reranker: got %d scores for %d passages", len(result.Scores), len(passages))
			r.logger.Warn("score count mismatch", "attempt", attempt+1, "err", lastErr)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		r.logger.Error("failed to parse reranker response after retries", "err", lastErr)
		return nil, lastErr
	}

	for i, s := range result.Scores {
		result.Scores[i] = clamp01(s)
	}

	r.logger.Debug("reranked passages", "count", len(passages))
	return result.Scores, nil
}

// buildRerankInput formats the query and numbered passages for the model.
// Long passages are truncated so the whole batch stays within context.
func buildRerankInput(query string, passages []string) string {
	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(strings.TrimSpace(query))
	b.WriteString("\n\nPassages:\n")
	for i, p := range passages {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, truncateRunes(strings.TrimSpace(p), maxPassageChars))
	}
	return b.String()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
