// Package llm provides the oracle contract the framework's pluggable
// extractors and generators call: text in, JSON out. The core never
// talks to a model directly; collaborators receive an Oracle and use it.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// Oracle is a text-completion endpoint. Implementations exist for
// OpenAI-compatible servers and Anthropic; tests use canned fakes.
type Oracle interface {
	Generate(ctx context.Context, prompt, systemMessage string, temperature float64) (string, error)
	Model() string
}

// Embedder turns text into vectors for the schema retriever.
type Embedder interface {
	CreateEmbedding(ctx context.Context, input string) ([]float32, error)
	CreateEmbeddings(ctx context.Context, inputs []string) ([][]float32, error)
}

// GenerateJSON asks the oracle for a completion and decodes the first
// JSON value found in it, tolerating markdown fences and reasoning tags.
func GenerateJSON[T any](ctx context.Context, oracle Oracle, prompt, systemMessage string, temperature float64) (T, error) {
	var result T
	response, err := oracle.Generate(ctx, prompt, systemMessage, temperature)
	if err != nil {
		return result, err
	}
	jsonStr, err := ExtractJSON(response)
	if err != nil {
		return result, NewError(ErrorTypeResponse, "response contained no JSON", false, err)
	}
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return result, NewError(ErrorTypeResponse,
			fmt.Sprintf("response JSON did not match the expected shape: %v", err), false, err)
	}
	return result, nil
}
