package ooda

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ontoflow-ai/ontoflow/pkg/jsonutil"
	"github.com/ontoflow-ai/ontoflow/pkg/llm"
	"github.com/ontoflow-ai/ontoflow/pkg/models"
	"github.com/ontoflow-ai/ontoflow/pkg/ontology"
	"github.com/ontoflow-ai/ontoflow/pkg/retry"
)

const recognizerSystemPrompt = `You map user requests onto registered actions.
Respond with a single JSON object:
{"action_type": "<registered action name or empty string>",
 "entities": {<parameter name>: <value>},
 "confidence": <0.0-1.0>,
 "requires_confirmation": <bool>}
Extract parameter values only; never copy trigger keywords into parameters.
Use an empty action_type when no registered action fits.`

// LLMRecognizer recognizes intent through an oracle, grounding the
// prompt in the registry's action catalog and domain glossary.
type LLMRecognizer struct {
	registry    *ontology.Registry
	oracle      llm.Oracle
	temperature float64
	retryCfg    *retry.Config
	logger      *zap.Logger
}

var _ IntentRecognizer = (*LLMRecognizer)(nil)

// intentResponse is the oracle's wire shape. Entity values arrive as raw
// JSON because extractors routinely emit numbers where the parameter
// wants a string.
type intentResponse struct {
	ActionType           string                     `json:"action_type"`
	Entities             map[string]json.RawMessage `json:"entities"`
	Confidence           float64                    `json:"confidence"`
	RequiresConfirmation bool                       `json:"requires_confirmation"`
}

// NewLLMRecognizer creates an oracle-backed recognizer.
func NewLLMRecognizer(registry *ontology.Registry, oracle llm.Oracle, logger *zap.Logger) *LLMRecognizer {
	return &LLMRecognizer{
		registry:    registry,
		oracle:      oracle,
		temperature: 0.1,
		retryCfg:    retry.DefaultConfig(),
		logger:      logger.Named("ooda.recognizer"),
	}
}

// Recognize asks the oracle to match input to a registered action. An
// empty or unregistered action_type comes back as a nil intent rather
// than an error; the pipeline treats that as "no intent recognized".
func (r *LLMRecognizer) Recognize(ctx context.Context, input string) (*models.Intent, error) {
	prompt := r.buildPrompt(input)

	var resp intentResponse
	err := retry.DoIfRetryable(ctx, r.retryCfg, func() error {
		var genErr error
		resp, genErr = llm.GenerateJSON[intentResponse](ctx, r.oracle, prompt, recognizerSystemPrompt, r.temperature)
		return genErr
	})
	if err != nil {
		return nil, fmt.Errorf("recognize intent: %w", err)
	}
	if resp.ActionType == "" {
		return nil, nil
	}
	if r.registry.GetActionByName(resp.ActionType) == nil {
		r.logger.Warn("Recognizer returned unregistered action",
			zap.String("action", resp.ActionType))
		return nil, nil
	}

	intent := models.Intent{
		ActionType:           resp.ActionType,
		Confidence:           resp.Confidence,
		RequiresConfirmation: resp.RequiresConfirmation,
	}
	if len(resp.Entities) > 0 {
		intent.Entities = make(map[string]any, len(resp.Entities))
		for name, raw := range resp.Entities {
			intent.Entities[name] = jsonutil.FlexibleString(raw)
		}
	}
	if intent.Confidence < 0 {
		intent.Confidence = 0
	}
	if intent.Confidence > 1 {
		intent.Confidence = 1
	}
	return &intent, nil
}

// buildPrompt renders the action catalog, glossary keywords and
// extraction examples into the recognition prompt.
func (r *LLMRecognizer) buildPrompt(input string) string {
	var b strings.Builder
	b.WriteString("Registered actions:\n")
	for _, action := range r.registry.GetActions() {
		b.WriteString("- ")
		b.WriteString(action.Name)
		if action.Description != "" {
			b.WriteString(": ")
			b.WriteString(action.Description)
		}
		if len(action.UIRequiredFields) > 0 {
			fmt.Fprintf(&b, " (required: %s)", strings.Join(action.UIRequiredFields, ", "))
		}
		b.WriteString("\n")
	}

	glossary := r.registry.GetDomainGlossary()
	if len(glossary) > 0 {
		b.WriteString("\nDomain glossary:\n")
		raw, err := json.Marshal(glossary)
		if err == nil {
			b.Write(raw)
			b.WriteString("\n")
		}
	}

	b.WriteString("\nUser request: ")
	b.WriteString(input)
	return b.String()
}
