package ooda

import (
	"context"

	"go.uber.org/zap"

	"github.com/ontoflow-ai/ontoflow/pkg/models"
)

// IntentRecognizer maps normalized text to an action intent. The
// production recognizer is LLM-backed; tests use table-driven fakes.
type IntentRecognizer interface {
	Recognize(ctx context.Context, input string) (*models.Intent, error)
}

// ContextProvider contributes ambient key-values to an orientation:
// security context, conversation summaries, static configuration.
type ContextProvider interface {
	Name() string
	Provide(ctx context.Context) map[string]any
}

// StaticContextProvider serves a fixed key-value set.
type StaticContextProvider struct {
	ProviderName string
	Values       map[string]any
}

func (p StaticContextProvider) Name() string { return p.ProviderName }

func (p StaticContextProvider) Provide(context.Context) map[string]any { return p.Values }

// Orienter runs intent recognition and context attachment.
type Orienter struct {
	recognizer IntentRecognizer
	providers  []ContextProvider
	logger     *zap.Logger
}

// NewOrienter creates an orienter. providers may be empty.
func NewOrienter(recognizer IntentRecognizer, providers []ContextProvider, logger *zap.Logger) *Orienter {
	return &Orienter{
		recognizer: recognizer,
		providers:  providers,
		logger:     logger.Named("ooda.orient"),
	}
}

// Orient recognizes intent in a valid observation and attaches context.
// An invalid observation orients with zero confidence and no intent; a
// recognizer failure does the same rather than aborting the pipeline.
func (o *Orienter) Orient(ctx context.Context, obs models.Observation) models.Orientation {
	orientation := models.Orientation{
		Observation: obs,
		Context:     o.collectContext(ctx),
	}
	if !obs.IsValid {
		return orientation
	}

	intent, err := o.recognizer.Recognize(ctx, obs.NormalizedInput)
	if err != nil {
		o.logger.Warn("Intent recognition failed", zap.Error(err))
		return orientation
	}
	if intent == nil {
		return orientation
	}

	orientation.Intent = intent
	orientation.ExtractedEntities = intent.Entities
	orientation.Confidence = intent.Confidence

	o.logger.Debug("Oriented input",
		zap.String("action", intent.ActionType),
		zap.Float64("confidence", intent.Confidence))
	return orientation
}

func (o *Orienter) collectContext(ctx context.Context) map[string]any {
	if len(o.providers) == 0 {
		return nil
	}
	out := make(map[string]any)
	for _, p := range o.providers {
		out[p.Name()] = p.Provide(ctx)
	}
	return out
}
