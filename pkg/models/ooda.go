package models

// ============================================================================
// OODA Phases
// ============================================================================

// Observation is the normalized form of one raw input turn.
type Observation struct {
	RawInput         string   `json:"raw_input"`
	NormalizedInput  string   `json:"normalized_input"`
	IsValid          bool     `json:"is_valid"`
	ValidationErrors []string `json:"validation_errors,omitempty"`
}

// Intent is a recognized action with its extracted entities. Produced by
// a pluggable recognizer, usually LLM-backed.
type Intent struct {
	ActionType           string         `json:"action_type"`
	Entities             map[string]any `json:"entities,omitempty"`
	Confidence           float64        `json:"confidence"`
	RequiresConfirmation bool           `json:"requires_confirmation,omitempty"`
}

// Orientation attaches recognized intent and ambient context to an
// observation.
type Orientation struct {
	Observation       Observation    `json:"observation"`
	Intent            *Intent        `json:"intent,omitempty"`
	Context           map[string]any `json:"context,omitempty"`
	ExtractedEntities map[string]any `json:"extracted_entities,omitempty"`
	Confidence        float64        `json:"confidence"`
}

// Decision is the outcome of the decide phase: either ready to execute,
// or a follow-up is needed for the listed missing fields.
type Decision struct {
	ActionType           string         `json:"action_type"`
	ActionParams         map[string]any `json:"action_params,omitempty"`
	RequiresConfirmation bool           `json:"requires_confirmation"`
	Confidence           float64        `json:"confidence"`
	MissingFields        []string       `json:"missing_fields,omitempty"`
	IsValid              bool           `json:"is_valid"`
	Error                string         `json:"error,omitempty"`
}

// Continuation is the stateless follow-up descriptor returned when a
// decision has missing fields. Clients resubmit it with the missing
// fields populated; the framework keeps no conversation state.
type Continuation struct {
	ActionType      string         `json:"action_type"`
	CollectedFields map[string]any `json:"collected_fields,omitempty"`
	MissingFields   []string       `json:"missing_fields,omitempty"`
}
