package models

// GlossaryEntry aggregates the vocabulary of one semantic category of
// actions. The registry builds these from registered action metadata;
// no domain strings live in the framework itself.
type GlossaryEntry struct {
	Category string            `json:"category"`
	Meaning  string            `json:"meaning,omitempty"`
	Keywords []string          `json:"keywords,omitempty"`
	Examples []GlossaryExample `json:"examples,omitempty"`
	Actions  []string          `json:"actions,omitempty"`
}
