// Package ooda implements the observe/orient/decide pipeline that turns
// raw user text into an executable decision against the registry.
package ooda

import (
	"strings"
	"unicode"

	"github.com/ontoflow-ai/ontoflow/pkg/models"
)

// maxObservationLen bounds raw input so a hostile client cannot push
// megabytes through the intent recognizer.
const maxObservationLen = 4096

// Observe normalizes and validates one raw input turn. Normalization
// trims whitespace, collapses internal runs of spaces and strips
// control characters; validation rejects empty and oversized input.
func Observe(rawInput string) models.Observation {
	obs := models.Observation{RawInput: rawInput}

	normalized := normalize(rawInput)
	obs.NormalizedInput = normalized

	if normalized == "" {
		obs.ValidationErrors = append(obs.ValidationErrors, "input is empty")
	}
	if len(rawInput) > maxObservationLen {
		obs.ValidationErrors = append(obs.ValidationErrors, "input exceeds maximum length")
	}
	obs.IsValid = len(obs.ValidationErrors) == 0
	return obs
}

func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsControl(r) {
			continue
		}
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
