package ontology

import "github.com/ontoflow-ai/ontoflow/pkg/models"

// GetDomainGlossary aggregates registered action vocabulary by semantic
// category: keywords, correct/incorrect extraction examples and the
// category meaning. Prompt builders consume this output; the framework
// itself embeds no domain strings.
func (r *Registry) GetDomainGlossary() map[string]models.GlossaryEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	glossary := make(map[string]models.GlossaryEntry)
	for _, name := range r.actionOrder {
		action := r.actionsByName[name]
		if action.SemanticCategory == "" {
			continue
		}

		entry, ok := glossary[action.SemanticCategory]
		if !ok {
			entry = models.GlossaryEntry{
				Category: action.SemanticCategory,
				Meaning:  r.categoryMeanings[action.SemanticCategory],
			}
		}

		for _, kw := range action.SearchKeywords {
			if !containsString(entry.Keywords, kw) {
				entry.Keywords = append(entry.Keywords, kw)
			}
		}
		entry.Examples = append(entry.Examples, action.GlossaryExamples...)
		entry.Actions = append(entry.Actions, action.Name)

		glossary[action.SemanticCategory] = entry
	}
	return glossary
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
