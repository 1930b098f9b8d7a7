package semquery

import (
	libinjection "github.com/corazawaf/libinjection-go"

	"github.com/ontoflow-ai/ontoflow/pkg/apperrors"
)

// screenFilterValues runs libinjection over every string filter value in
// the plan. Values are always bound as SQL parameters, never spliced, so
// this is a second line of defense against hostile extractor output.
func screenFilterValues(plan *CompiledPlan) error {
	for _, f := range plan.Filters {
		values := []any{f.Value}
		if list, ok := asList(f.Value); ok {
			values = list
		}
		for _, v := range values {
			s, ok := v.(string)
			if !ok {
				continue
			}
			if isSQLi, fingerprint := libinjection.IsSQLi(s); isSQLi {
				return apperrors.Newf(apperrors.KindInvalidFilterValue,
					"filter value for %q matches a SQL injection pattern (%s)",
					f.Path, fingerprint)
			}
		}
	}
	return nil
}
