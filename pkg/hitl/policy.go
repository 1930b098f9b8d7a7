package hitl

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ontoflow-ai/ontoflow/pkg/models"
)

// PolicyBucket assigns a confirmation rule to a named set of actions.
type PolicyBucket struct {
	Actions       []string `yaml:"actions"`
	Confirm       bool     `yaml:"confirm"`
	RequireReason bool     `yaml:"require_reason"`
}

// Contains reports whether the bucket names the action.
func (b PolicyBucket) Contains(action string) bool {
	for _, a := range b.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Policy is a declarative confirmation policy, usually loaded from YAML.
// Actions not named by any bucket fall through to the default rule.
type Policy struct {
	LowRiskActions    PolicyBucket `yaml:"low_risk_actions"`
	MediumRiskActions PolicyBucket `yaml:"medium_risk_actions"`
	HighRiskActions   PolicyBucket `yaml:"high_risk_actions"`

	// SkipConfirmation maps roles to actions the role may run without
	// confirmation, overriding every bucket.
	SkipConfirmation map[string][]string `yaml:"skip_confirmation,omitempty"`

	// DefaultConfirm applies to actions named by no bucket.
	DefaultConfirm bool `yaml:"default_confirm"`
}

// LoadPolicy reads a confirmation policy from a YAML file.
func LoadPolicy(path string) (*Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	var p Policy
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse policy file: %w", err)
	}
	return &p, nil
}

// ConfirmByPolicy applies a declarative policy. Role exemptions win over
// buckets; buckets are consulted highest risk first so an action named
// twice gets the stricter rule.
type ConfirmByPolicy struct {
	Policy *Policy
}

func (s ConfirmByPolicy) RequiresConfirmation(q Query) Verdict {
	if s.Policy == nil || q.Action == nil {
		return Verdict{Risk: models.RiskNone}
	}

	for _, exempt := range s.Policy.SkipConfirmation[q.User.Role] {
		if exempt == q.Action.Name {
			return Verdict{
				Risk:   models.RiskNone,
				Reason: fmt.Sprintf("role %s is exempt for %s", q.User.Role, q.Action.Name),
			}
		}
	}

	buckets := []struct {
		bucket PolicyBucket
		risk   models.RiskLevel
	}{
		{s.Policy.HighRiskActions, models.RiskHigh},
		{s.Policy.MediumRiskActions, models.RiskMedium},
		{s.Policy.LowRiskActions, models.RiskLow},
	}
	for _, b := range buckets {
		if b.bucket.Contains(q.Action.Name) {
			v := Verdict{
				Confirm:       b.bucket.Confirm,
				Risk:          b.risk,
				RequireReason: b.bucket.RequireReason,
			}
			if v.Confirm {
				v.Reason = fmt.Sprintf("%s is policy-classified at %s risk", q.Action.Name, b.risk)
			}
			return v
		}
	}

	if s.Policy.DefaultConfirm {
		return Verdict{
			Confirm: true,
			Risk:    models.RiskMedium,
			Reason:  "policy default requires confirmation",
		}
	}
	return Verdict{Risk: models.RiskNone}
}
