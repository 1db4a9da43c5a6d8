package domain

// DecisionReason explains which step of matching produced a decision.
type DecisionReason string

const (
	ReasonNone              DecisionReason = "none"
	ReasonMalformed         DecisionReason = "malformed"
	ReasonOverrideBlock     DecisionReason = "override_block"
	ReasonOverrideAllow     DecisionReason = "override_allow"
	ReasonMandatoryCategory DecisionReason = "mandatory_category"
	ReasonOptionalCategory  DecisionReason = "optional_category"
)

// BlockDecision is the outcome of evaluating a domain for one account.
// Pure value type.
type BlockDecision struct {
	Domain      string         `json:"domain"` // normalized query, empty when malformed
	Blocked     bool           `json:"blocked"`
	Reason      DecisionReason `json:"reason"`
	Category    string         `json:"category,omitempty"` // matching category, if any
	MatchedRule string         `json:"matched_rule,omitempty"`
}

// IsBlocked is a convenience accessor.
func (d BlockDecision) IsBlocked() bool { return d.Blocked }

// AllowDecision returns a not-blocked decision for name.
func AllowDecision(name string) BlockDecision {
	return BlockDecision{Domain: name, Blocked: false, Reason: ReasonNone}
}
