package matcher

import (
	"github.com/alharis/haris/internal/haris/common/log"
	"github.com/alharis/haris/internal/haris/common/utils"
	"github.com/alharis/haris/internal/haris/domain"
	"github.com/alharis/haris/internal/haris/repos/blocklist"
)

// Engine answers blocking queries. It keeps no per-account state: enabled
// categories and overrides are passed in with every call.
type Engine struct {
	store      SnapshotMatcher
	classifier Classifier
	logger     log.Logger
}

// New returns an Engine reading snapshots from store.
func New(store SnapshotMatcher, classifier Classifier, logger log.Logger) *Engine {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Engine{store: store, classifier: classifier, logger: logger}
}

// IsBlocked reports whether raw must be blocked for an account with the given
// enabled optional categories and overrides. Malformed input is blocked.
func (e *Engine) IsBlocked(raw string, enabled []string, overrides []domain.Override) bool {
	return e.Decide(raw, enabled, overrides).Blocked
}

// Decide evaluates raw in order: normalization, overrides, mandatory
// categories, enabled optional categories. A block override beats an allow
// override; an allow override beats every category.
func (e *Engine) Decide(raw string, enabled []string, overrides []domain.Override) domain.BlockDecision {
	name, err := utils.NormalizeDomain(raw)
	if err != nil {
		e.logger.Debug(map[string]any{"raw": raw, "error": err}, "query_malformed")
		return domain.BlockDecision{Blocked: true, Reason: domain.ReasonMalformed}
	}

	if d, ok := e.decideOverrides(name, overrides); ok {
		return d
	}

	_, matches := e.store.Match(name)
	if len(matches) == 0 {
		return domain.AllowDecision(name)
	}
	for _, m := range matches {
		if e.classifier.IsMandatory(m.Category) {
			return categoryDecision(name, m, domain.ReasonMandatoryCategory)
		}
	}
	if len(enabled) == 0 {
		return domain.AllowDecision(name)
	}
	on := make(map[string]struct{}, len(enabled))
	for _, c := range enabled {
		if e.classifier.IsOptional(c) {
			on[c] = struct{}{}
		}
	}
	for _, m := range matches {
		if _, ok := on[m.Category]; ok {
			return categoryDecision(name, m, domain.ReasonOptionalCategory)
		}
	}
	return domain.AllowDecision(name)
}

func (e *Engine) decideOverrides(name string, overrides []domain.Override) (domain.BlockDecision, bool) {
	var allow string
	for _, o := range overrides {
		target, err := utils.NormalizeDomain(o.Target)
		if err != nil {
			e.logger.Debug(map[string]any{"target": o.Target, "error": err}, "override_malformed")
			continue
		}
		if !utils.Covers(target, name) {
			continue
		}
		switch o.Verdict {
		case domain.VerdictBlock:
			return domain.BlockDecision{Domain: name, Blocked: true, Reason: domain.ReasonOverrideBlock, MatchedRule: target}, true
		case domain.VerdictAllow:
			if allow == "" {
				allow = target
			}
		}
	}
	if allow != "" {
		return domain.BlockDecision{Domain: name, Blocked: false, Reason: domain.ReasonOverrideAllow, MatchedRule: allow}, true
	}
	return domain.BlockDecision{}, false
}

func categoryDecision(name string, m blocklist.Match, reason domain.DecisionReason) domain.BlockDecision {
	return domain.BlockDecision{
		Domain:      name,
		Blocked:     true,
		Reason:      reason,
		Category:    m.Category,
		MatchedRule: m.Rule,
	}
}
