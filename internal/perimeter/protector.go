package perimeter

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
)

// Protector runs rules in order and combines their results.
type Protector struct {
	rules  []Rule
	logger zerolog.Logger
}

// NewProtector creates a protector evaluating rules in the given order.
func NewProtector(logger zerolog.Logger, rules ...Rule) *Protector {
	return &Protector{
		rules:  rules,
		logger: logger.With().Str("component", "perimeter").Logger(),
	}
}

// Protect evaluates every rule against r. The first denial ends evaluation and
// becomes the decision; earlier results are kept in Decision.Results.
// requested is the number of rate limit tokens the request costs.
func (p *Protector) Protect(ctx context.Context, r *http.Request, requested int) (Decision, error) {
	req := NewRequest(r, requested)
	decision := Decision{
		Conclusion: Allow,
		Results:    make([]RuleResult, 0, len(p.rules)),
	}

	for _, rule := range p.rules {
		result, err := rule.Evaluate(ctx, req)
		if err != nil {
			p.logger.Error().Err(err).Str("rule", rule.Name()).Str("ip", req.Key()).Msg("rule evaluation failed")
			return Decision{}, fmt.Errorf("rule %s: %w", rule.Name(), err)
		}

		decision.Results = append(decision.Results, result)

		if result.Conclusion == Deny {
			decision.Conclusion = Deny
			decision.Reason = result.Reason
			break
		}
	}

	p.logger.Debug().
		Str("ip", req.Key()).
		Str("path", req.Path).
		Str("conclusion", string(decision.Conclusion)).
		Str("reason", string(decision.Reason.Kind)).
		Msg("admission decision")

	return decision, nil
}
