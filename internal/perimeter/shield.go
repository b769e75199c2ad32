package perimeter

import (
	"context"
	"net/url"
	"strings"
)

// shieldMarkers are lowercase fragments that never appear in legitimate
// requests to this API.
var shieldMarkers = []string{
	"../",
	"..\\",
	"<script",
	"union select",
	"' or 1=1",
	"\" or 1=1",
}

// ShieldRule denies requests carrying path traversal or injection markers.
type ShieldRule struct{}

// NewShieldRule creates a shield rule.
func NewShieldRule() *ShieldRule {
	return &ShieldRule{}
}

// Name implements Rule.
func (s *ShieldRule) Name() string { return "shield" }

// Evaluate implements Rule.
func (s *ShieldRule) Evaluate(_ context.Context, req *Request) (RuleResult, error) {
	for _, target := range []string{req.Path, req.RawQuery} {
		if target == "" {
			continue
		}
		if marker, ok := suspicious(target); ok {
			return deny(s.Name(), Reason{Kind: KindShield, Detail: marker}), nil
		}
	}
	return allow(s.Name()), nil
}

// suspicious reports the first marker found in s after query unescaping.
func suspicious(s string) (string, bool) {
	if unescaped, err := url.QueryUnescape(s); err == nil {
		s = unescaped
	}
	s = strings.ToLower(s)
	for _, m := range shieldMarkers {
		if strings.Contains(s, m) {
			return m, true
		}
	}
	return "", false
}
