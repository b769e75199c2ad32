// Package perimeter decides whether a request is admitted before it reaches
// the API. A Protector runs an ordered list of rules (shield, bot detection,
// rate limiting) and folds their results into a single Decision.
package perimeter

import (
	"context"
	"net/http"
	"net/netip"
	"time"
)

// Conclusion is the outcome of a rule or a whole decision.
type Conclusion string

const (
	Allow Conclusion = "ALLOW"
	Deny  Conclusion = "DENY"
)

// ReasonKind names the rule family that produced a result.
type ReasonKind string

const (
	KindNone      ReasonKind = ""
	KindRateLimit ReasonKind = "RATE_LIMIT"
	KindBot       ReasonKind = "BOT"
	KindShield    ReasonKind = "SHIELD"
)

// Reason explains a rule result.
type Reason struct {
	Kind ReasonKind
	// Verified is set when the client identified as a known crawler and the
	// source address belongs to that crawler's networks.
	Verified bool
	// Spoofed is set when the client identified as a known crawler from an
	// address outside that crawler's networks.
	Spoofed bool
	// RetryAfter is how long a rate limited client should wait.
	RetryAfter time.Duration
	// Detail is a short human readable note for logs.
	Detail string
}

// IsRateLimit reports whether the reason came from the rate limiter.
func (r Reason) IsRateLimit() bool { return r.Kind == KindRateLimit }

// IsBot reports whether the reason came from bot detection.
func (r Reason) IsBot() bool { return r.Kind == KindBot }

// RuleResult is the verdict of one rule.
type RuleResult struct {
	Rule       string
	Conclusion Conclusion
	Reason     Reason
}

// Decision is the combined verdict for a request.
type Decision struct {
	Conclusion Conclusion
	Reason     Reason
	Results    []RuleResult
}

// IsDenied reports whether any rule denied the request.
func (d Decision) IsDenied() bool {
	return d.Conclusion == Deny
}

// SpoofedBot reports whether any rule flagged the client as a spoofed crawler.
func (d Decision) SpoofedBot() bool {
	for _, r := range d.Results {
		if r.Reason.IsBot() && r.Reason.Spoofed {
			return true
		}
	}
	return false
}

// Request is the subset of an HTTP request the rules inspect.
type Request struct {
	IP        netip.Addr
	UserAgent string
	Method    string
	Path      string
	RawQuery  string
	// Requested is the number of rate limit tokens the request costs.
	Requested int
}

// Key returns the rate limit key for the request.
func (r *Request) Key() string {
	if !r.IP.IsValid() {
		return "unknown"
	}
	return r.IP.String()
}

// NewRequest extracts the fields the rules need from an HTTP request.
func NewRequest(r *http.Request, requested int) *Request {
	return &Request{
		IP:        clientIP(r.RemoteAddr),
		UserAgent: r.UserAgent(),
		Method:    r.Method,
		Path:      r.URL.Path,
		RawQuery:  r.URL.RawQuery,
		Requested: requested,
	}
}

// Rule evaluates one admission concern.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, req *Request) (RuleResult, error)
}

func allow(rule string) RuleResult {
	return RuleResult{Rule: rule, Conclusion: Allow}
}

func deny(rule string, reason Reason) RuleResult {
	return RuleResult{Rule: rule, Conclusion: Deny, Reason: reason}
}

func clientIP(remoteAddr string) netip.Addr {
	if ap, err := netip.ParseAddrPort(remoteAddr); err == nil {
		return ap.Addr().Unmap()
	}
	if addr, err := netip.ParseAddr(remoteAddr); err == nil {
		return addr.Unmap()
	}
	return netip.Addr{}
}
