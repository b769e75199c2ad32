package perimeter

import (
	"context"
	"fmt"
	"net/netip"
	"strings"
)

// VerifiedBot is a crawler trusted only from its published networks.
type VerifiedBot struct {
	Token    string
	Prefixes []netip.Prefix
}

// Contains reports whether addr belongs to one of the bot's networks.
func (b VerifiedBot) Contains(addr netip.Addr) bool {
	if !addr.IsValid() {
		return false
	}
	for _, p := range b.Prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ParseVerifiedBots parses "token=cidr,cidr;token=cidr". Tokens are lowercased.
func ParseVerifiedBots(s string) ([]VerifiedBot, error) {
	var bots []VerifiedBot
	for _, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		token, cidrs, ok := strings.Cut(entry, "=")
		token = strings.ToLower(strings.TrimSpace(token))
		if !ok || token == "" {
			return nil, fmt.Errorf("invalid verified bot entry %q", entry)
		}

		bot := VerifiedBot{Token: token}
		for _, c := range strings.Split(cidrs, ",") {
			c = strings.TrimSpace(c)
			if c == "" {
				continue
			}
			prefix, err := netip.ParsePrefix(c)
			if err != nil {
				return nil, fmt.Errorf("invalid network for %s: %w", token, err)
			}
			bot.Prefixes = append(bot.Prefixes, prefix.Masked())
		}
		if len(bot.Prefixes) == 0 {
			return nil, fmt.Errorf("verified bot %s has no networks", token)
		}

		bots = append(bots, bot)
	}
	return bots, nil
}

// BotRule admits verified crawlers, flags impostors and denies clients whose
// user agent matches the signature catalog.
type BotRule struct {
	verified []VerifiedBot
	catalog  *Catalog
}

// NewBotRule creates a bot rule. catalog may be nil.
func NewBotRule(verified []VerifiedBot, catalog *Catalog) *BotRule {
	if catalog == nil {
		catalog = NewCatalog()
	}
	return &BotRule{verified: verified, catalog: catalog}
}

// Name implements Rule.
func (b *BotRule) Name() string { return "bot" }

// Evaluate implements Rule.
func (b *BotRule) Evaluate(_ context.Context, req *Request) (RuleResult, error) {
	ua := strings.ToLower(strings.TrimSpace(req.UserAgent))
	if ua == "" {
		return deny(b.Name(), Reason{Kind: KindBot, Detail: "missing user agent"}), nil
	}

	for _, bot := range b.verified {
		if !strings.Contains(ua, bot.Token) {
			continue
		}
		if bot.Contains(req.IP) {
			return RuleResult{
				Rule:       b.Name(),
				Conclusion: Allow,
				Reason:     Reason{Kind: KindBot, Verified: true, Detail: bot.Token},
			}, nil
		}
		return RuleResult{
			Rule:       b.Name(),
			Conclusion: Allow,
			Reason:     Reason{Kind: KindBot, Spoofed: true, Detail: bot.Token},
		}, nil
	}

	if sig, ok := b.catalog.Match(ua); ok {
		return deny(b.Name(), Reason{Kind: KindBot, Detail: sig}), nil
	}

	return allow(b.Name()), nil
}
