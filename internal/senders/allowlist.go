// Package senders decides which senders may file a resolution for a case.
package senders

import (
	"net/mail"
	"strings"

	"go.uber.org/zap"
)

// Allowlist holds the ops domains whose replies are trusted. An empty list
// trusts everyone.
type Allowlist struct {
	domains []string
	logger  *zap.Logger
}

// NewAllowlist creates a new allowlist
func NewAllowlist(domains []string, logger *zap.Logger) *Allowlist {
	normalized := make([]string, 0, len(domains))
	for _, domain := range domains {
		domain = strings.Trim(strings.ToLower(strings.TrimSpace(domain)), ".")
		if domain != "" {
			normalized = append(normalized, domain)
		}
	}

	if len(normalized) > 0 {
		logger.Info("Restricting resolution senders", zap.Strings("domains", normalized))
	}

	return &Allowlist{
		domains: normalized,
		logger:  logger,
	}
}

// Allows reports whether from may send a resolution. Subdomains of a listed
// domain are allowed too.
func (a *Allowlist) Allows(from string) bool {
	if len(a.domains) == 0 {
		return true
	}

	domain := Domain(from)
	if domain == "" {
		return false
	}
	for _, allowed := range a.domains {
		if domain == allowed || strings.HasSuffix(domain, "."+allowed) {
			return true
		}
	}

	a.logger.Debug("Sender domain not allowed",
		zap.String("domain", domain),
		zap.String("sender", from))
	return false
}

// Domain returns the lower-cased domain of an address, which may carry a
// display name
func Domain(from string) string {
	if addr, err := mail.ParseAddress(from); err == nil {
		from = addr.Address
	}
	at := strings.LastIndex(from, "@")
	if at < 0 || at == len(from)-1 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(from[at+1:]))
}
