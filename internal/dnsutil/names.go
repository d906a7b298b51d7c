// Package dnsutil provides DNS name helpers, nameserver-based provider
// classification, and validation record lookups against a configured
// resolver.
package dnsutil

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// RelativeName converts any name form to its zone-relative form, with
// "@" for the apex. The zone match is case-insensitive.
func RelativeName(name, zone string) string {
	zone = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(zone), "."))
	name = strings.TrimSuffix(strings.TrimSpace(name), ".")
	lower := strings.ToLower(name)

	if name == "" || lower == zone {
		return "@"
	}
	if strings.HasSuffix(lower, "."+zone) {
		rel := name[:len(name)-len(zone)-1]
		if rel == "" {
			return "@"
		}
		return rel
	}
	return name
}

// Apex returns the registrable domain for a host name, e.g.
// "www.shop.example.co.uk" -> "example.co.uk". Names that are
// themselves public suffixes return an error.
func Apex(host string) (string, error) {
	host = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(host), "."))
	return publicsuffix.EffectiveTLDPlusOne(host)
}

// ValidationName returns the _pki-validation owner name Sectigo TXT
// DCV uses for a domain.
func ValidationName(domain string) string {
	return "_pki-validation." + strings.TrimSuffix(strings.TrimSpace(domain), ".")
}

// IsValidDomain reports whether s looks like a DNS domain name this
// tool will accept: at least two labels, no scheme, no spaces.
func IsValidDomain(s string) bool {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".")
	if s == "" || len(s) > 253 {
		return false
	}
	if strings.ContainsAny(s, " /:\\") {
		return false
	}
	labels := strings.Split(s, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if label == "" || len(label) > 63 {
			return false
		}
		// Wildcard labels are rejected; DCV operates on concrete names.
		for _, r := range label {
			ok := r == '-' || r == '_' ||
				(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
				(r >= '0' && r <= '9')
			if !ok {
				return false
			}
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return false
		}
	}
	return true
}
