package dnsutil

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/certops/dcvkit/internal/errors"
)

// Nameserver providers the classifier recognizes.
const (
	ProviderAkamai = "Akamai"
	ProviderAzure  = "Azure"
	ProviderAWS    = "AWS"
	ProviderCSC    = "CSC"
	ProviderOther  = "Other"
)

// Resolver performs DNS queries against one configured server rather
// than the system resolver, so results are not skewed by local caches
// or split-horizon views.
type Resolver struct {
	addr   string // host:port
	client *dns.Client
}

// NewResolver creates a resolver that queries addr (host:port).
func NewResolver(addr string) *Resolver {
	if !strings.Contains(addr, ":") {
		addr += ":53"
	}
	return &Resolver{
		addr:   addr,
		client: &dns.Client{Timeout: 5 * time.Second},
	}
}

// Nameservers returns the NS records for a domain's registrable apex.
func (r *Resolver) Nameservers(ctx context.Context, domain string) ([]string, error) {
	apex, err := Apex(domain)
	if err != nil {
		return nil, errors.WrapDomain(errors.ErrCodeDNS, domain, err)
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(apex), dns.TypeNS)
	msg.RecursionDesired = true

	resp, _, err := r.client.ExchangeContext(ctx, msg, r.addr)
	if err != nil {
		return nil, errors.WrapDomain(errors.ErrCodeDNS, domain, err)
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, errors.WrapDomain(errors.ErrCodeDNS, domain,
			fmt.Errorf("NS query returned %s", dns.RcodeToString[resp.Rcode]))
	}

	var servers []string
	for _, rr := range resp.Answer {
		if ns, ok := rr.(*dns.NS); ok {
			servers = append(servers, strings.ToLower(strings.TrimSuffix(ns.Ns, ".")))
		}
	}
	return servers, nil
}

// NSProvider classifies which DNS provider hosts a domain by its
// nameserver names.
func (r *Resolver) NSProvider(ctx context.Context, domain string) (string, error) {
	servers, err := r.Nameservers(ctx, domain)
	if err != nil {
		return "", err
	}
	return ClassifyNameservers(servers), nil
}

// ClassifyNameservers maps nameserver host names to a provider label.
// The first recognized vendor substring wins.
func ClassifyNameservers(servers []string) string {
	for _, ns := range servers {
		ns = strings.ToLower(ns)
		switch {
		case strings.Contains(ns, "akam"):
			return ProviderAkamai
		case strings.Contains(ns, "azure"):
			return ProviderAzure
		case strings.Contains(ns, "awsdns") || strings.Contains(ns, ".aws."):
			return ProviderAWS
		case strings.Contains(ns, "csc"):
			return ProviderCSC
		}
	}
	return ProviderOther
}

// LookupTXT returns the TXT strings published at name, with each
// record's character strings joined.
func (r *Resolver) LookupTXT(ctx context.Context, name string) ([]string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), dns.TypeTXT)
	msg.RecursionDesired = true

	resp, _, err := r.client.ExchangeContext(ctx, msg, r.addr)
	if err != nil {
		return nil, errors.WrapDomain(errors.ErrCodeDNS, name, err)
	}

	var values []string
	for _, rr := range resp.Answer {
		if txt, ok := rr.(*dns.TXT); ok {
			values = append(values, strings.Join(txt.Txt, ""))
		}
	}
	if len(values) == 0 {
		return nil, errors.WrapDomain(errors.ErrCodeNotFound, name, errors.ErrRecordNotFound)
	}
	return values, nil
}

// LookupCNAME returns the CNAME target published at name, without the
// trailing dot.
func (r *Resolver) LookupCNAME(ctx context.Context, name string) (string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), dns.TypeCNAME)
	msg.RecursionDesired = true

	resp, _, err := r.client.ExchangeContext(ctx, msg, r.addr)
	if err != nil {
		return "", errors.WrapDomain(errors.ErrCodeDNS, name, err)
	}

	for _, rr := range resp.Answer {
		if cname, ok := rr.(*dns.CNAME); ok {
			return strings.TrimSuffix(cname.Target, "."), nil
		}
	}
	return "", errors.WrapDomain(errors.ErrCodeNotFound, name, errors.ErrRecordNotFound)
}

// VerifyTXT reports whether the expected value is among the TXT strings
// published at name.
func (r *Resolver) VerifyTXT(ctx context.Context, name, expected string) (bool, error) {
	values, err := r.LookupTXT(ctx, name)
	if errors.Is(err, errors.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	for _, v := range values {
		if v == expected {
			return true, nil
		}
	}
	return false, nil
}

// VerifyCNAME reports whether name points at the expected target.
func (r *Resolver) VerifyCNAME(ctx context.Context, name, expected string) (bool, error) {
	target, err := r.LookupCNAME(ctx, name)
	if errors.Is(err, errors.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return strings.EqualFold(target, strings.TrimSuffix(expected, ".")), nil
}
