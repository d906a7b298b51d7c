// Package dcv orchestrates domain control validation: it obtains
// challenges from the CAs, publishes the validation records at the
// domain's DNS provider, and asks the CA to verify them.
package dcv

import (
	"context"
	"fmt"
	"strings"

	"github.com/certops/dcvkit/internal/akamai"
	"github.com/certops/dcvkit/internal/azure"
	"github.com/certops/dcvkit/internal/dnsutil"
	"github.com/certops/dcvkit/internal/errors"
)

// Record is a validation record to publish, provider-neutral.
type Record struct {
	Name  string // fully qualified owner name
	Type  string // "TXT" or "CNAME"
	Value string
	TTL   int
}

// Provider publishes and removes validation records at one DNS vendor.
type Provider interface {
	// Name returns the provider label used in reports.
	Name() string
	// EnsureRecord publishes rec, returning true when a write happened.
	EnsureRecord(ctx context.Context, rec Record) (bool, error)
	// DeleteRecord removes the record set at name. Absence is not an
	// error.
	DeleteRecord(ctx context.Context, name, typ string) error
}

// EdgeDNS is the slice of the Akamai client the provider needs.
type EdgeDNS interface {
	FindZone(ctx context.Context, name string) (string, error)
	EnsureRecordSet(ctx context.Context, zone string, rs akamai.RecordSet) (bool, error)
	DeleteRecordSet(ctx context.Context, zone, name, typ string) error
}

// AkamaiProvider adapts the Edge DNS client to the Provider interface.
type AkamaiProvider struct {
	Client EdgeDNS
}

func (p *AkamaiProvider) Name() string { return dnsutil.ProviderAkamai }

func (p *AkamaiProvider) EnsureRecord(ctx context.Context, rec Record) (bool, error) {
	zone, err := p.Client.FindZone(ctx, rec.Name)
	if err != nil {
		return false, err
	}

	rdata := rec.Value
	if rec.Type == "TXT" {
		rdata = quoteTXT(rec.Value)
	}
	return p.Client.EnsureRecordSet(ctx, zone, akamai.RecordSet{
		Name:  rec.Name,
		Type:  rec.Type,
		TTL:   rec.TTL,
		Rdata: []string{rdata},
	})
}

func (p *AkamaiProvider) DeleteRecord(ctx context.Context, name, typ string) error {
	zone, err := p.Client.FindZone(ctx, name)
	if err != nil {
		return err
	}
	err = p.Client.DeleteRecordSet(ctx, zone, name, typ)
	if errors.Is(err, errors.ErrRecordNotFound) {
		return nil
	}
	return err
}

// AzureDNS is the slice of the Azure client the provider needs.
type AzureDNS interface {
	FindZone(ctx context.Context, name string) (*azure.Zone, error)
	EnsureRecordSet(ctx context.Context, zone azure.Zone, rs azure.RecordSet) (bool, error)
	DeleteRecordSet(ctx context.Context, zone azure.Zone, name, typ string) error
}

// AzureProvider adapts the Azure DNS client to the Provider interface.
type AzureProvider struct {
	Client AzureDNS
}

func (p *AzureProvider) Name() string { return dnsutil.ProviderAzure }

func (p *AzureProvider) EnsureRecord(ctx context.Context, rec Record) (bool, error) {
	zone, err := p.Client.FindZone(ctx, rec.Name)
	if err != nil {
		return false, err
	}
	return p.Client.EnsureRecordSet(ctx, *zone, azure.RecordSet{
		Name:   rec.Name,
		Type:   rec.Type,
		TTL:    rec.TTL,
		Values: []string{rec.Value},
	})
}

func (p *AzureProvider) DeleteRecord(ctx context.Context, name, typ string) error {
	zone, err := p.Client.FindZone(ctx, name)
	if err != nil {
		return err
	}
	err = p.Client.DeleteRecordSet(ctx, *zone, name, typ)
	if errors.Is(err, errors.ErrRecordNotFound) {
		return nil
	}
	return err
}

// quoteTXT wraps a TXT value in quotes the way zone data expects,
// escaping embedded quotes.
func quoteTXT(value string) string {
	return fmt.Sprintf("%q", value)
}

// Registry maps nameserver provider labels to configured providers.
type Registry map[string]Provider

// For returns the provider serving a domain, classified by its
// nameservers.
func (r Registry) For(ctx context.Context, resolver NSClassifier, domain string) (Provider, error) {
	label, err := resolver.NSProvider(ctx, domain)
	if err != nil {
		return nil, err
	}
	p, ok := r[label]
	if !ok {
		return nil, errors.WrapDomain(errors.ErrCodeDNS, domain,
			fmt.Errorf("no DNS provider configured for %s nameservers", label))
	}
	return p, nil
}

// NSClassifier identifies which provider hosts a domain's DNS.
type NSClassifier interface {
	NSProvider(ctx context.Context, domain string) (string, error)
}

// normalizeTarget strips the trailing dot CAs sometimes include on
// CNAME targets.
func normalizeTarget(target string) string {
	return strings.TrimSuffix(strings.TrimSpace(target), ".")
}
