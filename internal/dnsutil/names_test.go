package dnsutil

import "testing"

func TestRelativeName(t *testing.T) {
	tests := []struct {
		name string
		zone string
		want string
	}{
		{"example.com", "example.com", "@"},
		{"www.example.com", "example.com", "www"},
		{"a.b.example.com", "example.com", "a.b"},
		{"www.example.com.", "example.com", "www"},
		{"_pki-validation.example.com.", "example.com", "_pki-validation"},
		{"WWW.Example.COM", "example.com", "WWW"},
		{"@", "example.com", "@"},
		{"abc", "example.com", "abc"},
	}
	for _, tt := range tests {
		if got := RelativeName(tt.name, tt.zone); got != tt.want {
			t.Errorf("RelativeName(%q, %q) = %q, want %q", tt.name, tt.zone, got, tt.want)
		}
	}
}

func TestApex(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"www.example.com", "example.com"},
		{"example.com", "example.com"},
		{"a.b.shop.example.co.uk", "example.co.uk"},
		{"Example.COM.", "example.com"},
	}
	for _, tt := range tests {
		got, err := Apex(tt.host)
		if err != nil {
			t.Fatalf("Apex(%q): %v", tt.host, err)
		}
		if got != tt.want {
			t.Errorf("Apex(%q) = %q, want %q", tt.host, got, tt.want)
		}
	}

	if _, err := Apex("co.uk"); err == nil {
		t.Error("expected error for a bare public suffix")
	}
}

func TestValidationName(t *testing.T) {
	if got := ValidationName("example.com."); got != "_pki-validation.example.com" {
		t.Errorf("ValidationName = %q", got)
	}
}

func TestIsValidDomain(t *testing.T) {
	valid := []string{
		"example.com",
		"sub.example.com",
		"_pki-validation.example.com",
		"xn--bcher-kva.example",
		"a-b.example.org",
	}
	for _, d := range valid {
		if !IsValidDomain(d) {
			t.Errorf("IsValidDomain(%q) = false, want true", d)
		}
	}

	invalid := []string{
		"",
		"example",
		"https://example.com",
		"exa mple.com",
		"*.example.com",
		"-bad.example.com",
		"bad-.example.com",
		"a..example.com",
	}
	for _, d := range invalid {
		if IsValidDomain(d) {
			t.Errorf("IsValidDomain(%q) = true, want false", d)
		}
	}
}

func TestClassifyNameservers(t *testing.T) {
	tests := []struct {
		name    string
		servers []string
		want    string
	}{
		{"akamai", []string{"a1-2.akam.net", "a2-64.akam.net"}, ProviderAkamai},
		{"azure", []string{"ns1-03.azure-dns.com", "ns2-03.azure-dns.net"}, ProviderAzure},
		{"aws", []string{"ns-123.awsdns-15.org"}, ProviderAWS},
		{"csc", []string{"dns1.cscdns.net"}, ProviderCSC},
		{"other", []string{"ns1.godaddy.com"}, ProviderOther},
		{"empty", nil, ProviderOther},
		{"mixed picks first match", []string{"ns1.godaddy.com", "a1-2.akam.net"}, ProviderAkamai},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyNameservers(tt.servers); got != tt.want {
				t.Errorf("ClassifyNameservers(%v) = %q, want %q", tt.servers, got, tt.want)
			}
		})
	}
}
