package akamai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/certops/dcvkit/internal/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(&Credentials{
		Host:         strings.TrimPrefix(srv.URL, "http://"),
		ClientToken:  "ct",
		ClientSecret: "cs",
		AccessToken:  "at",
	})
	c.SetBaseURL(srv.URL)
	return c
}

func TestFindZone(t *testing.T) {
	managed := map[string]bool{
		"example.com":     true,
		"sub.example.com": true,
		"example.net":     true,
	}
	var requested []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			t.Error("request not signed")
		}
		zone := strings.TrimPrefix(r.URL.Path, "/config-dns/v2/zones/")
		requested = append(requested, zone)
		if !managed[zone] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprintf(w, `{"zone":%q,"type":"PRIMARY"}`, zone)
	})

	tests := []struct {
		name string
		want string
	}{
		{"www.example.com", "example.com"},
		{"a.b.sub.example.com", "sub.example.com"},
		{"sub.example.com", "sub.example.com"},
		{"example.net.", "example.net"},
	}
	for _, tt := range tests {
		zone, err := c.FindZone(context.Background(), tt.name)
		if err != nil {
			t.Fatalf("FindZone(%s): %v", tt.name, err)
		}
		if zone != tt.want {
			t.Errorf("FindZone(%s) = %q, want %q", tt.name, zone, tt.want)
		}
	}

	// a.b.sub.example.com walks down to the first managed zone.
	want := []string{
		"www.example.com", "example.com",
		"a.b.sub.example.com", "b.sub.example.com", "sub.example.com",
		"sub.example.com",
		"example.net",
	}
	if len(requested) != len(want) {
		t.Fatalf("expected %d zone lookups, got %v", len(want), requested)
	}
	for i := range want {
		if requested[i] != want[i] {
			t.Errorf("lookup %d = %q, want %q", i, requested[i], want[i])
		}
	}
}

func TestFindZoneNoMatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.FindZone(context.Background(), "nothing.invalid")
	if !errors.Is(err, errors.ErrZoneNotFound) {
		t.Errorf("expected ErrZoneNotFound, got %v", err)
	}
}

func TestGetRecordSetNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.GetRecordSet(context.Background(), "example.com", "_pki-validation.example.com", "TXT")
	if !errors.Is(err, errors.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestEnsureRecordSetCreates(t *testing.T) {
	var methods []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPost:
			var rs RecordSet
			if err := json.NewDecoder(r.Body).Decode(&rs); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if rs.TTL != 60 || len(rs.Rdata) != 1 {
				t.Errorf("unexpected record %+v", rs)
			}
			w.WriteHeader(http.StatusCreated)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	})

	changed, err := c.EnsureRecordSet(context.Background(), "example.com", RecordSet{
		Name:  "_pki-validation.example.com",
		Type:  "TXT",
		TTL:   60,
		Rdata: []string{`"token-value"`},
	})
	if err != nil {
		t.Fatalf("EnsureRecordSet: %v", err)
	}
	if !changed {
		t.Error("expected a write for a missing record")
	}
	if len(methods) != 2 || methods[0] != http.MethodGet || methods[1] != http.MethodPost {
		t.Errorf("expected GET then POST, got %v", methods)
	}
}

func TestEnsureRecordSetUpdates(t *testing.T) {
	var put bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			fmt.Fprint(w, `{"name":"_pki-validation.example.com","type":"TXT","ttl":60,"rdata":["\"old-token\""]}`)
		case http.MethodPut:
			put = true
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	})

	changed, err := c.EnsureRecordSet(context.Background(), "example.com", RecordSet{
		Name:  "_pki-validation.example.com",
		Type:  "TXT",
		TTL:   60,
		Rdata: []string{`"new-token"`},
	})
	if err != nil {
		t.Fatalf("EnsureRecordSet: %v", err)
	}
	if !changed || !put {
		t.Error("expected an update when rdata differs")
	}
}

func TestEnsureRecordSetNoop(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("no write expected, got %s", r.Method)
		}
		fmt.Fprint(w, `{"name":"_pki-validation.example.com","type":"TXT","ttl":60,"rdata":["\"token\""]}`)
	})

	changed, err := c.EnsureRecordSet(context.Background(), "example.com", RecordSet{
		Name:  "_pki-validation.example.com",
		Type:  "TXT",
		TTL:   60,
		Rdata: []string{`"token"`},
	})
	if err != nil {
		t.Fatalf("EnsureRecordSet: %v", err)
	}
	if changed {
		t.Error("matching record should not be rewritten")
	}
}

func TestListRecordSetsPaginates(t *testing.T) {
	var pages []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		pages = append(pages, page)
		if page == "1" {
			fmt.Fprint(w, `{"metadata":{"page":1,"lastPage":2},"recordsets":[{"name":"example.com","type":"SOA","ttl":86400,"rdata":["..."]}]}`)
			return
		}
		fmt.Fprint(w, `{"metadata":{"page":2,"lastPage":2},"recordsets":[{"name":"www.example.com","type":"A","ttl":300,"rdata":["192.0.2.1"]}]}`)
	})

	records, err := c.ListRecordSets(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("ListRecordSets: %v", err)
	}
	if len(pages) != 2 {
		t.Errorf("expected 2 page requests, got %v", pages)
	}
	if len(records) != 2 || records[1].Type != "A" {
		t.Errorf("unexpected records %+v", records)
	}
}

func TestDeleteRecordSetGone(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	err := c.DeleteRecordSet(context.Background(), "example.com", "_pki-validation.example.com", "TXT")
	if !errors.Is(err, errors.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestEqualRdataOrderInsensitive(t *testing.T) {
	if !equalRdata([]string{"a", "b"}, []string{"b", "a"}) {
		t.Error("rdata comparison should ignore order")
	}
	if equalRdata([]string{"a"}, []string{"a", "b"}) {
		t.Error("different lengths should not match")
	}
}
