package sectigo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/certops/dcvkit/internal/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient("svc-dcv", "secret", "acme")
	c.SetBaseURL(srv.URL)
	return c
}

func checkAuthHeaders(t *testing.T, r *http.Request) {
	t.Helper()
	if r.Header.Get("login") != "svc-dcv" {
		t.Errorf("missing login header")
	}
	if r.Header.Get("password") != "secret" {
		t.Errorf("missing password header")
	}
	if r.Header.Get("customerUri") != "acme" {
		t.Errorf("missing customerUri header")
	}
}

func TestListDomainsPaginates(t *testing.T) {
	var positions []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		checkAuthHeaders(t, r)
		pos := r.URL.Query().Get("position")
		positions = append(positions, pos)

		w.Header().Set("Content-Type", "application/json")
		if pos == "0" {
			// Full page forces a second request.
			var page []Domain
			for i := 0; i < pageSize; i++ {
				page = append(page, Domain{ID: i + 1, Name: fmt.Sprintf("d%d.example.com", i), State: "ACTIVE"})
			}
			_ = json.NewEncoder(w).Encode(page)
			return
		}
		_ = json.NewEncoder(w).Encode([]Domain{{ID: 999, Name: "last.example.com", State: "SUSPENDED"}})
	})

	domains, err := c.ListDomains(context.Background())
	if err != nil {
		t.Fatalf("ListDomains: %v", err)
	}
	if len(positions) != 2 || positions[1] != strconv.Itoa(pageSize) {
		t.Errorf("unexpected pagination requests: %v", positions)
	}
	if len(domains) != pageSize+1 {
		t.Fatalf("expected %d domains, got %d", pageSize+1, len(domains))
	}
	if !domains[0].Active() {
		t.Error("first domain should be active")
	}
	if domains[len(domains)-1].Active() {
		t.Error("suspended domain should not be active")
	}
}

func TestGetValidationStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/dcv/v2/validation/status" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["domain"] != "example.com" {
			t.Errorf("unexpected domain %q", body["domain"])
		}
		fmt.Fprint(w, `{"status":"VALIDATED","orderStatus":"SUBMITTED","dcvMethod":"CNAME_CSR_HASH","expirationDate":"2026-10-15"}`)
	})

	status, err := c.GetValidationStatus(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("GetValidationStatus: %v", err)
	}
	if status.Status != "VALIDATED" || status.Method != MethodCNAME {
		t.Errorf("unexpected status %+v", status)
	}
}

func TestStartCNAME(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/dcv/v1/validation/start/domain/cname" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"host":"_a1b2c3.example.com.","point":"d4e5f6.sectigo.com."}`)
	})

	ch, err := c.StartCNAME(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("StartCNAME: %v", err)
	}
	if ch.Host != "_a1b2c3.example.com." || ch.Point != "d4e5f6.sectigo.com." {
		t.Errorf("unexpected challenge %+v", ch)
	}
}

func TestAddDomainParsesLocation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		checkAuthHeaders(t, r)

		var body struct {
			Name              string `json:"name"`
			Active            bool   `json:"active"`
			Enabled           bool   `json:"enabled"`
			IncludeSubdomains bool   `json:"includeSubdomains"`
			Delegations       []struct {
				OrgID      int      `json:"orgId"`
				CertTypes  []string `json:"certTypes"`
				Privileges []string `json:"domainCertificateRequestPrivileges"`
			} `json:"delegations"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if !body.Active || !body.Enabled || !body.IncludeSubdomains {
			t.Errorf("expected active, enabled and includeSubdomains set, got %+v", body)
		}
		if len(body.Delegations) != 1 || body.Delegations[0].OrgID != 12 {
			t.Errorf("unexpected delegations %+v", body.Delegations)
		}
		if p := body.Delegations[0].Privileges; len(p) != 2 || p[0] != "SUBDOMAIN" || p[1] != "DOMAIN" {
			t.Errorf("request privileges = %v, want [SUBDOMAIN DOMAIN]", p)
		}

		w.Header().Set("Location", "/api/domain/v1/7788")
		w.WriteHeader(http.StatusCreated)
	})

	id, err := c.AddDomain(context.Background(), "new.example.com", 12)
	if err != nil {
		t.Fatalf("AddDomain: %v", err)
	}
	if id != 7788 {
		t.Errorf("expected id 7788, got %d", id)
	}
}

func TestAddDomainConflict(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	_, err := c.AddDomain(context.Background(), "dup.example.com", 12)
	var dcvErr *errors.DCVError
	if !errors.As(err, &dcvErr) || dcvErr.Code != errors.ErrCodeAlreadyExists {
		t.Errorf("expected ALREADY_EXISTS error, got %v", err)
	}
}

func TestDeleteDomain(t *testing.T) {
	var deleted string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		deleted = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	if err := c.DeleteDomain(context.Background(), 7788); err != nil {
		t.Fatalf("DeleteDomain: %v", err)
	}
	if deleted != "/domain/v1/7788" {
		t.Errorf("unexpected path %s", deleted)
	}
}

func TestNotFoundMapsToSentinel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	err := c.DeleteDomain(context.Background(), 1)
	if !errors.Is(err, errors.ErrDomainNotFound) {
		t.Errorf("expected ErrDomainNotFound, got %v", err)
	}
}

func TestMethodLabel(t *testing.T) {
	tests := []struct {
		method string
		want   string
	}{
		{MethodCNAME, "CNAME"},
		{MethodTXT, "TXT"},
		{MethodEmail, "EMAIL"},
		{"HTTPS_CSR_HASH", "HTTPS_CSR_HASH"},
	}
	for _, tt := range tests {
		if got := MethodLabel(tt.method); got != tt.want {
			t.Errorf("MethodLabel(%q) = %q, want %q", tt.method, got, tt.want)
		}
	}
}
