package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

func TestRunReconcile(t *testing.T) {
	cfg := testConfig(t)
	writeEdgerc(t, cfg)

	csvPath := filepath.Join(cfg.DataDir, "dcv.csv")
	content := "domain,value\nexample.com,abc123\nsub.example.com,def456\n"
	if err := os.WriteFile(csvPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	ak := &MockAkamai{Zones: []string{"example.com"}}
	swapDeps(t, NewMockDeps().
		WithConfig(cfg).
		WithClients(&MockClientFactory{DC: &MockDigiCert{}, Sect: &MockSectigo{}, Ak: ak, Az: &MockAzure{}}).
		Build())

	reconcileFile = csvPath
	reconcileDelete = false
	if err := runReconcile(&cobra.Command{}, nil); err != nil {
		t.Fatalf("runReconcile: %v", err)
	}

	if len(ak.Ensured) != 2 {
		t.Fatalf("published %d records, want 2", len(ak.Ensured))
	}
	if ak.Ensured[0].Name != "_pki-validation.example.com" {
		t.Errorf("record name = %q", ak.Ensured[0].Name)
	}
	if ak.Ensured[0].Type != "TXT" {
		t.Errorf("record type = %q, want TXT", ak.Ensured[0].Type)
	}
	if ak.Ensured[0].Rdata[0] != `"abc123"` {
		t.Errorf("rdata = %q, want the value quoted", ak.Ensured[0].Rdata[0])
	}
	if ak.Ensured[0].TTL != cfg.TXTRecordTTL {
		t.Errorf("ttl = %d, want %d", ak.Ensured[0].TTL, cfg.TXTRecordTTL)
	}
}

func TestRunReconcileDelete(t *testing.T) {
	cfg := testConfig(t)
	writeEdgerc(t, cfg)

	csvPath := filepath.Join(cfg.DataDir, "dcv.csv")
	if err := os.WriteFile(csvPath, []byte("example.com,abc123\n"), 0644); err != nil {
		t.Fatal(err)
	}

	ak := &MockAkamai{Zones: []string{"example.com"}}
	swapDeps(t, NewMockDeps().
		WithConfig(cfg).
		WithClients(&MockClientFactory{DC: &MockDigiCert{}, Sect: &MockSectigo{}, Ak: ak, Az: &MockAzure{}}).
		Build())

	reconcileFile = csvPath
	reconcileDelete = true
	if err := runReconcile(&cobra.Command{}, nil); err != nil {
		t.Fatalf("runReconcile: %v", err)
	}

	if len(ak.Deleted) != 1 || ak.Deleted[0] != "_pki-validation.example.com" {
		t.Errorf("deleted = %v", ak.Deleted)
	}
	if len(ak.Ensured) != 0 {
		t.Error("delete mode must not publish")
	}
}

func TestRunReconcileMissingFile(t *testing.T) {
	cfg := testConfig(t)
	swapDeps(t, NewMockDeps().WithConfig(cfg).Build())

	reconcileFile = filepath.Join(cfg.DataDir, "absent.csv")
	reconcileDelete = false
	if err := runReconcile(&cobra.Command{}, nil); err == nil {
		t.Fatal("expected an error for a missing input file")
	}
}

func TestReadValuePairs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pairs.csv")
	content := "domain,value\nExample.COM,v1\n,skipme\nnovalue,\nok.net,v2\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	pairs, err := readValuePairs(path)
	if err != nil {
		t.Fatalf("readValuePairs: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("got %d pairs, want 2", len(pairs))
	}
	if pairs[0].domain != "example.com" || pairs[0].value != "v1" {
		t.Errorf("pairs[0] = %+v", pairs[0])
	}
	if pairs[1].domain != "ok.net" {
		t.Errorf("pairs[1] = %+v", pairs[1])
	}
}
