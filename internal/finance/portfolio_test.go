package finance

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/certops/dcvkit/internal/errors"
)

func newTestPortfolio(t *testing.T) *Portfolio {
	t.Helper()
	p, err := OpenPortfolio(filepath.Join(t.TempDir(), "portfolio.db"))
	if err != nil {
		t.Fatalf("OpenPortfolio: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestAddAndList(t *testing.T) {
	p := newTestPortfolio(t)
	ctx := context.Background()

	purchases := []Purchase{
		{Symbol: "AAPL", Shares: 10, Price: 150.0, Date: "2025-01-15"},
		{Symbol: "MSFT", Shares: 5, Price: 400.0, Date: "2025-03-01"},
		{Symbol: "AAPL", Shares: 2, Price: 180.0, Date: "2025-06-20"},
	}
	for _, purchase := range purchases {
		if err := p.Add(ctx, purchase); err != nil {
			t.Fatalf("Add(%s): %v", purchase.Symbol, err)
		}
	}

	got, err := p.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 purchases, got %d", len(got))
	}
	if got[0].Symbol != "AAPL" || got[0].Shares != 10 {
		t.Errorf("unexpected first purchase %+v", got[0])
	}
	if got[0].ID == 0 {
		t.Error("purchase should have an assigned id")
	}
}

func TestAddValidation(t *testing.T) {
	p := newTestPortfolio(t)

	bad := []Purchase{
		{Symbol: "", Shares: 1, Price: 1},
		{Symbol: "AAPL", Shares: 0, Price: 1},
		{Symbol: "AAPL", Shares: 1, Price: -1},
	}
	for _, purchase := range bad {
		err := p.Add(context.Background(), purchase)
		var dcvErr *errors.DCVError
		if !errors.As(err, &dcvErr) || dcvErr.Code != errors.ErrCodeValidation {
			t.Errorf("Add(%+v): expected VALIDATION error, got %v", purchase, err)
		}
	}
}

func TestPositions(t *testing.T) {
	p := newTestPortfolio(t)
	ctx := context.Background()

	_ = p.Add(ctx, Purchase{Symbol: "AAPL", Shares: 10, Price: 150.0, Date: "2025-01-15"})
	_ = p.Add(ctx, Purchase{Symbol: "AAPL", Shares: 2, Price: 180.0, Date: "2025-06-20"})
	_ = p.Add(ctx, Purchase{Symbol: "MSFT", Shares: 5, Price: 400.0, Date: "2025-03-01"})

	positions, err := p.Positions(ctx)
	if err != nil {
		t.Fatalf("Positions: %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(positions))
	}
	aapl := positions[0]
	if aapl.Symbol != "AAPL" || aapl.Shares != 12 {
		t.Errorf("unexpected AAPL position %+v", aapl)
	}
	wantCost := 10*150.0 + 2*180.0
	if aapl.Cost != wantCost {
		t.Errorf("AAPL cost = %.2f, want %.2f", aapl.Cost, wantCost)
	}
}

func TestImportCSV(t *testing.T) {
	p := newTestPortfolio(t)

	path := filepath.Join(t.TempDir(), "purchases.csv")
	content := "symbol,shares,price,date\nAAPL,10,150.00,2025-01-15\nMSFT,5,400.00,2025-03-01\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	n, err := p.ImportCSV(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if n != 2 {
		t.Errorf("imported %d rows, want 2", n)
	}

	purchases, err := p.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(purchases) != 2 {
		t.Errorf("expected 2 stored purchases, got %d", len(purchases))
	}
}

func TestImportCSVMissing(t *testing.T) {
	p := newTestPortfolio(t)
	_, err := p.ImportCSV(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	if !errors.Is(err, errors.ErrInputMissing) {
		t.Errorf("expected ErrInputMissing, got %v", err)
	}
}

func TestComputePNL(t *testing.T) {
	positions := []Position{
		{Symbol: "AAPL", Shares: 12, Cost: 1860.0},
		{Symbol: "MSFT", Shares: 5, Cost: 2000.0},
		{Symbol: "NOQUOTE", Shares: 1, Cost: 100.0},
	}
	quotes := map[string]*Quote{
		"AAPL": {Current: 200.0},
		"MSFT": {Current: 380.0},
	}

	rows, total := ComputePNL(positions, quotes)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows (no quote rows skipped), got %d", len(rows))
	}

	aapl := rows[0]
	if aapl.Value != 2400.0 || aapl.Gain != 540.0 {
		t.Errorf("unexpected AAPL pnl %+v", aapl)
	}

	msft := rows[1]
	if msft.Gain != -100.0 {
		t.Errorf("unexpected MSFT gain %.2f", msft.Gain)
	}

	if total.Cost != 3860.0 || total.Value != 4300.0 {
		t.Errorf("unexpected totals %+v", total)
	}
	if total.Gain != 440.0 {
		t.Errorf("total gain = %.2f, want 440", total.Gain)
	}
}
