package finance

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/certops/dcvkit/internal/errors"
)

// Purchase is one recorded stock purchase.
type Purchase struct {
	ID     int64
	Symbol string
	Shares float64
	Price  float64
	Date   string // YYYY-MM-DD
}

// Position aggregates all purchases of one symbol.
type Position struct {
	Symbol string
	Shares float64
	Cost   float64 // total amount paid
}

const portfolioSchema = `
CREATE TABLE IF NOT EXISTS purchases (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol TEXT NOT NULL,
	shares REAL NOT NULL,
	price REAL NOT NULL,
	date TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_purchases_symbol ON purchases(symbol);
`

// Portfolio stores purchases in a local sqlite database.
type Portfolio struct {
	pool *sqlitex.Pool
}

// OpenPortfolio opens (and if needed creates) the portfolio database.
func OpenPortfolio(path string) (*Portfolio, error) {
	pool, err := sqlitex.NewPool(path, sqlitex.PoolOptions{PoolSize: 2})
	if err != nil {
		return nil, fmt.Errorf("failed to open portfolio db: %w", err)
	}

	conn, err := pool.Take(context.Background())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	err = sqlitex.ExecuteScript(conn, portfolioSchema, nil)
	pool.Put(conn)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Portfolio{pool: pool}, nil
}

// Close releases the database.
func (p *Portfolio) Close() error {
	return p.pool.Close()
}

// Add records one purchase.
func (p *Portfolio) Add(ctx context.Context, purchase Purchase) error {
	if purchase.Symbol == "" || purchase.Shares <= 0 || purchase.Price < 0 {
		return errors.Validation("purchase needs a symbol, positive shares, and a non-negative price")
	}

	conn, err := p.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer p.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`INSERT INTO purchases (symbol, shares, price, date) VALUES (?, ?, ?, ?);`,
		&sqlitex.ExecOptions{
			Args: []interface{}{purchase.Symbol, purchase.Shares, purchase.Price, purchase.Date},
		})
	if err != nil {
		return fmt.Errorf("failed to insert purchase for %s: %w", purchase.Symbol, err)
	}
	return nil
}

// List returns all purchases, oldest first.
func (p *Portfolio) List(ctx context.Context) ([]Purchase, error) {
	conn, err := p.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	defer p.pool.Put(conn)

	var purchases []Purchase
	err = sqlitex.Execute(conn,
		`SELECT id, symbol, shares, price, date FROM purchases ORDER BY date, id;`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				purchases = append(purchases, Purchase{
					ID:     stmt.ColumnInt64(0),
					Symbol: stmt.ColumnText(1),
					Shares: stmt.ColumnFloat(2),
					Price:  stmt.ColumnFloat(3),
					Date:   stmt.ColumnText(4),
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	return purchases, nil
}

// Positions aggregates purchases per symbol.
func (p *Portfolio) Positions(ctx context.Context) ([]Position, error) {
	conn, err := p.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	defer p.pool.Put(conn)

	var positions []Position
	err = sqlitex.Execute(conn,
		`SELECT symbol, SUM(shares), SUM(shares * price)
		 FROM purchases GROUP BY symbol ORDER BY symbol;`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				positions = append(positions, Position{
					Symbol: stmt.ColumnText(0),
					Shares: stmt.ColumnFloat(1),
					Cost:   stmt.ColumnFloat(2),
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate positions: %w", err)
	}
	return positions, nil
}

// ImportCSV loads purchases from a CSV with columns
// symbol,shares,price,date and a header row. Returns how many rows were
// imported.
func (p *Portfolio) ImportCSV(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return 0, errors.Wrap(errors.ErrCodeStore, path, errors.ErrInputMissing)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeStore, fmt.Sprintf("failed to parse %s", path), err)
	}

	imported := 0
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if len(row) < 4 {
			return imported, errors.Wrap(errors.ErrCodeStore,
				fmt.Sprintf("%s row %d has %d columns, want 4", path, i+1, len(row)), nil)
		}
		shares, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return imported, errors.Wrap(errors.ErrCodeStore,
				fmt.Sprintf("%s row %d has bad shares", path, i+1), err)
		}
		price, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return imported, errors.Wrap(errors.ErrCodeStore,
				fmt.Sprintf("%s row %d has a bad price", path, i+1), err)
		}
		if err := p.Add(ctx, Purchase{
			Symbol: row[0], Shares: shares, Price: price, Date: row[3],
		}); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}
