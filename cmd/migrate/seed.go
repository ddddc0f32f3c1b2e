package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"polleria/internal/database"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// menuItem is one dish of a seed file.
type menuItem struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Available   *bool           `json:"available"`
}

func readMenu(path string) ([]menuItem, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read menu file: %w", err)
	}
	return parseMenu(raw)
}

func parseMenu(raw []byte) ([]menuItem, error) {
	var items []menuItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to parse menu file: %w", err)
	}
	for i, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			return nil, fmt.Errorf("menu item %d has no name", i)
		}
		if item.Price.IsNegative() {
			return nil, fmt.Errorf("menu item %q has a negative price", item.Name)
		}
	}
	return items, nil
}

// seedMenu inserts items in one transaction, but only into an empty menu so
// that running it twice does not duplicate dishes. It returns the number of
// rows inserted.
func seedMenu(ctx context.Context, tx database.TxRunner, items []menuItem) (int, error) {
	inserted := 0
	err := tx.InTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var existing int
		if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM products").Scan(&existing); err != nil {
			return fmt.Errorf("failed to count products: %w", err)
		}
		if existing > 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for _, item := range items {
			available := item.Available == nil || *item.Available
			batch.Queue(
				`INSERT INTO products (name, description, price, category, image, available)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				item.Name, item.Description, item.Price, item.Category, item.Image, available,
			)
		}

		br := tx.SendBatch(ctx, batch)
		for range items {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("failed to insert menu item: %w", err)
			}
			inserted++
		}
		return br.Close()
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}
