package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// ExportProductsCSV is the fallback the original offered when no xlsx writer
// was available; kept because plain CSV still travels better into some POS
// systems.
func (e *Exporter) ExportProductsCSV(ctx context.Context, filter string, path string) error {
	products, err := e.repo.ListProducts(ctx, filter)
	if err != nil {
		return fmt.Errorf("error getting products: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating export directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating csv file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"codigo", "nombre", "precio", "stock"}); err != nil {
		return fmt.Errorf("error writing csv header: %w", err)
	}

	for _, p := range products {
		record := []string{
			p.Code,
			p.Name,
			fmt.Sprintf("%.2f", p.Price),
			fmt.Sprintf("%d", p.Stock),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("error writing csv record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("error flushing csv: %w", err)
	}

	e.logger.Info().Str("file_path", path).Int("products", len(products)).Msg("CSV export created")
	return nil
}
