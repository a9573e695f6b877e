package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"oncestock/internal/domain"
	"oncestock/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	productsSheet  = "Productos"
	movementsSheet = "Movimientos"

	priceFormat = `"$"#,##0.00`
	stockFormat = `#,##0`

	maxColumnWidth = 60
)

// Exporter writes the product list (and recent movements) to spreadsheet
// files, keeping the column layout of the original tool.
type Exporter struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewExporter(repo domain.Repository, logger *zerolog.Logger) *Exporter {
	return &Exporter{repo: repo, logger: logger}
}

// ExportProducts writes an .xlsx workbook: a Productos sheet with the
// filtered catalog and a Movimientos sheet with the most recent movements.
func (e *Exporter) ExportProducts(ctx context.Context, filter string, path string) error {
	products, err := e.repo.ListProducts(ctx, filter)
	if err != nil {
		return fmt.Errorf("error getting products: %w", err)
	}

	movements, err := e.repo.ListMovements(ctx, 0, models.MaxMovementLimit)
	if err != nil {
		return fmt.Errorf("error getting movements: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating export directory: %w", err)
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := e.writeProductsSheet(f, products); err != nil {
		return err
	}
	if err := e.writeMovementsSheet(f, movements); err != nil {
		return err
	}

	_ = f.DeleteSheet("Sheet1")

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("error saving file: %w", err)
	}

	e.logger.Info().
		Str("file_path", path).
		Int("products", len(products)).
		Int("movements", len(movements)).
		Msg("Excel export created")
	return nil
}

func (e *Exporter) writeProductsSheet(f *excelize.File, products []models.Product) error {
	index, err := f.NewSheet(productsSheet)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{"Código", "Nombre", "Precio Unitario", "Stock"}
	widths := make([]int, len(headers))
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(productsSheet, cell, header)
		widths[i] = len([]rune(header))
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	_ = f.SetCellStyle(productsSheet, "A1", "D1", headerStyle)

	for i, p := range products {
		row := i + 2
		_ = f.SetCellValue(productsSheet, fmt.Sprintf("A%d", row), p.Code)
		_ = f.SetCellValue(productsSheet, fmt.Sprintf("B%d", row), p.Name)
		_ = f.SetCellValue(productsSheet, fmt.Sprintf("C%d", row), p.Price)
		_ = f.SetCellValue(productsSheet, fmt.Sprintf("D%d", row), p.Stock)

		widths[0] = maxInt(widths[0], len(p.Code))
		widths[1] = maxInt(widths[1], len([]rune(p.Name)))
		widths[2] = maxInt(widths[2], len(fmt.Sprintf("$%.2f", p.Price)))
		widths[3] = maxInt(widths[3], len(fmt.Sprintf("%d", p.Stock)))
	}

	if len(products) > 0 {
		lastRow := len(products) + 1

		priceFmt := priceFormat
		priceStyle, _ := f.NewStyle(&excelize.Style{CustomNumFmt: &priceFmt})
		_ = f.SetCellStyle(productsSheet, "C2", fmt.Sprintf("C%d", lastRow), priceStyle)

		stockFmt := stockFormat
		stockStyle, _ := f.NewStyle(&excelize.Style{CustomNumFmt: &stockFmt})
		_ = f.SetCellStyle(productsSheet, "D2", fmt.Sprintf("D%d", lastRow), stockStyle)
	}

	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(productsSheet, col, col, float64(minInt(width+2, maxColumnWidth)))
	}

	return nil
}

func (e *Exporter) writeMovementsSheet(f *excelize.File, movements []models.Movement) error {
	if _, err := f.NewSheet(movementsSheet); err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}

	headers := []string{"ID", "Fecha", "Código", "Nombre", "Tipo", "Cantidad", "P.Unit.", "Nota"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(movementsSheet, cell, header)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	_ = f.SetCellStyle(movementsSheet, "A1", "H1", headerStyle)

	for i, m := range movements {
		row := i + 2
		_ = f.SetCellValue(movementsSheet, fmt.Sprintf("A%d", row), m.ID)
		_ = f.SetCellValue(movementsSheet, fmt.Sprintf("B%d", row), m.CreatedAt.Format("2006-01-02 15:04:05"))
		_ = f.SetCellValue(movementsSheet, fmt.Sprintf("C%d", row), m.ProductCode)
		_ = f.SetCellValue(movementsSheet, fmt.Sprintf("D%d", row), m.ProductName)
		_ = f.SetCellValue(movementsSheet, fmt.Sprintf("E%d", row), m.Type)
		_ = f.SetCellValue(movementsSheet, fmt.Sprintf("F%d", row), m.Quantity)
		_ = f.SetCellValue(movementsSheet, fmt.Sprintf("G%d", row), m.UnitPrice)
		_ = f.SetCellValue(movementsSheet, fmt.Sprintf("H%d", row), m.Note)
	}

	if len(movements) > 0 {
		priceFmt := priceFormat
		priceStyle, _ := f.NewStyle(&excelize.Style{CustomNumFmt: &priceFmt})
		_ = f.SetCellStyle(movementsSheet, "G2", fmt.Sprintf("G%d", len(movements)+1), priceStyle)
	}

	_ = f.SetColWidth(movementsSheet, "B", "B", 20)
	_ = f.SetColWidth(movementsSheet, "C", "C", 14)
	_ = f.SetColWidth(movementsSheet, "D", "D", 28)
	_ = f.SetColWidth(movementsSheet, "H", "H", 30)

	return nil
}

// ExportToDir writes a timestamped export into dir and returns its path.
// Format "csv" selects the flat file; anything else gets the workbook.
func (e *Exporter) ExportToDir(ctx context.Context, filter, dir, format string) (string, error) {
	stamp := time.Now().Format("2006-01-02_15-04-05")
	if strings.EqualFold(format, "csv") {
		path := filepath.Join(dir, fmt.Sprintf("productos_%s.csv", stamp))
		return path, e.ExportProductsCSV(ctx, filter, path)
	}
	path := filepath.Join(dir, fmt.Sprintf("productos_%s.xlsx", stamp))
	return path, e.ExportProducts(ctx, filter, path)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
