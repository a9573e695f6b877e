package export

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"oncestock/internal/database"
	"oncestock/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func setupExporter(t *testing.T) (*Exporter, *database.DB) {
	t.Helper()

	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewExporter(db, &logger), db
}

func TestExportProductsXLSX(t *testing.T) {
	exporter, db := setupExporter(t)
	ctx := context.Background()

	milanesa := &models.Product{Code: "94319699", Name: "Milanesa de pollo", Price: 1600, Stock: 10}
	coca := &models.Product{Code: "779895", Name: "Coca Cola 1.5L", Price: 2500.5, Stock: 6}
	require.NoError(t, db.CreateProduct(ctx, milanesa))
	require.NoError(t, db.CreateProduct(ctx, coca))

	_, err := db.ApplyMovement(ctx, &models.Movement{
		ProductID: milanesa.ID,
		Type:      models.MovementOut,
		Quantity:  2,
		UnitPrice: 1600,
		Note:      "venta",
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "productos.xlsx")
	require.NoError(t, exporter.ExportProducts(ctx, "", path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(productsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"Código", "Nombre", "Precio Unitario", "Stock"}, rows[0])
	// Sorted by name: Coca before Milanesa.
	assert.Equal(t, "779895", rows[1][0])
	assert.Equal(t, "Coca Cola 1.5L", rows[1][1])
	assert.Equal(t, "94319699", rows[2][0])

	// Stock reflects the applied movement.
	stock, err := f.GetCellValue(productsSheet, "D3", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "8", stock)

	moveRows, err := f.GetRows(movementsSheet)
	require.NoError(t, err)
	require.Len(t, moveRows, 2)
	assert.Equal(t, "94319699", moveRows[1][2])
	assert.Equal(t, models.MovementOut, moveRows[1][4])
	assert.Equal(t, "venta", moveRows[1][7])
}

func TestExportProductsXLSXWithFilter(t *testing.T) {
	exporter, db := setupExporter(t)
	ctx := context.Background()

	require.NoError(t, db.CreateProduct(ctx, &models.Product{Code: "A1", Name: "Arroz", Price: 900, Stock: 3}))
	require.NoError(t, db.CreateProduct(ctx, &models.Product{Code: "B2", Name: "Fideos", Price: 700, Stock: 5}))

	path := filepath.Join(t.TempDir(), "filtrado.xlsx")
	require.NoError(t, exporter.ExportProducts(ctx, "arr", path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(productsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Arroz", rows[1][1])
}

func TestExportToDirCreatesTimestampedFile(t *testing.T) {
	exporter, db := setupExporter(t)
	ctx := context.Background()

	require.NoError(t, db.CreateProduct(ctx, &models.Product{Code: "A1", Name: "Arroz", Price: 900, Stock: 3}))

	dir := t.TempDir()
	path, err := exporter.ExportToDir(ctx, "", dir, "")
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.Contains(t, filepath.Base(path), "productos_")
	assert.Equal(t, ".xlsx", filepath.Ext(path))

	_, err = os.Stat(path)
	assert.NoError(t, err)

	csvPath, err := exporter.ExportToDir(ctx, "", dir, "csv")
	require.NoError(t, err)
	assert.Equal(t, ".csv", filepath.Ext(csvPath))

	_, err = os.Stat(csvPath)
	assert.NoError(t, err)
}

func TestExportProductsCSV(t *testing.T) {
	exporter, db := setupExporter(t)
	ctx := context.Background()

	require.NoError(t, db.CreateProduct(ctx, &models.Product{Code: "94319699", Name: "Milanesa", Price: 1600.5, Stock: 10}))

	path := filepath.Join(t.TempDir(), "productos.csv")
	require.NoError(t, exporter.ExportProductsCSV(ctx, "", path))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, []string{"codigo", "nombre", "precio", "stock"}, records[0])
	assert.Equal(t, []string{"94319699", "Milanesa", "1600.50", "10"}, records[1])
}
