package database

import (
	"context"
	"testing"

	"oncestock/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductCRUD(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	product := &models.Product{
		Code:    "94319699",
		Name:    "billy",
		Price:   1600.00,
		Stock:   40,
		Barcode: "7791234567890",
	}

	// Create
	err := db.CreateProduct(ctx, product)
	require.NoError(t, err)
	assert.NotZero(t, product.ID)

	// Get by ID
	found, err := db.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "billy", found.Name)
	assert.Equal(t, 1600.00, found.Price)

	// Get by code and by barcode
	byCode, err := db.GetProductByCode(ctx, "94319699")
	require.NoError(t, err)
	assert.Equal(t, product.ID, byCode.ID)

	byBarcode, err := db.GetProductByCode(ctx, "7791234567890")
	require.NoError(t, err)
	assert.Equal(t, product.ID, byBarcode.ID)

	// Update
	found.Price = 1800.50
	found.MinStock = 10
	err = db.UpdateProduct(ctx, found)
	require.NoError(t, err)

	updated, err := db.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1800.50, updated.Price)
	assert.Equal(t, int64(10), updated.MinStock)

	// Delete
	err = db.DeleteProduct(ctx, product.ID)
	require.NoError(t, err)

	_, err = db.GetProduct(ctx, product.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCreateProductValidation(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	err := db.CreateProduct(ctx, &models.Product{Code: "", Name: "no code"})
	assert.ErrorIs(t, err, ErrEmptyProductCode)

	err = db.CreateProduct(ctx, &models.Product{Code: "X1", Name: "   "})
	assert.ErrorIs(t, err, ErrEmptyProductCode)
}

func TestCreateProductDuplicateCode(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	require.NoError(t, db.CreateProduct(ctx, &models.Product{Code: "94319699", Name: "billy"}))

	err := db.CreateProduct(ctx, &models.Product{Code: "94319699", Name: "other"})
	assert.ErrorIs(t, err, ErrDuplicateCode)
}

func TestCreateProductEmptyBarcodesDoNotCollide(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	require.NoError(t, db.CreateProduct(ctx, &models.Product{Code: "A1", Name: "first"}))
	require.NoError(t, db.CreateProduct(ctx, &models.Product{Code: "A2", Name: "second"}))
}

func TestListProductsFilter(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	require.NoError(t, db.CreateProduct(ctx, &models.Product{Code: "94319699", Name: "billy"}))
	require.NoError(t, db.CreateProduct(ctx, &models.Product{Code: "56070724", Name: "Evan"}))
	require.NoError(t, db.CreateProduct(ctx, &models.Product{Code: "94466555", Name: "shay"}))

	// Empty filter returns everything ordered by name, case-insensitive.
	all, err := db.ListProducts(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "billy", all[0].Name)
	assert.Equal(t, "Evan", all[1].Name)
	assert.Equal(t, "shay", all[2].Name)

	// Filter matches name substrings.
	byName, err := db.ListProducts(ctx, "van")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Evan", byName[0].Name)

	// Filter matches code substrings too.
	byCode, err := db.ListProducts(ctx, "9446")
	require.NoError(t, err)
	require.Len(t, byCode, 1)
	assert.Equal(t, "shay", byCode[0].Name)

	// No match.
	none, err := db.ListProducts(ctx, "zzz")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdateProductNotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	err := db.UpdateProduct(context.Background(), &models.Product{ID: 999, Code: "X", Name: "ghost"})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestLowStockProducts(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	require.NoError(t, db.CreateProduct(ctx, &models.Product{Code: "L1", Name: "low", Stock: 2, MinStock: 5}))
	require.NoError(t, db.CreateProduct(ctx, &models.Product{Code: "OK", Name: "plenty", Stock: 50, MinStock: 5}))
	require.NoError(t, db.CreateProduct(ctx, &models.Product{Code: "NA", Name: "no threshold", Stock: 0, MinStock: 0}))

	low, err := db.LowStockProducts(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "L1", low[0].Code)
}
