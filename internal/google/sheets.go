package google

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"oncestock/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	inventorySheet = "Inventario"
	movementsSheet = "Movimientos"
)

// SheetsService mirrors the local inventory into a Google spreadsheet so the
// owner can share a read-only view without handing out the database file.
type SheetsService struct {
	service       *sheets.Service
	spreadsheetID string
}

func NewSheetsService(credentialsFile, spreadsheetID string) (*SheetsService, error) {
	ctx := context.Background()

	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %v", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %v", err)
	}

	client := config.Client(ctx)

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %v", err)
	}

	return &SheetsService{
		service:       srv,
		spreadsheetID: spreadsheetID,
	}, nil
}

// TestConnection reads one cell to verify the account can see the spreadsheet.
func (s *SheetsService) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, inventorySheet+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %v", err)
	}
	return nil
}

// GetServiceAccountEmail extracts the client_email so operators know which
// account to share the spreadsheet with.
func (s *SheetsService) GetServiceAccountEmail(credentialsFile string) (string, error) {
	file, err := os.ReadFile(credentialsFile)
	if err != nil {
		return "", err
	}

	var creds struct {
		ClientEmail string `json:"client_email"`
	}

	if err := json.Unmarshal(file, &creds); err != nil {
		return "", err
	}

	return creds.ClientEmail, nil
}

// ReplaceInventorySheet clears the Inventario sheet and rewrites it with the
// full catalog snapshot.
func (s *SheetsService) ReplaceInventorySheet(ctx context.Context, products []models.Product) error {
	clearRange := inventorySheet + "!A:Z"
	if _, err := s.service.Spreadsheets.Values.Clear(s.spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("failed to clear inventory sheet: %v", err)
	}

	values := [][]interface{}{
		{"Código", "Nombre", "Precio Unitario", "Stock", "Stock Mínimo", "Código de Barras", "Actualizado"},
	}
	for _, p := range products {
		values = append(values, []interface{}{
			p.Code,
			p.Name,
			p.Price,
			p.Stock,
			p.MinStock,
			p.Barcode,
			p.UpdatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	rangeData := fmt.Sprintf("%s!A1:G%d", inventorySheet, len(values))
	valueRange := &sheets.ValueRange{Values: values}

	_, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeData, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update inventory sheet: %v", err)
	}
	return nil
}

// AppendMovement adds one row to the Movimientos sheet.
func (s *SheetsService) AppendMovement(ctx context.Context, movement *models.Movement) error {
	if movement == nil {
		return fmt.Errorf("movement is nil")
	}

	row := []interface{}{
		movement.ID,
		movement.CreatedAt.Format("2006-01-02 15:04:05"),
		movement.ProductCode,
		movement.ProductName,
		movement.Type,
		movement.Quantity,
		movement.UnitPrice,
		movement.Note,
	}

	rangeData := movementsSheet + "!A:A"
	valueRange := &sheets.ValueRange{Values: [][]interface{}{row}}

	_, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, rangeData, valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}
