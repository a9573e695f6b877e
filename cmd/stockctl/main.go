package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"oncestock/internal/config"
	"oncestock/internal/database"
	"oncestock/internal/export"
	"oncestock/internal/logging"
	"oncestock/internal/models"

	"github.com/rs/zerolog"
)

const usage = `Usage: stockctl <command> [flags]

Commands:
  list       list products, optionally filtered
  add        add a product
  set        update a product's price, stock or minimum
  delete     delete a product by code
  in         register an IN movement
  out        register an OUT movement
  scan       apply a movement by code or barcode at list price
  movements  show recent movements
  low        show products at or below their minimum stock
  export     write the catalog to an .xlsx or .csv file
  backup     snapshot the database file
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err := run(os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "stockctl: %v\n", err)
		os.Exit(1)
	}
}

func run(command string, args []string) error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	switch command {
	case "list":
		return cmdList(ctx, db, args)
	case "add":
		return cmdAdd(ctx, db, args)
	case "set":
		return cmdSet(ctx, db, args)
	case "delete":
		return cmdDelete(ctx, db, args)
	case "in":
		return cmdMove(ctx, db, models.MovementIn, args)
	case "out":
		return cmdMove(ctx, db, models.MovementOut, args)
	case "scan":
		return cmdScan(ctx, db, args)
	case "movements":
		return cmdMovements(ctx, db, args)
	case "low":
		return cmdLow(ctx, db)
	case "export":
		return cmdExport(ctx, db, cfg, &logger, args)
	case "backup":
		return cmdBackup(cfg, &logger)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command: %s", command)
	}
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	// The CLI keeps stdout for data; logs go wherever the config says.
	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "stockctl").Logger()

	return cfg, logger, closer, nil
}

func cmdList(ctx context.Context, db *database.DB, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	filter := fs.String("q", "", "filter by code or name")
	_ = fs.Parse(args)

	products, err := db.ListProducts(ctx, *filter)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tNAME\tPRICE\tSTOCK\tMIN\tBARCODE")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%s\t$%.2f\t%d\t%d\t%s\n", p.Code, p.Name, p.Price, p.Stock, p.MinStock, p.Barcode)
	}
	return w.Flush()
}

func cmdAdd(ctx context.Context, db *database.DB, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	code := fs.String("code", "", "product code (required)")
	name := fs.String("name", "", "product name (required)")
	price := fs.String("price", "0", "unit price, accepts 1.600,50 and 1,600.50")
	stock := fs.Int64("stock", 0, "initial stock")
	barcode := fs.String("barcode", "", "barcode")
	minStock := fs.Int64("min", 0, "minimum stock before alerts")
	_ = fs.Parse(args)

	product := &models.Product{
		Code:     *code,
		Name:     *name,
		Price:    models.ParseAmount(*price, 0),
		Stock:    *stock,
		Barcode:  *barcode,
		MinStock: *minStock,
	}
	if err := db.CreateProduct(ctx, product); err != nil {
		return err
	}

	fmt.Printf("created %s (%s) id=%d\n", product.Name, product.Code, product.ID)
	return nil
}

func cmdSet(ctx context.Context, db *database.DB, args []string) error {
	fs := flag.NewFlagSet("set", flag.ExitOnError)
	code := fs.String("code", "", "product code (required)")
	name := fs.String("name", "", "new name")
	price := fs.String("price", "", "new unit price")
	stock := fs.Int64("stock", -1, "new absolute stock")
	minStock := fs.Int64("min", -1, "new minimum stock")
	_ = fs.Parse(args)

	product, err := db.GetProductByCode(ctx, *code)
	if err != nil {
		return err
	}

	if *name != "" {
		product.Name = *name
	}
	if *price != "" {
		product.Price = models.ParseAmount(*price, product.Price)
	}
	if *stock >= 0 {
		product.Stock = *stock
	}
	if *minStock >= 0 {
		product.MinStock = *minStock
	}

	if err := db.UpdateProduct(ctx, product); err != nil {
		return err
	}

	fmt.Printf("updated %s: price=$%.2f stock=%d min=%d\n", product.Code, product.Price, product.Stock, product.MinStock)
	return nil
}

func cmdDelete(ctx context.Context, db *database.DB, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	code := fs.String("code", "", "product code (required)")
	_ = fs.Parse(args)

	product, err := db.GetProductByCode(ctx, *code)
	if err != nil {
		return err
	}
	if err := db.DeleteProduct(ctx, product.ID); err != nil {
		return err
	}

	fmt.Printf("deleted %s (%s)\n", product.Name, product.Code)
	return nil
}

func cmdMove(ctx context.Context, db *database.DB, movementType string, args []string) error {
	fs := flag.NewFlagSet(movementType, flag.ExitOnError)
	code := fs.String("code", "", "product code or barcode (required)")
	qty := fs.Int64("qty", 1, "quantity")
	price := fs.String("price", "", "unit price; defaults to the product's list price")
	note := fs.String("note", "", "optional note")
	_ = fs.Parse(args)

	product, err := db.GetProductByCode(ctx, *code)
	if err != nil {
		return err
	}

	unitPrice := product.Price
	if *price != "" {
		unitPrice = models.ParseAmount(*price, product.Price)
	}

	updated, err := db.ApplyMovement(ctx, &models.Movement{
		ProductID: product.ID,
		Type:      movementType,
		Quantity:  *qty,
		UnitPrice: unitPrice,
		Note:      *note,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s %d x %s -> stock %d\n", movementType, *qty, updated.Name, updated.Stock)
	if updated.BelowMinimum() {
		fmt.Printf("warning: %s at or below minimum stock (%d <= %d)\n", updated.Code, updated.Stock, updated.MinStock)
	}
	return nil
}

func cmdScan(ctx context.Context, db *database.DB, args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	code := fs.String("code", "", "product code or barcode (required)")
	qty := fs.Int64("qty", 1, "quantity")
	moveType := fs.String("type", models.MovementOut, "IN or OUT")
	_ = fs.Parse(args)

	product, err := db.GetProductByCode(ctx, *code)
	if err != nil {
		return err
	}

	updated, err := db.ApplyMovement(ctx, &models.Movement{
		ProductID: product.ID,
		Type:      *moveType,
		Quantity:  *qty,
		UnitPrice: product.Price,
		Note:      models.NoteScanned,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s: stock %d\n", updated.Name, updated.Stock)
	return nil
}

func cmdMovements(ctx context.Context, db *database.DB, args []string) error {
	fs := flag.NewFlagSet("movements", flag.ExitOnError)
	code := fs.String("code", "", "restrict to one product")
	limit := fs.Int("limit", 0, "max rows")
	_ = fs.Parse(args)

	var productID int64
	if *code != "" {
		product, err := db.GetProductByCode(ctx, *code)
		if err != nil {
			return err
		}
		productID = product.ID
	}

	movements, err := db.ListMovements(ctx, productID, *limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tCODE\tNAME\tTYPE\tQTY\tPRICE\tNOTE")
	for _, m := range movements {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t$%.2f\t%s\n",
			m.CreatedAt.Format("2006-01-02 15:04"), m.ProductCode, m.ProductName, m.Type, m.Quantity, m.UnitPrice, m.Note)
	}
	return w.Flush()
}

func cmdLow(ctx context.Context, db *database.DB) error {
	products, err := db.LowStockProducts(ctx)
	if err != nil {
		return err
	}

	if len(products) == 0 {
		fmt.Println("no products below minimum stock")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tNAME\tSTOCK\tMIN")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", p.Code, p.Name, p.Stock, p.MinStock)
	}
	return w.Flush()
}

func cmdExport(ctx context.Context, db *database.DB, cfg *config.Config, logger *zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	filter := fs.String("q", "", "filter by code or name")
	format := fs.String("format", "xlsx", "xlsx or csv")
	out := fs.String("out", "", "output path; defaults to the exports directory")
	_ = fs.Parse(args)

	exporter := export.NewExporter(db, logger)

	path := *out
	var err error
	if path == "" {
		path, err = exporter.ExportToDir(ctx, *filter, cfg.Exports.Path, *format)
	} else if *format == "csv" {
		err = exporter.ExportProductsCSV(ctx, *filter, path)
	} else {
		err = exporter.ExportProducts(ctx, *filter, path)
	}
	if err != nil {
		return err
	}

	fmt.Printf("exported to %s\n", path)
	return nil
}

func cmdBackup(cfg *config.Config, logger *zerolog.Logger) error {
	backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, logger)
	if err := backupService.PerformBackup(); err != nil {
		return err
	}

	fmt.Printf("backup written to %s\n", cfg.Backup.StoragePath)
	return nil
}
