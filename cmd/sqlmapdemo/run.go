package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/likearthian/sqlmap"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type Category struct {
	CategoryId int64
	Name       string
}

type Product struct {
	ProductId   string
	CategoryId  int64
	Name        string
	Description string
	Price       float64
}

var schemas = map[sqlmap.Provider][]string{
	sqlmap.ProviderSQLite: {
		"CREATE TABLE IF NOT EXISTS Category (CategoryId INTEGER PRIMARY KEY AUTOINCREMENT, Name TEXT NOT NULL)",
		"CREATE TABLE IF NOT EXISTS Product (ProductId TEXT PRIMARY KEY, CategoryId INTEGER NOT NULL REFERENCES Category(CategoryId), Name TEXT NOT NULL, Description TEXT, Price REAL NOT NULL)",
	},
	sqlmap.ProviderPgx: {
		"CREATE TABLE IF NOT EXISTS Category (CategoryId BIGSERIAL PRIMARY KEY, Name TEXT NOT NULL)",
		"CREATE TABLE IF NOT EXISTS Product (ProductId TEXT PRIMARY KEY, CategoryId BIGINT NOT NULL REFERENCES Category(CategoryId), Name TEXT NOT NULL, Description TEXT, Price NUMERIC(10,2) NOT NULL)",
	},
	sqlmap.ProviderMySQL: {
		"CREATE TABLE IF NOT EXISTS Category (CategoryId BIGINT AUTO_INCREMENT PRIMARY KEY, Name VARCHAR(100) NOT NULL)",
		"CREATE TABLE IF NOT EXISTS Product (ProductId VARCHAR(20) PRIMARY KEY, CategoryId BIGINT NOT NULL, Name VARCHAR(100) NOT NULL, Description VARCHAR(255), Price DECIMAL(10,2) NOT NULL, FOREIGN KEY (CategoryId) REFERENCES Category(CategoryId))",
	},
}

func init() {
	schemas[sqlmap.ProviderSQLite3] = schemas[sqlmap.ProviderSQLite]
	schemas[sqlmap.ProviderPostgres] = schemas[sqlmap.ProviderPgx]
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the category and product scenario",
		RunE:  runScenario,
	}

	cmd.Flags().Bool("no-schema", false, "do not create the Category and Product tables")

	return cmd
}

func newProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the supported providers",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range []string{"pgx", "postgres", "sqlite", "sqlite3", "mysql"} {
				p, _ := sqlmap.ParseProvider(name)
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s driver=%s\n", name, p.DriverName())
			}
		},
	}
}

func runScenario(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	successColor := color.New(color.FgGreen, color.Bold)
	infoColor := color.New(color.FgCyan)
	errorColor := color.New(color.FgRed, color.Bold)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	factory, err := sqlmap.FromConfig(cfg.Config, sqlmap.WithLogger(logger))
	if err != nil {
		return err
	}

	if err := sqlmap.ConfigureTable[Category](factory).
		Key(func(c *Category) any { return &c.CategoryId }, true).
		Commit(); err != nil {
		return err
	}

	if err := sqlmap.ConfigureTable[Product](factory).Commit(); err != nil {
		return err
	}

	db, err := factory.Build(ctx)
	if err != nil {
		errorColor.Printf("✗ cannot connect to %s\n", cfg.Provider)
		return err
	}
	defer db.Close()

	noSchema, _ := cmd.Flags().GetBool("no-schema")
	if cfg.CreateSchema && !noSchema {
		for _, ddl := range schemas[db.Provider()] {
			if err := db.NonQuery(ddl).Execute(ctx); err != nil {
				return fmt.Errorf("create schema: %w", err)
			}
		}
	}

	category1 := &Category{Name: "Category 1"}
	category2 := &Category{Name: "Category 2"}
	product1 := &Product{ProductId: "PROD123", Name: "Product 123", Description: "The first Product", Price: 19.99}
	product2 := &Product{ProductId: "PROD234", Name: "Product 234", Description: "The second Product", Price: 24.99}
	product3 := &Product{ProductId: "PROD345", Name: "Product 345", Description: "The third Product", Price: 29.99}

	if err := insertAll(ctx, db, category1, category2, product1, product2, product3); err != nil {
		if sqlmap.IsUniqueViolation(err) {
			errorColor.Println("✗ products already exist, rolled back")
		} else {
			errorColor.Println("✗", err)
		}
		logger.Warn("scenario rolled back", zap.Error(err))
	} else {
		successColor.Println("✓ OK")
	}

	products, err := sqlmap.Query[Product](db, "SELECT ProductId, CategoryId, Name, Description, Price FROM Product WHERE CategoryId = :CategoryId ORDER BY ProductId").
		Parameter(":CategoryId", category2.CategoryId).
		Execute(ctx)
	if err != nil {
		return err
	}

	for _, p := range products {
		fmt.Fprintln(cmd.OutOrStdout(), p.ProductId)
	}
	fmt.Fprintln(cmd.OutOrStdout())

	prodX, err := sqlmap.SelectByKey[Product](ctx, db, "PROD123")
	if err != nil {
		return err
	}
	if prodX == nil {
		infoColor.Fprintln(os.Stderr, "PROD123 not found")
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", prodX.ProductId, prodX.Name)
	return nil
}

// insertAll inserts the categories, links the products to them and inserts
// the products, all in one transaction.
func insertAll(ctx context.Context, db *sqlmap.Database, category1, category2 *Category, products ...*Product) error {
	if err := db.BeginTransaction(ctx); err != nil {
		return err
	}

	err := func() error {
		for _, c := range []*Category{category1, category2} {
			if err := db.Insert(ctx, c); err != nil {
				return err
			}
		}

		for i, p := range products {
			p.CategoryId = category2.CategoryId
			if i == 0 {
				p.CategoryId = category1.CategoryId
			}
			if err := db.Insert(ctx, p); err != nil {
				return fmt.Errorf("insert %s: %w", p.ProductId, err)
			}
		}

		return nil
	}()
	if err != nil {
		_ = db.RollbackTransaction()
		return err
	}

	return db.CommitTransaction()
}
