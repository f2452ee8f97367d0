package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Reya-11/Solid-spend/internal/amqp"
	"github.com/Reya-11/Solid-spend/internal/cli"
	"github.com/Reya-11/Solid-spend/internal/config"
	"github.com/Reya-11/Solid-spend/internal/core"
	"github.com/Reya-11/Solid-spend/internal/currency"
	"github.com/Reya-11/Solid-spend/internal/export"
	"github.com/Reya-11/Solid-spend/internal/ocr"
	"github.com/Reya-11/Solid-spend/internal/services"
	"github.com/Reya-11/Solid-spend/internal/storage"
)

const usage = `Usage: solidspend <command> [flags]

Commands:
  add        Record a new expense
  list       List expenses
  show       Show a single expense
  update     Update fields of an expense
  delete     Delete an expense
  scan       Extract expense fields from a receipt image
  analytics  Spending summaries by category, merchant and month
  export     Export all expenses as CSV
  prefs      Show or change user preferences

Run 'solidspend <command> -h' for command flags.
`

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := cli.LoadAndValidateConfig(logger)
	ctx := context.Background()

	err := runCommand(ctx, logger, cfg, os.Args[1], os.Args[2:])
	if err != nil {
		var rateErr *services.RateUnavailableError
		if errors.As(err, &rateErr) {
			fmt.Fprintln(os.Stderr, rateErr.Error())
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "solidspend: %v\n", err)
		os.Exit(1)
	}
}

func runCommand(ctx context.Context, logger *slog.Logger, cfg *config.Config, command string, args []string) error {
	if command == "scan" {
		return runScan(ctx, cfg, args)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	svc := newExpenseService(ctx, logger, cfg, repo)

	switch command {
	case "add":
		return runAdd(ctx, svc, args)
	case "list":
		return runList(ctx, svc, args)
	case "show":
		return runShow(ctx, svc, args)
	case "update":
		return runUpdate(ctx, svc, args)
	case "delete":
		return runDelete(ctx, svc, args)
	case "analytics":
		return runAnalytics(ctx, svc, args)
	case "export":
		return runExport(ctx, repo, args)
	case "prefs":
		return runPrefs(ctx, repo, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func newExpenseService(ctx context.Context, logger *slog.Logger, cfg *config.Config, repo *storage.SQLiteRepository) *services.ExpenseService {
	var source currency.RateSource
	if cfg.ExchangeRateAPIKey != "" {
		source = currency.NewAPIClient(cfg.ExchangeRateAPIKey, cfg.ExchangeRateAPIURL, nil)
	}
	converter := currency.NewConverter(source, logger)

	var publisher services.SyncPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, sync messages will not be published", "error", err)
		} else {
			publisher = client
		}
	}

	return services.NewExpenseService(repo, repo, converter, publisher)
}

func runAdd(ctx context.Context, svc *services.ExpenseService, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	amountFlag := fs.String("amount", "", "expense amount, e.g. 12.50 (required)")
	currencyFlag := fs.String("currency", "USD", "3-letter currency code")
	categoryFlag := fs.String("category", "", "category (required)")
	merchantFlag := fs.String("merchant", "", "merchant name (required)")
	dateFlag := fs.String("date", "", "date as YYYY-MM-DD (required)")
	notesFlag := fs.String("notes", "", "free-form notes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	amount, err := core.ParseMoney(*amountFlag)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	currencyCode, err := core.NormalizeCurrency(*currencyFlag)
	if err != nil {
		return err
	}
	date, err := core.ParseDate(*dateFlag)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	e, err := svc.Create(ctx, core.ExpenseDraft{
		Amount:   amount,
		Currency: currencyCode,
		Category: *categoryFlag,
		Merchant: *merchantFlag,
		Date:     date,
		Notes:    *notesFlag,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Saved expense %s: %s %s at %s (%s normalized)\n",
		e.ID, e.Amount, e.Currency, e.Merchant, e.NormalizedAmount)
	return nil
}

func runList(ctx context.Context, svc *services.ExpenseService, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	limitFlag := fs.Int("limit", 50, "maximum number of expenses to show")
	offsetFlag := fs.Int("offset", 0, "number of expenses to skip")
	if err := fs.Parse(args); err != nil {
		return err
	}

	expenses, err := svc.List(ctx, *limitFlag, *offsetFlag)
	if err != nil {
		return err
	}
	if len(expenses) == 0 {
		fmt.Println("No expenses recorded.")
		return nil
	}

	for _, e := range expenses {
		fmt.Printf("%s  %s  %-20s %-12s %8s %s  (%s)\n",
			e.ID, e.Date, truncate(e.Merchant, 20), truncate(e.Category, 12),
			e.Amount, e.Currency, e.NormalizedAmount)
	}
	return nil
}

func runShow(ctx context.Context, svc *services.ExpenseService, args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	idFlag := fs.String("id", "", "expense id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	id, err := uuid.Parse(*idFlag)
	if err != nil {
		return fmt.Errorf("invalid expense id %q", *idFlag)
	}
	e, err := svc.Get(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("ID:          %s\n", e.ID)
	fmt.Printf("Date:        %s\n", e.Date)
	fmt.Printf("Merchant:    %s\n", e.Merchant)
	fmt.Printf("Category:    %s\n", e.Category)
	fmt.Printf("Amount:      %s %s\n", e.Amount, e.Currency)
	fmt.Printf("Normalized:  %s\n", e.NormalizedAmount)
	if e.Notes != "" {
		fmt.Printf("Notes:       %s\n", e.Notes)
	}
	if e.OCRConfidence != nil {
		fmt.Printf("OCR conf.:   %.2f\n", *e.OCRConfidence)
	}
	fmt.Printf("Version:     %d\n", e.Version)
	return nil
}

func runUpdate(ctx context.Context, svc *services.ExpenseService, args []string) error {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	idFlag := fs.String("id", "", "expense id (required)")
	amountFlag := fs.String("amount", "", "new amount")
	currencyFlag := fs.String("currency", "", "new currency code")
	categoryFlag := fs.String("category", "", "new category")
	merchantFlag := fs.String("merchant", "", "new merchant")
	dateFlag := fs.String("date", "", "new date as YYYY-MM-DD")
	notesFlag := fs.String("notes", "", "new notes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	id, err := uuid.Parse(*idFlag)
	if err != nil {
		return fmt.Errorf("invalid expense id %q", *idFlag)
	}

	var upd core.ExpenseUpdate
	var parseErr error
	fs.Visit(func(f *flag.Flag) {
		if parseErr != nil {
			return
		}
		switch f.Name {
		case "amount":
			m, err := core.ParseMoney(*amountFlag)
			if err != nil {
				parseErr = fmt.Errorf("amount: %w", err)
				return
			}
			upd.Amount = &m
		case "currency":
			code, err := core.NormalizeCurrency(*currencyFlag)
			if err != nil {
				parseErr = err
				return
			}
			upd.Currency = &code
		case "category":
			upd.Category = categoryFlag
		case "merchant":
			upd.Merchant = merchantFlag
		case "date":
			d, err := core.ParseDate(*dateFlag)
			if err != nil {
				parseErr = fmt.Errorf("date: %w", err)
				return
			}
			upd.Date = &d
		case "notes":
			upd.Notes = notesFlag
		}
	})
	if parseErr != nil {
		return parseErr
	}
	if upd == (core.ExpenseUpdate{}) {
		return errors.New("nothing to update: pass at least one field flag")
	}

	e, err := svc.Update(ctx, id, upd)
	if err != nil {
		return err
	}

	fmt.Printf("Updated expense %s (version %d, normalized %s)\n", e.ID, e.Version, e.NormalizedAmount)
	return nil
}

func runDelete(ctx context.Context, svc *services.ExpenseService, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	idFlag := fs.String("id", "", "expense id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	id, err := uuid.Parse(*idFlag)
	if err != nil {
		return fmt.Errorf("invalid expense id %q", *idFlag)
	}
	if err := svc.Delete(ctx, id); err != nil {
		return err
	}

	fmt.Printf("Deleted expense %s\n", id)
	return nil
}

func runScan(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	fileFlag := fs.String("file", "", "path to the receipt image (required)")
	showTextFlag := fs.Bool("text", false, "also print the raw recognized text")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if cfg.GeminiAPIKey == "" {
		return errors.New("receipt scanning requires GEMINI_API_KEY")
	}
	if *fileFlag == "" {
		return errors.New("missing -file")
	}

	image, err := os.ReadFile(*fileFlag)
	if err != nil {
		return fmt.Errorf("read receipt image: %w", err)
	}
	contentType := mime.TypeByExtension(filepath.Ext(*fileFlag))
	if !strings.HasPrefix(contentType, "image/") {
		contentType = "image/png"
	}

	extractor, err := ocr.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return fmt.Errorf("init OCR client: %w", err)
	}
	defer extractor.Close()

	fields, text, err := services.NewReceiptService(extractor).Scan(ctx, image, contentType)
	if err != nil {
		return err
	}

	printField := func(name, value string, found bool) {
		if found {
			fmt.Printf("%-10s %s\n", name+":", value)
		} else {
			fmt.Printf("%-10s (not found)\n", name+":")
		}
	}
	printField("Amount", formatAmount(fields.Amount), fields.Amount != nil)
	printField("Date", formatDate(fields.Date), fields.Date != nil)
	printField("Merchant", formatString(fields.Merchant), fields.Merchant != nil)

	if *showTextFlag {
		fmt.Println("--- recognized text ---")
		fmt.Println(text)
	}
	return nil
}

func runAnalytics(ctx context.Context, svc *services.ExpenseService, args []string) error {
	fs := flag.NewFlagSet("analytics", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	report, err := svc.Analytics(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Spending by category (%s):\n", report.BaseCurrency)
	for _, row := range report.ByCategory {
		fmt.Printf("  %-20s %10s\n", row.Name, row.Total)
	}
	fmt.Printf("\nSpending by merchant (%s):\n", report.BaseCurrency)
	for _, row := range report.ByMerchant {
		fmt.Printf("  %-20s %10s\n", row.Name, row.Total)
	}
	fmt.Printf("\nSpending over time (%s):\n", report.BaseCurrency)
	for _, row := range report.OverTime {
		fmt.Printf("  %s %10s\n", row.Month, row.Total)
	}
	return nil
}

func runExport(ctx context.Context, repo *storage.SQLiteRepository, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	outFlag := fs.String("o", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	expenses, err := repo.ListAllExpenses(ctx)
	if err != nil {
		return err
	}
	prefs, err := repo.GetPreferences(ctx)
	if err != nil {
		return err
	}

	out := os.Stdout
	if *outFlag != "" {
		f, err := os.Create(*outFlag)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	return export.WriteExpenses(out, expenses, prefs.BaseCurrency)
}

func runPrefs(ctx context.Context, repo *storage.SQLiteRepository, args []string) error {
	fs := flag.NewFlagSet("prefs", flag.ExitOnError)
	baseFlag := fs.String("base-currency", "", "set the base currency")
	themeFlag := fs.String("theme", "", "set the UI theme (light or dark)")
	categoriesFlag := fs.String("categories", "", "set custom categories, comma separated")
	if err := fs.Parse(args); err != nil {
		return err
	}

	prefs, err := repo.GetPreferences(ctx)
	if err != nil {
		return err
	}

	changed := false
	if *baseFlag != "" {
		code, err := core.NormalizeCurrency(*baseFlag)
		if err != nil {
			return err
		}
		prefs.BaseCurrency = code
		changed = true
	}
	if *themeFlag != "" {
		if *themeFlag != "light" && *themeFlag != "dark" {
			return fmt.Errorf("invalid theme %q: must be light or dark", *themeFlag)
		}
		prefs.Theme = *themeFlag
		changed = true
	}
	if *categoriesFlag != "" {
		var categories []string
		for _, c := range strings.Split(*categoriesFlag, ",") {
			if c = strings.TrimSpace(c); c != "" {
				categories = append(categories, c)
			}
		}
		prefs.CustomCategories = categories
		changed = true
	}

	if changed {
		if err := repo.UpdatePreferences(ctx, prefs); err != nil {
			return err
		}
	}

	fmt.Printf("Base currency:     %s\n", prefs.BaseCurrency)
	fmt.Printf("Theme:             %s\n", prefs.Theme)
	fmt.Printf("Custom categories: %s\n", strings.Join(prefs.CustomCategories, ", "))
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func formatAmount(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(2)
}

func formatDate(d *core.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func formatString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
