// Command finsight is the command-line front-end of the analytics core.
// It only parses arguments, wires the components, and prints results;
// all calculation and storage logic lives under internal/finance, where
// the dashboard and notebook front-ends call the exact same API.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dkovacs/finsight/internal/finance/controller"
	"github.com/dkovacs/finsight/internal/finance/db"
	"github.com/dkovacs/finsight/internal/finance/events"
	"github.com/dkovacs/finsight/internal/finance/forecast"
	"github.com/dkovacs/finsight/internal/finance/kpi"
	"github.com/dkovacs/finsight/internal/finance/models"
	"github.com/dkovacs/finsight/internal/finance/simulate"
	"github.com/dkovacs/finsight/internal/finance/transfer"
	"github.com/dkovacs/finsight/internal/pkg/utils"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config struct for YAML configuration
type Config struct {
	DBDriver     string   `yaml:"DB_DRIVER"`
	DBPath       string   `yaml:"DB_PATH"`
	DBHost       string   `yaml:"DB_HOST"`
	DBPort       int      `yaml:"DB_PORT"`
	DBUser       string   `yaml:"DB_USER"`
	DBPassword   string   `yaml:"DB_PASSWORD"`
	DBName       string   `yaml:"DB_NAME"`
	DBSSLMode    string   `yaml:"DB_SSLMODE"`
	KafkaBrokers []string `yaml:"KAFKA_BROKERS"`
	Topic        string   `yaml:"TOPIC"`
}

const usage = `usage: finsight <command> [arguments]

commands:
  import-employees <file>      bulk-load employees from CSV
  import-financials <file>     bulk-load financial records from CSV
  export-employees <file>      write all employees to CSV
  export-financials <file>     write all financial records to CSV
  list-employees [-active]     print employees ordered by id
  kpi <period>                 print the KPI snapshot for YYYY-MM
  trend <from> <to>            print one snapshot per recorded period
  summary <from> <to>          print range totals and averages
  simulate <period> [flags]    recompute KPIs under overrides
  forecast <horizon>           predict revenue N months ahead
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	logger := initLogger()
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	repo, err := db.NewRepository(&db.Config{
		Driver:   cfg.DBDriver,
		Path:     cfg.DBPath,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer repo.Close()

	var producer controller.EventProducer
	if len(cfg.KafkaBrokers) > 0 {
		kafkaProducer, err := events.NewProducer(cfg.KafkaBrokers, logger, cfg.Topic)
		if err != nil {
			logger.Fatal("failed to initialize Kafka producer", zap.Error(err))
		}
		defer kafkaProducer.Close()
		producer = kafkaProducer
	}

	svc := controller.NewService(repo, producer, logger)
	kpiEngine := kpi.NewEngine(repo)
	simEngine := simulate.NewEngine(repo)
	bulk := transfer.New(repo, logger)

	ctx := context.Background()
	if err := run(ctx, os.Args[1], os.Args[2:], svc, kpiEngine, simEngine, bulk, repo); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(
	ctx context.Context,
	command string,
	args []string,
	svc *controller.Service,
	kpiEngine *kpi.Engine,
	simEngine *simulate.Engine,
	bulk *transfer.Transfer,
	repo *db.Repository,
) error {
	switch command {
	case "import-employees":
		return runImport(ctx, args, bulk.ImportEmployees)
	case "import-financials":
		return runImport(ctx, args, bulk.ImportFinancialRecords)
	case "export-employees":
		return runExport(ctx, args, bulk.ExportEmployees)
	case "export-financials":
		return runExport(ctx, args, bulk.ExportFinancialRecords)
	case "list-employees":
		fs := flag.NewFlagSet("list-employees", flag.ExitOnError)
		activeOnly := fs.Bool("active", false, "only active employees")
		if err := fs.Parse(args); err != nil {
			return err
		}
		employees, err := svc.ListEmployees(ctx, *activeOnly)
		if err != nil {
			return err
		}
		for i := range employees {
			emp := &employees[i]
			fmt.Printf("%s  %-20s  %10s  %s  active=%t\n",
				emp.ID, emp.Name, emp.BaseSalary, emp.HireDate.Format("2006-01-02"), emp.Active)
		}
		return nil
	case "kpi":
		if len(args) != 1 {
			return fmt.Errorf("kpi takes exactly one period argument")
		}
		period, err := models.ParsePeriod(args[0])
		if err != nil {
			return err
		}
		snap, err := kpiEngine.Compute(ctx, period)
		if err != nil {
			return err
		}
		printSnapshot(snap)
		return nil
	case "trend":
		from, to, err := parseRange(args)
		if err != nil {
			return err
		}
		snapshots, err := kpiEngine.Trend(ctx, from, to)
		if err != nil {
			return err
		}
		for i := range snapshots {
			printSnapshot(&snapshots[i])
		}
		return nil
	case "summary":
		from, to, err := parseRange(args)
		if err != nil {
			return err
		}
		summary, err := kpiEngine.Summary(ctx, from, to)
		if err != nil {
			return err
		}
		fmt.Printf("%s..%s  periods=%d  revenue=%s  profit=%s  avg_margin=%s  avg_salary=%s\n",
			summary.From, summary.To, summary.Periods, summary.TotalRevenue,
			summary.TotalProfit, summary.AvgProfitMargin.Round(4), summary.AvgSalaryExpense.Round(2))
		return nil
	case "simulate":
		if len(args) < 1 {
			return fmt.Errorf("simulate takes a period argument")
		}
		period, err := models.ParsePeriod(args[0])
		if err != nil {
			return err
		}
		params, err := parseSimFlags(args[1:])
		if err != nil {
			return err
		}
		delta, err := simEngine.Delta(ctx, period, params)
		if err != nil {
			return err
		}
		fmt.Println("baseline:")
		printSnapshot(&delta.Baseline)
		fmt.Println("simulated:")
		printSnapshot(&delta.Simulated)
		fmt.Printf("profit_after_tax delta: %s\n", delta.ProfitAfterTaxDelta)
		return nil
	case "forecast":
		if len(args) != 1 {
			return fmt.Errorf("forecast takes exactly one horizon argument")
		}
		var horizon int
		if _, err := fmt.Sscanf(args[0], "%d", &horizon); err != nil {
			return fmt.Errorf("bad horizon %q", args[0])
		}
		history, err := repo.ListFinancialRecords(ctx)
		if err != nil {
			return err
		}
		model := forecast.NewModel()
		if err := model.Train(history); err != nil {
			return err
		}
		result, err := model.Predict(horizon)
		if err != nil {
			return err
		}
		fmt.Printf("%s  predicted_revenue=%s", result.ForecastPeriod, result.PredictedRevenue)
		if result.ConfidenceNote != "" {
			fmt.Printf("  (%s)", result.ConfidenceNote)
		}
		fmt.Println()
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func runImport(ctx context.Context, args []string, fn func(context.Context, io.Reader) (int, error)) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one file argument")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	count, err := fn(ctx, f)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d rows\n", count)
	return nil
}

func runExport(ctx context.Context, args []string, fn func(context.Context, io.Writer) error) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one file argument")
	}
	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	return fn(ctx, f)
}

func parseRange(args []string) (models.Period, models.Period, error) {
	if len(args) != 2 {
		return models.Period{}, models.Period{}, fmt.Errorf("expected <from> <to> period arguments")
	}
	from, err := models.ParsePeriod(args[0])
	if err != nil {
		return models.Period{}, models.Period{}, err
	}
	to, err := models.ParsePeriod(args[1])
	if err != nil {
		return models.Period{}, models.Period{}, err
	}
	return from, to, nil
}

func parseSimFlags(args []string) (models.SimulationParameters, error) {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	salaryDelta := fs.String("salary-delta", "", "salary delta fraction, e.g. 0.05")
	taxOverride := fs.String("tax-rate", "", "tax rate override in [0,1]")
	expenseDelta := fs.String("expense-delta", "", "expense delta fraction")
	if err := fs.Parse(args); err != nil {
		return models.SimulationParameters{}, err
	}

	var params models.SimulationParameters
	for _, f := range []struct {
		raw  string
		dest **decimal.Decimal
	}{
		{*salaryDelta, &params.SalaryDeltaPct},
		{*taxOverride, &params.TaxRateOverride},
		{*expenseDelta, &params.ExpenseDeltaPct},
	} {
		if f.raw == "" {
			continue
		}
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return models.SimulationParameters{}, fmt.Errorf("bad decimal %q", f.raw)
		}
		*f.dest = utils.Ptr(d)
	}
	return params, nil
}

func printSnapshot(snap *models.KpiSnapshot) {
	fmt.Printf("%s  revenue=%s  expenses=%s  salary=%s  profit_before_tax=%s  profit_after_tax=%s  margin=%s\n",
		snap.Period, snap.Revenue, snap.Expenses, snap.TotalSalary,
		snap.ProfitBeforeTax, snap.ProfitAfterTax, snap.ProfitMargin.Round(4))
}

// initLogger initializes a Zap production logger.
func initLogger() *zap.Logger {
	logger, _ := zap.NewProduction()
	return logger
}

// loadConfig loads configuration from FINSIGHT_CONFIG or the default path.
func loadConfig() (*Config, error) {
	configPath := os.Getenv("FINSIGHT_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("internal", "finance", "config", "config.yaml")
	}
	file, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// No config file: local SQLite with defaults.
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
