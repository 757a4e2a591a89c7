package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"habits/internal/adapter/sheets"
	"habits/internal/adapter/sqlite"
	"habits/internal/analytics"
	"habits/internal/app"
	"habits/internal/config"
	"habits/internal/domain"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := config.Load(env("HABITS_CONFIG", "habits.toml"))
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer func() { _ = store.Close() }()

	records := app.NewRecordService(store, cfg.Horizon)
	transfer := app.NewTransferService(records, cfg.BackupDir)

	ctx := context.Background()
	if err := records.Init(ctx); err != nil {
		logger.Fatal("init backend", zap.Error(err))
	}

	if err := run(ctx, os.Args[1], os.Args[2:], records, transfer, logger); err != nil {
		logger.Fatal(os.Args[1], zap.Error(err))
	}
}

// openStore picks the backend once: Sheets when both credentials and a
// spreadsheet resolve, the embedded database otherwise.
func openStore(cfg *config.Config, logger *zap.Logger) (domain.RecordStore, error) {
	if cfg.RemoteEnabled() {
		creds, _ := cfg.ResolveCredentials()
		id, _ := cfg.ResolveSpreadsheetID()
		logger.Info("using sheets backend", zap.String("spreadsheet_id", id))
		return sheets.New(creds, id, cfg.Sheets.Worksheet, logger)
	}
	path := filepath.Join(cfg.DataDir, "habits.db")
	logger.Info("using sqlite backend", zap.String("path", path))
	return sqlite.Open(path)
}

func run(ctx context.Context, cmd string, args []string, records *app.RecordService, transfer *app.TransferService, logger *zap.Logger) error {
	switch cmd {
	case "init":
		return nil // backend already initialized above
	case "log":
		return cmdLog(ctx, args, records)
	case "show":
		return cmdShow(ctx, args, records)
	case "export":
		return cmdExport(ctx, args, transfer)
	case "import":
		return cmdImport(ctx, args, transfer, logger)
	case "backup":
		path, err := transfer.Backup(ctx)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	case "stats":
		return cmdStats(ctx, records)
	case "seed":
		return cmdSeed(ctx, args, records, logger)
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: habits <command> [flags]

commands:
  init     prepare the active backend
  log      record metrics for one day
  show     print a day or a date range
  export   write the record set to csv, json or xlsx
  import   upsert records from a csv file
  backup   write a timestamped csv snapshot
  stats    print derived statistics
  seed     fill a date range with generated sample data`)
}

func cmdLog(ctx context.Context, args []string, records *app.RecordService) error {
	fs := flag.NewFlagSet("log", flag.ExitOnError)
	day := fs.String("date", time.Now().Format(domain.DayFormat), "day to record (YYYY-MM-DD)")
	sugar := fs.Int("sugar", 0, "sugar intake in grams")
	water := fs.Int("water", 0, "water intake in ml")
	count := fs.Int("count", 0, "event count")
	hours := fs.Float64("hours", 0, "productive hours")
	weight := fs.Float64("weight", 0, "weight in kg")
	notes := fs.String("notes", "", "free-form notes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// Only flags the user actually set enter the patch; everything else
	// keeps its stored value.
	patch := domain.RecordPatch{Day: *day}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "sugar":
			patch.SugarIntakeG = sugar
		case "water":
			patch.WaterML = water
		case "count":
			patch.EventCount = count
		case "hours":
			patch.ProductiveHours = hours
		case "weight":
			patch.WeightKg = weight
		case "notes":
			patch.Notes = notes
		}
	})
	return records.Upsert(ctx, patch)
}

func cmdShow(ctx context.Context, args []string, records *app.RecordService) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	day := fs.String("date", "", "single day to show")
	from := fs.String("from", "", "range start")
	to := fs.String("to", "", "range end")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var recs []domain.DailyRecord
	switch {
	case *day != "":
		rec, err := records.Get(ctx, *day)
		if err != nil {
			return err
		}
		if rec == nil {
			fmt.Printf("no record for %s\n", *day)
			return nil
		}
		recs = []domain.DailyRecord{*rec}
	case *from != "" && *to != "":
		var err error
		recs, err = records.QueryRange(ctx, *from, *to)
		if err != nil {
			return err
		}
	default:
		var err error
		recs, err = records.Materialize(ctx)
		if err != nil {
			return err
		}
	}

	for _, rec := range recs {
		weight := "-"
		if rec.WeightKg != nil {
			weight = fmt.Sprintf("%.1f", *rec.WeightKg)
		}
		fmt.Printf("%s  sugar=%dg water=%dml count=%d hours=%.1f weight=%skg  %s\n",
			rec.Day, rec.SugarIntakeG, rec.WaterML, rec.EventCount, rec.ProductiveHours, weight, rec.Notes)
	}
	return nil
}

func cmdExport(ctx context.Context, args []string, transfer *app.TransferService) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	format := fs.String("format", "csv", "csv, json or xlsx")
	out := fs.String("out", "", "output path (default export.<format>)")
	from := fs.String("from", "", "range start (optional)")
	to := fs.String("to", "", "range end (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path := *out
	if path == "" {
		path = "export." + *format
	}
	switch *format {
	case "csv":
		return transfer.ExportCSV(ctx, path, *from, *to)
	case "json":
		return transfer.ExportJSON(ctx, path, *from, *to)
	case "xlsx":
		return transfer.ExportXLSX(ctx, path, *from, *to)
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
}

func cmdImport(ctx context.Context, args []string, transfer *app.TransferService, logger *zap.Logger) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	file := fs.String("file", "", "csv file to import")
	onConflict := fs.String("on-conflict", "skip", "skip or fail")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("-file is required")
	}
	policy := app.ImportPolicy(*onConflict)
	if policy != app.ImportSkip && policy != app.ImportFail {
		return fmt.Errorf("unknown conflict policy %q", *onConflict)
	}
	imported, skipped, err := transfer.ImportCSV(ctx, *file, policy)
	if err != nil {
		return err
	}
	logger.Info("import finished", zap.Int("imported", imported), zap.Int("skipped", skipped))
	return nil
}

func cmdStats(ctx context.Context, records *app.RecordService) error {
	recs, err := records.Materialize(ctx)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("no records")
		return nil
	}

	rolling := analytics.Rolling(recs, 7, 30)
	scores := analytics.CompositeScore(recs)
	streak := analytics.Streak(recs, analytics.DefaultGoalHours, analytics.DefaultGoalWaterML)

	last := len(recs) - 1
	fmt.Printf("days tracked:    %d (%s .. %s)\n", len(recs), recs[0].Day, recs[last].Day)
	fmt.Printf("streak:          %d day(s)\n", streak)
	fmt.Printf("7d avg hours:    %.2f\n", rolling[7][last])
	fmt.Printf("30d avg hours:   %.2f\n", rolling[30][last])
	fmt.Printf("today's score:   %.2f\n", scores[last])

	fmt.Println("\nweekly totals:")
	for _, wk := range analytics.WeeklyBreakdown(recs) {
		fmt.Printf("  %s  sugar=%dg water=%dml count=%d hours=%.1f\n",
			wk.Start.Format(domain.DayFormat), wk.SugarIntakeG, wk.WaterML, wk.EventCount, wk.ProductiveHours)
	}
	return nil
}

func cmdSeed(ctx context.Context, args []string, records *app.RecordService, logger *zap.Logger) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	from := fs.String("from", "", "range start (YYYY-MM-DD)")
	to := fs.String("to", "", "range end (YYYY-MM-DD)")
	seed := fs.Int64("seed", 42, "random seed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	start, err := time.Parse(domain.DayFormat, *from)
	if err != nil {
		return fmt.Errorf("-from: %w", err)
	}
	end, err := time.Parse(domain.DayFormat, *to)
	if err != nil {
		return fmt.Errorf("-to: %w", err)
	}

	rng := rand.New(rand.NewSource(*seed))
	baseWeight := 75.0
	n := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		// occasional missing day
		if rng.Float64() < 0.05 {
			continue
		}
		sugar := int(math.Max(0, rng.NormFloat64()*25+60))
		water := int(clampF(rng.NormFloat64()*400+2200, 0, domain.WaterMaxML))
		count := poisson(rng, 0.3)
		if count > 5 {
			count = 5
		}
		hours := clampF(rng.NormFloat64()*2+5, 0, 12)
		baseWeight += rng.NormFloat64() * 0.03
		weight := clampF(math.Round((baseWeight+rng.NormFloat64()*0.4)*10)/10, domain.WeightMinKg, domain.WeightMaxKg)

		patch := domain.RecordPatch{
			Day:             d.Format(domain.DayFormat),
			SugarIntakeG:    &sugar,
			WaterML:         &water,
			EventCount:      &count,
			ProductiveHours: &hours,
			WeightKg:        &weight,
		}
		if err := records.Upsert(ctx, patch); err != nil {
			return fmt.Errorf("seed %s: %w", patch.Day, err)
		}
		n++
	}
	logger.Info("seeded sample data", zap.Int("days", n))
	return nil
}

func poisson(rng *rand.Rand, lambda float64) int {
	l := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= rng.Float64()
		if p <= l {
			return k
		}
		k++
	}
}

func clampF(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
