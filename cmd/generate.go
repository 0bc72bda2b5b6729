package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fabrikdata/fabrik/internal/config"
	"github.com/fabrikdata/fabrik/internal/database"
	"github.com/fabrikdata/fabrik/internal/export"
	"github.com/fabrikdata/fabrik/internal/generator"
	"github.com/fabrikdata/fabrik/internal/planner"
	"github.com/fabrikdata/fabrik/internal/request"
	"github.com/fabrikdata/fabrik/internal/types"
)

var (
	generateRows   int
	generateSpec   string
	generateOut    string
	generateJSON   bool
	generateApply  bool
	generateSchema string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a constraint-valid synthetic dataset",
	Long:  `Parses the schema, orders tables so foreign keys resolve, and fills each table with validated synthetic rows`,
	Run:   runGenerate,
}

func init() {
	generateCmd.Flags().IntVar(&generateRows, "rows", 0, "Default rows per table (overrides config)")
	generateCmd.Flags().StringVar(&generateSpec, "spec", "", "Per-table run spec (YAML)")
	generateCmd.Flags().StringVar(&generateOut, "out", "", "Output directory (overrides config)")
	generateCmd.Flags().BoolVar(&generateJSON, "json", false, "Also write the dataset as a single JSON file")
	generateCmd.Flags().BoolVar(&generateApply, "apply", false, "Insert the generated rows into the configured database")
	generateCmd.Flags().StringVar(&generateSchema, "schema", "", "Schema file (overrides config)")
	rootCmd.AddCommand(generateCmd)
}

// newRowService builds the configured generation backend.
func newRowService(cfg *config.Config) generator.RowService {
	if cfg.Service.Mode == "http" {
		timeout := time.Duration(cfg.Service.TimeoutSeconds) * time.Second
		return generator.NewHTTPService(cfg.Service.Endpoint, cfg.GetServiceAPIKey(), timeout)
	}
	return generator.NewLocalService(cfg.Service.Seed)
}

func orchestratorConfig(cfg *config.Config) generator.Config {
	ocfg := generator.DefaultConfig()
	ocfg.BatchSize = cfg.Generation.BatchSize
	ocfg.FKSampleLimit = cfg.Generation.FKSampleLimit
	ocfg.MaxAttempts = cfg.Generation.MaxAttempts
	ocfg.ReplacementFactor = cfg.Generation.ReplacementFactor
	ocfg.Trace = func(table string, phase generator.Phase) {
		switch phase {
		case generator.PhaseRequesting:
			color.Cyan("  🔄 %s: requesting rows...", table)
		case generator.PhaseComplete:
			color.Green("  ✅ %s: complete", table)
		case generator.PhasePartial:
			color.Yellow("  ⚠️  %s: partial", table)
		}
	}
	return ocfg
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runGenerate(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		color.Red("❌ Failed to load config: %v", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		color.Red("❌ %v", err)
		os.Exit(1)
	}

	schemaPath := cfg.SchemaPath
	if generateSchema != "" {
		schemaPath = generateSchema
	}
	outDir := cfg.OutputPath
	if generateOut != "" {
		outDir = generateOut
	}

	color.Cyan("📖 Parsing %s...", schemaPath)
	tables, err := loadSchema(schemaPath)
	if err != nil {
		color.Red("❌ %v", err)
		os.Exit(1)
	}

	plan := planner.Resolve(tables)
	for _, w := range plan.Warnings {
		color.Yellow("⚠️  Cycle broken: %s -> %s (%s)", w.ChildTable, w.ParentTable, w.Reason)
	}

	req := generator.RunRequest{
		Plan:         plan,
		Tables:       tables,
		DefaultRows:  cfg.Generation.Rows,
		RowTargets:   cfg.Generation.RowTargets,
		Instructions: cfg.Generation.Instructions,
	}
	if generateRows > 0 {
		req.DefaultRows = generateRows
	}
	if generateSpec != "" {
		spec, err := request.Load(generateSpec)
		if err != nil {
			color.Red("❌ %v", err)
			os.Exit(1)
		}
		if spec.Rows > 0 {
			req.DefaultRows = spec.Rows
		}
		req.RowTargets = mergeIntMaps(req.RowTargets, spec.RowTargets())
		req.Instructions = mergeStringMaps(req.Instructions, spec.Instructions())
	}

	ctx, stop := signalContext()
	defer stop()

	color.Cyan("🔨 Generating data for %d table(s)...", len(plan.Order))
	orch := generator.New(newRowService(cfg), orchestratorConfig(cfg))
	result, err := orch.Generate(ctx, req)
	if err != nil {
		color.Yellow("⚠️  Generation stopped early: %v", err)
	}

	if err := export.WriteDataset(outDir, plan, tables, result); err != nil {
		color.Red("❌ Failed to export dataset: %v", err)
		os.Exit(1)
	}
	color.Green("✅ Dataset written to %s", outDir)

	if generateJSON {
		jsonPath := filepath.Join(outDir, "dataset.json")
		if err := export.WriteJSON(jsonPath, plan, result); err != nil {
			color.Red("❌ Failed to write JSON dataset: %v", err)
			os.Exit(1)
		}
		color.Green("✅ JSON dataset written to %s", jsonPath)
	}

	summarize(plan, result)

	if generateApply {
		if err := applyDataset(ctx, cfg, plan, tables, result); err != nil {
			color.Red("❌ %v", err)
			os.Exit(1)
		}
	}
}

func summarize(plan types.GenerationPlan, result *generator.RunResult) {
	complete := 0
	for _, name := range plan.Order {
		table := result.Tables[name]
		if table.Status == types.StatusComplete {
			complete++
			continue
		}
		color.Yellow("  ⚠️  %s: %d row(s), %s", name, len(table.Rows), table.Shortfall)
	}
	color.Cyan("📊 %d/%d tables complete", complete, len(plan.Order))
}

func applyDataset(ctx context.Context, cfg *config.Config, plan types.GenerationPlan, tables []types.TableSchema, result *generator.RunResult) error {
	adapter, err := database.NewAdapter(cfg.Database.Provider)
	if err != nil {
		return err
	}

	dbURL, err := cfg.GetDatabaseURL()
	if err != nil {
		return err
	}
	if err := adapter.Connect(ctx, dbURL); err != nil {
		return err
	}
	defer adapter.Close()

	schemas := make(map[string]*types.TableSchema, len(tables))
	for i := range tables {
		schemas[tables[i].Name] = &tables[i]
	}

	color.Cyan("💾 Applying dataset to %s database...", cfg.Database.Provider)
	for _, name := range plan.Order {
		table, ok := schemas[name]
		if !ok {
			continue
		}
		if err := adapter.CreateTable(ctx, *table); err != nil {
			return err
		}
		if err := adapter.InsertRows(ctx, *table, result.Tables[name].Rows); err != nil {
			return err
		}
		color.Green("  ✅ %s: %d row(s) inserted", name, len(result.Tables[name].Rows))
	}
	return nil
}

func mergeIntMaps(base, override map[string]int) map[string]int {
	if base == nil && override == nil {
		return nil
	}
	merged := make(map[string]int, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}

func mergeStringMaps(base, override map[string]string) map[string]string {
	if base == nil && override == nil {
		return nil
	}
	merged := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}
