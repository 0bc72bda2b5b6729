package cmd

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fabrikdata/fabrik/internal/config"
	"github.com/fabrikdata/fabrik/internal/export"
	"github.com/fabrikdata/fabrik/internal/generator"
	"github.com/fabrikdata/fabrik/internal/planner"
	"github.com/fabrikdata/fabrik/internal/types"
)

var (
	refineDataset      string
	refineRows         int
	refineInstructions string
	refineSchema       string
)

var refineCmd = &cobra.Command{
	Use:   "refine <table>",
	Short: "Regenerate one table of an exported dataset",
	Long: `Rebuilds the foreign key context the table originally saw from the
exported CSVs of its ancestors, then regenerates just that table with new
instructions. Tables that depend on the refined table are left untouched;
re-run refine on them if their foreign keys must follow.`,
	Args: cobra.ExactArgs(1),
	Run:  runRefine,
}

func init() {
	refineCmd.Flags().StringVar(&refineDataset, "dataset", "", "Exported dataset directory (defaults to config output_path)")
	refineCmd.Flags().IntVar(&refineRows, "rows", 0, "Row count for the regenerated table")
	refineCmd.Flags().StringVar(&refineInstructions, "instructions", "", "Steering instructions for the row service")
	refineCmd.Flags().StringVar(&refineSchema, "schema", "", "Schema file (overrides config)")
	rootCmd.AddCommand(refineCmd)
}

func runRefine(cmd *cobra.Command, args []string) {
	target := args[0]

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
	if refineSchema != "" {
		schemaPath = refineSchema
	}
	dataset := cfg.OutputPath
	if refineDataset != "" {
		dataset = refineDataset
	}

	tables, err := loadSchema(schemaPath)
	if err != nil {
		color.Red("❌ %v", err)
		os.Exit(1)
	}
	plan := planner.Resolve(tables)

	manifest, err := export.ReadManifest(dataset)
	if err != nil {
		color.Red("❌ %v", err)
		os.Exit(1)
	}

	rows := refineRows
	for _, entry := range manifest.Tables {
		if entry.Name == target && rows == 0 {
			rows = entry.Rows
		}
	}
	if rows == 0 {
		rows = cfg.Generation.Rows
	}

	color.Cyan("🔄 Rebuilding foreign key context for %s...", target)
	priorPool, err := export.LoadAncestorPool(dataset, plan, tables, target)
	if err != nil {
		color.Red("❌ %v", err)
		os.Exit(1)
	}

	ctx, stop := signalContext()
	defer stop()

	orch := generator.New(newRowService(cfg), orchestratorConfig(cfg))
	refined, err := orch.Refine(ctx, generator.RefineRequest{
		Table:        target,
		Plan:         plan,
		Tables:       tables,
		Rows:         rows,
		Instructions: refineInstructions,
		PriorPool:    priorPool,
	})
	if err != nil {
		color.Red("❌ %v", err)
		os.Exit(1)
	}

	var targetSchema *types.TableSchema
	for i := range tables {
		if tables[i].Name == target {
			targetSchema = &tables[i]
		}
	}
	if err := export.UpdateTable(dataset, targetSchema, refined); err != nil {
		color.Red("❌ Failed to rewrite %s: %v", target, err)
		os.Exit(1)
	}

	if refined.Status == types.StatusComplete {
		color.Green("✅ %s regenerated: %d row(s)", target, len(refined.Rows))
	} else {
		color.Yellow("⚠️  %s regenerated partially: %d row(s), %s", target, len(refined.Rows), refined.Shortfall)
	}
	color.White("💡 Dependents of %s still reference the old keys; refine them too if needed", target)
}
