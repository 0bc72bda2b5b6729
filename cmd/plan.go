package cmd

import (
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fabrikdata/fabrik/internal/planner"
)

var planCmd = &cobra.Command{
	Use:   "plan [schema.sql]",
	Short: "Show the foreign-key-safe generation order",
	Long:  `Computes the order tables will be generated in, breaking dependency cycles at nullable foreign keys where possible`,
	Args:  cobra.MaximumNArgs(1),
	Run:   runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) {
	path := schemaPathArg(cmd, args)

	tables, err := loadSchema(path)
	if err != nil {
		color.Red("❌ %v", err)
		os.Exit(1)
	}

	plan := planner.Resolve(tables)

	color.Cyan("📋 Generation order: %s", strings.Join(plan.Order, " → "))

	if len(plan.Warnings) == 0 {
		color.Green("✅ No dependency cycles")
		return
	}
	for _, w := range plan.Warnings {
		if w.Reason == "forced" {
			color.Red("⚠️  Forced cycle break: %s(%s) -> %s, referential integrity not guaranteed",
				w.ChildTable, strings.Join(w.Columns, ", "), w.ParentTable)
		} else {
			color.Yellow("⚠️  Cycle broken at nullable FK: %s(%s) -> %s",
				w.ChildTable, strings.Join(w.Columns, ", "), w.ParentTable)
		}
	}
}
