package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fabrikdata/fabrik/internal/dialect"
	"github.com/fabrikdata/fabrik/internal/schema"
)

var convertOut string

var convertCmd = &cobra.Command{
	Use:   "convert <schema.sql>",
	Short: "Convert MySQL DDL to the canonical dialect",
	Long:  `Rewrites MySQL-specific DDL (AUTO_INCREMENT, TINYINT(1), backticks, ENGINE options) into syntax the rest of the pipeline understands`,
	Args:  cobra.ExactArgs(1),
	Run:   runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertOut, "out", "o", "", "Output file (default: stdout)")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) {
	data, err := os.ReadFile(args[0])
	if err != nil {
		color.Red("❌ %v", err)
		os.Exit(1)
	}

	ddl := string(data)
	if !dialect.IsMySQL(ddl) {
		color.Yellow("⚠️  No MySQL syntax detected, output left unchanged")
	}
	converted := dialect.NormalizeMySQL(ddl)

	// The converted DDL must parse, otherwise conversion failed silently.
	if _, err := schema.Parse(converted); err != nil {
		color.Red("❌ Converted DDL does not parse: %v", err)
		os.Exit(1)
	}

	if convertOut == "" {
		fmt.Println(converted)
		return
	}
	if err := os.WriteFile(convertOut, []byte(converted), 0644); err != nil {
		color.Red("❌ %v", err)
		os.Exit(1)
	}
	color.Green("✅ Converted DDL written to %s", convertOut)
}
