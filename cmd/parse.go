package cmd

import (
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fabrikdata/fabrik/internal/config"
	"github.com/fabrikdata/fabrik/internal/dialect"
	"github.com/fabrikdata/fabrik/internal/schema"
	"github.com/fabrikdata/fabrik/internal/types"
)

var parseCmd = &cobra.Command{
	Use:   "parse [schema.sql]",
	Short: "Parse a DDL file into normalized table models",
	Long:  `Reads CREATE TABLE statements and prints the normalized tables, columns, and constraints that the generator will work from`,
	Args:  cobra.MaximumNArgs(1),
	Run:   runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

// loadSchema reads, normalizes, and parses the DDL file used by most
// commands. MySQL syntax is detected and rewritten automatically.
func loadSchema(path string) ([]types.TableSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	ddl := string(data)
	if dialect.IsMySQL(ddl) {
		color.Yellow("⚠️  MySQL syntax detected, normalizing")
		ddl = dialect.NormalizeMySQL(ddl)
	}

	return schema.Parse(ddl)
}

func schemaPathArg(cmd *cobra.Command, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	cfg, err := config.Load()
	if err != nil {
		return "db/schema.sql"
	}
	return cfg.SchemaPath
}

func runParse(cmd *cobra.Command, args []string) {
	path := schemaPathArg(cmd, args)

	color.Cyan("📖 Parsing %s...", path)
	tables, err := loadSchema(path)
	if err != nil {
		color.Red("❌ %v", err)
		os.Exit(1)
	}

	color.Green("✅ Parsed %d table(s)", len(tables))
	for _, table := range tables {
		color.New(color.FgWhite, color.Bold).Printf("\n%s\n", table.Name)
		for _, col := range table.Columns {
			flags := []string{}
			if table.IsPrimary(col.Name) {
				flags = append(flags, "PK")
			}
			if !col.Nullable {
				flags = append(flags, "NOT NULL")
			}
			if col.IsUnique {
				flags = append(flags, "UNIQUE")
			}
			suffix := ""
			if len(flags) > 0 {
				suffix = "  [" + strings.Join(flags, ", ") + "]"
			}
			color.White("  %-20s %s%s", col.Name, col.Type.String(), suffix)
		}
		for _, fk := range table.ForeignKeys {
			color.Cyan("  (%s) -> %s(%s)",
				strings.Join(fk.Columns, ", "), fk.RefTable, strings.Join(fk.RefColumns, ", "))
		}
	}
}
