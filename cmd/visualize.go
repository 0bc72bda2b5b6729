package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fabrikdata/fabrik/internal/visualize"
)

var visualizeOut string

var visualizeCmd = &cobra.Command{
	Use:   "visualize [schema.sql]",
	Short: "Render the schema as a Mermaid ER diagram",
	Args:  cobra.MaximumNArgs(1),
	Run:   runVisualize,
}

func init() {
	visualizeCmd.Flags().StringVarP(&visualizeOut, "out", "o", "", "Output file (default: stdout)")
	rootCmd.AddCommand(visualizeCmd)
}

func runVisualize(cmd *cobra.Command, args []string) {
	path := schemaPathArg(cmd, args)

	tables, err := loadSchema(path)
	if err != nil {
		color.Red("❌ %v", err)
		os.Exit(1)
	}

	diagram := visualize.Mermaid(tables)

	if visualizeOut == "" {
		fmt.Println(diagram)
		return
	}
	if err := os.WriteFile(visualizeOut, []byte(diagram), 0644); err != nil {
		color.Red("❌ %v", err)
		os.Exit(1)
	}
	color.Green("✅ Diagram written to %s", visualizeOut)
}
