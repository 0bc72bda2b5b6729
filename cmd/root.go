package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	Version = "1.3.0"
)

func showBanner() {
	greenColor := color.New(color.FgGreen, color.Bold)

	banner := []string{
		"╔══════════════════════════════════════════════════════════╗",
		"║   ███████╗ █████╗ ██████╗ ██████╗ ██╗██╗  ██╗            ║",
		"║   ██╔════╝██╔══██╗██╔══██╗██╔══██╗██║██║ ██╔╝            ║",
		"║   █████╗  ███████║██████╔╝██████╔╝██║█████╔╝             ║",
		"║   ██╔══╝  ██╔══██║██╔══██╗██╔══██╗██║██╔═██╗             ║",
		"║   ██║     ██║  ██║██████╔╝██║  ██║██║██║  ██╗            ║",
		"║   ╚═╝     ╚═╝  ╚═╝╚═════╝ ╚═╝  ╚═╝╚═╝╚═╝  ╚═╝            ║",
		"║                                                          ║",
		"║        🧪 Constraint-Aware Synthetic Data 🧪             ║",
		"╚══════════════════════════════════════════════════════════╝",
	}

	for _, line := range banner {
		greenColor.Println(line)
	}

	fmt.Print("                    ")
	color.New(color.FgCyan, color.Bold).Print("Version: ")
	color.New(color.FgYellow, color.Bold).Printf("%s\n", Version)
}

var rootCmd = &cobra.Command{
	Use:   "fabrik",
	Short: "Generate constraint-valid synthetic data from SQL schemas",
	Long: `
Fabrik parses CREATE TABLE statements, orders tables so foreign keys
resolve, and fills them with synthetic rows that respect every declared
constraint.

Pipeline:
- parse       normalize raw DDL into table models
- plan        compute a FK-safe generation order
- generate    produce validated rows, batch by batch
- refine      regenerate a single table with new instructions

Database Support:
- PostgreSQL
- MySQL
- SQLite`,

	Run: func(cmd *cobra.Command, args []string) {
		showVersion, _ := cmd.Flags().GetBool("version")
		if showVersion {
			fmt.Printf("Fabrik CLI version %s\n", Version)
			os.Exit(0)
		}

		if len(args) == 0 {
			showBanner()
			fmt.Println()
			cmd.Help()
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./fabrik.config.json)")
	rootCmd.Flags().BoolP("version", "v", false, "Show CLI version")
}

func initConfig() {
	if err := godotenv.Load(); err != nil {
		godotenv.Load(".env")
		godotenv.Load(".env.local")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("json")
		viper.SetConfigName("fabrik.config")
	}

	viper.AutomaticEnv()

	viper.ReadInConfig()
}
