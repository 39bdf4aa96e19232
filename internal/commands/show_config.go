// internal/commands/show_config.go
package canonry

import (
	"fmt"

	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// showConfigCmd displays the effective configuration after file, env, and
// flag merging.
var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config settings",
	Long:  `Show config settings ensuring that the JSON config is loaded properly and overridden by flags accordingly.`,
	Run: func(cmd *cobra.Command, args []string) {
		file := viper.ConfigFileUsed()
		if file == "" {
			file = "(none)"
		}
		fmt.Printf("Config file:       %s\n", file)
		fmt.Printf("  Model:           %s\n", GetConfig().ModelName())
		fmt.Printf("  Base URL:        %s\n", GetConfig().ServiceURL())
		fmt.Printf("  Debug:           %v\n", viper.GetBool("debug"))
		fmt.Printf("  Progress UI:     %v\n", viper.GetBool("progressUi"))
		fmt.Printf("  Max Retries:     %d\n", viper.GetInt("maxRetries"))
		fmt.Printf("  Timeout:         %v\n", GetConfig().RequestTimeout())
		fmt.Printf("  Export JSON:     %s\n", viper.GetString("export"))
		fmt.Printf("  Export Markdown: %s\n", viper.GetString("exportMarkdown"))
		fmt.Printf("  Log File:        %s\n", GetConfig().LogFilePath())

		if DebugEnabled() {
			pp.Println(GetConfig())
		}
	},
}

func init() {
	rootCmd.AddCommand(showConfigCmd)
}
