// internal/commands/root.go
package canonry

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/canonry/internal/appconfig"
	"github.com/mwiater/canonry/internal/logging"
)

var (
	cfgFile       string
	currentConfig *appconfig.Config
	appVersion    = "dev"
	appCommit     = "none"
	appDate       = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "canonry",
	Short: "canonry — consolidate, categorize, and match entity lists with chat-completion services",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureConfigLoaded(); err != nil {
			return err
		}

		for _, name := range []string{"debug", "progressUi"} {
			if !cmd.Flags().Changed(name) {
				val := viper.GetBool(name)
				_ = cmd.Flags().Set(name, strconv.FormatBool(val))
			}
		}
		for _, name := range []string{"model", "export", "exportMarkdown", "logFile"} {
			if !cmd.Flags().Changed(name) {
				_ = cmd.Flags().Set(name, viper.GetString(name))
			}
		}
		if !cmd.Flags().Changed("maxRetries") {
			_ = cmd.Flags().Set("maxRetries", strconv.Itoa(viper.GetInt("maxRetries")))
		}

		var cfg appconfig.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("unmarshal config: %w", err)
		}
		cfg.ConfigPath = cfgFile
		if cmd.Flags().Changed("seed") {
			seed, err := cmd.Flags().GetInt("seed")
			if err != nil {
				return err
			}
			cfg.Seed = &seed
		}
		currentConfig = &cfg

		if err := logging.Init(currentConfig.LogFilePath()); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appCommit, appDate)

	defer logging.Close()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config/config.json", "config file (e.g., config/config.json)")

	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging of request/response traffic")
	rootCmd.PersistentFlags().Bool("progressUi", false, "show a live progress view during runs")
	rootCmd.PersistentFlags().String("model", "", "completion model to use")
	rootCmd.PersistentFlags().Int("seed", 0, "seed for reduced run-to-run variance (best effort)")
	rootCmd.PersistentFlags().Int("maxRetries", 0, "retry attempts for transient chunk failures")
	rootCmd.PersistentFlags().String("export", "", "write the result table to this JSON file")
	rootCmd.PersistentFlags().String("exportMarkdown", "", "write the result table to this Markdown file")
	rootCmd.PersistentFlags().String("logFile", "", "path to the log file")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("progressUi", rootCmd.PersistentFlags().Lookup("progressUi"))
	_ = viper.BindPFlag("model", rootCmd.PersistentFlags().Lookup("model"))
	_ = viper.BindPFlag("maxRetries", rootCmd.PersistentFlags().Lookup("maxRetries"))
	_ = viper.BindPFlag("export", rootCmd.PersistentFlags().Lookup("export"))
	_ = viper.BindPFlag("exportMarkdown", rootCmd.PersistentFlags().Lookup("exportMarkdown"))
	_ = viper.BindPFlag("logFile", rootCmd.PersistentFlags().Lookup("logFile"))
}

// initConfig loads .env (if present) and points viper at the config file.
func initConfig() {
	_ = godotenv.Load()
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// ensureConfigLoaded reads the config file through viper. When the
// configured path does not exist, it falls back through appconfig.Load,
// which also checks the legacy ./config.json location. A config missing from
// both locations is tolerated, since every setting has a flag or default.
func ensureConfigLoaded() error {
	err := viper.ReadInConfig()
	if err == nil {
		return nil
	}
	if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cfg, loadErr := appconfig.Load(cfgFile)
	if loadErr != nil {
		return nil
	}
	return mergeConfig(cfg)
}

// mergeConfig feeds a file-loaded config into viper so the usual
// flag-over-file precedence still applies to its values.
func mergeConfig(cfg appconfig.Config) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	var settings map[string]any
	if err := json.Unmarshal(data, &settings); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return viper.MergeConfigMap(settings)
}

// GetConfig returns the loaded application configuration for other packages.
func GetConfig() *appconfig.Config {
	return currentConfig
}

// DebugEnabled returns true if debug mode is enabled.
func DebugEnabled() bool { return viper.GetBool("debug") }

// SetVersionInfo allows the main package to inject build-time variables.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}
