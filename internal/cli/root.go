// internal/cli/root.go
// Package cli wires the notekb cobra commands to the merged configuration.
package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/jgrady/notekb/internal/appconfig"
	"github.com/jgrady/notekb/internal/logging"
	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
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
	Use:   "notekb",
	Short: "notekb — retrieval-augmented context engine for visit-note pipelines",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureConfigLoaded(); err != nil {
			return err
		}

		for _, name := range []string{"debug", "ragEnabled"} {
			if !cmd.Flags().Changed(name) {
				val := viper.GetBool(name)
				_ = cmd.Flags().Set(name, strconv.FormatBool(val))
			}
		}
		for _, name := range []string{"ragKBPath", "ragBackend", "logFile"} {
			if !cmd.Flags().Changed(name) {
				_ = cmd.Flags().Set(name, viper.GetString(name))
			}
		}

		var cfg appconfig.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("unmarshal config: %w", err)
		}
		cfg.ConfigPath = cfgFile
		currentConfig = &cfg

		if err := logging.Init(currentConfig.LogFilePath()); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if currentConfig.Debug {
			pp.Println(currentConfig)
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

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", appconfig.DefaultConfigPath, "config file (e.g., config/config.json)")

	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("ragEnabled", false, "enable knowledge-base retrieval")
	rootCmd.PersistentFlags().String("ragKBPath", "", "path or s3:// URI of the knowledge-base CSV")
	rootCmd.PersistentFlags().String("ragBackend", "", "retrieval backend (lexical or dense)")
	rootCmd.PersistentFlags().String("logFile", "", "path to the log file")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("ragEnabled", rootCmd.PersistentFlags().Lookup("ragEnabled"))
	_ = viper.BindPFlag("ragKBPath", rootCmd.PersistentFlags().Lookup("ragKBPath"))
	_ = viper.BindPFlag("ragBackend", rootCmd.PersistentFlags().Lookup("ragBackend"))
	_ = viper.BindPFlag("logFile", rootCmd.PersistentFlags().Lookup("logFile"))

	// Deployment environments configure retrieval without a config file.
	_ = viper.BindEnv("ragEnabled", "RAG_ENABLED")
	_ = viper.BindEnv("ragKBPath", "RAG_KB_PATH")
	_ = viper.BindEnv("ragTitleColumn", "RAG_TITLE_COL")
	_ = viper.BindEnv("ragTextColumn", "RAG_TEXT_COL")
	_ = viper.BindEnv("ragBackend", "RAG_MODE")
	_ = viper.BindEnv("embedModelID", "RAG_EMBED_MODEL_ID")
	_ = viper.BindEnv("embedHost", "RAG_EMBED_HOST")
	_ = viper.BindEnv("embedDevice", "RAG_EMBED_DEVICE")
	_ = viper.BindEnv("embedMaxLength", "RAG_EMBED_MAX_LENGTH")
	_ = viper.BindEnv("embedBatchSize", "RAG_EMBED_BATCH_SIZE")
	_ = viper.BindEnv("embedNormalize", "RAG_EMBED_NORMALIZE")
	_ = viper.BindEnv("topK", "RAG_TOP_K")
	_ = viper.BindEnv("maxContextChars", "RAG_MAX_CONTEXT_CHARS")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// ensureConfigLoaded reads the config and sets safe defaults.
func ensureConfigLoaded() error {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
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
