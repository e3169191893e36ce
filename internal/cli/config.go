// internal/cli/config.go
package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/jgrady/notekb/internal/appconfig"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/xeipuuv/gojsonschema"
)

// configCmd groups configuration inspection commands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and validate configuration",
}

// configShowCmd displays the merged configuration settings.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show config settings",
	Long:  `Show config settings ensuring that the JSON configs are loaded properly and overriden by flags accordingly.`,
	Run: func(cmd *cobra.Command, args []string) {
		fallback := appconfig.Config{
			Debug:      viper.GetBool("debug"),
			RagEnabled: viper.GetBool("ragEnabled"),
			RagKBPath:  viper.GetString("ragKBPath"),
			RagBackend: viper.GetString("ragBackend"),
			LogFile:    viper.GetString("logFile"),
		}
		appconfig.ShowConfig(cmd.OutOrStdout(), viper.ConfigFileUsed(), GetConfig(), fallback)
	},
}

// configSchema describes the shape of config/config.json.
func configSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"ragEnabled":      map[string]any{"type": "boolean"},
			"ragKBPath":       map[string]any{"type": "string"},
			"ragTitleColumn":  map[string]any{"type": "string"},
			"ragTextColumn":   map[string]any{"type": "string"},
			"ragBackend":      map[string]any{"type": "string", "enum": []string{"lexical", "dense"}},
			"embedModelID":    map[string]any{"type": "string"},
			"embedHost":       map[string]any{"type": "string"},
			"embedDevice":     map[string]any{"type": "string", "enum": []string{"auto", "cpu", "cuda"}},
			"embedMaxLength":  map[string]any{"type": "integer", "minimum": 0},
			"embedBatchSize":  map[string]any{"type": "integer", "minimum": 0},
			"embedNormalize":  map[string]any{"type": "boolean"},
			"topK":            map[string]any{"type": "integer", "minimum": 0},
			"maxContextChars": map[string]any{"type": "integer", "minimum": 0},
			"timeout":         map[string]any{"type": "integer", "minimum": 0},
			"logFile":         map[string]any{"type": "string"},
			"debug":           map[string]any{"type": "boolean"},
		},
	}
}

// configValidateCmd checks the config file against the schema and the
// retrieval semantics in appconfig.Validate.
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := viper.ConfigFileUsed()
		if path == "" {
			path = cfgFile
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}

		schemaLoader := gojsonschema.NewGoLoader(configSchema())
		documentLoader := gojsonschema.NewBytesLoader(raw)

		result, err := gojsonschema.Validate(schemaLoader, documentLoader)
		if err != nil {
			return fmt.Errorf("schema validation error: %w", err)
		}

		out := cmd.OutOrStdout()
		if !result.Valid() {
			for _, desc := range result.Errors() {
				fmt.Fprintf(out, "  - %s\n", desc)
			}
			return fmt.Errorf("%s does not match the expected schema", path)
		}

		if _, err := appconfig.Load(path); err != nil {
			return err
		}

		fmt.Fprintf(out, "%s %s\n", color.GreenString("OK"), path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}
