package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/josephgoksu/DocWing/internal/config"
	"github.com/josephgoksu/DocWing/internal/llm"
	"github.com/josephgoksu/DocWing/internal/logger"
)

const (
	configName = ".docwing"
	envPrefix  = "DOCWING"
)

// InitConfig reads in config file and ENV variables if set.
func InitConfig() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	viper.SetEnvPrefix(envPrefix) // e.g., DOCWING_LLM_PROVIDER
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	cfgFileFlag := viper.GetString("config")
	if cfgFileFlag != "" {
		viper.SetConfigFile(cfgFileFlag)
	} else {
		viper.SetConfigName(configName)
		viper.SetConfigType("yaml")
		// Project directory first, then home, then the working directory.
		viper.AddConfigPath(".docwing")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	} else {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
			if viper.GetBool("verbose") {
				fmt.Fprintln(os.Stderr, "No config file found. Using defaults and environment variables.")
			}
		case cfgFileFlag != "" && os.IsNotExist(err):
			fmt.Fprintln(os.Stderr, "Error: Specified config file not found:", cfgFileFlag)
		default:
			fmt.Fprintln(os.Stderr, "Error reading config file:", viper.ConfigFileUsed(), "-", err)
		}
	}

	logger.SetBasePath(config.GetDataDir())
}

func setupLogging() error {
	level := viper.GetString("log.level")
	if viper.GetBool("verbose") {
		level = "debug"
	}
	_, err := logger.Setup(logger.Options{
		Level:  level,
		Format: viper.GetString("log.format"),
		Writer: os.Stderr,
	})
	return err
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage DocWing configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter .docwing.yaml",
	Long: `Write a starter configuration file with the default retrieval and
graph settings for the chosen provider.

Examples:
  docwing config init
  docwing config init --provider ollama
  docwing config init --provider anthropic --api-key sk-ant-... --global`,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration (API keys redacted)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		redacted := *cfg
		redacted.LLM.APIKeys = make(map[llm.Provider]string, len(cfg.LLM.APIKeys))
		for p := range cfg.LLM.APIKeys {
			redacted.LLM.APIKeys[p] = "********"
		}
		if redacted.Telemetry.APIKey != "" {
			redacted.Telemetry.APIKey = "********"
		}
		if redacted.Store.Qdrant.APIKey != "" {
			redacted.Store.Qdrant.APIKey = "********"
		}
		return printJSON(cmd.OutOrStdout(), redacted)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd)

	configInitCmd.Flags().String("provider", string(llm.DefaultProvider), "LLM provider (openai, anthropic, gemini, ollama)")
	configInitCmd.Flags().String("api-key", "", "API key to store for the provider")
	configInitCmd.Flags().Bool("global", false, "write to ~/.docwing.yaml instead of ./.docwing/")
	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	providerName, _ := cmd.Flags().GetString("provider")
	apiKey, _ := cmd.Flags().GetString("api-key")
	global, _ := cmd.Flags().GetBool("global")
	force, _ := cmd.Flags().GetBool("force")

	provider, err := llm.ValidateProvider(providerName)
	if err != nil {
		return err
	}

	dir := ".docwing"
	if global {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir = home
	}
	path := filepath.Join(dir, config.FileName)

	if err := config.WriteFile(path, config.DefaultFile(provider, apiKey), force); err != nil {
		if errors.Is(err, config.ErrConfigExists) {
			PrintError(fmt.Sprintf("%s already exists. Use --force to overwrite.", path), err)
			return err
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
