package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/factcheck/internal/logger"
	"github.com/ppiankov/factcheck/internal/model"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=..."
var Version = "v0.1.0"

const envPrefix = "FACTCHECK"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "factcheck",
	Short: "factcheck - check claims against a corpus of verified facts",
	Long: `factcheck decides whether a piece of text makes a checkable factual claim,
reduces it to one claim, retrieves the closest verified facts and asks a
language model for a True, False or Unverifiable verdict grounded only in
that evidence.

The verdict is never more than the evidence: a claim the corpus does not
cover is reported as Unverifiable.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "factcheck %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.factcheck/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (console, json)")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if err := registerDefaults(viper.GetViper(), model.DefaultConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Error registering defaults: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".factcheck"))
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// FACTCHECK_PIPELINE_THRESHOLD overrides pipeline.threshold, and so on
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range []string{"classifier.api_key", "extraction.api_key", "synthesis.api_key", "embedding.api_key"} {
		_ = viper.BindEnv(key)
	}

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// registerDefaults makes every configuration key known to v, so that
// environment variables can override keys absent from the config file.
func registerDefaults(v *viper.Viper, cfg *model.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("unmarshal defaults: %w", err)
	}
	setDefaults(v, "", tree)
	return nil
}

func setDefaults(v *viper.Viper, prefix string, tree map[string]any) {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok {
			setDefaults(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}

// loadConfig resolves the configuration (flags, env, file, defaults) and
// initializes logging from it.
func loadConfig() (*model.Config, error) {
	return loadConfigFrom(viper.GetViper(), os.Getenv)
}

func loadConfigFrom(v *viper.Viper, getenv func(string) string) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	applySecrets(cfg, getenv)

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logger.Init(logger.Options{Level: level, Format: cfg.Log.Format, Service: "factcheck"})
	return cfg, nil
}

// applySecrets fills API keys and base URLs from the conventional provider
// environment variables. Keys are never read from or written to config files.
func applySecrets(cfg *model.Config, getenv func(string) string) {
	fill := func(provider string, apiKey, baseURL *string) {
		switch strings.ToLower(provider) {
		case "openai":
			if *apiKey == "" {
				*apiKey = getenv("OPENAI_API_KEY")
			}
		case "anthropic", "claude":
			if *apiKey == "" {
				*apiKey = getenv("ANTHROPIC_API_KEY")
			}
		case "huggingface", "hf":
			if *apiKey == "" {
				*apiKey = getenv("HF_API_TOKEN")
			}
		case "ollama":
			if u := getenv("OLLAMA_BASE_URL"); u != "" {
				*baseURL = u
			}
		}
	}

	fill(cfg.Extraction.Provider, &cfg.Extraction.APIKey, &cfg.Extraction.BaseURL)
	fill(cfg.Synthesis.Provider, &cfg.Synthesis.APIKey, &cfg.Synthesis.BaseURL)
	fill(cfg.Embedding.Provider, &cfg.Embedding.APIKey, &cfg.Embedding.BaseURL)
	fill(cfg.Classifier.Provider, &cfg.Classifier.APIKey, &cfg.Classifier.BaseURL)
}
