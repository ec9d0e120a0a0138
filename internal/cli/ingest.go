package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/factcheck/internal/corpus"
	"github.com/ppiankov/factcheck/internal/pipeline"
)

var (
	ingestForce bool
	ingestBatch int
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index the verified-facts corpus into the fact store",
	Long: `Ingest reads the verified-facts CSV (id,statement,source,date,category),
embeds every statement and stores it with its metadata.

A collection that already holds documents is left untouched unless --force
is given. Facts fetched from --url respect the host's robots.txt.

Example:
  factcheck ingest
  factcheck ingest --csv artifacts/verified_facts.csv
  factcheck ingest --url https://example.org/facts.csv --force`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().String("csv", "", "corpus CSV path (default from config)")
	ingestCmd.Flags().String("url", "", "fetch the corpus CSV from a URL instead of a file")
	ingestCmd.Flags().BoolVar(&ingestForce, "force", false, "ingest even when the collection is already populated")
	ingestCmd.Flags().IntVar(&ingestBatch, "batch-size", 32, "statements embedded per request")

	_ = viper.BindPFlag("corpus.csv_path", ingestCmd.Flags().Lookup("csv"))
	_ = viper.BindPFlag("corpus.url", ingestCmd.Flags().Lookup("url"))
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rt, err := pipeline.Build(cfg)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}
	defer func() { _ = rt.Close() }()

	res, err := ingestCorpus(cmd.Context(), rt, corpus.Options{Force: ingestForce, BatchSize: ingestBatch})
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
