package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/factcheck/internal/corpus"
	"github.com/ppiankov/factcheck/internal/model"
	"github.com/ppiankov/factcheck/internal/pipeline"
	"github.com/ppiankov/factcheck/internal/worker"
)

var (
	batchOut     string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Fact-check many inputs from a file in parallel",
	Long: `Batch checks every line of a file (blank lines and # comments are skipped)
with a bounded worker pool and writes one JSON object per input, in input
order. Failed inputs are written with an error code instead of a verdict.

Example:
  factcheck batch claims.txt
  factcheck batch claims.txt --out results.jsonl --concurrency 8`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVarP(&batchOut, "out", "o", "", "output JSON Lines path (default: stdout)")
	batchCmd.Flags().Int("concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")

	_ = viper.BindPFlag("concurrency.workers", batchCmd.Flags().Lookup("concurrency"))
}

func runBatch(cmd *cobra.Command, args []string) (err error) {
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rt, err := pipeline.Build(cfg)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}
	defer func() { _ = rt.Close() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	if cfg.Corpus.IngestOnStart {
		if _, err := ingestCorpus(ctx, rt, corpus.Options{}); err != nil {
			return fmt.Errorf("ingest corpus: %w", err)
		}
	}

	workers := cfg.Concurrency.Workers
	errOut := cmd.ErrOrStderr()
	fmt.Fprintf(errOut, "Input file: %s\n", file)
	fmt.Fprintf(errOut, "Workers:    %d\n\n", workers)

	start := time.Now()
	processor := worker.NewBatchProcessor(rt.Pipeline, workers)
	outcomes, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	var out io.Writer = cmd.OutOrStdout()
	if batchOut != "" {
		var f *os.File
		f, err = os.Create(batchOut)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close output: %w", closeErr)
			}
		}()
		out = f
	}
	if err := worker.WriteJSONL(out, outcomes); err != nil {
		return err
	}

	printSummary(errOut, worker.Summarize(outcomes), time.Since(start))
	return nil
}

func printSummary(w io.Writer, s worker.Summary, elapsed time.Duration) {
	fmt.Fprintf(w, "\nChecked %d inputs in %s\n", s.Total, elapsed.Round(time.Millisecond))
	for _, v := range []model.Verdict{model.VerdictTrue, model.VerdictFalse, model.VerdictUnverifiable} {
		fmt.Fprintf(w, "  %-22s %d\n", v, s.Verdicts[v])
	}
	for _, code := range s.ErrorCodes() {
		fmt.Fprintf(w, "  %-22s %d\n", "error "+code, s.Errors[code])
	}
}
