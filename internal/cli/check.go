package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/factcheck/internal/corpus"
	"github.com/ppiankov/factcheck/internal/model"
	"github.com/ppiankov/factcheck/internal/pipeline"
)

var (
	checkJSON    bool
	checkTimeout time.Duration
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <text>",
	Short: "Fact-check a single piece of text",
	Long: `Check runs the full pipeline on one input:
- Decide whether the text makes a checkable claim
- Reduce it to one claim
- Retrieve the closest verified facts
- Ask the synthesis model for a verdict grounded in those facts

Example:
  factcheck check "The government announced free electricity for farmers from July 2025"
  factcheck check --json "PM-KISAN pays farmers 6000 rupees a year"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "print the result as JSON")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 10*time.Minute, "overall check timeout")
}

func runCheck(cmd *cobra.Command, args []string) error {
	input := strings.Join(args, " ")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rt, err := pipeline.Build(cfg)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}
	defer func() { _ = rt.Close() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
	defer cancel()

	if cfg.Corpus.IngestOnStart {
		if _, err := ingestCorpus(ctx, rt, corpus.Options{}); err != nil {
			return fmt.Errorf("ingest corpus: %w", err)
		}
	}

	result, err := rt.Pipeline.Check(ctx, input)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	if checkJSON {
		return writeResultJSON(cmd.OutOrStdout(), result)
	}
	printResult(cmd.OutOrStdout(), result)
	return nil
}

func writeResultJSON(w io.Writer, r *model.CheckResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func printResult(w io.Writer, r *model.CheckResult) {
	fmt.Fprintf(w, "Claim:      %s\n", r.Claim)
	fmt.Fprintf(w, "Verdict:    %s\n", r.Verdict)
	fmt.Fprintf(w, "Confidence: %.2f\n", r.ConfidenceScore)
	fmt.Fprintf(w, "Reasoning:  %s\n", r.Reasoning)
	if len(r.Evidence) == 0 {
		fmt.Fprintln(w, "Evidence:   (none)")
		return
	}
	fmt.Fprintln(w, "Evidence:")
	for i, e := range r.Evidence {
		fmt.Fprintf(w, "  %d. %s\n", i+1, e)
	}
}
