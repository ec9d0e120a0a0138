package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/factcheck/internal/corpus"
	"github.com/ppiankov/factcheck/internal/logger"
	"github.com/ppiankov/factcheck/internal/pipeline"
	"github.com/ppiankov/factcheck/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the fact-check pipeline over HTTP",
	Long: `Serve starts the HTTP service:
  POST /check   {"claim": "..."} -> CheckResult
  GET  /health  readiness and fact store status
  GET  /ready   200 once startup ingestion has finished

The service answers 503 to checks until the corpus is indexed.

Example:
  factcheck serve
  factcheck serve --addr :9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default from config)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rt, err := pipeline.Build(cfg)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}
	defer func() { _ = rt.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	state := server.NewState(rt.Index)
	srv := server.New(cfg.Server, rt.Pipeline, state)

	go startup(ctx, rt, state)

	return srv.Run(ctx)
}

// startup indexes the corpus (when configured) and flips the service ready
func startup(ctx context.Context, rt *pipeline.Runtime, state *server.State) {
	log := logger.Named("startup")

	if rt.Config.Corpus.IngestOnStart {
		res, err := ingestCorpus(ctx, rt, corpus.Options{})
		if err != nil {
			log.Error().Err(err).Msg("startup ingestion failed")
			state.MarkFailed(err)
			return
		}
		log.Info().Str("status", res.Status).Int("documents", res.DocumentCount).Msg("service ready")
		state.MarkReady(res.DocumentCount)
		return
	}

	n, err := rt.Store.Count(ctx)
	if err != nil {
		log.Error().Err(err).Msg("fact store unavailable")
		state.MarkFailed(err)
		return
	}
	if n == 0 {
		err := errors.New("fact store is empty, run 'factcheck ingest' first")
		log.Error().Err(err).Msg("service not ready")
		state.MarkFailed(err)
		return
	}
	log.Info().Int("documents", n).Msg("service ready")
	state.MarkReady(n)
}
