package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hubenschmidt/go-mfginsight"
	"github.com/hubenschmidt/go-mfginsight/analysis"
	"github.com/hubenschmidt/go-mfginsight/config"
	"github.com/hubenschmidt/go-mfginsight/logger"
	"github.com/hubenschmidt/go-mfginsight/render"
)

const shutdownGrace = 10 * time.Second

// open loads configuration and builds the pipeline. The caller closes the
// returned app and syncs the logger.
func open(ctx context.Context, level string, console bool) (*mfginsight.App, *zap.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	if level != "" {
		cfg.LogLevel = level
	}

	build := logger.New
	if console {
		build = logger.NewConsole
	}
	log, err := build(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}

	app, err := mfginsight.New(ctx, cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, nil, err
	}
	return app, log, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newServeCmd(level *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Example: `  mfginsight serve
  mfginsight serve --addr :9000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, log, err := open(ctx, *level, false)
			if err != nil {
				return err
			}
			defer log.Sync()
			defer app.Close()

			if addr == "" {
				addr = app.Config.Addr
			}
			srv := &http.Server{
				Addr:              addr,
				Handler:           app.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
				WriteTimeout:      2*app.Config.Analysis.TierTimeout + 30*time.Second,
				IdleTimeout:       2 * time.Minute,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("listening", zap.String("addr", addr))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			log.Info("shutting down")
			sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			return srv.Shutdown(sctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to the configured addr)")
	return cmd
}

func newAskCmd(level *string) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ask QUESTION",
		Short: "Answer a question about the stored events",
		Example: `  mfginsight ask "Which line had the most downtime last week?"
  mfginsight ask --json "What causes spindle overheating?"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, log, err := open(cmd.Context(), *level, true)
			if err != nil {
				return err
			}
			defer log.Sync()
			defer app.Close()

			if !asJSON {
				app.Orchestrator = app.Orchestrator.With(analysis.WithRenderer(render.Markdown{}))
			}
			res, err := app.Ask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(res)
			}
			fmt.Println(res.Summary)
			fmt.Printf("\nsource: %s  confidence: %.2f\n", res.Source, res.Confidence)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output the full result as JSON")
	return cmd
}

func newSimilarCmd(level *string) *cobra.Command {
	var topK int

	cmd := &cobra.Command{
		Use:     "similar EVENT_ID",
		Short:   "List the events most similar to one event",
		Example: `  mfginsight similar 42 -k 10`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("event id %q: %w", args[0], err)
			}
			app, log, err := open(cmd.Context(), *level, true)
			if err != nil {
				return err
			}
			defer log.Sync()
			defer app.Close()

			similar, err := app.Retrieval.TopKSimilar(cmd.Context(), id, topK)
			if err != nil {
				return err
			}
			return printJSON(similar)
		},
	}
	cmd.Flags().IntVarP(&topK, "top-k", "k", 5, "Number of neighbours")
	return cmd
}

func newPairwiseCmd(level *string) *cobra.Command {
	return &cobra.Command{
		Use:     "pairwise EVENT_ID EVENT_ID",
		Short:   "Compare two events",
		Example: `  mfginsight pairwise 3 17`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 2)
			for i, a := range args {
				id, err := strconv.ParseInt(a, 10, 64)
				if err != nil {
					return fmt.Errorf("event id %q: %w", a, err)
				}
				ids[i] = id
			}
			app, log, err := open(cmd.Context(), *level, true)
			if err != nil {
				return err
			}
			defer log.Sync()
			defer app.Close()

			pair, err := app.Retrieval.PairwiseSimilarity(cmd.Context(), ids[0], ids[1])
			if err != nil {
				return err
			}
			if pair == nil {
				return fmt.Errorf("events %d and %d: not found", ids[0], ids[1])
			}
			return printJSON(pair)
		},
	}
}

func newProjectCmd(level *string) *cobra.Command {
	return &cobra.Command{
		Use:   "project",
		Short: "Print a 2-D layout of every embedded event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, log, err := open(cmd.Context(), *level, true)
			if err != nil {
				return err
			}
			defer log.Sync()
			defer app.Close()

			res, err := app.Project(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
}
