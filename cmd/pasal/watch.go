package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/coolbeans/pasal/pkg/config"
	"github.com/coolbeans/pasal/pkg/lexicon"
	"github.com/coolbeans/pasal/pkg/logging"
	"github.com/coolbeans/pasal/pkg/pipeline"
	"github.com/coolbeans/pasal/pkg/watch"
)

// inboxState is the configuration in force for the next inbox document.
type inboxState struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
}

// inboxHandler processes inbox documents. A config reload swaps the whole
// state, so each document sees one consistent configuration.
type inboxHandler struct {
	outDir   string
	out      io.Writer
	logger   logging.Logger
	lexicons *lexicon.Registry
	metrics  *pipeline.Metrics
	state    atomic.Pointer[inboxState]
}

func newInboxHandler(cfg *config.Config, p *pipeline.Pipeline, lexicons *lexicon.Registry, outDir string, out io.Writer, logger logging.Logger) *inboxHandler {
	h := &inboxHandler{
		outDir:   outDir,
		out:      out,
		logger:   logging.OrNop(logger),
		lexicons: lexicons,
		metrics:  p.Metrics(),
	}
	h.state.Store(&inboxState{cfg: cfg, pipeline: p})
	return h
}

// reload builds a pipeline for updated. Metrics carry over. A config the
// pipeline rejects leaves the current state in place.
func (h *inboxHandler) reload(updated *config.Config) error {
	next, err := pipeline.New(updated, h.logger,
		pipeline.WithLexicons(h.lexicons), pipeline.WithMetrics(h.metrics))
	if err != nil {
		return err
	}
	h.state.Store(&inboxState{cfg: updated, pipeline: next})
	return nil
}

func (h *inboxHandler) handle(ctx context.Context, doc watch.DocumentRef) error {
	st := h.state.Load()
	res, err := st.pipeline.ProcessFile(ctx, doc.Path, doc.Data)
	if err != nil {
		return err
	}
	if err := writeResult(h.outDir, res); err != nil {
		return err
	}
	fmt.Fprintf(h.out, "%-10s %-40s %s\n", res.Status, doc.Name, describe(res))
	if st.cfg.Metrics.Textfile != "" {
		return h.metrics.WriteTextfile(st.cfg.Metrics.Textfile)
	}
	return nil
}

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <inbox-dir>",
		Short: "Process statutes as they arrive in an inbox directory",
		Long: `Watch a directory and process each new or changed .txt, .pdf or .docx
file, writing the outputs into --out. Runs until interrupted.

With --watch-lexicons, YAML lexicons in --lexicon-dir are reloaded on change.
With --config, edits to the config file take effect for the next document.

Example:
  pasal watch --out build/ inbox/
  pasal watch --config pasal.yaml --lexicon-dir lexicons/ --watch-lexicons inbox/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outDir, _ := cmd.Flags().GetString("out")
			debounce, _ := cmd.Flags().GetDuration("debounce")
			pattern, _ := cmd.Flags().GetString("pattern")
			configPath, _ := cmd.Flags().GetString("config")

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("creating output directory: %w", err)
			}

			handler := newInboxHandler(cfg, processor, lexicons, outDir, cmd.OutOrStdout(), logger)

			if cfg.Lexicon.Watch && cfg.Lexicon.Dir != "" {
				lexicons.SetOnChange(func(event, name string) {
					logger.Info("lexicon reloaded", logging.String("event", event), logging.String("lexicon", name))
				})
				if err := lexicons.Watch(); err != nil {
					return err
				}
			}

			if configPath != "" {
				config.Watch(v, func(updated *config.Config) {
					if err := handler.reload(updated); err != nil {
						logger.Error("config change rejected", logging.Err(err))
						return
					}
					logger.Info("config reloaded", logging.String("path", configPath))
				}, func(err error) {
					logger.Error("config change rejected", logging.Err(err))
				})
			}

			monitor, err := watch.NewInboxMonitor(watch.InboxConfig{
				Dir:      args[0],
				Debounce: debounce,
				Filters:  &watch.FilterConfig{NamePattern: pattern},
			}, logger)
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			monitor.OnNewDocument(func(doc watch.DocumentRef) error {
				return handler.handle(ctx, doc)
			})

			if err := monitor.Start(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (Ctrl-C to stop)\n", args[0])
			monitor.Wait()

			status := monitor.Status()
			fmt.Fprintf(cmd.ErrOrStderr(), "Stopped after %d documents\n", status.DocumentsFound)
			for _, e := range status.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "  error: %s\n", e)
			}
			return nil
		},
	}
	cmd.Flags().String("out", "pasal-out", "output directory")
	cmd.Flags().Duration("debounce", watch.DefaultDebounce, "quiet period before a changed file is processed")
	cmd.Flags().String("pattern", "", "regular expression file names must match")
	cmd.Flags().Bool("watch-lexicons", false, "reload lexicon files when they change")
	cmd.Flags().String("metrics-file", "", "rewrite Prometheus metrics in textfile format after each document")
	return cmd
}
