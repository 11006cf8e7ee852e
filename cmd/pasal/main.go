package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/coolbeans/pasal/pkg/config"
	"github.com/coolbeans/pasal/pkg/layout"
	"github.com/coolbeans/pasal/pkg/lexicon"
	"github.com/coolbeans/pasal/pkg/logging"
	"github.com/coolbeans/pasal/pkg/pipeline"
	"github.com/coolbeans/pasal/pkg/render"
	"github.com/coolbeans/pasal/pkg/repair"
	"github.com/coolbeans/pasal/pkg/structure"
)

var version = "0.1.0"

// Shared state set up by the root command before any subcommand runs.
var (
	v         = config.NewViper()
	cfg       *config.Config
	logger    logging.Logger
	lexicons  *lexicon.Registry
	processor *pipeline.Pipeline
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pasal",
		Short: "Statute structure extraction and explanatory-note merging",
		Long: `Pasal reads statutes (plain text, DOCX or text PDF) and produces:
  - an Article / Clause / Point tree with its explanatory notes
  - the body text with each note merged after the unit it explains
  - block HTML and a navigable table-of-contents page

Built-in lexicons: en (Article/Clause/Point), id (Pasal/Ayat/Huruf).`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if lexicons != nil {
				lexicons.StopWatch()
			}
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "YAML config file (PASAL_* environment variables override it)")
	flags.String("lexicon", config.DefaultLexicon, "lexicon name")
	flags.String("lexicon-dir", "", "directory of additional lexicon YAML files")
	flags.String("log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")
	flags.String("log-format", config.DefaultLogFormat, "log format: console or json")
	flags.Int("peek-blank-limit", 0, "blank lines a grouping look-ahead may skip (0 = unlimited)")
	flags.Bool("no-repair", false, "disable word repair")

	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(mergeCmd())
	rootCmd.AddCommand(formatCmd())
	rootCmd.AddCommand(renderCmd())
	rootCmd.AddCommand(batchCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(consolidateCmd())
	rootCmd.AddCommand(lexiconsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// flagKeys maps flag names to config keys. Several subcommands share a flag
// name, so binding happens once the running command is known.
var flagKeys = map[string]string{
	"lexicon":          "lexicon.name",
	"lexicon-dir":      "lexicon.dir",
	"watch-lexicons":   "lexicon.watch",
	"log-level":        "log.level",
	"log-format":       "log.format",
	"peek-blank-limit": "parser.peek_blank_limit",
	"no-repair":        "repair.disabled",
	"indent-px":        "layout.indent_px",
	"title":            "render.title",
	"fragment":         "render.fragment",
	"collapsed":        "render.collapsed",
	"sanitize":         "render.sanitize",
	"concurrency":      "batch.concurrency",
	"timeout":          "batch.timeout",
	"metrics-file":     "metrics.textfile",
}

// bindFlags ties the running command's flags to viper so a flag set on the
// command line wins over the config file and environment.
func bindFlags(flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || err != nil {
			return
		}
		if bindErr := v.BindPFlag(key, f); bindErr != nil {
			err = fmt.Errorf("binding flag %s: %w", f.Name, bindErr)
		}
	})
	return err
}

func setup(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd.Flags()); err != nil {
		return err
	}
	configPath, _ := cmd.Flags().GetString("config")
	if err := config.ReadFile(v, configPath); err != nil {
		return err
	}
	loaded, err := config.FromViper(v)
	if err != nil {
		return err
	}
	cfg = loaded

	logger, err = logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}

	lexicons = lexicon.NewRegistry(logger)
	if cfg.Lexicon.Dir != "" {
		if err := lexicons.LoadDirectory(cfg.Lexicon.Dir); err != nil {
			return err
		}
	}

	processor, err = pipeline.New(cfg, logger, pipeline.WithLexicons(lexicons))
	return err
}

// readInput returns the named file, or stdin for "" and "-".
func readInput(args []string) (string, []byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", nil, fmt.Errorf("reading stdin: %w", err)
		}
		return "", data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", nil, fmt.Errorf("reading %s: %w", args[0], err)
	}
	return args[0], data, nil
}

// process runs the pipeline on a file argument or stdin.
func process(ctx context.Context, args []string) (*pipeline.Result, error) {
	name, data, err := readInput(args)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return processor.Process(ctx, string(data))
	}
	return processor.ProcessFile(ctx, name, data)
}

// writeOutput writes to the --output file, or stdout when it is empty.
func writeOutput(cmd *cobra.Command, content string) error {
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		_, err := io.WriteString(cmd.OutOrStdout(), content)
		return err
	}
	if err := os.WriteFile(output, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", output)
	return nil
}

func reportStatus(cmd *cobra.Command, res *pipeline.Result) {
	if res.Status == pipeline.StatusParsed {
		return
	}
	msg := fmt.Sprintf("status: %s", res.Status)
	if res.Error != "" {
		msg += " (" + res.Error + ")"
	}
	fmt.Fprintln(cmd.ErrOrStderr(), msg)
}

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a statute into its article tree and explanatory notes (JSON)",
		Long: `Parse a statute and print the tree, table of contents and explanation map
as JSON. Reads stdin when no file is given.

Example:
  pasal parse law.txt
  pasal parse --lexicon id --diagnostics uu_14_2008.pdf`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			showDiagnostics, _ := cmd.Flags().GetBool("diagnostics")
			compact, _ := cmd.Flags().GetBool("compact")

			res, err := process(cmd.Context(), args)
			if err != nil {
				return err
			}
			reportStatus(cmd, res)
			if res.Document != nil && !showDiagnostics {
				res.Document.Diagnostics = nil
			}

			out := struct {
				ID       string              `json:"id"`
				Status   pipeline.Status     `json:"status"`
				Error    string              `json:"error,omitempty"`
				Document *structure.Document `json:"document,omitempty"`
			}{res.ID, res.Status, res.Error, res.Document}

			var data []byte
			if compact {
				data, err = json.Marshal(out)
			} else {
				data, err = json.MarshalIndent(out, "", "  ")
			}
			if err != nil {
				return fmt.Errorf("encoding result: %w", err)
			}
			return writeOutput(cmd, string(data)+"\n")
		},
	}
	cmd.Flags().Bool("diagnostics", false, "include parser diagnostics")
	cmd.Flags().Bool("compact", false, "single-line JSON")
	cmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	return cmd
}

func mergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge [file]",
		Short: "Print the body text with every explanatory note merged after its unit",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := process(cmd.Context(), args)
			if err != nil {
				return err
			}
			reportStatus(cmd, res)
			if res.Status != pipeline.StatusParsed {
				return nil
			}
			return writeOutput(cmd, res.Merged+"\n")
		},
	}
	cmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	return cmd
}

func formatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "format [file]",
		Short: "Lay out plain statute text as block HTML",
		Long: `Format text into paragraphs, headings, numbered lists and note callouts
without building the article tree. Useful for documents without an
explanatory-note section, or to lay out the output of "pasal merge".

Example:
  pasal format law.txt
  pasal merge law.txt | pasal format --markdown`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asMarkdown, _ := cmd.Flags().GetBool("markdown")

			_, data, err := readInput(args)
			if err != nil {
				return err
			}
			patterns, err := lexicons.Get(cfg.Lexicon.Name)
			if err != nil {
				return err
			}

			text := string(data)
			if !cfg.Repair.Disabled {
				opts := repair.OptionsFor(patterns)
				opts.MinShortPair = cfg.Repair.MinShortPair
				opts.Passes = cfg.Repair.Passes
				text = repair.New(opts).Text(text)
			}

			out := layout.New(patterns, layout.Options{IndentPx: cfg.Layout.IndentPx}).Format(text)
			if cfg.Render.Sanitize {
				out = render.Sanitize(out)
			}
			if asMarkdown {
				if out, err = render.ToMarkdown(out); err != nil {
					return err
				}
				out += "\n"
			}
			return writeOutput(cmd, out)
		},
	}
	cmd.Flags().Bool("markdown", false, "convert the HTML to Markdown")
	cmd.Flags().Bool("sanitize", false, "strip markup unsafe for rich-text fields")
	cmd.Flags().Int("indent-px", config.DefaultIndentPx, "left margin per leading space")
	cmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	return cmd
}

func renderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a statute as a navigable HTML page",
		Long: `Render a statute with a side-panel table of contents and one collapsible
section per article, notes placed under the unit they explain.

Example:
  pasal render law.txt -o law.html
  pasal render --fragment --sanitize law.docx`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asMarkdown, _ := cmd.Flags().GetBool("markdown")

			res, err := process(cmd.Context(), args)
			if err != nil {
				return err
			}
			reportStatus(cmd, res)
			if res.Status != pipeline.StatusParsed {
				return nil
			}

			out := res.Rendered
			if asMarkdown {
				if out, err = render.ToMarkdown(out); err != nil {
					return err
				}
				out += "\n"
			}
			return writeOutput(cmd, out)
		},
	}
	cmd.Flags().String("title", "", "page title")
	cmd.Flags().Bool("fragment", false, "omit the html/head/body wrapper")
	cmd.Flags().Bool("collapsed", false, "render articles collapsed")
	cmd.Flags().Bool("sanitize", false, "strip markup unsafe for rich-text fields")
	cmd.Flags().Bool("markdown", false, "convert the page to Markdown")
	cmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	return cmd
}

func lexiconsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lexicons",
		Short: "List available lexicons",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range lexicons.List() {
				patterns, err := lexicons.Get(name)
				if err != nil {
					return err
				}
				lex := patterns.Lexicon()
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %-18s %s\n", name, lex.Language, lex.Description)
			}
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show <name>",
		Short: "Print a lexicon as YAML, ready to copy and adapt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patterns, err := lexicons.Get(args[0])
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(patterns.Lexicon())
			if err != nil {
				return fmt.Errorf("encoding lexicon: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})
	return cmd
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// outputName maps an input file to name.ext inside dir.
func outputName(dir, input, ext string) string {
	base := filepath.Base(input)
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+ext)
}
