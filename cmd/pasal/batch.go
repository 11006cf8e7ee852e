package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/coolbeans/pasal/pkg/config"
	"github.com/coolbeans/pasal/pkg/pipeline"
	"github.com/coolbeans/pasal/pkg/watch"
)

func batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <file-or-dir>...",
		Short: "Process many statutes concurrently",
		Long: `Process every .txt, .pdf and .docx file given (directories are read one
level deep) and write, per document, NAME.html, NAME.merged.txt and
NAME.json into the output directory.

Example:
  pasal batch --out build/ statutes/
  pasal batch --lexicon id --concurrency 8 --timeout 30s uu/*.pdf`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outDir, _ := cmd.Flags().GetString("out")

			paths, err := collectInputs(args)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no .txt, .pdf or .docx files found")
			}

			inputs := make([]pipeline.Input, 0, len(paths))
			for _, path := range paths {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}
				inputs = append(inputs, pipeline.Input{Name: path, Data: data})
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			fmt.Fprintf(cmd.ErrOrStderr(), "Processing %d documents (concurrency %d)...\n",
				len(inputs), cfg.Batch.Concurrency)
			start := time.Now()
			results, err := processor.Batch(ctx, inputs)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("creating output directory: %w", err)
			}
			counts := map[pipeline.Status]int{}
			for _, res := range results {
				counts[res.Status]++
				if err := writeResult(outDir, res); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %-40s %s\n", res.Status, res.Name, describe(res))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n%d parsed, %d empty, %d without content in %s\n",
				counts[pipeline.StatusParsed], counts[pipeline.StatusEmpty], counts[pipeline.StatusNoContent],
				time.Since(start).Round(time.Millisecond))

			if cfg.Metrics.Textfile != "" {
				if err := processor.Metrics().WriteTextfile(cfg.Metrics.Textfile); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Metrics written to %s\n", cfg.Metrics.Textfile)
			}
			return nil
		},
	}
	cmd.Flags().String("out", "pasal-out", "output directory")
	cmd.Flags().Int("concurrency", config.DefaultConcurrency(), "documents processed at once")
	cmd.Flags().Duration("timeout", 0, "per-document timeout (0 = none)")
	cmd.Flags().String("metrics-file", "", "write Prometheus metrics in textfile format")
	cmd.Flags().Bool("sanitize", false, "strip markup unsafe for rich-text fields")
	return cmd
}

// collectInputs expands directories into the accepted files they contain.
func collectInputs(args []string) ([]string, error) {
	accepted := map[string]bool{}
	for _, ext := range watch.DefaultExtensions {
		accepted[ext] = true
	}

	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", arg, err)
		}
		for _, e := range entries {
			if e.IsDir() || !accepted[strings.ToLower(filepath.Ext(e.Name()))] {
				continue
			}
			paths = append(paths, filepath.Join(arg, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func describe(res *pipeline.Result) string {
	switch {
	case res.Error != "":
		return res.Error
	case res.Document == nil:
		return ""
	default:
		return fmt.Sprintf("%d articles, %d notes, %d diagnostics",
			len(res.Document.Articles), res.Document.Explanations.Len(), len(res.Document.Diagnostics))
	}
}

// writeResult writes the outputs of one document. Documents without
// articles only get the JSON summary.
func writeResult(dir string, res *pipeline.Result) error {
	summary, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", res.Name, err)
	}
	files := map[string]string{outputName(dir, res.Name, ".json"): string(summary) + "\n"}
	if res.Status == pipeline.StatusParsed {
		files[outputName(dir, res.Name, ".html")] = res.Rendered
		files[outputName(dir, res.Name, ".merged.txt")] = res.Merged + "\n"
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}
