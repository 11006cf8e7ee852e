package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coolbeans/pasal/pkg/consolidate"
	"github.com/coolbeans/pasal/pkg/pipeline"
)

func consolidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consolidate <file>...",
		Short: "Merge several versions of a statute into one consolidated body",
		Long: `Parse each version (oldest first), line the articles and clauses up
across versions and print the consolidated body.

Modes:
  final      text of the last version, deleted units marked
  annotated  final text plus change notes against each earlier version
  history    the text of every version, unit by unit

Version names default to the file names; --name and --date set them by
position.

Example:
  pasal consolidate --lexicon id --mode annotated uu_14_2008.txt uu_2_2020.txt
  pasal consolidate --mode history --name "UU 14/2008" --name "UU 2/2020" a.pdf b.pdf
  pasal consolidate --format json v1.txt v2.txt v3.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modeName, _ := cmd.Flags().GetString("mode")
			format, _ := cmd.Flags().GetString("format")
			title, _ := cmd.Flags().GetString("title")
			names, _ := cmd.Flags().GetStringSlice("name")
			dates, _ := cmd.Flags().GetStringSlice("date")

			mode, err := consolidate.ParseMode(modeName)
			if err != nil {
				return err
			}
			if len(names) > len(args) || len(dates) > len(args) {
				return fmt.Errorf("more --name/--date values than files")
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			versions, err := loadVersions(ctx, processor, args, names, dates)
			if err != nil {
				return err
			}
			c, err := consolidate.Consolidate(versions)
			if err != nil {
				return err
			}

			var out string
			switch strings.ToLower(format) {
			case "json":
				data, err := c.ToJSON()
				if err != nil {
					return fmt.Errorf("encoding consolidation: %w", err)
				}
				out = string(data) + "\n"
			case "markdown", "md":
				patterns, err := lexicons.Get(cfg.Lexicon.Name)
				if err != nil {
					return err
				}
				out = consolidate.NewWriter(patterns, mode, title).Markdown(c)
			case "text", "":
				patterns, err := lexicons.Get(cfg.Lexicon.Name)
				if err != nil {
					return err
				}
				out = consolidate.NewWriter(patterns, mode, title).Text(c)
			default:
				return fmt.Errorf("unknown format %q (want text, markdown or json)", format)
			}
			return writeOutput(cmd, out)
		},
	}
	cmd.Flags().String("mode", string(consolidate.ModeAnnotated), "final, annotated or history")
	cmd.Flags().String("format", "text", "text, markdown or json")
	cmd.Flags().String("title", "", "document title for the heading")
	cmd.Flags().StringSlice("name", nil, "version name, by position (repeatable)")
	cmd.Flags().StringSlice("date", nil, "version date, by position (repeatable)")
	cmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	return cmd
}

// loadVersions parses each file in order. A version without articles is an
// error: it would show every unit as deleted.
func loadVersions(ctx context.Context, p *pipeline.Pipeline, paths, names, dates []string) ([]consolidate.Version, error) {
	versions := make([]consolidate.Version, 0, len(paths))
	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		res, err := p.ProcessFile(ctx, path, data)
		if err != nil {
			return nil, err
		}
		if res.Status != pipeline.StatusParsed {
			return nil, fmt.Errorf("%s: %s, no articles to consolidate", path, res.Status)
		}

		v := consolidate.Version{
			Name:     strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			Document: res.Document,
		}
		if i < len(names) && names[i] != "" {
			v.Name = names[i]
		}
		if i < len(dates) {
			v.Date = dates[i]
		}
		versions = append(versions, v)
	}
	return versions, nil
}
