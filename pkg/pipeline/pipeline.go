// Package pipeline runs the full conversion for one or many documents:
// extraction, repair and parsing, note merging, layout and rendering.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/coolbeans/pasal/pkg/config"
	"github.com/coolbeans/pasal/pkg/layout"
	"github.com/coolbeans/pasal/pkg/lexicon"
	"github.com/coolbeans/pasal/pkg/logging"
	"github.com/coolbeans/pasal/pkg/merge"
	"github.com/coolbeans/pasal/pkg/render"
	"github.com/coolbeans/pasal/pkg/repair"
	"github.com/coolbeans/pasal/pkg/source"
	"github.com/coolbeans/pasal/pkg/structure"
)

// Status is the outcome of processing one document.
type Status string

const (
	// StatusParsed means at least one article was found.
	StatusParsed Status = "parsed"
	// StatusEmpty means the text held no articles, or was blank.
	StatusEmpty Status = "empty"
	// StatusNoContent means the extractor produced no usable text.
	StatusNoContent Status = "no_content"
)

// Result is everything produced for one document.
type Result struct {
	ID       string              `json:"id"`
	Name     string              `json:"name,omitempty"`
	Kind     string              `json:"kind,omitempty"`
	Lexicon  string              `json:"lexicon"`
	Status   Status              `json:"status"`
	Error    string              `json:"error,omitempty"`
	Document *structure.Document `json:"document,omitempty"`
	Merged   string              `json:"merged,omitempty"`
	Layout   string              `json:"layout,omitempty"`
	Rendered string              `json:"rendered,omitempty"`
	Duration time.Duration       `json:"duration"`
}

// Input is one document of a batch.
type Input struct {
	Name string
	Data []byte
}

// Pipeline is safe for concurrent use.
type Pipeline struct {
	cfg       *config.Config
	logger    logging.Logger
	lexicons  *lexicon.Registry
	extractor source.Extractor
	metrics   *Metrics
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithLexicons uses r instead of a registry holding only the built-ins.
func WithLexicons(r *lexicon.Registry) Option {
	return func(p *Pipeline) { p.lexicons = r }
}

// WithExtractor replaces the default document extractor.
func WithExtractor(e source.Extractor) Option {
	return func(p *Pipeline) { p.extractor = e }
}

// WithMetrics records to m instead of a private registry.
func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// New builds a pipeline. cfg is used as given; callers apply defaults.
func New(cfg *config.Config, logger logging.Logger, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	p := &Pipeline{cfg: cfg, logger: logging.OrNop(logger).Named("pipeline")}
	for _, opt := range opts {
		opt(p)
	}
	if p.lexicons == nil {
		p.lexicons = lexicon.NewRegistry(p.logger)
	}
	if p.extractor == nil {
		p.extractor = source.NewExtractor()
	}
	if p.metrics == nil {
		m, err := NewMetrics(cfg.Metrics.Namespace, nil)
		if err != nil {
			return nil, err
		}
		p.metrics = m
	}
	if _, err := p.lexicons.Get(cfg.Lexicon.Name); err != nil {
		return nil, err
	}
	return p, nil
}

// Metrics returns the pipeline's collectors.
func (p *Pipeline) Metrics() *Metrics { return p.metrics }

// Process converts already extracted text. It only fails when ctx is done or
// the configured lexicon has disappeared from the registry.
func (p *Pipeline) Process(ctx context.Context, text string) (*Result, error) {
	start := time.Now()
	patterns, err := p.lexicons.Get(p.cfg.Lexicon.Name)
	if err != nil {
		return nil, err
	}
	res := &Result{ID: uuid.NewString(), Lexicon: patterns.Name()}
	if err := p.process(ctx, patterns, text, res); err != nil {
		return nil, err
	}
	res.Duration = time.Since(start)
	p.finish(res)
	return res, nil
}

// ProcessFile extracts text from data and processes it. Extraction failures
// become a StatusNoContent result rather than an error.
func (p *Pipeline) ProcessFile(ctx context.Context, name string, data []byte) (*Result, error) {
	start := time.Now()
	patterns, err := p.lexicons.Get(p.cfg.Lexicon.Name)
	if err != nil {
		return nil, err
	}
	kind := source.DetectKind(name, data)
	res := &Result{ID: uuid.NewString(), Name: name, Kind: kind.String(), Lexicon: patterns.Name()}

	stageStart := time.Now()
	text, err := p.extractor.Extract(ctx, data, kind)
	p.observe("extract", stageStart)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		p.logger.Warn("extraction failed",
			logging.String("name", name), logging.String("kind", kind.String()), logging.Err(err))
		res.Status = StatusNoContent
		res.Error = err.Error()
		res.Duration = time.Since(start)
		p.finish(res)
		return res, nil
	}

	if err := p.process(ctx, patterns, text, res); err != nil {
		return nil, err
	}
	res.Duration = time.Since(start)
	p.finish(res)
	return res, nil
}

// Batch processes inputs concurrently, bounded by batch.concurrency, and
// returns results in input order. Each document gets batch.timeout if set.
func (p *Pipeline) Batch(ctx context.Context, inputs []Input) ([]*Result, error) {
	results := make([]*Result, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Batch.Concurrency)

	for i, in := range inputs {
		g.Go(func() error {
			docCtx := gctx
			if p.cfg.Batch.Timeout > 0 {
				var cancel context.CancelFunc
				docCtx, cancel = context.WithTimeout(gctx, p.cfg.Batch.Timeout)
				defer cancel()
			}
			res, err := p.ProcessFile(docCtx, in.Name, in.Data)
			if err != nil {
				return fmt.Errorf("%s: %w", in.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (p *Pipeline) process(ctx context.Context, patterns *lexicon.Patterns, text string, res *Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		res.Status = StatusEmpty
		res.Document = structure.NewParser(patterns).ParseString("")
		return nil
	}

	log := p.logger.With(logging.String("id", res.ID))
	parserOpts := []structure.Option{
		structure.WithPeekBlankLimit(p.cfg.Parser.PeekBlankLimit),
		structure.WithSink(func(d structure.Diagnostic) {
			p.metrics.Diagnostics.WithLabelValues(string(d.Kind)).Inc()
			log.Debug("parse diagnostic",
				logging.Int("line", d.Line), logging.String("kind", string(d.Kind)),
				logging.String("key", d.Key), logging.String("message", d.Message))
		}),
	}
	if !p.cfg.Repair.Disabled {
		opts := repair.OptionsFor(patterns)
		opts.MinShortPair = p.cfg.Repair.MinShortPair
		opts.Passes = p.cfg.Repair.Passes
		parserOpts = append(parserOpts, structure.WithRepairer(repair.New(opts)))
	}

	stageStart := time.Now()
	doc := structure.NewParser(patterns, parserOpts...).ParseString(text)
	p.observe("parse", stageStart)
	res.Document = doc
	if doc.Empty() {
		res.Status = StatusEmpty
		return nil
	}
	res.Status = StatusParsed

	if err := ctx.Err(); err != nil {
		return err
	}
	stageStart = time.Now()
	res.Merged = merge.New(patterns).MergeDocument(doc)
	p.observe("merge", stageStart)

	stageStart = time.Now()
	res.Layout = layout.New(patterns, layout.Options{IndentPx: p.cfg.Layout.IndentPx}).Format(res.Merged)
	p.observe("layout", stageStart)

	if err := ctx.Err(); err != nil {
		return err
	}
	stageStart = time.Now()
	res.Rendered = render.New(patterns, render.Options{
		Title:     p.cfg.Render.Title,
		Fragment:  p.cfg.Render.Fragment,
		NoStyles:  p.cfg.Render.NoStyles,
		NoScript:  p.cfg.Render.NoScript,
		Collapsed: p.cfg.Render.Collapsed,
	}).Render(doc)
	p.observe("render", stageStart)
	if p.cfg.Render.Sanitize {
		res.Layout = render.Sanitize(res.Layout)
		res.Rendered = render.Sanitize(res.Rendered)
	}
	return nil
}

func (p *Pipeline) observe(stage string, start time.Time) {
	p.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func (p *Pipeline) finish(res *Result) {
	p.metrics.Documents.WithLabelValues(string(res.Status)).Inc()
	if res.Document != nil {
		p.metrics.Articles.Add(float64(len(res.Document.Articles)))
		p.metrics.Explanations.Add(float64(res.Document.Explanations.Len()))
	}
	p.logger.Info("document processed",
		logging.String("id", res.ID), logging.String("name", res.Name),
		logging.String("status", string(res.Status)), logging.Duration("duration", res.Duration))
}
