package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	quire "github.com/nevindra/quire"
	"github.com/nevindra/quire/detect"
	"github.com/nevindra/quire/export"
	"github.com/nevindra/quire/observer"
	"github.com/nevindra/quire/parse"
	"github.com/nevindra/quire/parse/html"
	"github.com/nevindra/quire/parse/llamaparse"
	"github.com/nevindra/quire/parse/pdf"
	"github.com/nevindra/quire/provider/resolve"
	"github.com/nevindra/quire/render"
	"github.com/nevindra/quire/store/postgres"
	"github.com/nevindra/quire/store/sqlite"
	"github.com/nevindra/quire/transform"
)

// app bundles the wired pipeline and its collaborators for one command.
type app struct {
	pipeline observer.Runner
	provider quire.Provider
	rewriter quire.Rewriter
	exporter quire.Exporter
	store    quire.Store
	closers  []func()
}

// close releases app resources in reverse wiring order.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApp wires the pipeline from config: parser, detector, provider,
// exporter, renderer, persistence, and observability when enabled.
func buildApp(ctx context.Context, logger *slog.Logger, withStore bool) (*app, error) {
	a := &app{}

	parser, err := buildParser(logger)
	if err != nil {
		return nil, err
	}

	provider, err := buildProvider()
	if err != nil {
		return nil, err
	}
	if provider != nil {
		provider = quire.WithRetry(provider, quire.RetryLogger(logger))
	}
	a.provider = provider
	a.exporter = export.NewSet(export.WithLogger(logger))

	opts := []quire.Option{
		quire.WithAnalyzer(detect.New()),
		quire.WithExporter(a.exporter),
		quire.WithLogger(logger),
		quire.WithMaxUploadBytes(cfg.Server.MaxUploadMB << 20),
		quire.WithMaxRenderPages(cfg.Render.MaxPages),
	}

	if cfg.Render.Enabled {
		opts = append(opts, quire.WithRenderer(render.New(
			render.WithDPI(cfg.Render.DPI),
			render.WithLogger(logger),
		)))
	}

	var inst *observer.Instruments
	if cfg.Observer.Enabled {
		pricing := make(map[string]observer.ModelPricing, len(cfg.Observer.Pricing))
		for model, p := range cfg.Observer.Pricing {
			pricing[model] = observer.ModelPricing{InputPerMillion: p.Input, OutputPerMillion: p.Output}
		}
		var shutdown func(context.Context) error
		inst, shutdown, err = observer.Init(ctx, pricing)
		if err != nil {
			return nil, fmt.Errorf("observer: %w", err)
		}
		a.closers = append(a.closers, func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(sctx)
		})
		opts = append(opts,
			quire.WithTracer(observer.NewTracer()),
			quire.WithStageFunc(observer.NewStageFunc(inst)),
		)
		if provider != nil {
			a.provider = observer.WrapProvider(provider, cfg.LLM.Model, inst)
		}
	}

	if a.provider != nil {
		a.rewriter = transform.New(a.provider, transform.WithLogger(logger))
		opts = append(opts, quire.WithRewriter(a.rewriter))
	}

	if withStore {
		store, closeStore, err := buildStore(ctx, logger)
		if err != nil {
			a.close()
			return nil, err
		}
		a.store = store
		a.closers = append(a.closers, closeStore)
		opts = append(opts, quire.WithStore(store))
	}

	p := quire.NewPipeline(parser, opts...)
	if inst != nil {
		a.pipeline = observer.WrapPipeline(p, inst)
	} else {
		a.pipeline = p
	}
	return a, nil
}

// buildParser selects the extraction backend from config. Native mode runs
// in-process engines; llamaparse mode sends documents to the managed API.
func buildParser(logger *slog.Logger) (quire.Parser, error) {
	switch cfg.Parse.Mode {
	case "llamaparse":
		if cfg.Parse.APIKey == "" {
			return nil, errors.New("parse.mode llamaparse requires parse.api_key")
		}
		opts := []llamaparse.Option{llamaparse.WithLogger(logger)}
		if cfg.Parse.BaseURL != "" {
			opts = append(opts, llamaparse.WithBaseURL(cfg.Parse.BaseURL))
		}
		if cfg.Parse.ResultType != "" {
			opts = append(opts, llamaparse.WithResultType(cfg.Parse.ResultType))
		}
		if cfg.Parse.PollIntervalSeconds > 0 {
			opts = append(opts, llamaparse.WithPollInterval(
				time.Duration(cfg.Parse.PollIntervalSeconds)*time.Second))
		}
		return llamaparse.NewClient(cfg.Parse.APIKey, opts...), nil
	default:
		return parse.NewMux(
			parse.WithEngine(parse.TypePDF, pdf.NewEngine(pdf.WithImages(true))),
			parse.WithEngine(parse.TypeHTML, html.NewEngine()),
		), nil
	}
}

// buildProvider creates the chat provider, or nil when no credentials are
// configured. Ollama runs without a key.
func buildProvider() (quire.Provider, error) {
	if cfg.LLM.APIKey == "" && cfg.LLM.Provider != "ollama" {
		return nil, nil
	}
	return resolve.Provider(resolve.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
	})
}

// buildStore opens postgres when database.postgres_url is set, sqlite
// otherwise. The returned func releases the connection.
func buildStore(ctx context.Context, logger *slog.Logger) (quire.Store, func(), error) {
	if cfg.Database.PostgresURL != "" {
		pool, err := pgxpool.New(ctx, cfg.Database.PostgresURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		st := postgres.New(pool)
		if err := st.Init(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return st, pool.Close, nil
	}

	st := sqlite.New(cfg.Database.Path, sqlite.WithLogger(logger))
	if err := st.Init(ctx); err != nil {
		st.Close()
		return nil, nil, err
	}
	return st, func() { st.Close() }, nil
}
