package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Skshirin/factify/internal/config"
	"github.com/Skshirin/factify/internal/domain"
	"github.com/Skshirin/factify/internal/ensemble"
	"github.com/Skshirin/factify/internal/extractor"
	"github.com/Skshirin/factify/internal/factcheck"
	"github.com/Skshirin/factify/internal/logger"
	"github.com/Skshirin/factify/internal/pipeline"
	"github.com/Skshirin/factify/internal/storage"
	"github.com/Skshirin/factify/pkg/browser"
	"github.com/Skshirin/factify/pkg/claims"
	"github.com/Skshirin/factify/pkg/evidence"
	"github.com/Skshirin/factify/pkg/httpclient"
	"github.com/Skshirin/factify/pkg/media"
	"github.com/Skshirin/factify/pkg/models"
	"github.com/Skshirin/factify/pkg/publishers"
	"github.com/Skshirin/factify/pkg/toolexec"
	"github.com/spf13/afero"
)

// Analyzer is the factify runtime. It is built once from config and owns the shared model
// set, the pipeline, the verdict publishers and the dedupe store.
type Analyzer struct {
	cfg      *config.Config
	pipeline *pipeline.Orchestrator
	fanout   *publishers.Fanout
	store    storage.Store
	log      logger.Logger
}

// NewAnalyzer builds the runtime from config files.
func NewAnalyzer(ctx context.Context, cfg *config.Config, log logger.Logger) (*Analyzer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	// model endpoints get per-definition deadlines through the request context
	set, err := models.Load(cfg.ModelsFile, httpclient.NewRestyClient(0))
	if err != nil {
		return nil, fmt.Errorf("load models: %w", err)
	}
	adapterNames := make([]string, 0)
	for _, a := range set.Adapters() {
		adapterNames = append(adapterNames, a.Name())
	}
	log.InfoObj("models loaded", "models_meta", map[string]any{
		"count":    len(adapterNames),
		"adapters": adapterNames,
		"toxicity": set.Toxicity() != nil,
	})

	web := httpclient.NewRestyClient(cfg.HTTPTimeout)
	runner := toolexec.ExecRunner{}
	deps := extractor.Deps{
		HTTP:       web,
		OCR:        media.TesseractOCR{Path: cfg.TesseractPath, Language: cfg.OCRLanguage, Runner: runner},
		Downloader: media.YTDLPDownloader{Path: cfg.YTDLPPath, Runner: runner},
		Audio:      media.FFmpegAudioExtractor{Path: cfg.FFmpegPath, Runner: runner},
		Logger:     log,
	}
	if cfg.WhisperURL != "" {
		deps.Transcriber = media.WhisperTranscriber{
			URL:    cfg.WhisperURL,
			Model:  cfg.WhisperModel,
			Client: httpclient.NewRestyClient(cfg.MediaTimeout),
		}
	}
	if cfg.BrowserEnabled {
		deps.Renderer = browser.ChromeRenderer{
			ExecPath:    cfg.BrowserExecPath,
			UserAgent:   cfg.UserAgent,
			PageTimeout: cfg.BrowserPageTimeout,
		}
	}
	ext := extractor.New(extractor.Options{
		UserAgent:       cfg.UserAgent,
		MaxHTMLBytes:    cfg.MaxHTMLBytes,
		ArticleMaxChars: cfg.ArticleMaxChars,
		MediaTimeout:    cfg.MediaTimeout,
	}, deps)

	verifier, err := newVerifier(ctx, cfg, web)
	if err != nil {
		return nil, err
	}

	var searcher evidence.Searcher
	chain := newEvidenceChain(cfg, web)
	if chain.Len() > 0 {
		searcher = chain
	}
	log.InfoObj("verification configured", "verification_meta", map[string]any{
		"factcheck_provider": cfg.FactCheckProvider,
		"evidence_searchers": chain.Len(),
		"browser_enabled":    cfg.BrowserEnabled,
	})

	orch, err := pipeline.New(pipeline.Options{
		WorkDir:            cfg.WorkDir,
		SnippetMaxChars:    cfg.SnippetMaxChars,
		EvidenceQueryChars: cfg.EvidenceQueryChars,
		EvidenceLimit:      cfg.EvidenceLimit,
	}, pipeline.Deps{
		Extractor:   ext,
		Ensemble:    ensemble.New(cfg.EnsembleParallelism, log),
		Models:      set,
		FactChecker: verifier,
		FactAggregator: factcheck.New(factcheck.Thresholds{
			Real:   cfg.FactCheckRealThreshold,
			Margin: cfg.FactCheckMargin,
		}),
		Evidence: searcher,
		Fs:       afero.NewOsFs(),
		Logger:   log,
	})
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		VerdictTTL:      cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"verdict_ttl_seconds":      int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	return newAnalyzer(cfg, orch, fanout, store, log), nil
}

func newAnalyzer(cfg *config.Config, orch *pipeline.Orchestrator, fanout *publishers.Fanout, store storage.Store, log logger.Logger) *Analyzer {
	if store == nil {
		store, _ = storage.NewStore("none", "", storage.Options{})
	}
	return &Analyzer{
		cfg:      cfg,
		pipeline: orch,
		fanout:   fanout,
		store:    store,
		log:      logger.Ensure(log),
	}
}

// newVerifier selects the claim-verification provider named in config, or nil for none.
func newVerifier(ctx context.Context, cfg *config.Config, client httpclient.Poster) (claims.Verifier, error) {
	switch cfg.FactCheckProvider {
	case config.FactCheckHTTP:
		return &claims.HTTPPipeline{URL: cfg.FactCheckURL, Client: client}, nil
	case config.FactCheckGoogle:
		g, err := claims.NewGoogleFactCheck(ctx, cfg.GoogleFactCheckAPIKey, cfg.FactCheckLanguage)
		if err != nil {
			return nil, fmt.Errorf("init google fact check: %w", err)
		}
		return g, nil
	default:
		return nil, nil
	}
}

// newEvidenceChain keeps the NewsAPI then SerpAPI order; searchers without a key are skipped.
// The keyless Google News feed, when enabled, is the last resort.
func newEvidenceChain(cfg *config.Config, client httpclient.Client) *evidence.Chain {
	var searchers []evidence.Searcher
	if cfg.NewsAPIKey != "" {
		searchers = append(searchers, &evidence.NewsAPI{APIKey: cfg.NewsAPIKey, Client: client})
	}
	if cfg.SerpAPIKey != "" {
		searchers = append(searchers, &evidence.SerpAPI{APIKey: cfg.SerpAPIKey, Client: client})
	}
	if cfg.GoogleNewsEnabled {
		searchers = append(searchers, &evidence.GoogleNews{
			Language: cfg.GoogleNewsLanguage,
			Country:  cfg.GoogleNewsCountry,
			Client:   client,
		})
	}
	return evidence.NewChain(searchers...)
}

// buildFanout loads the optional publishers file. No file means nothing is published.
func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	if cfg.PublishersFile == "" {
		return publishers.NewFanout(), nil
	}
	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}

	enabled := publisherReg.Enabled()
	routes, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":     pubCfg.ID,
			"type":   pubCfg.Type,
			"labels": strings.Join(pubCfg.Filter.Labels, ","),
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(routes...), nil
}

// Analyze runs one input through the pipeline and publishes the verdict.
func (a *Analyzer) Analyze(ctx context.Context, input domain.InputItem) (*domain.FinalResponse, error) {
	if a == nil || a.pipeline == nil {
		return nil, errors.New("analyzer is not initialized")
	}
	start := time.Now()
	resp, err := a.pipeline.Process(ctx, input)
	if err != nil {
		return nil, err
	}
	a.log.DebugObj("analysis finished", "analysis_meta", map[string]any{
		"request_id": resp.RequestID,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	a.publish(ctx, resp)
	return resp, nil
}

// AnalyzeBatch analyzes inputs with batch_parallelism requests in flight. One item's failure
// never stops the others.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, inputs []domain.InputItem) []pipeline.BatchResult {
	if a == nil || a.pipeline == nil {
		return nil
	}
	parallelism := 1
	if a.cfg != nil && a.cfg.BatchParallelism > 0 {
		parallelism = a.cfg.BatchParallelism
	}

	start := time.Now()
	results := a.pipeline.ProcessBatch(ctx, inputs, parallelism)
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		a.publish(ctx, r.Response)
	}
	a.log.InfoObj("batch completed", "batch_meta", map[string]any{
		"items":      len(inputs),
		"failed":     failed,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return results
}

// publish sends the verdict to every sink unless the same content was published within the
// dedupe TTL. Failures are logged and never fail the analysis.
func (a *Analyzer) publish(ctx context.Context, resp *domain.FinalResponse) {
	if resp == nil || a.fanout.Size() == 0 {
		return
	}
	evt := publishers.NewEvent(*resp)

	prev, err := a.store.Lookup(evt.Fingerprint)
	if err != nil {
		a.log.WarnObj("dedupe lookup failed", "storage_error", map[string]any{
			"fingerprint": evt.Fingerprint,
			"error":       err.Error(),
		})
	}
	if prev != nil {
		a.log.DebugObj("verdict already published", "publish_meta", map[string]any{
			"request_id":       resp.RequestID,
			"fingerprint":      evt.Fingerprint,
			"first_request_id": prev.RequestID,
			"published_at":     prev.PublishedAt,
		})
		return
	}

	d, err := a.fanout.Publish(ctx, evt)
	if err != nil {
		a.log.ErrorObj("verdict publish failed", "publish_error", map[string]any{
			"request_id": resp.RequestID,
			"delivered":  d.Delivered,
			"failed":     d.Failed,
			"error":      err.Error(),
		})
	}
	if d.Delivered == 0 {
		return
	}
	rec := storage.VerdictRecord{
		RequestID:  resp.RequestID,
		Source:     string(resp.Source),
		Confidence: resp.Confidence,
		Delivered:  d.Delivered,
	}
	if err := a.store.Remember(evt.Fingerprint, rec); err != nil {
		a.log.WarnObj("dedupe mark failed", "storage_error", map[string]any{
			"fingerprint": evt.Fingerprint,
			"error":       err.Error(),
		})
	}
}

// Close releases publishers and the dedupe store.
func (a *Analyzer) Close() error {
	if a == nil {
		return nil
	}
	var errs []error
	if err := a.fanout.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	return errors.Join(errs...)
}
