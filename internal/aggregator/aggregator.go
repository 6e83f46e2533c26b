// Package aggregator fans a search query out to the local seed catalog and
// the remote document collections, then merges, de-duplicates and caps the
// hits into one ordered list.
package aggregator

import (
	"context"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/repairhub/repair-search/internal/catalog"
	"github.com/repairhub/repair-search/internal/config"
	"github.com/repairhub/repair-search/internal/models"
	"github.com/repairhub/repair-search/internal/observability"
	"github.com/repairhub/repair-search/internal/resilience"
	"github.com/repairhub/repair-search/internal/textmatch"
)

// DocumentStore is the read surface the aggregator needs: equality filters
// and a limit. Substring matching always happens here, never in the store.
type DocumentStore interface {
	Query(ctx context.Context, collection string, opts models.QueryOptions) ([]models.Document, error)
}

// OwnerCache remembers which shop a user owns. found reports whether the
// cache had an answer at all; an empty shopID with found set is a cached
// "owns no shop".
type OwnerCache interface {
	GetShopOwner(ctx context.Context, userID string) (shopID string, found bool, err error)
	SetShopOwner(ctx context.Context, userID, shopID string) error
}

type Aggregator struct {
	store     DocumentStore
	matcher   *catalog.Matcher
	owners    OwnerCache
	sources   []source
	inventory config.InventoryConfig
	breakers  map[string]*gobreaker.CircuitBreaker
	retry     resilience.RetryConfig
	slowQuery *observability.SlowQueryDetector
	cfg       config.SearchConfig
	logger    *zap.Logger
}

// New wires an aggregator. owners may be nil, in which case every signed-in
// search resolves the shop owner against the store.
func New(store DocumentStore, matcher *catalog.Matcher, owners OwnerCache, cfg config.SearchConfig, logger *zap.Logger) *Aggregator {
	if matcher == nil {
		matcher = catalog.NewMatcher(nil)
	}
	logger = logger.With(zap.String("component", "aggregator"))
	cfg = withDefaults(cfg)

	sources := buildSources(cfg.Sources)
	breakers := make(map[string]*gobreaker.CircuitBreaker, len(sources)+1)
	for _, s := range sources {
		breakers[s.name] = resilience.NewCircuitBreaker(s.name, cfg.CircuitBreaker, logger)
	}
	breakers[sourceShopOwner] = resilience.NewCircuitBreaker(sourceShopOwner, cfg.CircuitBreaker, logger)

	return &Aggregator{
		store:     store,
		matcher:   matcher,
		owners:    owners,
		sources:   sources,
		inventory: cfg.Sources.Inventory,
		breakers:  breakers,
		retry:     resilience.RetryConfigFrom(cfg.Retry),
		slowQuery: observability.NewSlowQueryDetector(cfg.SlowQuery.WarningThreshold, cfg.SlowQuery.CriticalThreshold, logger),
		cfg:       cfg,
		logger:    logger,
	}
}

// withDefaults fills the limits a caller left at zero, so an unvalidated
// config still caps results and gives sources time to answer.
func withDefaults(cfg config.SearchConfig) config.SearchConfig {
	def := config.DefaultConfig().Search
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = def.MaxResults
	}
	if cfg.MaxQueryLength <= 0 {
		cfg.MaxQueryLength = def.MaxQueryLength
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = def.QueryTimeout
	}
	return cfg
}

// Suggestions is what a caller shows instead of results for an empty query.
func (a *Aggregator) Suggestions() []string {
	out := make([]string, len(a.cfg.Suggestions))
	copy(out, a.cfg.Suggestions)
	return out
}

// NormalizeQuery trims and folds raw query text. An empty result means no
// search should run.
func (a *Aggregator) NormalizeQuery(raw string) string {
	return textmatch.Normalize(raw)
}

// TooLong reports whether a normalized query is past max_query_length. Search
// answers such a query with no hits rather than matching a prefix of it.
func (a *Aggregator) TooLong(query string) bool {
	return utf8.RuneCountInString(query) > a.cfg.MaxQueryLength
}

type sourceResult struct {
	hits   []models.Hit
	report models.SourceReport
}

// Search never fails. A source that errors, times out or sits behind an open
// breaker contributes zero hits and a failed report.
func (a *Aggregator) Search(ctx context.Context, req models.SearchRequest) models.SearchResponse {
	start := time.Now()
	query := a.NormalizeQuery(req.Query)
	resp := models.SearchResponse{Query: query, Hits: []models.Hit{}, At: start}
	if query == "" {
		observability.SearchRequestsTotal.WithLabelValues("empty").Inc()
		return resp
	}
	if a.TooLong(query) {
		observability.SearchRequestsTotal.WithLabelValues("too_long").Inc()
		a.logger.Debug("query too long, skipping sources",
			zap.Int("length", utf8.RuneCountInString(query)),
			zap.Int("max", a.cfg.MaxQueryLength),
			zap.String("request_id", req.RequestID),
		)
		return resp
	}

	signedIn := req.UserID != ""
	ctx, span := observability.StartSpan(ctx, "aggregator.search",
		attribute.Int("query.length", utf8.RuneCountInString(query)),
		attribute.Bool("signed_in", signedIn),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, a.cfg.QueryTimeout)
	defer cancel()

	local := a.matcher.Match(query)
	results := make([]sourceResult, len(a.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range a.sources {
		g.Go(func() error {
			results[i] = a.runSource(gctx, s, query, req)
			return nil
		})
	}
	_ = g.Wait()

	merged, dropped, truncated := merge(local, results, a.cfg.MaxResults)

	resp.Hits = merged
	resp.Deduped = dropped
	resp.Truncated = truncated
	resp.Sources = make([]models.SourceReport, 0, len(results)+1)
	resp.Sources = append(resp.Sources, models.SourceReport{
		Source: SourceCatalog,
		Status: models.SourceOK,
		Hits:   len(local),
	})

	failed := 0
	slowest, slowestMs := "", int64(-1)
	for _, r := range results {
		resp.Sources = append(resp.Sources, r.report)
		if r.report.Status == models.SourceFailed {
			failed++
		}
		if r.report.DurationMs > slowestMs {
			slowest, slowestMs = r.report.Source, r.report.DurationMs
		}
	}

	took := time.Since(start)
	resp.TookMs = took.Milliseconds()

	outcome := "ok"
	switch {
	case failed > 0:
		outcome = "partial"
		span.SetStatus(codes.Error, fmt.Sprintf("%d sources failed", failed))
	case len(merged) == 0:
		outcome = "no_results"
	}
	observability.SearchRequestsTotal.WithLabelValues(outcome).Inc()
	observability.AggregationDuration.WithLabelValues(strconv.FormatBool(signedIn)).Observe(took.Seconds())
	observability.ResultsReturned.Observe(float64(len(merged)))
	if dropped > 0 {
		observability.DuplicatesDropped.Add(float64(dropped))
	}
	span.SetAttributes(attribute.Int("hits", len(merged)), attribute.Int("failed_sources", failed))

	a.slowQuery.Intercept(ctx, query, took, len(merged), slowest, failed)

	return resp
}

func (a *Aggregator) runSource(ctx context.Context, s source, query string, req models.SearchRequest) sourceResult {
	report := models.SourceReport{Source: s.name, Status: models.SourceSkipped}
	if !s.cfg.Enabled || (s.inventory && req.UserID == "") {
		observability.SourceRequestsTotal.WithLabelValues(s.name, "skipped").Inc()
		return sourceResult{report: report}
	}

	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "aggregator.source", attribute.String("source", s.name))
	defer span.End()

	docs, err := a.fetch(ctx, s, req.UserID)
	report.DurationMs = time.Since(start).Milliseconds()
	observability.SourceDuration.WithLabelValues(s.name).Observe(time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observability.SourceRequestsTotal.WithLabelValues(s.name, "error").Inc()
		a.logger.Warn("source read failed",
			zap.String("source", s.name),
			zap.String("request_id", req.RequestID),
			zap.Error(err),
		)
		report.Status = models.SourceFailed
		report.Error = err.Error()
		return sourceResult{report: report}
	}

	hits := s.match(docs, query)
	observability.SourceRequestsTotal.WithLabelValues(s.name, "ok").Inc()
	observability.SourceHits.WithLabelValues(s.name).Observe(float64(len(hits)))
	span.SetAttributes(attribute.Int("documents", len(docs)), attribute.Int("hits", len(hits)))

	report.Status = models.SourceOK
	report.Hits = len(hits)
	return sourceResult{hits: hits, report: report}
}

// fetch reads the documents for one source. For the inventory source the
// user is first resolved to the shop they own; no shop means no documents.
func (a *Aggregator) fetch(ctx context.Context, s source, userID string) ([]models.Document, error) {
	collection := s.cfg.Collection
	if s.inventory {
		shopID, err := a.resolveShop(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("resolving shop owner: %w", err)
		}
		if shopID == "" {
			return nil, nil
		}
		collection = a.inventory.OwnerCollection + "/" + shopID + "/" + s.cfg.Collection
	}
	return a.read(ctx, s.name, collection, s.options())
}

// read runs one store query behind the source's breaker, retrying transient
// errors. An open breaker fails fast.
func (a *Aggregator) read(ctx context.Context, name, collection string, opts models.QueryOptions) ([]models.Document, error) {
	cb := a.breakers[name]
	out, err := cb.Execute(func() (interface{}, error) {
		var docs []models.Document
		err := resilience.Retry(ctx, a.retry, func() error {
			var qerr error
			docs, qerr = a.store.Query(ctx, collection, opts)
			if qerr != nil && ctx.Err() != nil {
				return resilience.Permanent(qerr)
			}
			return qerr
		})
		return docs, err
	})
	if err != nil {
		return nil, err
	}
	return out.([]models.Document), nil
}

// resolveShop returns the id of the shop owned by userID, or "" when the
// user owns no shop in an eligible status.
func (a *Aggregator) resolveShop(ctx context.Context, userID string) (string, error) {
	if a.owners != nil {
		shopID, found, err := a.owners.GetShopOwner(ctx, userID)
		if err != nil {
			a.logger.Warn("owner cache lookup failed", zap.Error(err))
		} else if found {
			return shopID, nil
		}
	}

	inv := a.inventory
	docs, err := a.read(ctx, sourceShopOwner, inv.OwnerCollection, models.QueryOptions{
		Equals: map[string]any{inv.OwnerField: userID},
		Limit:  10,
	})
	if err != nil {
		return "", err
	}

	shopID := ""
	for _, d := range docs {
		if eligibleOwner(d, inv) {
			shopID = d.ID
			break
		}
	}

	if a.owners != nil {
		if err := a.owners.SetShopOwner(ctx, userID, shopID); err != nil {
			a.logger.Warn("owner cache set failed", zap.Error(err))
		}
	}
	return shopID, nil
}

func eligibleOwner(d models.Document, inv config.InventoryConfig) bool {
	if inv.StatusField == "" || len(inv.OwnerStatuses) == 0 {
		return true
	}
	status := d.Get(inv.StatusField)
	for _, s := range inv.OwnerStatuses {
		if status == s {
			return true
		}
	}
	return false
}

// merge concatenates local hits and source hits in source order, keeps the
// first hit per (id, type) and truncates to limit.
func merge(local []models.Hit, results []sourceResult, limit int) (hits []models.Hit, dropped int, truncated bool) {
	total := len(local)
	for _, r := range results {
		total += len(r.hits)
	}

	seen := make(map[models.Key]struct{}, total)
	hits = make([]models.Hit, 0, total)
	add := func(h models.Hit) {
		if _, dup := seen[h.Key()]; dup {
			dropped++
			return
		}
		seen[h.Key()] = struct{}{}
		hits = append(hits, h)
	}

	for _, h := range local {
		add(h)
	}
	for _, r := range results {
		for _, h := range r.hits {
			add(h)
		}
	}

	if len(hits) > limit {
		hits = hits[:limit]
		truncated = true
	}
	return hits, dropped, truncated
}
