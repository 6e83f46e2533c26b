package firestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/repairhub/repair-search/internal/config"
	"github.com/repairhub/repair-search/internal/models"
	"github.com/repairhub/repair-search/internal/observability"
	"github.com/repairhub/repair-search/internal/resilience"
)

type Client struct {
	client *firestore.Client
	cfg    config.FirestoreConfig
	logger *zap.Logger
}

func NewClient(ctx context.Context, cfg config.FirestoreConfig, logger *zap.Logger) (*Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	logger.Info("firestore client connected", zap.String("project", cfg.ProjectID))

	return &Client{
		client: client,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Query reads up to opts.Limit documents from collection, applying only the
// equality filters. collection may be a slash-separated sub-collection path
// such as "shops/abc/inventory".
func (c *Client) Query(ctx context.Context, collection string, opts models.QueryOptions) ([]models.Document, error) {
	ctx, span := observability.StartSpan(ctx, "firestore.query",
		attribute.String("collection", collection),
		attribute.Int("limit", opts.Limit),
		attribute.Int("filters", len(opts.Equals)),
	)
	defer span.End()

	if c.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()
	}

	ref := c.client.Collection(collection)
	if ref == nil {
		return nil, resilience.Permanent(fmt.Errorf("firestore: invalid collection path %q", collection))
	}
	q := ref.Query
	// Filters are applied in key order so identical reads build identical
	// queries.
	for _, field := range sortedKeys(opts.Equals) {
		q = q.Where(field, "==", opts.Equals[field])
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var docs []models.Document
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "query failed")
			return nil, classify(fmt.Errorf("firestore query %s: %w", collection, err))
		}
		docs = append(docs, models.Document{
			ID:     snap.Ref.ID,
			Fields: snap.Data(),
		})
	}

	span.SetAttributes(attribute.Int("documents", len(docs)))
	return docs, nil
}

// classify marks errors that retrying cannot fix.
func classify(err error) error {
	switch status.Code(err) {
	case grpccodes.PermissionDenied, grpccodes.Unauthenticated, grpccodes.InvalidArgument,
		grpccodes.NotFound, grpccodes.FailedPrecondition:
		return resilience.Permanent(err)
	default:
		return err
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	iter := c.client.Collection("_health_check").Limit(1).Documents(ctx)
	defer iter.Stop()

	_, err := iter.Next()
	// iterator.Done means the collection is empty; Firestore is reachable.
	if err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("firestore health check: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
