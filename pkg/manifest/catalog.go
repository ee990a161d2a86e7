package manifest

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/matzehuels/uvm/pkg/cache"
	"github.com/matzehuels/uvm/pkg/errors"
	"github.com/matzehuels/uvm/pkg/observability"
	"github.com/matzehuels/uvm/pkg/version"
)

// DefaultTTL is how long a cached catalog document is used without
// asking the transport again.
const DefaultTTL = 24 * time.Hour

// Request identifies one catalog document.
type Request struct {
	Version  version.Version
	Platform Platform
	Arch     Arch
}

// Key is the cache key: version plus a fingerprint of the other request
// parameters. The hash is excluded so "2021.3.5f1" and
// "2021.3.5f1 (40eb3a945986)" share one document.
func (r Request) Key() string {
	return cache.CatalogKey(r.Version.String(), string(r.Platform), string(r.Arch))
}

// Transport fetches raw catalog documents. Implementations must return
// either a complete document or an error, never a partial document.
type Transport interface {
	FetchCatalog(ctx context.Context, req Request) (Document, error)
}

// Catalog resolves versions to manifests, caching raw documents.
type Catalog struct {
	transport Transport
	store     cache.Cache
	ttl       time.Duration
	memo      *expirable.LRU[string, *Manifest]
	logger    *log.Logger
	now       func() time.Time
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithTTL sets the document freshness window. Zero never expires.
func WithTTL(ttl time.Duration) CatalogOption {
	return func(c *Catalog) { c.ttl = ttl }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) CatalogOption {
	return func(c *Catalog) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) CatalogOption {
	return func(c *Catalog) { c.now = now }
}

// NewCatalog returns a Catalog that fetches through t and stores documents
// in store. A nil store disables caching.
func NewCatalog(t Transport, store cache.Cache, opts ...CatalogOption) *Catalog {
	if store == nil {
		store = cache.NewNullCache()
	}
	c := &Catalog{
		transport: t,
		store:     store,
		ttl:       DefaultTTL,
		logger:    log.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	memoTTL := c.ttl
	if memoTTL <= 0 {
		memoTTL = DefaultTTL
	}
	c.memo = expirable.NewLRU[string, *Manifest](32, nil, memoTTL)
	return c
}

// Fetch returns the manifest for req.
//
// A fresh cached document is parsed and returned without contacting the
// transport. Otherwise the transport is asked and the raw document is
// stored before the parsed manifest is returned. A transport failure is
// reported as CATALOG_UNAVAILABLE even when a stale document is cached;
// use [Catalog.Stale] to opt in to it.
//
// Returned manifests are shared and must not be modified.
func (c *Catalog) Fetch(ctx context.Context, req Request) (*Manifest, error) {
	key := req.Key()
	if m, ok := c.memo.Get(key); ok {
		return m, nil
	}

	entry, hit, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("catalog cache read failed", "version", req.Version, "err", err)
	}
	if hit && entry.Fresh(c.ttl, c.now()) {
		m, err := Parse(documentFromEntry(entry), req.Version, req.Platform, req.Arch)
		if err == nil {
			c.warnSkipped(req, m)
			observability.Cache().OnCacheHit(ctx, "catalog")
			c.logger.Debug("catalog from cache", "version", req.Version, "age", entry.Age(c.now()).Round(time.Second))
			c.memo.Add(key, m)
			return m, nil
		}
		c.logger.Warn("discarding unreadable cached catalog", "version", req.Version, "err", err)
		_ = c.store.Delete(ctx, key)
	}
	observability.Cache().OnCacheMiss(ctx, "catalog")

	doc, err := c.transport.FetchCatalog(ctx, req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCatalogUnavailable, err, "fetch catalog for %s", req.Version)
	}

	m, err := Parse(doc, req.Version, req.Platform, req.Arch)
	if err != nil {
		return nil, err
	}
	c.warnSkipped(req, m)

	if err := c.store.Set(ctx, key, entryFromDocument(doc, c.now())); err != nil {
		c.logger.Warn("catalog cache write failed", "version", req.Version, "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "catalog", len(doc.Body))
	}
	c.memo.Add(key, m)
	return m, nil
}

// Stale returns the cached manifest for req regardless of its age,
// together with the time the document was fetched. It never contacts the
// transport. A missing document is NOT_FOUND.
func (c *Catalog) Stale(ctx context.Context, req Request) (*Manifest, time.Time, error) {
	entry, hit, err := c.store.Get(ctx, req.Key())
	if err != nil {
		return nil, time.Time{}, errors.Wrap(errors.ErrCodeNotFound, err, "read cached catalog for %s", req.Version)
	}
	if !hit {
		return nil, time.Time{}, errors.New(errors.ErrCodeNotFound, "no cached catalog for %s", req.Version)
	}
	m, err := Parse(documentFromEntry(entry), req.Version, req.Platform, req.Arch)
	if err != nil {
		return nil, time.Time{}, err
	}
	return m, entry.FetchedAt, nil
}

func (c *Catalog) warnSkipped(req Request, m *Manifest) {
	for _, s := range m.Skipped {
		c.logger.Warn("skipping catalog module", "version", req.Version, "id", s.ID, "err", s.Err)
	}
}

// Invalidate drops the cached document for req.
func (c *Catalog) Invalidate(ctx context.Context, req Request) error {
	c.memo.Remove(req.Key())
	return c.store.Delete(ctx, req.Key())
}

func entryFromDocument(doc Document, now time.Time) cache.Entry {
	return cache.Entry{
		Data:      doc.Body,
		FetchedAt: now,
		Meta: map[string]string{
			"format":   string(doc.Format),
			"base_url": doc.BaseURL,
		},
	}
}

func documentFromEntry(e cache.Entry) Document {
	return Document{
		Format:  DocumentFormat(e.Meta["format"]),
		BaseURL: e.Meta["base_url"],
		Body:    e.Data,
	}
}
