package manifest

import (
	"bytes"
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/uvm/pkg/cache"
	"github.com/matzehuels/uvm/pkg/errors"
	"github.com/matzehuels/uvm/pkg/version"
)

type fakeTransport struct {
	calls atomic.Int32
	doc   Document
	err   error
}

func (f *fakeTransport) FetchCatalog(ctx context.Context, req Request) (Document, error) {
	f.calls.Add(1)
	if f.err != nil {
		return Document{}, f.err
	}
	return f.doc, nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func testRequest() Request {
	return Request{Version: version.MustParse("2021.3.5f1"), Platform: MacOS, Arch: AMD64}
}

func TestCatalogFetchStoresDocument(t *testing.T) {
	ctx := context.Background()
	store, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	tr := &fakeTransport{doc: Document{Format: FormatJSON, Body: []byte(releaseCatalog)}}

	c := NewCatalog(tr, store)
	m, err := c.Fetch(ctx, testRequest())
	require.NoError(t, err)
	assert.Equal(t, int32(1), tr.calls.Load())
	_, ok := m.Get(Android)
	assert.True(t, ok)

	entry, hit, err := store.Get(ctx, testRequest().Key())
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, releaseCatalog, string(entry.Data))
	assert.Equal(t, "json", entry.Meta["format"])
}

func TestCatalogUsesFreshCache(t *testing.T) {
	ctx := context.Background()
	store, _ := cache.NewFileCache(t.TempDir())
	clk := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	tr := &fakeTransport{doc: Document{Format: FormatJSON, Body: []byte(releaseCatalog)}}

	_, err := NewCatalog(tr, store, WithClock(clk.now)).Fetch(ctx, testRequest())
	require.NoError(t, err)

	// A new Catalog has an empty memo, so this exercises the document cache.
	clk.t = clk.t.Add(time.Hour)
	m, err := NewCatalog(tr, store, WithClock(clk.now)).Fetch(ctx, testRequest())
	require.NoError(t, err)
	assert.Equal(t, int32(1), tr.calls.Load(), "fresh document should not hit the transport")
	_, ok := m.Get(AndroidNDK)
	assert.True(t, ok)
}

func TestCatalogRefetchesExpiredDocument(t *testing.T) {
	ctx := context.Background()
	store, _ := cache.NewFileCache(t.TempDir())
	clk := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	tr := &fakeTransport{doc: Document{Format: FormatJSON, Body: []byte(releaseCatalog)}}

	_, err := NewCatalog(tr, store, WithClock(clk.now), WithTTL(time.Hour)).Fetch(ctx, testRequest())
	require.NoError(t, err)

	clk.t = clk.t.Add(2 * time.Hour)
	_, err = NewCatalog(tr, store, WithClock(clk.now), WithTTL(time.Hour)).Fetch(ctx, testRequest())
	require.NoError(t, err)
	assert.Equal(t, int32(2), tr.calls.Load())

	entry, _, _ := store.Get(ctx, testRequest().Key())
	assert.Equal(t, clk.t, entry.FetchedAt.UTC(), "refetch should refresh the timestamp")
}

func TestCatalogDoesNotFallBackToStale(t *testing.T) {
	ctx := context.Background()
	store, _ := cache.NewFileCache(t.TempDir())
	clk := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	good := &fakeTransport{doc: Document{Format: FormatJSON, Body: []byte(releaseCatalog)}}

	_, err := NewCatalog(good, store, WithClock(clk.now), WithTTL(time.Hour)).Fetch(ctx, testRequest())
	require.NoError(t, err)

	clk.t = clk.t.Add(48 * time.Hour)
	down := &fakeTransport{err: stderrors.New("dial tcp: connection refused")}
	c := NewCatalog(down, store, WithClock(clk.now), WithTTL(time.Hour))

	_, err = c.Fetch(ctx, testRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeCatalogUnavailable))

	m, fetchedAt, err := c.Stale(ctx, testRequest())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), fetchedAt.UTC())
	_, ok := m.Get(Android)
	assert.True(t, ok)
}

func TestCatalogStaleMiss(t *testing.T) {
	c := NewCatalog(&fakeTransport{}, cache.NewNullCache())
	_, _, err := c.Stale(context.Background(), testRequest())
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func TestCatalogDoesNotCacheInvalidDocuments(t *testing.T) {
	ctx := context.Background()
	store, _ := cache.NewFileCache(t.TempDir())
	tr := &fakeTransport{doc: Document{Format: FormatJSON, Body: []byte(`{"platforms": []}`)}}

	_, err := NewCatalog(tr, store).Fetch(ctx, testRequest())
	require.Error(t, err)

	_, hit, _ := store.Get(ctx, testRequest().Key())
	assert.False(t, hit)
}

func TestCatalogMemoizes(t *testing.T) {
	tr := &fakeTransport{doc: Document{Format: FormatJSON, Body: []byte(releaseCatalog)}}
	c := NewCatalog(tr, nil)

	a, err := c.Fetch(context.Background(), testRequest())
	require.NoError(t, err)
	b, err := c.Fetch(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, int32(1), tr.calls.Load())

	require.NoError(t, c.Invalidate(context.Background(), testRequest()))
	_, err = c.Fetch(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, int32(2), tr.calls.Load())
}

func TestRequestKeyIgnoresHash(t *testing.T) {
	a := Request{Version: version.MustParse("2021.3.5f1"), Platform: MacOS, Arch: AMD64}
	b := Request{Version: version.MustParse("2021.3.5f1 (40eb3a945986)"), Platform: MacOS, Arch: AMD64}
	c := Request{Version: version.MustParse("2021.3.5f1"), Platform: LinuxOS, Arch: AMD64}

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestCatalogWarnsAboutSkippedModules(t *testing.T) {
	body := "[Unity]\nurl=Unity.pkg\n\n[Visual Studio Tools]\nurl=vs.pkg\n"
	tr := &fakeTransport{doc: Document{Format: FormatINI, Body: []byte(body)}}

	var buf bytes.Buffer
	c := NewCatalog(tr, cache.NewNullCache(), WithLogger(log.New(&buf)))
	m, err := c.Fetch(context.Background(), testRequest())
	require.NoError(t, err)

	_, ok := m.Editor()
	assert.True(t, ok)
	assert.Contains(t, buf.String(), "skipping catalog module")
	assert.Contains(t, buf.String(), "Visual Studio Tools")
}
