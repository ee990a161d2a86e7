package manifest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/uvm/pkg/httputil"
	"github.com/matzehuels/uvm/pkg/version"
)

func TestHTTPTransportRelease(t *testing.T) {
	var gotPath, gotPlatform string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotPlatform = r.URL.Query().Get("platform")
		_, _ = w.Write([]byte(releaseCatalog))
	}))
	defer srv.Close()

	tr := NewHTTPTransport(nil)
	tr.APIURL = srv.URL + "/v1"

	doc, err := tr.FetchCatalog(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "/v1/releases/2021.3.5f1", gotPath)
	assert.Equal(t, "mac", gotPlatform)
	assert.Equal(t, FormatJSON, doc.Format)
	assert.Equal(t, releaseCatalog, string(doc.Body))
}

func TestHTTPTransportFlat(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(flatCatalog))
	}))
	defer srv.Close()

	tr := NewHTTPTransport(nil)
	tr.MirrorURL = srv.URL
	tr.PreferINI = true

	req := Request{Version: version.MustParse("2018.2.0f2 (787658998520)"), Platform: MacOS, Arch: AMD64}
	doc, err := tr.FetchCatalog(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "/787658998520/unity-2018.2.0f2-osx.ini", gotPath)
	assert.Equal(t, FormatINI, doc.Format)
	assert.Equal(t, srv.URL+"/787658998520/", doc.BaseURL)

	m, err := Parse(doc, req.Version, req.Platform, req.Arch)
	require.NoError(t, err)
	editor, _ := m.Editor()
	assert.Equal(t, srv.URL+"/787658998520/MacEditorInstaller/Unity-2018.2.0f2.pkg", editor.DownloadURL)
}

func TestHTTPTransportNotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	tr := NewHTTPTransport(nil)
	tr.APIURL = srv.URL

	_, err := tr.FetchCatalog(context.Background(), testRequest())
	require.ErrorIs(t, err, httputil.ErrNotFound)
	assert.Equal(t, int32(1), calls.Load())
}
