package manifest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/matzehuels/uvm/pkg/httputil"
)

// Default catalog endpoints.
const (
	DefaultAPIURL    = "https://services.api.unity.com/unity/editor/release/v1"
	DefaultMirrorURL = "https://download.unity3d.com/download_unity"
)

// HTTPTransport fetches catalog documents over HTTP.
//
// By default it asks the release API for the module-tree document. With
// PreferINI set and a version that carries its build hash, it fetches the
// flat per-platform document from the download mirror instead, which is
// also where older releases are published.
type HTTPTransport struct {
	Client    *http.Client
	APIURL    string
	MirrorURL string
	PreferINI bool
}

// NewHTTPTransport returns a transport using the default endpoints.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = httputil.NewClient()
	}
	return &HTTPTransport{Client: client, APIURL: DefaultAPIURL, MirrorURL: DefaultMirrorURL}
}

// FetchCatalog implements [Transport].
func (t *HTTPTransport) FetchCatalog(ctx context.Context, req Request) (Document, error) {
	doc := Document{Format: FormatJSON}
	var target string

	if t.PreferINI && req.Version.Hash != "" {
		base := strings.TrimSuffix(t.MirrorURL, "/") + "/" + req.Version.Hash + "/"
		target = base + fmt.Sprintf("unity-%s-%s.ini", req.Version, iniPlatformName(req.Platform))
		doc.Format = FormatINI
		doc.BaseURL = base
	} else {
		q := url.Values{}
		q.Set("platform", string(req.Platform))
		q.Set("architecture", string(req.Arch))
		target = strings.TrimSuffix(t.APIURL, "/") + "/releases/" + url.PathEscape(req.Version.String()) + "?" + q.Encode()
	}

	err := httputil.RetryWithBackoff(ctx, func() error {
		body, err := t.get(ctx, target)
		if err != nil {
			return err
		}
		doc.Body = body
		return nil
	})
	if err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (t *HTTPTransport) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, httputil.Transient(fmt.Errorf("%w: %v", httputil.ErrNetwork, err))
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus(resp); err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, httputil.Transient(fmt.Errorf("%w: reading body: %v", httputil.ErrNetwork, err))
	}
	return body, nil
}

func iniPlatformName(p Platform) string {
	switch p {
	case MacOS:
		return "osx"
	case WindowsOS:
		return "win"
	}
	return string(p)
}
