package httputil

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/matzehuels/uvm/pkg/buildinfo"
)

var (
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// UserAgent is sent with every request made by clients from [NewClient].
var UserAgent = buildinfo.UserAgent()

// NewClient returns an HTTP client suited to large artifact downloads: the
// connection and header phases are bounded, the body transfer is not.
// Callers bound the overall request with a context.
func NewClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: 15 * time.Second, KeepAlive: 30 * time.Second}).DialContext
	transport.TLSHandshakeTimeout = 15 * time.Second
	transport.ResponseHeaderTimeout = 30 * time.Second
	return &http.Client{Transport: &userAgentTransport{next: transport}}
}

type userAgentTransport struct {
	next http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", UserAgent)
	}
	return t.next.RoundTrip(req)
}

// CheckStatus maps a response status to an error. Any 2xx is success.
// 404 yields [ErrNotFound]; 5xx and 429 yield a retryable [ErrNetwork].
func CheckStatus(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, resp.Request.URL)
	case code >= 500 || code == http.StatusTooManyRequests:
		return Transient(fmt.Errorf("%w: status %d", ErrNetwork, code))
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
