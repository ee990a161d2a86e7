package manifest

import (
	"net/url"
	"strings"

	"github.com/matzehuels/uvm/pkg/errors"
	"github.com/matzehuels/uvm/pkg/version"
)

// DocumentFormat identifies which historical catalog shape a document uses.
type DocumentFormat string

// Catalog document shapes.
const (
	// FormatINI is the flat shape: one INI section per component.
	FormatINI DocumentFormat = "ini"
	// FormatJSON is the release shape: per-platform module trees.
	FormatJSON DocumentFormat = "json"
)

// Document is a raw catalog document as returned by a [Transport].
type Document struct {
	Format DocumentFormat
	// BaseURL resolves relative download URLs (flat shape only).
	BaseURL string
	Body    []byte
}

// Parse normalizes doc into a Manifest for v on platform p and architecture
// a, then appends the synthesized modules (see [Synthesize]).
func Parse(doc Document, v version.Version, p Platform, a Arch) (*Manifest, error) {
	var (
		m   *Manifest
		err error
	)
	switch doc.Format {
	case FormatINI:
		m, err = parseINI(doc, v, p)
	case FormatJSON:
		m, err = parseJSON(doc, v, p, a)
	default:
		m, err = sniff(doc, v, p, a)
	}
	if err != nil {
		return nil, err
	}

	if _, ok := m.Editor(); !ok {
		return nil, errors.New(errors.ErrCodeInvalidCatalog, "catalog for %s on %s has no editor module", v, p)
	}
	Synthesize(m)
	return m, nil
}

// sniff picks a parser from the first non-space byte of the body.
func sniff(doc Document, v version.Version, p Platform, a Arch) (*Manifest, error) {
	body := strings.TrimSpace(string(doc.Body))
	if strings.HasPrefix(body, "{") {
		return parseJSON(doc, v, p, a)
	}
	return parseINI(doc, v, p)
}

// resolveURL resolves ref against base. Absolute refs and an empty base
// leave ref unchanged.
func resolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if base == "" || ref == "" {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil || r.IsAbs() {
		return ref
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
