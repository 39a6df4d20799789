package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/goccy/go-json"
	"github.com/hyp3rd/ewrap"
	"gopkg.in/yaml.v3"

	"github.com/hyp3rd/cacheservice/internal/sentinel"
)

type format int

const (
	formatJSON format = iota
	formatYAML
)

// Load fetches and parses the document at location with a default HTTP client.
func Load(ctx context.Context, location string) (Document, error) {
	return NewRegistry().Load(ctx, location)
}

// Load fetches and parses the document at location. Fetch failures are
// sentinel.ErrBootstrapUnreadable, parse and validation failures sentinel.ErrBootstrapInvalid.
func (r *Registry) Load(ctx context.Context, location string) (Document, error) {
	data, fmtHint, err := r.fetch(ctx, location)
	if err != nil {
		return Document{}, err
	}

	doc, err := decode(data, fmtHint)
	if err != nil {
		return Document{}, ewrap.Wrapf(sentinel.ErrBootstrapInvalid, "%s: %v", location, err)
	}

	err = doc.Validate()
	if err != nil {
		return Document{}, err
	}

	return doc, nil
}

func (r *Registry) fetch(ctx context.Context, location string) ([]byte, format, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, formatJSON, ewrap.Wrap(sentinel.ErrBootstrapUnreadable, "empty location")
	}

	u, err := url.Parse(location)
	if err != nil {
		return nil, formatJSON, ewrap.Wrapf(sentinel.ErrBootstrapUnreadable, "%s: %v", location, err)
	}

	switch u.Scheme {
	case "http", "https":
		return r.fetchHTTP(ctx, u)
	case "file":
		p := u.Path
		if p == "" {
			p = u.Opaque
		}

		return readFile(p)
	case "":
		return readFile(location)
	default:
		return nil, formatJSON, ewrap.Wrapf(sentinel.ErrBootstrapUnreadable, "unsupported scheme %q", u.Scheme)
	}
}

func (r *Registry) fetchHTTP(ctx context.Context, u *url.URL) ([]byte, format, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, formatJSON, ewrap.Wrapf(sentinel.ErrBootstrapUnreadable, "%s: %v", u, err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, formatJSON, ewrap.Wrapf(sentinel.ErrBootstrapUnreadable, "%s: %v", u, err)
	}

	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, formatJSON, ewrap.Wrapf(sentinel.ErrBootstrapUnreadable, "%s: status %d", u, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, formatJSON, ewrap.Wrapf(sentinel.ErrBootstrapUnreadable, "%s: %v", u, err)
	}

	if strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "yaml") {
		return data, formatYAML, nil
	}

	return data, formatFor(u.Path), nil
}

func readFile(p string) ([]byte, format, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, formatJSON, ewrap.Wrapf(sentinel.ErrBootstrapUnreadable, "%s: %v", p, err)
	}

	return data, formatFor(p), nil
}

func formatFor(p string) format {
	switch strings.ToLower(path.Ext(p)) {
	case ".yaml", ".yml":
		return formatYAML
	default:
		return formatJSON
	}
}

func decode(data []byte, f format) (Document, error) {
	var doc Document

	if f == formatYAML {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)

		err := dec.Decode(&doc)
		if err != nil && !errors.Is(err, io.EOF) {
			return Document{}, err
		}

		return doc, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	err := dec.Decode(&doc)
	if err != nil {
		return Document{}, err
	}

	return doc, nil
}
