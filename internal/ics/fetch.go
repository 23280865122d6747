package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/google/renameio"

	appLog "schoolclock/internal/log"
)

const defaultFetchTimeout = 15 * time.Second

// cacheMeta is stored next to a cached feed body.
type cacheMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher downloads calendar feeds with conditional requests and keeps the
// last good body on disk, so a holiday feed that goes offline keeps
// working.
type Fetcher struct {
	client *http.Client
	dir    string
}

// NewFetcher returns a fetcher caching under dir. A zero timeout means 15s.
func NewFetcher(dir string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		dir:    dir,
	}
}

// Fetch returns the body of the feed at rawURL. On network failures and
// non-OK responses the cached body is returned instead, if there is one.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (body []byte, err error) {
	defer func() { err = errors.Annotate(err, "fetching %s: %w", redactURL(rawURL)) }()

	if rawURL == "" {
		return nil, errors.Error("empty url")
	}

	dir := f.entryDir(rawURL)
	meta, cached := f.readCache(dir)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if len(cached) > 0 {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fallback(cached, rawURL, err)
	}
	defer func() { err = errors.WithDeferred(err, resp.Body.Close()) }()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fallback(cached, rawURL, err)
		}
		meta = cacheMeta{
			URL:          rawURL,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			UpdatedAt:    time.Now().UTC(),
		}
		if werr := f.writeCache(dir, meta, body); werr != nil {
			appLog.Error("ics cache write failed", werr, "url", redactURL(rawURL))
		}
		appLog.Debug("ics feed fetched", "url", redactURL(rawURL), "bytes", len(body))
		return body, nil
	case http.StatusNotModified:
		if len(cached) == 0 {
			return nil, errors.Error("not modified, but nothing is cached")
		}
		appLog.Debug("ics feed not modified", "url", redactURL(rawURL))
		return cached, nil
	default:
		return fallback(cached, rawURL, errors.Error(resp.Status))
	}
}

func fallback(cached []byte, rawURL string, cause error) ([]byte, error) {
	if len(cached) == 0 {
		return nil, cause
	}
	appLog.Warn("ics feed unavailable, using cache", "url", redactURL(rawURL), "err", cause)
	return cached, nil
}

func (f *Fetcher) entryDir(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return filepath.Join(f.dir, hex.EncodeToString(sum[:8]))
}

func (f *Fetcher) readCache(dir string) (meta cacheMeta, body []byte) {
	body, err := os.ReadFile(filepath.Join(dir, "body.ics"))
	if err != nil {
		return cacheMeta{}, nil
	}
	data, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	if err == nil {
		_ = json.Unmarshal(data, &meta)
	}
	return meta, body
}

// writeCache writes the body before the metadata so the metadata never
// describes a body that is not there.
func (f *Fetcher) writeCache(dir string, meta cacheMeta, body []byte) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	if err := renameio.WriteFile(filepath.Join(dir, "body.ics"), body, 0o600); err != nil {
		return err
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return renameio.WriteFile(filepath.Join(dir, "meta.json"), data, 0o600)
}

// redactURL keeps only the scheme and host, since feed URLs often carry
// private tokens.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "ics://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}
