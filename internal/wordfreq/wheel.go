// Package wordfreq reads the wordfreq dataset, shipped as a Python wheel, to
// derive word lists and letter-frequency profiles.
package wordfreq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultEndpoint is the PyPI JSON API for the wordfreq project.
const DefaultEndpoint = "https://pypi.org/pypi/wordfreq/json"

// Wheel is a wordfreq wheel on disk.
type Wheel struct {
	Version  string
	Path     string
	Filename string
	// Cached is set when the wheel was already present.
	Cached bool
}

// Client resolves and downloads wordfreq releases.
type Client struct {
	HTTP     *http.Client
	Endpoint string
}

// NewClient returns a client for the public PyPI index.
func NewClient() *Client {
	return &Client{
		HTTP:     &http.Client{Timeout: 60 * time.Second},
		Endpoint: DefaultEndpoint,
	}
}

type release struct {
	Info struct {
		Version string `json:"version"`
	} `json:"info"`
	URLs []releaseFile `json:"urls"`
}

type releaseFile struct {
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	PackageType string `json:"packagetype"`
}

// wheelFile prefers the pure-Python wheel, then any wheel.
func (r release) wheelFile() (releaseFile, bool) {
	var fallback *releaseFile
	for i, f := range r.URLs {
		if f.PackageType != "bdist_wheel" {
			continue
		}
		if strings.HasSuffix(f.Filename, "py3-none-any.whl") {
			return f, true
		}
		if fallback == nil {
			fallback = &r.URLs[i]
		}
	}
	if fallback == nil {
		return releaseFile{}, false
	}
	return *fallback, true
}

// DownloadLatestWheel fetches the newest wordfreq wheel into cacheDir with the
// default client.
func DownloadLatestWheel(ctx context.Context, cacheDir string) (Wheel, error) {
	return NewClient().LatestWheel(ctx, cacheDir)
}

// LatestWheel returns the newest release's wheel, downloading it into
// cacheDir unless a file of the same name is already there.
func (c *Client) LatestWheel(ctx context.Context, cacheDir string) (Wheel, error) {
	if cacheDir == "" {
		return Wheel{}, fmt.Errorf("cache directory is required")
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return Wheel{}, fmt.Errorf("failed to create cache dir: %w", err)
	}

	var rel release
	if err := c.fetch(ctx, c.Endpoint, func(body io.Reader) error {
		return json.NewDecoder(body).Decode(&rel)
	}); err != nil {
		return Wheel{}, fmt.Errorf("failed to query release: %w", err)
	}
	if rel.Info.Version == "" {
		return Wheel{}, fmt.Errorf("missing version in release metadata")
	}
	file, ok := rel.wheelFile()
	if !ok {
		return Wheel{}, fmt.Errorf("no wheel in wordfreq %s", rel.Info.Version)
	}

	wheel := Wheel{Version: rel.Info.Version, Filename: file.Filename, Path: filepath.Join(cacheDir, file.Filename)}
	if _, err := os.Stat(wheel.Path); err == nil {
		wheel.Cached = true
		return wheel, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return Wheel{}, fmt.Errorf("failed to stat cached wheel: %w", err)
	}

	tmp, err := os.CreateTemp(cacheDir, "wordfreq-*.whl")
	if err != nil {
		return Wheel{}, fmt.Errorf("failed to create temp wheel: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()
	if err := c.fetch(ctx, file.URL, func(body io.Reader) error {
		_, err := io.Copy(tmp, body)
		return err
	}); err != nil {
		return Wheel{}, fmt.Errorf("failed to download wheel: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Wheel{}, fmt.Errorf("failed to close temp wheel: %w", err)
	}
	if err := os.Rename(tmpPath, wheel.Path); err != nil {
		return Wheel{}, fmt.Errorf("failed to move wheel into cache: %w", err)
	}
	return wheel, nil
}

func (c *Client) fetch(ctx context.Context, url string, read func(io.Reader) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return err
	}
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s from %s", resp.Status, url)
	}
	return read(resp.Body)
}
