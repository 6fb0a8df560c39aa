package dataset

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"koox.dev/busrouter/internal/logging"
	"koox.dev/busrouter/internal/routing"
)

const maxDownloadSize = 200 * 1024 * 1024

var zipMagic = []byte("PK\x03\x04")

// IsLocalFile reports whether source is a filesystem path rather than a URL.
func IsLocalFile(source string) bool {
	return !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://")
}

// Fetch reads source from disk or downloads it. The auth header is only sent
// when both key and value are set.
func Fetch(ctx context.Context, source, authHeaderKey, authHeaderValue string) ([]byte, error) {
	if IsLocalFile(source) {
		b, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("error reading local dataset file: %w", err)
		}
		return b, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating dataset request: %w", err)
	}
	if authHeaderKey != "" && authHeaderValue != "" {
		req.Header.Set(authHeaderKey, authHeaderValue)
	}

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error downloading dataset: %w", err)
	}
	defer logging.SafeCloseWithLogging(resp.Body,
		slog.Default().With(slog.String("component", "dataset_downloader")),
		"http_response_body")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("error downloading dataset: unexpected status %d", resp.StatusCode)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("error reading dataset: %w", err)
	}
	if len(b) > maxDownloadSize {
		return nil, fmt.Errorf("dataset exceeds %d bytes", maxDownloadSize)
	}
	return b, nil
}

// Parse decodes raw dataset bytes: a zip is treated as GTFS, anything else as
// the JSON stop format (optionally gzip-compressed).
func Parse(data []byte) ([]routing.Stop, error) {
	if bytes.HasPrefix(data, zipMagic) {
		return LoadGTFS(data)
	}
	return LoadJSON(bytes.NewReader(data))
}

// Source is a dataset location usable as a routing.Loader.
type Source struct {
	URL             string
	AuthHeaderKey   string
	AuthHeaderValue string
}

// LoadStops fetches and parses the dataset.
func (s Source) LoadStops(ctx context.Context) ([]routing.Stop, error) {
	data, err := Fetch(ctx, s.URL, s.AuthHeaderKey, s.AuthHeaderValue)
	if err != nil {
		return nil, err
	}
	stops, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("error parsing dataset %s: %w", s.URL, err)
	}
	return stops, nil
}
