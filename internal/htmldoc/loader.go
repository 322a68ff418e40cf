package htmldoc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Source describes where a page comes from. URL wins over Path, and Path
// over Stdin.
type Source struct {
	URL   string
	Path  string
	Stdin io.Reader
}

// Loader reads pages with a shared timeout policy for remote fetches.
type Loader struct {
	client  *http.Client
	timeout time.Duration
}

// NewLoader creates a Loader. A nil client uses http.DefaultClient.
func NewLoader(client *http.Client, timeout time.Duration) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{client: client, timeout: timeout}
}

// Load returns the raw HTML of src.
//
// Non-2xx responses fail with the status code and up to 4KB of the body.
func (l *Loader) Load(ctx context.Context, src Source) (string, error) {
	switch {
	case strings.TrimSpace(src.URL) != "":
		return l.fetch(ctx, src.URL)
	case strings.TrimSpace(src.Path) != "":
		b, err := os.ReadFile(src.Path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", src.Path, err)
		}
		return string(b), nil
	case src.Stdin != nil:
		b, err := io.ReadAll(src.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	return "", nil
}

// Open loads src and parses it.
func (l *Loader) Open(ctx context.Context, src Source, opts ...Option) (*Document, error) {
	raw, err := l.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	return ParseString(raw, opts...)
}

func (l *Loader) fetch(ctx context.Context, url string) (string, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", "autofill/1.0")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(b), nil
}
