package loader

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/edgeflare/pgrag/pkg/httputil"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// HTTPFetcher fetches web pages and extracts their visible text.
// Requests fail fast: no retries, a single attempt bounded by Timeout.
type HTTPFetcher struct {
	logger  *zap.Logger
	Timeout time.Duration
}

// NewHTTPFetcher returns an HTTPFetcher with a 30s per-request timeout.
func NewHTTPFetcher(loggers ...*zap.Logger) *HTTPFetcher {
	var logger *zap.Logger
	if len(loggers) > 0 && loggers[0] != nil {
		logger = loggers[0]
	} else {
		logger = zap.NewNop()
	}
	return &HTTPFetcher{Timeout: 30 * time.Second, logger: logger}
}

// Fetch performs a GET request and, for HTML responses, strips markup down to
// the page title and visible text. Non-HTML responses are returned verbatim.
func (f *HTTPFetcher) Fetch(ctx context.Context, source string) (string, string, error) {
	cfg := httputil.DefaultRequestConfig(http.MethodGet, source)
	cfg.Timeout = f.Timeout
	cfg.RetryEnabled = false
	cfg.Logger = f.logger

	resp, err := httputil.Request(ctx, cfg, nil)
	if err != nil {
		return "", "", err
	}

	contentType := resp.Headers.Get("Content-Type")
	if !strings.Contains(contentType, "html") {
		return "", string(resp.Body), nil
	}

	title, text, err := extractHTML(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse HTML from %s: %w", source, err)
	}
	return title, text, nil
}

// extractHTML walks the parse tree collecting text nodes, skipping
// non-content elements, and capturing the first <title>.
func extractHTML(body []byte) (string, string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}

	var title string
	var b strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "template", "iframe":
				return
			case "title":
				if title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				b.WriteString(t)
				b.WriteByte('\n')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return title, b.String(), nil
}
