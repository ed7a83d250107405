package html

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxHTMLBytes = int64(2 * 1024 * 1024)
	maxTextChars = 8000
)

var ErrNoContent = errors.New("empty article content")

// FetchArticleText downloads the page a post links to and returns the text
// of its article (or main) element, at most maxTextChars runes.
func FetchArticleText(ctx context.Context, url string, timeout time.Duration) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := (&http.Client{Timeout: timeout}).Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("article returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxHTMLBytes))
	if err != nil {
		return "", fmt.Errorf("failed to parse article: %w", err)
	}

	text := readableText(doc, "article", "main")
	if text == "" {
		return "", ErrNoContent
	}
	return truncate(text, maxTextChars), nil
}
