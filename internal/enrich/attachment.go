package enrich

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoAttachment reports that the detail page carries no document link.
var ErrNoAttachment = errors.New("no attachment on detail page")

// documentExtensions are the attachment formats the extractor understands.
var documentExtensions = []string{".pdf"}

// maxAttachmentBytes caps the downloaded attachment size.
const maxAttachmentBytes = 20 << 20

// HTTPLocator scans a record's detail page for the first link pointing to
// a known document format and downloads it.
type HTTPLocator struct {
	base      *url.URL
	userAgent string
	client    *http.Client
}

// NewHTTPLocator builds a locator resolving relative links against baseURL.
func NewHTTPLocator(baseURL, userAgent string, timeout time.Duration) (*HTTPLocator, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPLocator{
		base:      base,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

// Locate fetches the detail page and returns the absolute URL of the
// first document link, or ErrNoAttachment when none exists.
func (l *HTTPLocator) Locate(ctx context.Context, detailURL string) (string, error) {
	if detailURL == "" {
		return "", ErrNoAttachment
	}

	body, err := l.get(ctx, detailURL)
	if err != nil {
		return "", fmt.Errorf("fetch detail page: %w", err)
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return "", fmt.Errorf("parse detail page: %w", err)
	}

	found := ""
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if !isDocumentLink(href) {
			return true
		}
		found = l.absoluteURL(href)
		return false
	})

	if found == "" {
		return "", ErrNoAttachment
	}
	return found, nil
}

// Fetch downloads the attachment bytes.
func (l *HTTPLocator) Fetch(ctx context.Context, attachmentURL string) ([]byte, error) {
	body, err := l.get(ctx, attachmentURL)
	if err != nil {
		return nil, fmt.Errorf("fetch attachment: %w", err)
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, maxAttachmentBytes))
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}
	return data, nil
}

func (l *HTTPLocator) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", l.userAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func (l *HTTPLocator) absoluteURL(href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return l.base.ResolveReference(ref).String()
}

func isDocumentLink(href string) bool {
	if href == "" {
		return false
	}
	// Strip query/fragment before checking the extension.
	if u, err := url.Parse(href); err == nil {
		href = u.Path
	}
	lower := strings.ToLower(href)
	for _, ext := range documentExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
