// Package source walks the paginated register listing and produces
// candidate records using the Colly library.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/gfiorillo/albowatch/internal/albo"
	"github.com/gfiorillo/albowatch/internal/metrics"
)

// ErrFetchFailed reports that a page fetch kept failing after the
// configured retries and the traversal stopped early. It is distinct
// from the normal end of pagination, which produces no error.
var ErrFetchFailed = errors.New("listing fetch failed")

const (
	rowSelector        = "table.master-detail-list-table tr.master-detail-list-line"
	paginationSelector = "div.pagination ul"
	detailLinkSelector = `a[title="Apri Dettaglio"]`
	nextLabel          = "Avanti"
)

// Config holds the settings for one register traversal.
type Config struct {
	BaseURL      string
	StartURL     string
	UserAgent    string
	PageDelay    time.Duration
	Timeout      time.Duration
	MaxRetries   int
	MaxPages     int
	MinRowFields int
}

// Source produces the ordered sequence of records published on the
// register. Each Produce call re-walks from the configured start URL.
type Source struct {
	cfg    Config
	base   *url.URL
	logger *zap.Logger
}

// New validates the configuration and builds a Source.
func New(cfg Config, logger *zap.Logger) (*Source, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if cfg.MinRowFields < 5 {
		cfg.MinRowFields = 5
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 50
	}
	return &Source{cfg: cfg, base: base, logger: logger}, nil
}

// traversal carries the mutable state of one Produce call. A fresh one is
// built per call so the Source itself stays reusable.
type traversal struct {
	records    []albo.Record
	page       int
	rowsOnPage int
	nextURL    string
	attempts   map[string]int
	fetchErr   error
}

// Produce fetches pages strictly sequentially, extracting one record per
// well-formed row, until pagination ends or a page cannot be fetched.
// On a fetch failure the records accumulated so far are returned together
// with ErrFetchFailed so the caller can proceed with a partial run.
func (s *Source) Produce(ctx context.Context) ([]albo.Record, error) {
	state := &traversal{attempts: make(map[string]int)}
	collector := s.initCollector(ctx, state)

	state.page = 1
	if err := collector.Visit(s.cfg.StartURL); err != nil && state.fetchErr == nil {
		state.fetchErr = err
	}
	collector.Wait()

	if state.fetchErr != nil {
		return state.records, fmt.Errorf("%w: %v", ErrFetchFailed, state.fetchErr)
	}
	return state.records, nil
}

func (s *Source) initCollector(ctx context.Context, state *traversal) *colly.Collector {
	collector := colly.NewCollector(
		colly.UserAgent(s.cfg.UserAgent),
	)
	collector.AllowURLRevisit = false
	if s.cfg.Timeout > 0 {
		collector.SetRequestTimeout(s.cfg.Timeout)
	}

	if err := collector.Limit(&colly.LimitRule{
		DomainGlob: "*",
		Delay:      s.cfg.PageDelay,
	}); err != nil {
		s.logger.Error("failed to set collector limits", zap.Error(err))
	}

	collector.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		state.rowsOnPage = 0
		state.nextURL = ""
	})

	collector.OnHTML(rowSelector, func(e *colly.HTMLElement) {
		state.rowsOnPage++
		record, ok := s.recordFromRow(e)
		if !ok {
			return
		}
		state.records = append(state.records, record)
	})

	collector.OnHTML(paginationSelector, func(e *colly.HTMLElement) {
		state.nextURL = s.nextPageURL(e.DOM)
	})

	collector.OnScraped(func(r *colly.Response) {
		s.advance(state, r)
	})

	collector.OnError(func(r *colly.Response, err error) {
		s.handleError(state, r, err)
	})

	return collector
}

// recordFromRow maps a table row to a record. Rows without the identity
// attribute or with too few cells are skipped, not errors.
func (s *Source) recordFromRow(e *colly.HTMLElement) (albo.Record, bool) {
	id := e.Attr("data-id")
	if id == "" {
		return albo.Record{}, false
	}

	cells := e.DOM.Find("td")
	if cells.Length() < s.cfg.MinRowFields {
		s.logger.Debug("skipping malformed row",
			zap.String("id", id),
			zap.Int("cells", cells.Length()),
		)
		metrics.ObserveRowSkipped()
		return albo.Record{}, false
	}

	periodStart, periodEnd := splitPeriod(cellText(cells, 3))

	detailURL := ""
	if href, ok := cells.Eq(4).Find(detailLinkSelector).Attr("href"); ok {
		detailURL = s.absoluteURL(href)
	}

	return albo.Record{
		ID:          id,
		Number:      cellText(cells, 0),
		Category:    cellText(cells, 1),
		Subject:     cellText(cells, 2),
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		DetailURL:   detailURL,
	}, true
}

// nextPageURL resolves the "Avanti" control. An absent or disabled
// control means pagination is over.
func (s *Source) nextPageURL(pagination *goquery.Selection) string {
	next := ""
	pagination.Find("li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
		if li.HasClass("disabled") {
			return true
		}
		anchor := li.Find("a")
		if !strings.Contains(anchor.Text(), nextLabel) {
			return true
		}
		if href, ok := anchor.Attr("href"); ok && href != "" {
			next = s.absoluteURL(href)
			return false
		}
		return true
	})
	return next
}

// advance decides what happens after a page is fully parsed: stop on an
// empty page, stop when pagination ends, otherwise follow the next link.
func (s *Source) advance(state *traversal, r *colly.Response) {
	metrics.ObservePages(1)
	if state.rowsOnPage == 0 {
		s.logger.Info("no rows on page, stopping traversal", zap.Int("page", state.page))
		return
	}
	if state.nextURL == "" {
		s.logger.Debug("no next page control, traversal complete", zap.Int("page", state.page))
		return
	}
	if state.page >= s.cfg.MaxPages {
		s.logger.Warn("page limit reached, stopping traversal",
			zap.Int("page", state.page),
			zap.Int("max_pages", s.cfg.MaxPages),
		)
		return
	}

	state.page++
	next := state.nextURL
	if err := r.Request.Visit(next); err != nil {
		s.logger.Error("listing fetch failed",
			zap.String("url", next),
			zap.Int("page", state.page),
			zap.Error(err),
		)
		state.fetchErr = err
	}
}

// handleError retries a failed page fetch a bounded number of times, then
// records the failure so the caller can distinguish it from the normal
// end of pagination.
func (s *Source) handleError(state *traversal, r *colly.Response, err error) {
	pageURL := r.Request.URL.String()
	state.attempts[pageURL]++

	if state.attempts[pageURL] <= s.cfg.MaxRetries {
		s.logger.Warn("page fetch failed, retrying",
			zap.String("url", pageURL),
			zap.Int("page", state.page),
			zap.Int("attempt", state.attempts[pageURL]),
			zap.Error(err),
		)
		if rerr := r.Request.Retry(); rerr != nil {
			state.fetchErr = rerr
		}
		return
	}

	s.logger.Error("listing fetch failed",
		zap.String("url", pageURL),
		zap.Int("page", state.page),
		zap.Int("status_code", r.StatusCode),
		zap.Error(err),
	)
	state.fetchErr = err
}

func (s *Source) absoluteURL(href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return s.base.ResolveReference(ref).String()
}

func cellText(cells *goquery.Selection, i int) string {
	return strings.TrimSpace(cells.Eq(i).Text())
}

// splitPeriod separates the date range cell into start and end dates.
func splitPeriod(text string) (string, string) {
	parts := strings.Fields(text)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], parts[1]
	}
}
