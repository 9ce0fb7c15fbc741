// Package pages keeps one-shot snapshots of the station's schedule and
// programs pages.
package pages

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrFetch reports a transport failure or non-200 response for a page.
var ErrFetch = errors.New("page fetch failed")

// DefaultProgramsSelector matches the programs listing on the station site.
const DefaultProgramsSelector = `[data-elementor-id="4947"]`

const (
	pageRequestTimeout = 20 * time.Second
	maxPageBytes       = 8 << 20
)

// Page identifies one of the two cache slots.
type Page int

const (
	PageSchedule Page = iota
	PagePrograms
	pageCount
)

func (p Page) String() string {
	switch p {
	case PageSchedule:
		return "schedule"
	case PagePrograms:
		return "programs"
	default:
		return fmt.Sprintf("page(%d)", int(p))
	}
}

// Options configures a Cache.
type Options struct {
	ScheduleURL      string
	ProgramsURL      string
	ProgramsSelector string
	UserAgent        string
	Logger           zerolog.Logger
	// Client defaults to an http.Client with no overall timeout; each request
	// carries its own.
	Client *http.Client
	// Now picks the schedule day. Defaults to time.Now.
	Now func() time.Time
}

// Cache holds the extracted HTML for each page. It has no expiry: a slot is
// filled once and kept for the life of the process.
type Cache struct {
	opts Options
	log  zerolog.Logger

	mu    sync.RWMutex
	slots [pageCount]string
	ready [pageCount]bool
}

// New creates an empty cache.
func New(opts Options) *Cache {
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ProgramsSelector == "" {
		opts.ProgramsSelector = DefaultProgramsSelector
	}
	return &Cache{
		opts: opts,
		log:  opts.Logger.With().Str("component", "pages").Logger(),
	}
}

// Prefetch fills both slots concurrently and waits for both. Failures are logged.
func (c *Cache) Prefetch(ctx context.Context) {
	var wg sync.WaitGroup
	for p := PageSchedule; p < pageCount; p++ {
		wg.Add(1)
		go func(p Page) {
			defer wg.Done()
			if err := c.PrefetchPage(ctx, p); err != nil {
				c.log.Warn().Err(err).Stringer("page", p).Msg("prefetch failed")
			}
		}(p)
	}
	wg.Wait()
}

// PrefetchPage fetches and extracts one page, storing the result.
func (c *Cache) PrefetchPage(ctx context.Context, page Page) error {
	doc, err := c.fetch(ctx, page)
	if err != nil {
		return err
	}
	c.store(page, doc)
	c.log.Info().Stringer("page", page).Int("bytes", len(doc)).Msg("page cached")
	return nil
}

// Get returns the cached document for page.
func (c *Cache) Get(page Page) (string, bool) {
	if page < 0 || page >= pageCount {
		return "", false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.slots[page], c.ready[page]
}

// Ready reports whether page has been cached.
func (c *Cache) Ready(page Page) bool {
	_, ok := c.Get(page)
	return ok
}

// Load returns the cached document, falling back to a live fetch that is then
// stored.
func (c *Cache) Load(ctx context.Context, page Page) (string, error) {
	if doc, ok := c.Get(page); ok {
		return doc, nil
	}
	if err := c.PrefetchPage(ctx, page); err != nil {
		return "", err
	}
	doc, _ := c.Get(page)
	return doc, nil
}

func (c *Cache) store(page Page, doc string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots[page] = doc
	c.ready[page] = true
}

func (c *Cache) fetch(ctx context.Context, page Page) (string, error) {
	var url string
	switch page {
	case PageSchedule:
		url = c.opts.ScheduleURL
	case PagePrograms:
		url = c.opts.ProgramsURL
	default:
		return "", fmt.Errorf("unknown page %d", int(page))
	}

	ctx, cancel := context.WithTimeout(ctx, pageRequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %w", ErrFetch, err)
	}
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}

	resp, err := c.opts.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: failed to fetch %s: %w", ErrFetch, page, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: unexpected status code for %s: %d", ErrFetch, page, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("%w: failed to read %s: %w", ErrFetch, page, err)
	}

	var doc string
	if page == PageSchedule {
		day := ItalianWeekday(c.opts.Now())
		doc, err = ExtractSchedule(bytes.NewReader(body), day)
		if err != nil {
			return "", fmt.Errorf("failed to extract schedule for %s: %w", day, err)
		}
	} else {
		doc, err = ExtractPrograms(bytes.NewReader(body), c.opts.ProgramsSelector)
		if err != nil {
			return "", fmt.Errorf("failed to extract programs: %w", err)
		}
	}
	return doc, nil
}
