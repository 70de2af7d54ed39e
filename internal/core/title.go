package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/seckatie/linkindex/internal/core/db"
	"github.com/seckatie/linkindex/internal/errors"
	"github.com/seckatie/linkindex/internal/logging"
)

// TitleOptions controls how a snapshot page is rendered to read its title.
//
// A real Chrome/Chromium browser is driven over the DevTools protocol so that
// pages which set their title from JS still report it.
type TitleOptions struct {
	// ChromePath optionally overrides the Chrome/Chromium executable path.
	ChromePath string
	// Headless controls whether Chrome runs without a visible window.
	Headless bool
	// Timeout is the per-page deadline. If <= 0, DefaultTitleTimeout is used.
	Timeout time.Duration
	// WaitSelector optionally waits for a CSS selector to become visible.
	WaitSelector string
}

// TitleResult is what a page render produced.
type TitleResult struct {
	// FinalURL is the browser's URL after redirects.
	FinalURL string
	Title    string
}

// TitleFetcher renders url and returns its title.
type TitleFetcher func(ctx context.Context, url string, opts TitleOptions) (TitleResult, error)

// TitleRunOptions describes a title run: a single snapshot by ID, or a batch of
// untitled snapshots.
type TitleRunOptions struct {
	// ID, if set, fetches only the snapshot with this ID.
	ID string
	// Limit bounds the batch size. If <= 0, every untitled snapshot is fetched.
	Limit   int
	Options TitleOptions
	// Fetch defaults to FetchTitle.
	Fetch TitleFetcher
}

// TitleRunResult reports the outcome of a title run.
type TitleRunResult struct {
	Attempted int
	Succeeded int
	Failed    int
}

// FetchTitle loads url in Chrome, waits for the network to go idle and reads
// document.title. Pages with a blank document.title fall back to the <title>
// element of the rendered HTML.
func FetchTitle(ctx context.Context, url string, opts TitleOptions) (TitleResult, error) {
	log := logging.FromContext(ctx)
	log.Debug().Str("url", url).Interface("opts", opts).Msg("Fetching title")
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTitleTimeout
	}

	allocatorOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocatorOpts = append(allocatorOpts,
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoFirstRun,
		chromedp.UserAgent(UserAgent),
	)
	if opts.ChromePath != "" {
		allocatorOpts = append(allocatorOpts, chromedp.ExecPath(opts.ChromePath))
	}
	if opts.Headless {
		allocatorOpts = append(allocatorOpts, chromedp.Headless)
	} else {
		allocatorOpts = append(allocatorOpts, chromedp.Flag("headless", false))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOpts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, opts.Timeout)
	defer cancelRun()

	var html, title, finalURL string

	waitForNetworkIdle := func(ctx context.Context) error {
		if err := page.SetLifecycleEventsEnabled(true).Do(ctx); err != nil {
			return err
		}

		ch := make(chan struct{})
		chromedp.ListenTarget(ctx, func(ev interface{}) {
			if e, ok := ev.(*page.EventLifecycleEvent); ok && e.Name == "networkIdle" {
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		})

		if err := chromedp.Navigate(url).Do(ctx); err != nil {
			return err
		}

		select {
		case <-ch:
			log.Debug().Str("url", url).Msg("Network idle reached")
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	}

	actions := []chromedp.Action{
		chromedp.ActionFunc(waitForNetworkIdle),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if strings.TrimSpace(opts.WaitSelector) != "" {
		actions = append(actions, chromedp.WaitVisible(opts.WaitSelector, chromedp.ByQuery))
	}
	actions = append(actions,
		chromedp.Sleep(DefaultNetworkIdleDelay),
		chromedp.Location(&finalURL),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)

	if err := chromedp.Run(runCtx, actions...); err != nil {
		return TitleResult{}, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = TitleFromHTML(html)
	}
	return TitleResult{FinalURL: finalURL, Title: title}, nil
}

// TitleFromHTML returns the text of the first <title> element, or "".
func TitleFromHTML(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find(`meta[property="og:title"]`).AttrOr("content", ""))
	}
	return strings.Join(strings.Fields(title), " ")
}

// FillTitle fetches the title for s and stores it.
func FillTitle(ctx context.Context, database *db.DB, s db.Snapshot, opts TitleOptions, fetch TitleFetcher) error {
	if fetch == nil {
		fetch = FetchTitle
	}
	res, err := fetch(ctx, s.URL, opts)
	if err != nil {
		return fmt.Errorf("failed to fetch title for %s: %w", s.URL, err)
	}
	if res.Title == "" {
		return fmt.Errorf("no title found for %s", s.URL)
	}
	if err := database.SetSnapshotTitle(s.ID, res.Title); err != nil {
		return err
	}
	logging.FromContext(ctx).Info().Str("id", s.ID).Str("url", s.URL).Str("title", res.Title).Msg("Saved title")
	return nil
}

// RunTitles is the top-level title workflow.
//
// It supports single-snapshot mode (opts.ID set) and batch mode over snapshots
// whose title is empty. It returns an error if any fetch failed.
func RunTitles(ctx context.Context, database *db.DB, opts TitleRunOptions) (TitleRunResult, error) {
	log := logging.FromContext(ctx)

	if opts.ID != "" {
		s, err := database.GetSnapshot(opts.ID)
		if err != nil {
			return TitleRunResult{}, err
		}
		if err := FillTitle(ctx, database, s, opts.Options, opts.Fetch); err != nil {
			return TitleRunResult{Attempted: 1, Failed: 1}, err
		}
		return TitleRunResult{Attempted: 1, Succeeded: 1}, nil
	}

	snapshots, err := database.ListSnapshotsWithoutTitle(opts.Limit)
	if err != nil {
		return TitleRunResult{}, err
	}
	if len(snapshots) == 0 {
		log.Info().Msg("No snapshots without a title.")
		return TitleRunResult{}, nil
	}

	log.Info().Int("count", len(snapshots)).Msg("Fetching titles")
	var res TitleRunResult
	for _, s := range snapshots {
		if ctx.Err() != nil {
			break
		}
		res.Attempted++
		if err := FillTitle(ctx, database, s, opts.Options, opts.Fetch); err != nil {
			res.Failed++
			log.Warn().Err(err).Str("id", s.ID).Str("url", s.URL).Msg("Title fetch failed")
			continue
		}
		res.Succeeded++
	}

	if res.Failed > 0 {
		return res, fmt.Errorf("title run finished with %d failure(s)", res.Failed)
	}
	log.Info().Msg("Title run finished successfully.")
	return res, ctx.Err()
}

// TitleWorkers fetch titles for untitled snapshots in the background.
//
// Snapshots arrive two ways: SnapshotCreatedEvent from writes made through the
// same *db.DB, and Poll, which picks up rows written by other processes such
// as the update command. A snapshot is queued at most once at a time, and one
// whose fetch failed is not retried until the process restarts.
type TitleWorkers struct {
	database *db.DB
	opts     TitleOptions
	fetch    TitleFetcher
	queue    chan db.Snapshot
	wg       sync.WaitGroup

	mu      sync.Mutex
	pending map[string]struct{}
	failed  map[string]struct{}
}

// NewTitleWorkers registers a SnapshotCreatedEvent listener on database that
// queues every new untitled snapshot. Call Start to begin draining the queue.
func NewTitleWorkers(database *db.DB, opts TitleOptions, fetch TitleFetcher, queueSize int) *TitleWorkers {
	if queueSize <= 0 {
		queueSize = DefaultTitleQueueSize
	}
	w := &TitleWorkers{
		database: database,
		opts:     opts,
		fetch:    fetch,
		queue:    make(chan db.Snapshot, queueSize),
		pending:  make(map[string]struct{}),
		failed:   make(map[string]struct{}),
	}
	database.RegisterEventListener(db.OnSnapshotCreatedEvent, func(event db.Event) error {
		ev := event.(db.SnapshotCreatedEvent)
		if !w.enqueue(ev.Snapshot) {
			return fmt.Errorf("title queue full, dropping %s", ev.Snapshot.URL)
		}
		return nil
	})
	return w
}

// enqueue reports false only when s needed a title and the queue was full.
func (w *TitleWorkers) enqueue(s db.Snapshot) bool {
	if s.Title != "" {
		return true
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.pending[s.ID]; ok {
		return true
	}
	if _, ok := w.failed[s.ID]; ok {
		return true
	}
	select {
	case w.queue <- s:
		w.pending[s.ID] = struct{}{}
		return true
	default:
		return false
	}
}

func (w *TitleWorkers) done(id string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.pending, id)
	if err != nil {
		w.failed[id] = struct{}{}
	}
}

// Start runs n workers until ctx is cancelled.
func (w *TitleWorkers) Start(ctx context.Context, n int) {
	if n <= 0 {
		n = DefaultTitleWorkers
	}
	log := logging.FromContext(ctx)
	for i := 0; i < n; i++ {
		w.wg.Add(1)
		go func(worker int) {
			defer w.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case s := <-w.queue:
					err := w.fill(ctx, s)
					if err != nil {
						log.Warn().Err(err).Int("worker", worker).Str("id", s.ID).Msg("Title fetch failed")
					}
					w.done(s.ID, err)
				}
			}
		}(i)
	}
}

// fill re-reads s first: a poll may queue a row whose title was saved, or
// which was deleted, after the scan listed it.
func (w *TitleWorkers) fill(ctx context.Context, s db.Snapshot) error {
	cur, err := w.database.GetSnapshot(s.ID)
	if errors.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if cur.Title != "" {
		return nil
	}
	return FillTitle(ctx, w.database, cur, w.opts, w.fetch)
}

// Poll scans for untitled snapshots immediately and then every interval until
// ctx is cancelled. If interval <= 0, DefaultTitlePollInterval is used.
func (w *TitleWorkers) Poll(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultTitlePollInterval
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			w.scan(ctx)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func (w *TitleWorkers) scan(ctx context.Context) {
	log := logging.FromContext(ctx)
	snapshots, err := w.database.ListSnapshotsWithoutTitle(0)
	if err != nil {
		log.Warn().Err(err).Msg("Listing untitled snapshots failed")
		return
	}
	for _, s := range snapshots {
		if ctx.Err() != nil {
			return
		}
		if !w.enqueue(s) {
			log.Debug().Str("id", s.ID).Msg("Title queue full, deferring to next poll")
			return
		}
	}
}

// Wait blocks until every worker and the poller have exited.
func (w *TitleWorkers) Wait() {
	w.wg.Wait()
}
