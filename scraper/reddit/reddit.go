package reddit

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"reddit-insights/config"
	"reddit-insights/models"
	"reddit-insights/utils"
)

const (
	baseURL = "https://old.reddit.com"
	source  = "scrape"
)

// Scraper collects post listings from old-reddit subreddit pages. It is the
// ingestion collaborator used when no snapshot CSV is configured; the
// analysis core never depends on it.
type Scraper struct {
	cfg     *config.Config
	logger  *utils.Logger
	pool    *utils.WorkerPool
	seenIDs *utils.SeenSet
	retry   *utils.RetryConfig

	mu    sync.Mutex
	posts []*models.RawPost
}

// New creates a ready-to-use reddit Scraper.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	return &Scraper{
		cfg:     cfg,
		logger:  logger,
		pool:    utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs),
		seenIDs: utils.NewSeenSet(),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		posts: make([]*models.RawPost, 0),
	}
}

// Scrape walks the configured subreddits in parallel, paging through each
// listing, and returns the collected raw posts.
func (s *Scraper) Scrape() ([]*models.RawPost, error) {
	s.logger.Info("[reddit] Starting scrape — %d subreddits, %d pages each",
		len(s.cfg.Subreddits), s.cfg.PagesToScrape)

	chromeBin := findChromeBinary(s.cfg.ChromeBin)
	s.logger.Info("[reddit] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	silentCtx, cancelSilent := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelSilent()
	allocCtx = silentCtx

	for _, sub := range s.cfg.Subreddits {
		subreddit := sub
		s.pool.Submit(func() {
			s.scrapeSubreddit(allocCtx, subreddit)
		})
	}
	s.pool.Wait()

	s.logger.Info("[reddit] Scrape complete — total raw posts: %d", len(s.posts))
	return s.posts, nil
}

// scrapeSubreddit pages through one subreddit's listing, following the
// next-button link until the page budget runs out.
func (s *Scraper) scrapeSubreddit(allocCtx context.Context, subreddit string) {
	currentURL := fmt.Sprintf("%s/r/%s/", baseURL, subreddit)

	for page := 1; page <= s.cfg.PagesToScrape; page++ {
		s.logger.Info("[reddit] r/%s page %d — URL: %s", subreddit, page, currentURL)

		posts, nextURL, err := s.scrapePage(allocCtx, currentURL, subreddit, page)
		if err != nil {
			s.logger.Error("[reddit] r/%s page %d failed: %v", subreddit, page, err)
			return
		}
		if len(posts) == 0 {
			s.logger.Warn("[reddit] r/%s page %d returned 0 posts — stopping", subreddit, page)
			return
		}

		s.mu.Lock()
		s.posts = append(s.posts, posts...)
		total := len(s.posts)
		s.mu.Unlock()

		s.logger.Info("[reddit] r/%s page %d done — %d posts collected overall", subreddit, page, total)

		if nextURL == "" {
			return
		}
		currentURL = nextURL
		time.Sleep(time.Duration(s.cfg.RateLimitMs) * time.Millisecond)
	}
}

// scrapePage loads one listing page and extracts its posts.
func (s *Scraper) scrapePage(allocCtx context.Context, pageURL, subreddit string, pageNum int) ([]*models.RawPost, string, error) {
	var rawPosts []*models.RawPost
	var nextURL string

	err := s.retry.Do(fmt.Sprintf("scrape-%s-page-%d", subreddit, pageNum), func() error {
		ctx, cancel := chromedp.NewContext(allocCtx)
		defer cancel()

		ctx, cancelTimeout := context.WithTimeout(ctx, 60*time.Second)
		defer cancelTimeout()

		type thingData struct {
			ID          string `json:"id"`
			Title       string `json:"title"`
			Score       string `json:"score"`
			Subreddit   string `json:"subreddit"`
			Stickied    string `json:"stickied"`
			Over18      string `json:"over18"`
			NumComments string `json:"numComments"`
			Gilded      string `json:"gilded"`
			CreatedMs   string `json:"createdMs"`
		}

		var things []thingData
		var nextPageURL string

		err := chromedp.Run(ctx,
			chromedp.Navigate(pageURL),
			chromedp.Sleep(3*time.Second),

			// Each post on an old-reddit listing page is a div.thing with
			// its metadata in data attributes and CSS classes.
			chromedp.Evaluate(`
				(function() {
					var results = [];
					var things = document.querySelectorAll('#siteTable div.thing[data-fullname]');
					for (var i = 0; i < things.length; i++) {
						var el = things[i];
						if (el.classList.contains('promoted')) continue;

						var titleEl = el.querySelector('a.title');
						var scoreEl = el.querySelector('div.score.unvoted');
						var timeEl  = el.querySelector('time[datetime]');
						var cmtEl   = el.querySelector('a.comments');

						var score = '';
						if (scoreEl) {
							score = scoreEl.getAttribute('title') || scoreEl.innerText.trim();
							if (score === '•') score = '';
						}

						var comments = '';
						if (cmtEl) {
							var m = cmtEl.innerText.match(/(\d+)/);
							comments = m ? m[1] : '0';
						}

						var gildEl = el.querySelector('span.gilded-count');
						var gilded = gildEl ? (gildEl.innerText.trim() || '1') : '0';

						var createdMs = el.getAttribute('data-timestamp') || '';
						if (!createdMs && timeEl) {
							createdMs = String(Date.parse(timeEl.getAttribute('datetime')) || '');
						}

						results.push({
							id:          el.getAttribute('data-fullname') || '',
							title:       titleEl ? titleEl.innerText.trim() : '',
							score:       score,
							subreddit:   el.getAttribute('data-subreddit') || '',
							stickied:    el.classList.contains('stickied') ? 'true' : 'false',
							over18:      el.classList.contains('over18') ? 'true' : 'false',
							numComments: comments,
							gilded:      gilded,
							createdMs:   createdMs
						});
					}
					return results;
				})()
			`, &things),

			// The next-button anchor carries the after= cursor.
			chromedp.Evaluate(`
				(function() {
					var next = document.querySelector('span.next-button a');
					return next && next.href ? next.href : '';
				})()
			`, &nextPageURL),
		)

		if err != nil {
			return fmt.Errorf("chromedp page scrape: %w", err)
		}

		s.logger.Debug("[reddit] r/%s page %d — found %d things", subreddit, pageNum, len(things))

		now := time.Now()
		for _, t := range things {
			if t.ID == "" || t.Title == "" {
				continue
			}
			if !s.seenIDs.Add(t.ID) {
				s.logger.Debug("[reddit] Skipping duplicate: %s", t.ID)
				continue
			}

			sub := t.Subreddit
			if sub == "" {
				sub = subreddit
			}
			// Score hidden during the voting-fuzz window: keep the record,
			// flag it, and let the cleaner decide.
			hideScore := "false"
			if t.Score == "" {
				hideScore = "true"
			}

			rawPosts = append(rawPosts, &models.RawPost{
				ID:          t.ID,
				Title:       t.Title,
				Score:       t.Score,
				Subreddit:   sub,
				Stickied:    t.Stickied,
				Over18:      t.Over18,
				HideScore:   hideScore,
				NumComments: t.NumComments,
				Gilded:      t.Gilded,
				CreatedUTC:  msToSeconds(t.CreatedMs),
				RetrievedOn: strconv.FormatInt(now.Unix(), 10),
				ScrapedAt:   now,
				Source:      source,
			})
		}

		nextURL = nextPageURL
		return nil
	})

	return rawPosts, nextURL, err
}

// msToSeconds converts a millisecond epoch string to seconds, passing
// through anything unparseable for the cleaner to reject.
func msToSeconds(ms string) string {
	n, err := strconv.ParseInt(ms, 10, 64)
	if err != nil {
		return ms
	}
	return strconv.FormatInt(n/1000, 10)
}

// findChromeBinary locates a Chrome/Chromium binary, preferring the
// configured path.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
