// Package fetcher loads problem pages over HTTP with a headless Chrome fallback.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// FetchResult contains the fetched HTML and metadata.
type FetchResult struct {
	HTML        string
	FinalURL    string // URL after following redirects
	UsedBrowser bool
	FetchTime   time.Duration
}

// Options configures the fetcher behavior.
type Options struct {
	UserAgent      string
	TimeoutSeconds int
	ChromePath     string // Path to Chrome binary (empty = auto-detect)
	AlwaysRender   bool   // Skip plain HTTP and load every page in Chrome
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		UserAgent:      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		TimeoutSeconds: 30,
	}
}

// StatusError reports a non-2xx response to a plain HTTP fetch.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Fetcher fetches pages. The zero value is not usable; call New.
type Fetcher struct {
	opts   Options
	client *http.Client
	logger *zap.Logger

	// render is Render unless replaced in tests.
	render func(ctx context.Context, url string) (*FetchResult, error)
}

// New creates a Fetcher. Zero fields in o fall back to DefaultOptions.
func New(o Options, logger *zap.Logger) *Fetcher {
	d := DefaultOptions()
	if o.UserAgent == "" {
		o.UserAgent = d.UserAgent
	}
	if o.TimeoutSeconds <= 0 {
		o.TimeoutSeconds = d.TimeoutSeconds
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Fetcher{
		opts:   o,
		client: &http.Client{Timeout: time.Duration(o.TimeoutSeconds) * time.Second},
		logger: logger,
	}
	f.render = f.Render
	return f
}

// Timeout returns the configured timeout for a plain HTTP fetch.
func (f *Fetcher) Timeout() time.Duration {
	return time.Duration(f.opts.TimeoutSeconds) * time.Second
}

// userDataDir returns a persistent directory for Chrome user data.
// This allows cookies and other session data to persist between fetches.
func userDataDir() string {
	dir, _ := os.UserCacheDir()
	return filepath.Join(dir, "companion-chrome-profile")
}

// Simple fetches a URL using standard HTTP (fast, low bandwidth).
func (f *Fetcher) Simple(ctx context.Context, url string) (*FetchResult, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	f.logger.Debug("fetched page",
		zap.String("url", url),
		zap.Int("bytes", len(body)),
		zap.Duration("took", time.Since(start)))

	return &FetchResult{
		HTML:      string(body),
		FinalURL:  resp.Request.URL.String(),
		FetchTime: time.Since(start),
	}, nil
}

// stealthScript masks the most common headless Chrome tells.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', {
    get: () => undefined,
});

window.chrome = {
    runtime: {},
    loadTimes: function() {},
    csi: function() {},
    app: {},
};

Object.defineProperty(navigator, 'languages', {
    get: () => ['en-US', 'en'],
});

Object.defineProperty(navigator, 'plugins', {
    get: () => [
        { name: 'Chrome PDF Plugin', filename: 'internal-pdf-viewer', description: 'Portable Document Format' },
        { name: 'Chrome PDF Viewer', filename: 'mhjfbmdgcfjbbpaeojofohoefgiehjai', description: '' },
    ],
});
`

// Render loads a URL in headless Chrome and returns the DOM after scripts
// have run. Judges that fill the statement in client side, or sit behind a
// Cloudflare challenge, need this path.
func (f *Fetcher) Render(ctx context.Context, targetURL string) (*FetchResult, error) {
	start := time.Now()

	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoFirstRun,
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("exclude-switches", "enable-automation"),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-component-update", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("password-store", "basic"),
		chromedp.Flag("use-mock-keychain", true),
		chromedp.UserAgent(f.opts.UserAgent),
		chromedp.WindowSize(1280, 1024),
		chromedp.UserDataDir(userDataDir()),
	}
	if f.opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(f.opts.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer allocCancel()

	// Browser fetches get extra time for startup and challenges.
	timeout := f.Timeout() + 15*time.Second
	ctx, cancel := context.WithTimeout(allocCtx, timeout)
	defer cancel()

	ctx, cancel = chromedp.NewContext(ctx)
	defer cancel()

	var html, finalURL string
	err := chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
		network.SetExtraHTTPHeaders(network.Headers(map[string]interface{}{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
		})),
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(time.Second),
		// Cloudflare interstitials resolve on their own given a few seconds.
		chromedp.ActionFunc(func(ctx context.Context) error {
			var title string
			if err := chromedp.Title(&title).Do(ctx); err != nil {
				return nil
			}
			if title == "Just a moment..." {
				f.logger.Debug("waiting out challenge page", zap.String("url", targetURL))
				return chromedp.Sleep(5 * time.Second).Do(ctx)
			}
			return nil
		}),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Location(&finalURL),
	)
	if err != nil {
		return nil, fmt.Errorf("browser fetch: %w", err)
	}

	f.logger.Debug("rendered page",
		zap.String("url", targetURL),
		zap.Int("bytes", len(html)),
		zap.Duration("took", time.Since(start)))

	return &FetchResult{
		HTML:        html,
		FinalURL:    finalURL,
		UsedBrowser: true,
		FetchTime:   time.Since(start),
	}, nil
}

// IsBlockedResponse checks if the HTML is a bot challenge rather than the
// requested page.
func IsBlockedResponse(html string) (bool, string) {
	switch {
	case strings.Contains(html, "Just a moment..."),
		strings.Contains(html, "Checking your browser"),
		strings.Contains(html, "cf-browser-verification"),
		strings.Contains(html, "cf-challenge"):
		return true, "Cloudflare challenge"
	case strings.Contains(html, "captcha-delivery.com"):
		return true, "DataDome bot protection"
	case strings.Contains(html, "recaptcha") && len(html) < 10000:
		return true, "reCAPTCHA challenge"
	}
	return false, ""
}

// Smart fetches a URL using the best available method: plain HTTP first,
// then headless Chrome when the request fails or comes back as a challenge.
func (f *Fetcher) Smart(ctx context.Context, targetURL string) (*FetchResult, error) {
	if f.opts.AlwaysRender {
		return f.render(ctx, targetURL)
	}

	result, err := f.Simple(ctx, targetURL)
	if err == nil {
		blocked, reason := IsBlockedResponse(result.HTML)
		if !blocked {
			return result, nil
		}
		f.logger.Info("plain fetch was challenged, rendering", zap.String("reason", reason))
	} else {
		if ctx.Err() != nil {
			return nil, err
		}
		f.logger.Info("plain fetch failed, rendering", zap.Error(err))
	}

	result, err = f.render(ctx, targetURL)
	if err != nil {
		return nil, err
	}
	if blocked, reason := IsBlockedResponse(result.HTML); blocked {
		return result, fmt.Errorf("blocked: %s", reason)
	}
	return result, nil
}
