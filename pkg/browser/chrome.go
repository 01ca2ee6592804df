// Package browser renders JavaScript-heavy pages with headless Chrome.
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromeRenderer loads a page in a fresh headless Chrome and returns the rendered HTML.
type ChromeRenderer struct {
	ExecPath    string
	UserAgent   string
	PageTimeout time.Duration
}

// Render navigates to rawURL and returns the outer HTML of the document. The browser
// process is torn down before Render returns.
func (r ChromeRenderer) Render(ctx context.Context, rawURL string) (string, error) {
	if err := checkURL(rawURL); err != nil {
		return "", err
	}

	timeout := r.PageTimeout
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, r.allocatorOptions()...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	var html string
	if err := chromedp.Run(tabCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return "", fmt.Errorf("render %s: %w", rawURL, err)
	}
	return html, nil
}

func (r ChromeRenderer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", true),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if p := strings.TrimSpace(r.ExecPath); p != "" {
		opts = append(opts, chromedp.ExecPath(p))
	}
	if ua := strings.TrimSpace(r.UserAgent); ua != "" {
		opts = append(opts, chromedp.UserAgent(ua))
	}
	return opts
}

func checkURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return errors.New("render: url is empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("render: invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("render: refusing url with scheme %q (only http/https allowed)", u.Scheme)
	}
	return nil
}
