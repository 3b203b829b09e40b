package snapshot

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"credit-dashboard/utils"
)

type browser struct {
	ctx context.Context
}

// newBrowser starts one headless Chrome shared by every capture of a run.
func newBrowser(parent context.Context, chromeBin string, logger *utils.Logger) (*browser, func()) {
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	logger.Info("[snapshot] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.WindowSize(1280, 900),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	return &browser{ctx: browserCtx}, func() {
		cancelBrowser()
		cancelAlloc()
	}
}

func (b *browser) shoot(timeout time.Duration) ShootFunc {
	return func(ctx context.Context, url string) ([]byte, error) {
		tabCtx, cancel := chromedp.NewContext(b.ctx)
		defer cancel()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, timeout)
		defer cancelTimeout()

		stop := context.AfterFunc(ctx, cancel)
		defer stop()

		var png []byte
		err := chromedp.Run(tabCtx,
			chromedp.Navigate(url),
			chromedp.WaitVisible("body", chromedp.ByQuery),
			chromedp.FullScreenshot(&png, 100),
		)
		if err != nil {
			return nil, fmt.Errorf("capture %s: %w", url, err)
		}
		return png, nil
	}
}

func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
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
