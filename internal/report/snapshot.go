package report

import (
	"context"
	"encoding/base64"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	snapshotTimeout = 25 * time.Second
	// Echarts animates series in after the canvases appear; a short
	// settle after the paint poll avoids capturing mid-animation.
	renderSettle = 400 * time.Millisecond
)

var (
	headlessOnce sync.Once
	headlessErr  error
)

// EnsureHeadlessAvailable probes once for a usable headless browser.
func EnsureHeadlessAvailable(ctx context.Context) error {
	headlessOnce.Do(func() {
		if ctx == nil {
			ctx = context.Background()
		}
		probe, cancel := chromedp.NewContext(ctx)
		defer cancel()
		headlessErr = chromedp.Run(probe)
	})
	return headlessErr
}

// SnapshotPNG screenshots a rendered report page. The page draws every
// chart onto a canvas element, so the capture waits until all canvases
// have laid out and painted rather than sleeping a fixed delay.
func SnapshotPNG(ctx context.Context, html []byte, width, height int) ([]byte, error) {
	if err := EnsureHeadlessAvailable(ctx); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	browser, cancel := chromedp.NewContext(ctx)
	defer cancel()
	timeoutCtx, cancelTimeout := context.WithTimeout(browser, snapshotTimeout)
	defer cancelTimeout()

	dataURI := "data:text/html;base64," + base64.StdEncoding.EncodeToString(html)
	var painted bool
	var screenshot []byte
	err := chromedp.Run(timeoutCtx, chromedp.Tasks{
		chromedp.EmulateViewport(int64(width), int64(height)),
		chromedp.Navigate(dataURI),
		chromedp.Poll(
			`document.querySelectorAll("canvas").length > 0 &&
			 Array.from(document.querySelectorAll("canvas")).every(c => c.width > 0 && c.height > 0)`,
			&painted,
			chromedp.WithPollingTimeout(15*time.Second),
		),
		chromedp.Sleep(renderSettle),
		// Quality 100 keeps the capture as PNG.
		chromedp.FullScreenshot(&screenshot, 100),
	})
	if err != nil {
		return nil, err
	}
	return screenshot, nil
}
