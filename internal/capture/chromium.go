package capture

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"
)

// Default capture parameters for the week board. The landscape viewport
// matches the wall display in the packaging hall.
const (
	DefaultWidth      = 1920
	DefaultHeight     = 1080
	DefaultTimeoutSec = 30
)

// Options defines parameters for a Chromium-based board snapshot.
type Options struct {
	// URL to capture, e.g. "http://127.0.0.1:8080/board".
	URL string

	// OutputPath is where the PNG will be written, e.g.
	// "/var/lib/planboard/preview.png".
	OutputPath string

	// Width and Height are the viewport dimensions in pixels. If zero,
	// DefaultWidth / DefaultHeight are used.
	Width  int
	Height int

	// Timeout bounds the entire capture operation.
	Timeout time.Duration
}

// BoardPNG launches a headless Chromium via chromedp, navigates to the board,
// waits for the page to signal readiness through the data-ready attribute,
// and writes a PNG snapshot. The wall display and /preview.png serve this
// file; a failed capture leaves the previous snapshot in place.
func BoardPNG(parentCtx context.Context, opts Options) error {
	if opts.URL == "" {
		return fmt.Errorf("capture: URL is required")
	}
	if opts.OutputPath == "" {
		return fmt.Errorf("capture: OutputPath is required")
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Duration(DefaultTimeoutSec) * time.Second
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(`[data-ready="true"]`, chromedp.ByQuery),
		// Small extra delay to allow final paints.
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	tmp := opts.OutputPath + ".tmp"
	if err := os.WriteFile(tmp, png, 0o644); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}
	if err := os.Rename(tmp, opts.OutputPath); err != nil {
		return fmt.Errorf("capture: failed to publish PNG: %w", err)
	}
	return nil
}
