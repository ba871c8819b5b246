package infrastructure

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Browser is one headless Chrome process shared by the renderer and the
// measurer. Each caller works in its own tab.
type Browser struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewBrowser starts headless Chrome. chromePath may be empty to use the
// default lookup.
func NewBrowser(ctx context.Context, chromePath string) (*Browser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	bctx, cancelBrowser := chromedp.NewContext(allocCtx)
	// the first Run starts the browser
	if err := chromedp.Run(bctx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	return &Browser{
		ctx: bctx,
		cancel: func() {
			cancelBrowser()
			cancelAlloc()
		},
	}, nil
}

// tab opens a new tab. The returned cancel closes it.
func (b *Browser) tab() (context.Context, context.CancelFunc) {
	return chromedp.NewContext(b.ctx)
}

// Close shuts the browser down.
func (b *Browser) Close() {
	b.cancel()
}

// setContent replaces the current document of the tab with html.
func setContent(html string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		tree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return err
		}
		return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
	})
}
